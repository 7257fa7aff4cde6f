package config

import (
	"SentriSafe/pkg/logger"
	"SentriSafe/pkg/util"
	"log"
	"os"
)

type Config struct {
	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`
	Addr     string `env:"ADDR"`
	Mode     string `env:"MODE"`
	Log      logger.LogConfig

	SessionSecret string `env:"SESSION_SECRET"`

	// 缓存
	CacheType     string `env:"CACHE_TYPE"` // local | redis
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	// GeoIP 数据库路径，留空时禁用 IP 定位回退
	GeoIPPath string `env:"GEOIP_PATH"`

	// 录音对象存储
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL"`

	// 已读警报保留天数，0 表示不清理
	AlertRetentionDays int    `env:"ALERT_RETENTION_DAYS"`
	RetentionSchedule  string `env:"RETENTION_SCHEDULE"`

	// 限流，如 "100-M"
	RateLimit string `env:"RATE_LIMIT"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		DBDriver: util.GetEnv("DB_DRIVER", "sqlite"),
		DSN:      util.GetEnv("DSN"),
		Addr:     util.GetEnv("ADDR", ":8080"),
		Mode:     util.GetEnv("MODE", "debug"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL", "info"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE", 100)),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE", 30)),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS", 10)),
		},
		SessionSecret:      util.GetEnv("SESSION_SECRET", "sentrisafe-dev-secret"),
		CacheType:          util.GetEnv("CACHE_TYPE", "local"),
		RedisAddr:          util.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      util.GetEnv("REDIS_PASSWORD"),
		RedisDB:            int(util.GetIntEnv("REDIS_DB", 0)),
		GeoIPPath:          util.GetEnv("GEOIP_PATH"),
		MinioEndpoint:      util.GetEnv("MINIO_ENDPOINT"),
		MinioAccessKey:     util.GetEnv("MINIO_ACCESS_KEY"),
		MinioSecretKey:     util.GetEnv("MINIO_SECRET_KEY"),
		MinioBucket:        util.GetEnv("MINIO_BUCKET", "sos-recordings"),
		MinioUseSSL:        util.GetBoolEnv("MINIO_USE_SSL"),
		AlertRetentionDays: int(util.GetIntEnv("ALERT_RETENTION_DAYS", 90)),
		RetentionSchedule:  util.GetEnv("RETENTION_SCHEDULE", "0 3 * * *"),
		RateLimit:          util.GetEnv("RATE_LIMIT", "300-M"),
	}
	return nil
}
