package main

import (
	"log"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"SentriSafe/internal/detection"
	"SentriSafe/internal/device"
	"SentriSafe/internal/handler"
	"SentriSafe/internal/listeners"
	"SentriSafe/internal/models"
	"SentriSafe/internal/sos"
	"SentriSafe/pkg/cache"
	"SentriSafe/pkg/config"
	"SentriSafe/pkg/logger"
	"SentriSafe/pkg/metrics"
	"SentriSafe/pkg/middleware"
	"SentriSafe/pkg/scheduler"
	"SentriSafe/pkg/storage"
	"SentriSafe/pkg/util"
	"SentriSafe/pkg/ws"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.Mode)

	db, err := util.InitDatabase(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Error("init database failed", zap.Error(err))
		return
	}
	if err := models.Migrate(db); err != nil {
		logger.Error("migrate database failed", zap.Error(err))
		return
	}

	c, err := cache.NewCache(cache.Config{
		Type: cfg.CacheType,
		Redis: cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		Local: cache.LocalConfig{MaxSize: 4096, DefaultExpiration: 10 * time.Minute},
	})
	if err != nil {
		logger.Error("init cache failed", zap.Error(err))
		return
	}
	defer c.Close()

	var recordings storage.RecordingStore
	if cfg.MinioEndpoint != "" {
		recordings, err = storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			logger.Warn("init recording store failed, recordings disabled", zap.Error(err))
		}
	}

	geoIP := device.NewGeoIPResolver(cfg.GeoIPPath)
	defer geoIP.Close()

	hub := ws.NewHub()
	defer hub.Close()

	manager := sos.NewManager(db, c, hub, recordings)
	listeners.Register(db, manager)

	h := handler.New(db, c, detection.NewScanner(nil), manager, hub, geoIP)

	r := gin.New()
	r.Use(gin.Recovery(), metrics.Middleware())
	r.Use(sessions.Sessions("sentrisafe_session", cookie.NewStore([]byte(cfg.SessionSecret))))

	rl, err := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:      cfg.RateLimit,
		SkipPaths: []string{"/health", "/metrics"},
	}, nil)
	if err != nil {
		logger.Error("init rate limiter failed", zap.Error(err))
		return
	}
	r.Use(rl.WithObserver(middleware.NewPrometheusObserver()).Middleware())

	r.GET("/metrics", metrics.Handler())
	h.RegisterRoutes(r)

	cronJob, err := scheduler.StartRetention(db, scheduler.RetentionConfig{
		Schedule:      cfg.RetentionSchedule,
		RetentionDays: cfg.AlertRetentionDays,
	})
	if err != nil {
		logger.Warn("start alert retention failed", zap.Error(err))
	}
	if cronJob != nil {
		defer cronJob.Stop()
	}

	logger.Info("server starting", zap.String("addr", cfg.Addr))
	if err := r.Run(cfg.Addr); err != nil {
		logger.Error("server exited", zap.Error(err))
	}
}
