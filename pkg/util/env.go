package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
)

// LoadEnv 根据环境名加载对应的 .env 文件（.env.development / .env.production）
// 不存在时回退到 .env
func LoadEnv(env string) error {
	candidates := []string{fmt.Sprintf(".env.%s", env), ".env"}
	for _, name := range candidates {
		if err := loadEnvFile(name); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no env file found for %q", env)
}

// loadEnvFile 解析 KEY=VALUE 格式的文件，已存在的环境变量不覆盖
func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// GetEnv 获取字符串类型环境变量
func GetEnv(key string, fallback ...string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return ""
}

// GetIntEnv 获取整型环境变量
func GetIntEnv(key string, fallback ...int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return cast.ToInt64(v)
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return 0
}

// GetBoolEnv 获取布尔型环境变量
func GetBoolEnv(key string, fallback ...bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return cast.ToBool(v)
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return false
}

// GetDurationEnv 获取时间类型环境变量，如 "30s"、"10m"
func GetDurationEnv(key string, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
