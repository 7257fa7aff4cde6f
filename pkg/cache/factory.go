package cache

import (
	"strings"

	apperrors "SentriSafe/pkg/errors"
)

// NewCache 创建缓存实例
func NewCache(config Config) (Cache, error) {
	switch strings.ToLower(config.Type) {
	case "", "local":
		return NewLocalCache(config.Local), nil
	case "gocache":
		return NewGoCache(config.Local), nil
	case "redis":
		return NewRedisCache(config.Redis)
	default:
		return nil, apperrors.Errorf("unsupported cache type: %s", config.Type)
	}
}
