package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// localCache 本地缓存实现，基于带过期时间的 LRU，条目数受 MaxSize 限制
type localCache struct {
	config LocalConfig
	cache  *lru.LRU[string, interface{}]
}

// NewLocalCache 创建本地缓存
func NewLocalCache(config LocalConfig) Cache {
	if config.MaxSize <= 0 {
		config.MaxSize = 4096
	}
	if config.DefaultExpiration <= 0 {
		config.DefaultExpiration = 10 * time.Minute
	}
	return &localCache{
		config: config,
		cache:  lru.NewLRU[string, interface{}](config.MaxSize, nil, config.DefaultExpiration),
	}
}

// Get 获取缓存值
func (lc *localCache) Get(ctx context.Context, key string) (interface{}, bool) {
	return lc.cache.Get(key)
}

// Set 设置缓存值
//
// LRU 的过期时间在创建时固定，按键覆盖的 expiration 交由上层用更短的 TTL 控制；
// 这里保留参数以满足 Cache 接口
func (lc *localCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	lc.cache.Add(key, value)
	return nil
}

// Delete 删除缓存
func (lc *localCache) Delete(ctx context.Context, key string) error {
	lc.cache.Remove(key)
	return nil
}

// Exists 检查键是否存在
func (lc *localCache) Exists(ctx context.Context, key string) bool {
	return lc.cache.Contains(key)
}

// Clear 清空所有缓存
func (lc *localCache) Clear(ctx context.Context) error {
	lc.cache.Purge()
	return nil
}

// Close 关闭缓存连接
func (lc *localCache) Close() error {
	lc.cache.Purge()
	return nil
}
