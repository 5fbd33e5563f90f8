package cache

import (
	"context"
	"time"

	"ai-chat-platform-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the shared-store backend for multi-instance deployments.
// Read/write failures degrade to cache misses; the persistence layer stays
// the source of truth.
type RedisCache struct {
	rdb    *redis.Client
	logger logger.ILogger
}

func NewRedisCache(rdb *redis.Client, log logger.ILogger) *RedisCache {
	return &RedisCache{rdb: rdb, logger: log}
}

var _ Cache = (*RedisCache)(nil)

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("Cache", "Redis get failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return nil, false
	}
	return data, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Warn("Cache", "Redis set failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (r *RedisCache) Delete(ctx context.Context, key string) {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		r.logger.Warn("Cache", "Redis delete failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
