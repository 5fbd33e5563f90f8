package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares windows across instances. INCR and the window TTL ride
// the same pipeline; the expiry is only set when the hit opened the window,
// so later hits cannot stretch it.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

var _ WindowStore = (*RedisStore)(nil)

func (s *RedisStore) Incr(ctx context.Context, key string, dur time.Duration) (int64, time.Time, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	count := incr.Val()
	remaining := ttl.Val()
	if remaining < 0 {
		// Key has no expiry yet, this hit opened the window.
		if err := s.rdb.PExpire(ctx, redisKey, dur).Err(); err != nil {
			return 0, time.Time{}, err
		}
		remaining = dur
	}

	return count, time.Now().Add(remaining), nil
}
