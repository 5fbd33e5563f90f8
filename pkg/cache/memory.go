package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache backs the cache with patrickmn/go-cache for single-process
// deployments. Expired entries are also purged by a background sweep.
type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache() *MemoryCache {
	// Default expiration is per-entry; the 10 minute interval only bounds
	// memory held by already-expired entries.
	return &MemoryCache{
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

var _ Cache = (*MemoryCache)(nil)

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, found := m.cache.Get(key); found {
		return v.([]byte), true
	}
	return nil, false
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	m.cache.Set(key, value, ttl)
}

func (m *MemoryCache) Delete(ctx context.Context, key string) {
	m.cache.Delete(key)
}
