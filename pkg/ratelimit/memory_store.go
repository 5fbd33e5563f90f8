package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	mu      sync.Mutex
	count   int64
	resetAt time.Time
}

// MemoryStore keeps one fixed window per key. Expired windows are reset
// lazily on the next hit rather than swept, which keeps Incr lock scope
// to a single key.
type MemoryStore struct {
	windows sync.Map
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

var _ WindowStore = (*MemoryStore)(nil)

func (s *MemoryStore) Incr(ctx context.Context, key string, dur time.Duration) (int64, time.Time, error) {
	v, _ := s.windows.LoadOrStore(key, &window{})
	w := v.(*window)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := s.now()
	if w.count == 0 || !now.Before(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(dur)
	}
	w.count++
	return w.count, w.resetAt, nil
}
