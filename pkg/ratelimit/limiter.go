package ratelimit

import (
	"context"
	"time"

	"ai-chat-platform-be/internal/pkg/logger"
)

// WindowStore counts hits inside a fixed window per key. Incr returns the
// count after the hit and the absolute time the key's current window ends.
// The first hit for a key opens a fresh window.
type WindowStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter enforces a fixed-window limit per client key. The request that
// brings the count to exactly Limit is still admitted; the next one is not.
// Store failures admit the request so a degraded counter backend does not
// take the API down with it.
type Limiter struct {
	store  WindowStore
	limit  int
	window time.Duration
	logger logger.ILogger
}

func NewLimiter(store WindowStore, limit int, window time.Duration, log logger.ILogger) *Limiter {
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		logger: log,
	}
}

// Admit records a hit for key and decides whether the request may proceed.
func (l *Limiter) Admit(ctx context.Context, key string) Decision {
	count, resetAt, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		l.logger.Warn("RateLimit", "Window store unavailable, admitting request", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit}
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	if count > int64(l.limit) {
		return Decision{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: time.Until(resetAt),
		}
	}

	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
