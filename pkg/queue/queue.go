package queue

import (
	"context"
	"errors"
	"time"

	"ai-chat-platform-be/internal/entity"

	"github.com/google/uuid"
)

// ErrQueueUnavailable is returned by Enqueue when the broker cannot accept
// the job. Callers surface it as a temporary condition. The job row may
// already exist in the queued state; it will never be delivered.
var ErrQueueUnavailable = errors.New("queue: backend unavailable")

// Handler processes one job and returns the assistant's reply text.
// A non-nil error marks the attempt failed and eligible for retry.
type Handler func(ctx context.Context, job *entity.Job) (string, error)

// Queue accepts chat jobs for background processing and reports their state.
// Job state lives in the job repository, not in the broker, so Status
// answers consistently across restarts and across backends.
type Queue interface {
	// Enqueue persists the job in the queued state and hands it to the broker.
	Enqueue(ctx context.Context, job *entity.Job) error

	// Status returns the job's current state, or nil when the id is unknown.
	Status(ctx context.Context, id uuid.UUID) (*entity.Job, error)

	// Consume runs handler for delivered jobs until ctx is cancelled.
	// Failed attempts are redelivered with exponential backoff until the
	// job's attempt budget is spent.
	Consume(ctx context.Context, handler Handler) error

	// Close releases broker resources. In-flight deliveries are redelivered
	// by the broker on the next Consume.
	Close() error
}

// RetryBackoff returns the delay before redelivering a job whose attempt
// number `attempt` (1-based) just failed. The delay doubles per attempt.
func RetryBackoff(initial time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return initial << (attempt - 1)
}
