package contract

import (
	"context"
	"time"

	"ai-chat-platform-be/internal/entity"

	"github.com/google/uuid"
)

// QuotaRepository stores per-user daily counters.
//
// ConsumeIfBelow must be atomic with respect to concurrent callers for the
// same user: implementations perform the conditional increment at the
// storage layer, never read-modify-write in application code.
type QuotaRepository interface {
	FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.QuotaRecord, error)
	Create(ctx context.Context, record *entity.QuotaRecord) error
	// Reset zeroes the counter and stamps the given day.
	Reset(ctx context.Context, userId uuid.UUID, day time.Time) error
	// ConsumeIfBelow increments the counter by one only while it is below
	// limit, returning whether it consumed and the resulting count.
	ConsumeIfBelow(ctx context.Context, userId uuid.UUID, limit int) (bool, int, error)
}
