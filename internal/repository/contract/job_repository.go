package contract

import (
	"context"

	"ai-chat-platform-be/internal/entity"

	"github.com/google/uuid"
)

// JobRepository persists job state so status polling survives restarts.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	Update(ctx context.Context, job *entity.Job) error
	FindOne(ctx context.Context, id uuid.UUID) (*entity.Job, error)
}
