package contract

import (
	"context"

	"ai-chat-platform-be/internal/entity"

	"github.com/google/uuid"
)

// ConversationRepository is the keyed document-store view the pipeline needs.
// A nil conversation with a nil error means "not found".
type ConversationRepository interface {
	FindByOwnerAndId(ctx context.Context, ownerId, id uuid.UUID) (*entity.Conversation, error)
	ListByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Conversation, error)
	Save(ctx context.Context, conversation *entity.Conversation) error
	DeleteByOwnerAndId(ctx context.Context, ownerId, id uuid.UUID) (bool, error)
}
