package memory

import (
	"context"
	"sort"
	"sync"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/repository/contract"

	"github.com/google/uuid"
)

// ConversationRepository is a process-local document store. Used for
// single-process deployments and tests; the gorm implementation is the
// durable backend.
type ConversationRepository struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*entity.Conversation
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		conversations: make(map[uuid.UUID]*entity.Conversation),
	}
}

var _ contract.ConversationRepository = (*ConversationRepository)(nil)

func (r *ConversationRepository) FindByOwnerAndId(ctx context.Context, ownerId, id uuid.UUID) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conversations[id]
	if !ok || c.OwnerId != ownerId {
		return nil, nil
	}
	return cloneConversation(c), nil
}

func (r *ConversationRepository) ListByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entity.Conversation
	for _, c := range r.conversations {
		if c.OwnerId == ownerId {
			result = append(result, cloneConversation(c))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastActivity.After(result[j].LastActivity)
	})
	return result, nil
}

func (r *ConversationRepository) Save(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conversations[conversation.Id] = cloneConversation(conversation)
	return nil
}

func (r *ConversationRepository) DeleteByOwnerAndId(ctx context.Context, ownerId, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[id]
	if !ok || c.OwnerId != ownerId {
		return false, nil
	}
	delete(r.conversations, id)
	return true, nil
}

// cloneConversation copies the aggregate so callers never share the stored
// message slice.
func cloneConversation(c *entity.Conversation) *entity.Conversation {
	clone := *c
	clone.Messages = make([]entity.ChatMessage, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return &clone
}
