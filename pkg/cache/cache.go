package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cache is a TTL key-value store for read-heavy lookups. Values are opaque
// serialized payloads; a read past expiry is a miss. Writes overwrite
// unconditionally, so last-write-wins applies to concurrent recomputations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// UserConversationsKey keys the cached conversation listing for a user.
func UserConversationsKey(userId uuid.UUID) string {
	return fmt.Sprintf("user_conversations:%s", userId)
}

// ConversationKey keys a single cached conversation read.
func ConversationKey(id uuid.UUID) string {
	return fmt.Sprintf("conversation:%s", id)
}
