package cache_test

import (
	"context"
	"testing"
	"time"

	"ai-chat-platform-be/pkg/cache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "greeting", []byte("hello"), time.Minute)

	got, found := c.Get(ctx, "greeting")
	assert.True(t, found)
	assert.Equal(t, []byte("hello"), got)
}

func TestMemoryCache_MissAfterExpiry(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "ephemeral", []byte("x"), 50*time.Millisecond)

	_, found := c.Get(ctx, "ephemeral")
	assert.True(t, found)

	time.Sleep(80 * time.Millisecond)

	_, found = c.Get(ctx, "ephemeral")
	assert.False(t, found, "entry should be a miss after its TTL elapses")
}

func TestMemoryCache_Delete(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "doomed", []byte("x"), time.Minute)
	c.Delete(ctx, "doomed")

	_, found := c.Get(ctx, "doomed")
	assert.False(t, found)
}

func TestMemoryCache_Overwrite(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("old"), time.Minute)
	c.Set(ctx, "k", []byte("new"), time.Minute)

	got, found := c.Get(ctx, "k")
	assert.True(t, found)
	assert.Equal(t, []byte("new"), got)
}

func TestCacheKeys(t *testing.T) {
	id := uuid.MustParse("0f0e0d0c-0b0a-0908-0706-050403020100")

	assert.Equal(t, "user_conversations:0f0e0d0c-0b0a-0908-0706-050403020100", cache.UserConversationsKey(id))
	assert.Equal(t, "conversation:0f0e0d0c-0b0a-0908-0706-050403020100", cache.ConversationKey(id))
}
