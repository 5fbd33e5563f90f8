package websocket

import (
	"context"
	"testing"
	"time"

	"ai-chat-platform-be/internal/dto"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/pkg/events"
	"ai-chat-platform-be/pkg/ratelimit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(limit int) *ChatHandler {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), limit, time.Minute, logger.NewNopLogger())
	return NewChatHandler(nil, limiter, NewJobEventHub(logger.NewNopLogger()), logger.NewNopLogger())
}

func TestAdmit_AppliesFixedWindowToSocketSends(t *testing.T) {
	h := newTestHandler(2)
	userId := uuid.New()

	require.NoError(t, h.admit(userId))
	require.NoError(t, h.admit(userId))

	err := h.admit(userId)
	var rlErr *dto.RateLimitExceededError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 2, rlErr.Limit)
	assert.Equal(t, 0, rlErr.Remaining)

	assert.NoError(t, h.admit(uuid.New()), "another user gets an untouched window")
}

func TestJobEventHub_DeliversToOwnerOnly(t *testing.T) {
	hub := NewJobEventHub(logger.NewNopLogger())
	owner := uuid.New()
	stranger := uuid.New()

	ownerCh, cancelOwner := hub.Subscribe(owner)
	defer cancelOwner()
	strangerCh, cancelStranger := hub.Subscribe(stranger)
	defer cancelStranger()

	frame := dto.JobEvent{Type: events.JobCompletedEventType, JobId: uuid.New()}
	hub.Publish(owner, frame)

	select {
	case got := <-ownerCh:
		assert.Equal(t, frame, got)
	case <-time.After(time.Second):
		t.Fatal("owner never received the frame")
	}

	select {
	case got := <-strangerCh:
		t.Fatalf("stranger received %+v", got)
	default:
	}
}

func TestJobEventHub_CancelClosesChannel(t *testing.T) {
	hub := NewJobEventHub(logger.NewNopLogger())
	userId := uuid.New()

	ch, cancel := hub.Subscribe(userId)
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must neither panic nor block.
	hub.Publish(userId, dto.JobEvent{})
}

func TestJobEventRelay_ForwardsTerminalEvents(t *testing.T) {
	hub := NewJobEventHub(logger.NewNopLogger())
	relay := NewJobEventRelay(hub)
	ownerId := uuid.New()

	ch, cancel := hub.Subscribe(ownerId)
	defer cancel()

	jobId := uuid.New()
	conversationId := uuid.New()
	require.NoError(t, relay.Handle(context.Background(),
		events.NewJobFailedEvent(jobId, conversationId, ownerId, "model unreachable")))

	select {
	case frame := <-ch:
		assert.Equal(t, events.JobFailedEventType, frame.Type)
		assert.Equal(t, jobId, frame.JobId)
		assert.Equal(t, conversationId, frame.ConversationId)
		assert.Equal(t, "model unreachable", frame.Reason)
	case <-time.After(time.Second):
		t.Fatal("no frame relayed")
	}

	require.NoError(t, relay.Publish(context.Background(), events.BaseEvent{Type: "USER_REGISTERED"}))
	select {
	case frame := <-ch:
		t.Fatalf("unrelated event produced frame %+v", frame)
	default:
	}
}
