package websocket

import (
	"context"
	"sync"

	"ai-chat-platform-be/internal/dto"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/pkg/events"

	"github.com/google/uuid"
)

// JobEventHub fans queued-job outcomes out to a user's connected sockets.
// Subscriptions are per connection; one user may hold several (multi-device).
type JobEventHub struct {
	logger logger.ILogger

	mu   sync.RWMutex
	subs map[uuid.UUID]map[chan dto.JobEvent]struct{}
}

func NewJobEventHub(log logger.ILogger) *JobEventHub {
	return &JobEventHub{
		logger: log,
		subs:   make(map[uuid.UUID]map[chan dto.JobEvent]struct{}),
	}
}

// Subscribe registers a frame channel for the user. The returned cancel
// removes the registration and closes the channel; it is safe to call twice.
func (h *JobEventHub) Subscribe(userId uuid.UUID) (<-chan dto.JobEvent, func()) {
	ch := make(chan dto.JobEvent, 8)

	h.mu.Lock()
	set, ok := h.subs[userId]
	if !ok {
		set = make(map[chan dto.JobEvent]struct{})
		h.subs[userId] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		set, ok := h.subs[userId]
		if !ok {
			return
		}
		if _, ok := set[ch]; !ok {
			return
		}
		delete(set, ch)
		close(ch)
		if len(set) == 0 {
			delete(h.subs, userId)
		}
	}
	return ch, cancel
}

// Publish delivers a frame to every socket the user holds. Slow consumers
// have their frame dropped rather than blocking the event loop.
func (h *JobEventHub) Publish(userId uuid.UUID, frame dto.JobEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[userId] {
		select {
		case ch <- frame:
		default:
			h.logger.Warn("Hub", "Subscriber buffer full, dropping job event", map[string]interface{}{
				"user_id": userId.String(),
				"job_id":  frame.JobId.String(),
			})
		}
	}
}

// JobEventRelay turns job lifecycle events into hub frames. It doubles as
// the local event publisher when no broker is configured and as the NATS
// subscriber handler when one is.
type JobEventRelay struct {
	hub *JobEventHub
}

func NewJobEventRelay(hub *JobEventHub) *JobEventRelay {
	return &JobEventRelay{hub: hub}
}

func (r *JobEventRelay) Publish(ctx context.Context, event events.Event) error {
	return r.Handle(ctx, event)
}

// Handle forwards terminal job events to their owner and ignores everything
// else, so it can sit on a broad subject subscription.
func (r *JobEventRelay) Handle(ctx context.Context, event events.Event) error {
	switch event.EventType() {
	case events.JobCompletedEventType, events.JobFailedEventType:
	default:
		return nil
	}

	payload := event.Payload()
	ownerStr, _ := payload["owner_id"].(string)
	ownerId, err := uuid.Parse(ownerStr)
	if err != nil {
		return nil
	}

	jobStr, _ := payload["job_id"].(string)
	jobId, _ := uuid.Parse(jobStr)
	conversationStr, _ := payload["conversation_id"].(string)
	conversationId, _ := uuid.Parse(conversationStr)
	reason, _ := payload["reason"].(string)

	r.hub.Publish(ownerId, dto.JobEvent{
		Type:           event.EventType(),
		JobId:          jobId,
		ConversationId: conversationId,
		Reason:         reason,
	})
	return nil
}
