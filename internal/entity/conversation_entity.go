package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is immutable once created; it only ever gets appended to a
// conversation's message list.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the aggregate owned by a single user. Mutation is limited
// to appending messages and touching LastActivity.
type Conversation struct {
	Id           uuid.UUID
	OwnerId      uuid.UUID
	Title        string
	Messages     []ChatMessage
	LastActivity time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Append adds a message and refreshes LastActivity.
func (c *Conversation) Append(role, content string, now time.Time) {
	c.Messages = append(c.Messages, ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	c.LastActivity = now
}

// ContextWindow returns up to limit trailing messages for prompt building.
func (c *Conversation) ContextWindow(limit int) []ChatMessage {
	if limit <= 0 || len(c.Messages) <= limit {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-limit:]
}
