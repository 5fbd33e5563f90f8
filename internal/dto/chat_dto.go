package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateConversationRequest struct {
	Title string `json:"title,omitempty" validate:"max=100"`
}

type CreateConversationResponse struct {
	Id uuid.UUID `json:"id"`
}

type ConversationSummaryResponse struct {
	Id           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	LastActivity time.Time  `json:"last_activity"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type ChatMessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ConversationResponse struct {
	Id           uuid.UUID             `json:"id"`
	Title        string                `json:"title"`
	Messages     []ChatMessageResponse `json:"messages"`
	LastActivity time.Time             `json:"last_activity"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    *time.Time            `json:"updated_at"`
}

type SendMessageRequest struct {
	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
	Message        string     `json:"message" validate:"required,max=8000"`
}

type SendMessageResponse struct {
	ConversationId    uuid.UUID            `json:"conversation_id"`
	ConversationTitle string               `json:"title"`
	Sent              *ChatMessageResponse `json:"sent"`
	Reply             *ChatMessageResponse `json:"reply"`
}

// --- Stream Event Types ---

const (
	StreamEventChatInfo = "chat_info"
	StreamEventContent  = "content"
	StreamEventComplete = "complete"
	StreamEventError    = "error"
)

// StreamEvent is one frame of a streamed reply. The first frame is always
// chat_info carrying the conversation identity; content frames follow, and
// exactly one complete or error frame closes the stream.
type StreamEvent struct {
	Type              string     `json:"type"`
	ConversationId    *uuid.UUID `json:"conversation_id,omitempty"`
	ConversationTitle string     `json:"title,omitempty"`
	Content           string     `json:"content,omitempty"`
	FullContent       string     `json:"full_content,omitempty"`
	Message           string     `json:"message,omitempty"`
}
