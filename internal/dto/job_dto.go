package dto

import (
	"time"

	"github.com/google/uuid"
)

// ChatHistoryEntry is one turn of a caller-supplied context override.
type ChatHistoryEntry struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type QueueMessageRequest struct {
	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
	Message        string     `json:"message" validate:"required,max=8000"`
	// History replaces the stored context window for this job only. The
	// message itself is always appended as the final user turn.
	History []ChatHistoryEntry `json:"history,omitempty" validate:"omitempty,dive"`
}

type QueueMessageResponse struct {
	JobId          uuid.UUID `json:"job_id"`
	ConversationId uuid.UUID `json:"conversation_id"`
	State          string    `json:"state"`
}

// JobEvent is the frame pushed to websocket clients when a queued job
// reaches a terminal state.
type JobEvent struct {
	Type           string    `json:"type"`
	JobId          uuid.UUID `json:"job_id"`
	ConversationId uuid.UUID `json:"conversation_id"`
	Reason         string    `json:"reason,omitempty"`
}

type JobStatusResponse struct {
	JobId          uuid.UUID `json:"job_id"`
	ConversationId uuid.UUID `json:"conversation_id"`
	State          string    `json:"state"`
	Attempts       int       `json:"attempts"`
	Result         string    `json:"result,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
