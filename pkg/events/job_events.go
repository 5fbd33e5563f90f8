package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobCompletedEventType = "JOB_COMPLETED"
	JobFailedEventType    = "JOB_FAILED"
)

// NewJobCompletedEvent signals that a queued chat message was answered.
func NewJobCompletedEvent(jobId, conversationId, ownerId uuid.UUID) Event {
	return BaseEvent{
		Type: JobCompletedEventType,
		Data: map[string]interface{}{
			"job_id":          jobId.String(),
			"conversation_id": conversationId.String(),
			"owner_id":        ownerId.String(),
		},
		OccurredAt: time.Now(),
	}
}

// NewJobFailedEvent signals that a queued chat message exhausted its retries.
func NewJobFailedEvent(jobId, conversationId, ownerId uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: JobFailedEventType,
		Data: map[string]interface{}{
			"job_id":          jobId.String(),
			"conversation_id": conversationId.String(),
			"owner_id":        ownerId.String(),
			"reason":          reason,
		},
		OccurredAt: time.Now(),
	}
}
