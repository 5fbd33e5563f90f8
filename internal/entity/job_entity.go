package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateActive    JobState = "active"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// Job is one pending asynchronous AI completion. It owns a copy of its input;
// the conversation is only referenced by id.
type Job struct {
	Id             uuid.UUID
	OwnerId        uuid.UUID
	ConversationId uuid.UUID
	Message        string
	History        []ChatMessage // optional caller-supplied context override
	Attempts       int
	MaxAttempts    int
	State          JobState
	Result         string
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// Terminal reports whether the job reached a final state.
func (j *Job) Terminal() bool {
	return j.State == JobStateCompleted || j.State == JobStateFailed
}
