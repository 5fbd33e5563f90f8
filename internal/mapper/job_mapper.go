package mapper

import (
	"encoding/json"
	"time"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/model"
)

type JobMapper struct{}

func NewJobMapper() *JobMapper {
	return &JobMapper{}
}

func (m *JobMapper) ToEntity(j *model.Job) (*entity.Job, error) {
	if j == nil {
		return nil, nil
	}

	var history []entity.ChatMessage
	if len(j.History) > 0 {
		if err := json.Unmarshal(j.History, &history); err != nil {
			return nil, err
		}
	}

	var updatedAt *time.Time
	if !j.UpdatedAt.IsZero() {
		t := j.UpdatedAt
		updatedAt = &t
	}

	return &entity.Job{
		Id:             j.Id,
		OwnerId:        j.OwnerId,
		ConversationId: j.ConversationId,
		Message:        j.Message,
		History:        history,
		Attempts:       j.Attempts,
		MaxAttempts:    j.MaxAttempts,
		State:          entity.JobState(j.State),
		Result:         j.Result,
		LastError:      j.LastError,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func (m *JobMapper) ToModel(j *entity.Job) (*model.Job, error) {
	if j == nil {
		return nil, nil
	}

	var history []byte
	if len(j.History) > 0 {
		var err error
		history, err = json.Marshal(j.History)
		if err != nil {
			return nil, err
		}
	}

	var updatedAt time.Time
	if j.UpdatedAt != nil {
		updatedAt = *j.UpdatedAt
	}

	return &model.Job{
		Id:             j.Id,
		OwnerId:        j.OwnerId,
		ConversationId: j.ConversationId,
		Message:        j.Message,
		History:        history,
		Attempts:       j.Attempts,
		MaxAttempts:    j.MaxAttempts,
		State:          string(j.State),
		Result:         j.Result,
		LastError:      j.LastError,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      updatedAt,
	}, nil
}
