package mapper

import (
	"encoding/json"
	"time"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/model"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToEntity(c *model.Conversation) (*entity.Conversation, error) {
	if c == nil {
		return nil, nil
	}

	var messages []entity.ChatMessage
	if len(c.Messages) > 0 {
		if err := json.Unmarshal(c.Messages, &messages); err != nil {
			return nil, err
		}
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:           c.Id,
		OwnerId:      c.OwnerId,
		Title:        c.Title,
		Messages:     messages,
		LastActivity: c.LastActivity,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func (m *ConversationMapper) ToModel(c *entity.Conversation) (*model.Conversation, error) {
	if c == nil {
		return nil, nil
	}

	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return nil, err
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Conversation{
		Id:           c.Id,
		OwnerId:      c.OwnerId,
		Title:        c.Title,
		Messages:     messages,
		LastActivity: c.LastActivity,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    updatedAt,
	}, nil
}
