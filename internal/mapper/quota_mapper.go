package mapper

import (
	"time"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/model"
)

type QuotaMapper struct{}

func NewQuotaMapper() *QuotaMapper {
	return &QuotaMapper{}
}

func (m *QuotaMapper) ToEntity(q *model.UserQuota) *entity.QuotaRecord {
	if q == nil {
		return nil
	}

	var updatedAt *time.Time
	if !q.UpdatedAt.IsZero() {
		t := q.UpdatedAt
		updatedAt = &t
	}

	return &entity.QuotaRecord{
		UserId:     q.UserId,
		Tier:       q.Tier,
		DailyCount: q.DailyCount,
		ResetDate:  q.ResetDate,
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *QuotaMapper) ToModel(q *entity.QuotaRecord) *model.UserQuota {
	if q == nil {
		return nil
	}

	var updatedAt time.Time
	if q.UpdatedAt != nil {
		updatedAt = *q.UpdatedAt
	}

	return &model.UserQuota{
		UserId:     q.UserId,
		Tier:       q.Tier,
		DailyCount: q.DailyCount,
		ResetDate:  q.ResetDate,
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}
