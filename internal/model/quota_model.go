package model

import (
	"time"

	"github.com/google/uuid"
)

type UserQuota struct {
	UserId     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Tier       string    `gorm:"type:varchar(16);not null;default:'basic'"`
	DailyCount int       `gorm:"not null;default:0"`
	ResetDate  time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (UserQuota) TableName() string {
	return "user_quotas"
}
