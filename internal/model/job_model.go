package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Job struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OwnerId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	ConversationId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Message        string         `gorm:"type:text;not null"`
	History        datatypes.JSON `gorm:"type:jsonb"`
	Attempts       int            `gorm:"not null;default:0"`
	MaxAttempts    int            `gorm:"not null;default:3"`
	State          string         `gorm:"type:varchar(16);not null;index"`
	Result         string         `gorm:"type:text"`
	LastError      string         `gorm:"type:text"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}
