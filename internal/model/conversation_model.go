package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Conversation struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerId      uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Title        string         `gorm:"type:text;not null"`
	Messages     datatypes.JSON `gorm:"type:jsonb"` // ordered message list, document style
	LastActivity time.Time      `gorm:"index"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Conversation) TableName() string {
	return "conversations"
}
