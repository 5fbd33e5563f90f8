package implementation

import (
	"context"
	"errors"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/mapper"
	"ai-chat-platform-be/internal/model"
	"ai-chat-platform-be/internal/repository/contract"
	"ai-chat-platform-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationRepository(db *gorm.DB) contract.ConversationRepository {
	return &ConversationRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationRepositoryImpl) FindByOwnerAndId(ctx context.Context, ownerId, id uuid.UUID) (*entity.Conversation, error) {
	var m model.Conversation
	err := specification.Compose(r.db.WithContext(ctx),
		specification.ByID{ID: id},
		specification.OwnedBy{OwnerID: ownerId},
	).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *ConversationRepositoryImpl) ListByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Conversation, error) {
	var models []*model.Conversation
	err := specification.Compose(r.db.WithContext(ctx),
		specification.OwnedBy{OwnerID: ownerId},
		specification.OrderBy{Field: "last_activity", Desc: true},
	).Find(&models).Error
	if err != nil {
		return nil, err
	}

	conversations := make([]*entity.Conversation, 0, len(models))
	for _, m := range models {
		c, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, nil
}

func (r *ConversationRepositoryImpl) Save(ctx context.Context, conversation *entity.Conversation) error {
	m, err := r.mapper.ToModel(conversation)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	saved, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*conversation = *saved
	return nil
}

func (r *ConversationRepositoryImpl) DeleteByOwnerAndId(ctx context.Context, ownerId, id uuid.UUID) (bool, error) {
	res := specification.Compose(r.db.WithContext(ctx),
		specification.ByID{ID: id},
		specification.OwnedBy{OwnerID: ownerId},
	).Delete(&model.Conversation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
