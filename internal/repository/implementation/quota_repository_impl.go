package implementation

import (
	"context"
	"errors"
	"time"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/mapper"
	"ai-chat-platform-be/internal/model"
	"ai-chat-platform-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuotaRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuotaMapper
}

func NewQuotaRepository(db *gorm.DB) contract.QuotaRepository {
	return &QuotaRepositoryImpl{
		db:     db,
		mapper: mapper.NewQuotaMapper(),
	}
}

func (r *QuotaRepositoryImpl) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.QuotaRecord, error) {
	var m model.UserQuota
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *QuotaRepositoryImpl) Create(ctx context.Context, record *entity.QuotaRecord) error {
	return r.db.WithContext(ctx).Create(r.mapper.ToModel(record)).Error
}

func (r *QuotaRepositoryImpl) Reset(ctx context.Context, userId uuid.UUID, day time.Time) error {
	return r.db.WithContext(ctx).Model(&model.UserQuota{}).
		Where("user_id = ?", userId).
		Updates(map[string]interface{}{
			"daily_count": 0,
			"reset_date":  day,
		}).Error
}

// ConsumeIfBelow performs the conditional increment in a single UPDATE so
// concurrent sends for the same user cannot lose counts.
func (r *QuotaRepositoryImpl) ConsumeIfBelow(ctx context.Context, userId uuid.UUID, limit int) (bool, int, error) {
	res := r.db.WithContext(ctx).Model(&model.UserQuota{}).
		Where("user_id = ? AND daily_count < ?", userId, limit).
		UpdateColumn("daily_count", gorm.Expr("daily_count + 1"))
	if res.Error != nil {
		return false, 0, res.Error
	}

	var m model.UserQuota
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&m).Error; err != nil {
		return false, 0, err
	}
	return res.RowsAffected > 0, m.DailyCount, nil
}
