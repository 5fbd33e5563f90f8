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

type JobRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.JobMapper
}

func NewJobRepository(db *gorm.DB) contract.JobRepository {
	return &JobRepositoryImpl{
		db:     db,
		mapper: mapper.NewJobMapper(),
	}
}

func (r *JobRepositoryImpl) Create(ctx context.Context, job *entity.Job) error {
	m, err := r.mapper.ToModel(job)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *JobRepositoryImpl) Update(ctx context.Context, job *entity.Job) error {
	m, err := r.mapper.ToModel(job)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *JobRepositoryImpl) FindOne(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	var m model.Job
	if err := (specification.ByID{ID: id}).Apply(r.db.WithContext(ctx)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}
