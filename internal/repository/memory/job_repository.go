package memory

import (
	"context"
	"sync"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/repository/contract"

	"github.com/google/uuid"
)

// JobRepository keeps job state in memory. Pairs with the channel queue
// backend for single-process mode and tests.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*entity.Job
}

func NewJobRepository() *JobRepository {
	return &JobRepository{
		jobs: make(map[uuid.UUID]*entity.Job),
	}
}

var _ contract.JobRepository = (*JobRepository)(nil)

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *job
	r.jobs[job.Id] = &clone
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *job
	r.jobs[job.Id] = &clone
	return nil
}

func (r *JobRepository) FindOne(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	clone := *j
	return &clone, nil
}
