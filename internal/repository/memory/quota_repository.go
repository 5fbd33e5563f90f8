package memory

import (
	"context"
	"sync"
	"time"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/repository/contract"

	"github.com/google/uuid"
)

// QuotaRepository guards counters with a mutex so the conditional increment
// stays atomic under concurrent sends, matching the SQL implementation.
type QuotaRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entity.QuotaRecord
}

func NewQuotaRepository() *QuotaRepository {
	return &QuotaRepository{
		records: make(map[uuid.UUID]*entity.QuotaRecord),
	}
}

var _ contract.QuotaRepository = (*QuotaRepository)(nil)

func (r *QuotaRepository) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.QuotaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[userId]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *QuotaRepository) Create(ctx context.Context, record *entity.QuotaRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *record
	r.records[record.UserId] = &clone
	return nil
}

func (r *QuotaRepository) Reset(ctx context.Context, userId uuid.UUID, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[userId]; ok {
		rec.DailyCount = 0
		rec.ResetDate = day
	}
	return nil
}

func (r *QuotaRepository) ConsumeIfBelow(ctx context.Context, userId uuid.UUID, limit int) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[userId]
	if !ok {
		return false, 0, nil
	}
	if rec.DailyCount >= limit {
		return false, rec.DailyCount, nil
	}
	rec.DailyCount++
	return true, rec.DailyCount, nil
}
