package quota

import (
	"context"
	"time"

	"ai-chat-platform-be/internal/constant"
	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/repository/contract"

	"github.com/google/uuid"
)

// Limits holds the per-tier daily message allowances.
type Limits struct {
	Basic int
	Pro   int
}

// Status reports a user's standing against their daily allowance.
type Status struct {
	CanSend   bool      `json:"can_send"`
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	Tier      string    `json:"tier"`
	ResetAt   time.Time `json:"reset_at"`
}

// Store tracks per-user daily usage. Counters reset on the first touch of a
// new calendar day; users without a record yet are created lazily on the
// basic tier. The consuming path delegates the check-and-increment to the
// repository so concurrent sends cannot overshoot the limit.
type Store struct {
	repo contract.QuotaRepository
	lim  Limits
	now  func() time.Time
}

func NewStore(repo contract.QuotaRepository, lim Limits) *Store {
	return &Store{repo: repo, lim: lim, now: time.Now}
}

func (s *Store) limitFor(tier string) int {
	if tier == constant.SubscriptionTierPro {
		return s.lim.Pro
	}
	return s.lim.Basic
}

// ensure loads the user's record, creating it on first use and rolling the
// counter over when the stored reset date is from a previous day.
func (s *Store) ensure(ctx context.Context, userId uuid.UUID) (*entity.QuotaRecord, error) {
	now := s.now()

	rec, err := s.repo.FindByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &entity.QuotaRecord{
			UserId:    userId,
			Tier:      constant.SubscriptionTierBasic,
			ResetDate: now,
		}
		if err := s.repo.Create(ctx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	if !entity.SameCalendarDay(rec.ResetDate, now) {
		if err := s.repo.Reset(ctx, userId, now); err != nil {
			return nil, err
		}
		rec.DailyCount = 0
		rec.ResetDate = now
	}
	return rec, nil
}

// Check reports the user's current standing without consuming a unit.
func (s *Store) Check(ctx context.Context, userId uuid.UUID) (*Status, error) {
	rec, err := s.ensure(ctx, userId)
	if err != nil {
		return nil, err
	}

	limit := s.limitFor(rec.Tier)
	remaining := limit - rec.DailyCount
	if remaining < 0 {
		remaining = 0
	}

	return &Status{
		CanSend:   rec.DailyCount < limit,
		Remaining: remaining,
		Limit:     limit,
		Tier:      rec.Tier,
		ResetAt:   nextMidnight(s.now()),
	}, nil
}

// CheckAndConsume atomically consumes one unit if the user is under their
// limit. It returns the resulting status; CanSend is false when the unit
// could not be consumed.
func (s *Store) CheckAndConsume(ctx context.Context, userId uuid.UUID) (*Status, error) {
	rec, err := s.ensure(ctx, userId)
	if err != nil {
		return nil, err
	}

	limit := s.limitFor(rec.Tier)
	consumed, count, err := s.repo.ConsumeIfBelow(ctx, userId, limit)
	if err != nil {
		return nil, err
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &Status{
		CanSend:   consumed,
		Remaining: remaining,
		Limit:     limit,
		Tier:      rec.Tier,
		ResetAt:   nextMidnight(s.now()),
	}, nil
}

func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
