package entity

import (
	"time"

	"github.com/google/uuid"
)

// QuotaRecord tracks one user's daily message budget. DailyCount is only
// meaningful for the calendar day of ResetDate; stale records are reset
// before the count is consulted or incremented.
type QuotaRecord struct {
	UserId     uuid.UUID
	Tier       string // "basic" or "pro"
	DailyCount int
	ResetDate  time.Time
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// SameCalendarDay compares by year/month/day, not elapsed duration.
func SameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
