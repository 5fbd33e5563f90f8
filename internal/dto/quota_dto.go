package dto

import (
	"time"
)

type QuotaStatusResponse struct {
	CanSend   bool      `json:"can_send"`
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	Tier      string    `json:"tier"`
	ResetAt   time.Time `json:"reset_at"`
}

// --- Limit Exceeded Error Types ---

// QuotaExceededError is a custom error that carries usage details
type QuotaExceededError struct {
	Limit      int       `json:"limit"`
	Used       int       `json:"used"`
	ResetAfter time.Time `json:"reset_after"`
}

func (e *QuotaExceededError) Error() string {
	return "daily message quota exceeded"
}

// RateLimitExceededError carries fixed-window details for 429 responses
type RateLimitExceededError struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"-"`
}

func (e *RateLimitExceededError) Error() string {
	return "too many requests, slow down"
}
