package queue

import (
	"context"
	"time"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/internal/repository/contract"

	"github.com/google/uuid"
)

// Outcome tells a backend what to do with the delivery it just processed.
type Outcome int

const (
	// OutcomeAck removes the delivery; the job reached a terminal state.
	OutcomeAck Outcome = iota
	// OutcomeRetry redelivers the job after the returned delay.
	OutcomeRetry
)

// Processor runs handler attempts and owns the job state machine. Backends
// only move bytes; every queued -> active -> completed|failed transition is
// recorded here against the repository.
type Processor struct {
	repo    contract.JobRepository
	backoff time.Duration
	logger  logger.ILogger
}

func NewProcessor(repo contract.JobRepository, backoff time.Duration, log logger.ILogger) *Processor {
	return &Processor{repo: repo, backoff: backoff, logger: log}
}

// Process executes one attempt for the job with the given id and reports how
// the backend should dispose of the delivery.
func (p *Processor) Process(ctx context.Context, jobId uuid.UUID, handler Handler) (Outcome, time.Duration) {
	job, err := p.repo.FindOne(ctx, jobId)
	if err != nil {
		p.logger.Error("Queue", "Failed to load job for delivery", map[string]interface{}{
			"job_id": jobId.String(),
			"error":  err.Error(),
		})
		return OutcomeRetry, p.backoff
	}
	if job == nil || job.Terminal() {
		// Stale or duplicate delivery, nothing left to do.
		return OutcomeAck, 0
	}

	now := time.Now()
	job.Attempts++
	job.State = entity.JobStateActive
	job.UpdatedAt = &now
	if err := p.repo.Update(ctx, job); err != nil {
		p.logger.Error("Queue", "Failed to mark job active", map[string]interface{}{
			"job_id": jobId.String(),
			"error":  err.Error(),
		})
		return OutcomeRetry, p.backoff
	}

	result, handlerErr := handler(ctx, job)
	if handlerErr == nil {
		done := time.Now()
		job.State = entity.JobStateCompleted
		job.Result = result
		job.LastError = ""
		job.UpdatedAt = &done
		if err := p.repo.Update(ctx, job); err != nil {
			p.logger.Error("Queue", "Failed to mark job completed", map[string]interface{}{
				"job_id": jobId.String(),
				"error":  err.Error(),
			})
		}
		return OutcomeAck, 0
	}

	failed := time.Now()
	job.LastError = handlerErr.Error()
	job.UpdatedAt = &failed

	if job.Attempts >= job.MaxAttempts {
		job.State = entity.JobStateFailed
		if err := p.repo.Update(ctx, job); err != nil {
			p.logger.Error("Queue", "Failed to mark job failed", map[string]interface{}{
				"job_id": jobId.String(),
				"error":  err.Error(),
			})
		}
		p.logger.Warn("Queue", "Job exhausted its attempts", map[string]interface{}{
			"job_id":   jobId.String(),
			"attempts": job.Attempts,
			"error":    handlerErr.Error(),
		})
		return OutcomeAck, 0
	}

	job.State = entity.JobStateQueued
	if err := p.repo.Update(ctx, job); err != nil {
		p.logger.Error("Queue", "Failed to requeue job", map[string]interface{}{
			"job_id": jobId.String(),
			"error":  err.Error(),
		})
	}

	delay := RetryBackoff(p.backoff, job.Attempts)
	p.logger.Info("Queue", "Job attempt failed, scheduling retry", map[string]interface{}{
		"job_id":   jobId.String(),
		"attempt":  job.Attempts,
		"retry_in": delay.String(),
		"error":    handlerErr.Error(),
	})
	return OutcomeRetry, delay
}
