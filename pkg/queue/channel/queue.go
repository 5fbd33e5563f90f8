package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/internal/repository/contract"
	"ai-chat-platform-be/pkg/queue"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Queue is the single-process backend built on watermill's gochannel pub/sub.
// It keeps the same contract as the broker-backed queue, which makes it the
// backend of choice for development and tests. Retries are rescheduled with
// a timer since gochannel has no delayed redelivery of its own.
type Queue struct {
	pubSub    *gochannel.GoChannel
	repo      contract.JobRepository
	processor *queue.Processor
	topic     string
	logger    logger.ILogger

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	closed bool
}

func NewQueue(
	topic string,
	repo contract.JobRepository,
	backoff time.Duration,
	log logger.ILogger,
) *Queue {
	// Persistent delivery replays messages published before the consumer
	// subscribed, otherwise jobs enqueued during startup would be lost.
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 256,
			Persistent:          true,
		},
		watermill.NopLogger{},
	)
	return &Queue{
		pubSub:    pubSub,
		repo:      repo,
		processor: queue.NewProcessor(repo, backoff, log),
		topic:     topic,
		logger:    log,
		timers:    make(map[uuid.UUID]*time.Timer),
	}
}

var _ queue.Queue = (*Queue)(nil)

func (q *Queue) Enqueue(ctx context.Context, job *entity.Job) error {
	job.State = entity.JobStateQueued
	if err := q.repo.Create(ctx, job); err != nil {
		return fmt.Errorf("persist job: %w", err)
	}
	return q.publish(job.Id)
}

func (q *Queue) publish(jobId uuid.UUID) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(jobId.String()))
	if err := q.pubSub.Publish(q.topic, msg); err != nil {
		q.logger.Error("Queue", "Failed to publish job", map[string]interface{}{
			"job_id": jobId.String(),
			"error":  err.Error(),
		})
		return queue.ErrQueueUnavailable
	}
	return nil
}

func (q *Queue) Status(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	return q.repo.FindOne(ctx, id)
}

func (q *Queue) Consume(ctx context.Context, handler queue.Handler) error {
	messages, err := q.pubSub.Subscribe(ctx, q.topic)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for msg := range messages {
		jobId, err := uuid.Parse(string(msg.Payload))
		if err != nil {
			q.logger.Error("Queue", "Discarding malformed job message", map[string]interface{}{
				"data":  string(msg.Payload),
				"error": err.Error(),
			})
			msg.Ack()
			continue
		}

		outcome, delay := q.processor.Process(ctx, jobId, handler)
		if outcome == queue.OutcomeRetry {
			q.scheduleRetry(jobId, delay)
		}
		msg.Ack()
	}
	return nil
}

func (q *Queue) scheduleRetry(jobId uuid.UUID, delay time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	q.timers[jobId] = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, jobId)
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return
		}
		if err := q.publish(jobId); err != nil {
			q.logger.Error("Queue", "Failed to republish job for retry", map[string]interface{}{
				"job_id": jobId.String(),
				"error":  err.Error(),
			})
		}
	})
}

func (q *Queue) Close() error {
	q.mu.Lock()
	q.closed = true
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.mu.Unlock()
	return q.pubSub.Close()
}
