package jetstream

import (
	"context"
	"fmt"
	"time"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/internal/repository/contract"
	"ai-chat-platform-be/pkg/queue"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const streamName = "JOBS"

// Queue is the multi-instance backend. The broker carries only job ids;
// payload and state live in the job repository. Redelivery backoff uses
// NakWithDelay so the broker owns the retry clock.
type Queue struct {
	nc        *nats.Conn
	js        jetstream.JetStream
	repo      contract.JobRepository
	processor *queue.Processor
	subject   string
	durable   string
	logger    logger.ILogger

	consumeCtx jetstream.ConsumeContext
}

func NewQueue(
	url string,
	subject string,
	repo contract.JobRepository,
	backoff time.Duration,
	log logger.ILogger,
) (*Queue, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", streamName, err)
	}

	return &Queue{
		nc:        nc,
		js:        js,
		repo:      repo,
		processor: queue.NewProcessor(repo, backoff, log),
		subject:   subject,
		durable:   "chat-workers",
		logger:    log,
	}, nil
}

var _ queue.Queue = (*Queue)(nil)

func (q *Queue) Enqueue(ctx context.Context, job *entity.Job) error {
	job.State = entity.JobStateQueued
	if err := q.repo.Create(ctx, job); err != nil {
		return fmt.Errorf("persist job: %w", err)
	}

	if _, err := q.js.Publish(ctx, q.subject, []byte(job.Id.String())); err != nil {
		q.logger.Error("Queue", "Failed to publish job", map[string]interface{}{
			"job_id": job.Id.String(),
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
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		Durable:       q.durable,
		FilterSubject: q.subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		// Delivery attempts are budgeted per job in the repository, so the
		// broker-side cap only guards against poison messages.
		MaxDeliver: -1,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		jobId, err := uuid.Parse(string(msg.Data()))
		if err != nil {
			q.logger.Error("Queue", "Discarding malformed job message", map[string]interface{}{
				"data":  string(msg.Data()),
				"error": err.Error(),
			})
			msg.Ack()
			return
		}

		outcome, delay := q.processor.Process(ctx, jobId, handler)
		switch outcome {
		case queue.OutcomeRetry:
			msg.NakWithDelay(delay)
		default:
			msg.Ack()
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	q.consumeCtx = consumeCtx

	q.logger.Info("Queue", "Consuming jobs", map[string]interface{}{
		"subject": q.subject,
		"durable": q.durable,
	})

	<-ctx.Done()
	consumeCtx.Stop()
	return nil
}

func (q *Queue) Close() error {
	if q.consumeCtx != nil {
		q.consumeCtx.Stop()
	}
	if q.nc != nil {
		q.nc.Close()
	}
	return nil
}
