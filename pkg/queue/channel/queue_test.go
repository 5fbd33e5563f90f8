package channel_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/internal/repository/memory"
	"ai-chat-platform-be/pkg/queue"
	"ai-chat-platform-be/pkg/queue/channel"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob() *entity.Job {
	return &entity.Job{
		Id:             uuid.New(),
		OwnerId:        uuid.New(),
		ConversationId: uuid.New(),
		Message:        "hello",
		MaxAttempts:    3,
		CreatedAt:      time.Now(),
	}
}

func waitForTerminal(t *testing.T, q queue.Queue, id uuid.UUID, timeout time.Duration) *entity.Job {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s did not reach a terminal state within %s", id, timeout)
		case <-time.After(10 * time.Millisecond):
		}
		job, err := q.Status(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, job)
		if job.Terminal() {
			return job
		}
	}
}

func TestQueue_CompletesOnFirstAttempt(t *testing.T) {
	repo := memory.NewJobRepository()
	q := channel.NewQueue("jobs.chat", repo, 5*time.Millisecond, logger.NewNopLogger())
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go q.Consume(ctx, func(ctx context.Context, job *entity.Job) (string, error) {
		return "Hi! How can I help?", nil
	})

	job := newJob()
	require.NoError(t, q.Enqueue(ctx, job))

	done := waitForTerminal(t, q, job.Id, 2*time.Second)
	assert.Equal(t, entity.JobStateCompleted, done.State)
	assert.Equal(t, "Hi! How can I help?", done.Result)
	assert.Equal(t, 1, done.Attempts)
}

func TestQueue_RetriesUntilSuccess(t *testing.T) {
	repo := memory.NewJobRepository()
	q := channel.NewQueue("jobs.chat", repo, 5*time.Millisecond, logger.NewNopLogger())
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go q.Consume(ctx, func(ctx context.Context, job *entity.Job) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("model unavailable")
		}
		return "third time lucky", nil
	})

	job := newJob()
	require.NoError(t, q.Enqueue(ctx, job))

	done := waitForTerminal(t, q, job.Id, 2*time.Second)
	assert.Equal(t, entity.JobStateCompleted, done.State)
	assert.Equal(t, "third time lucky", done.Result)
	assert.Equal(t, 3, done.Attempts)
	assert.Empty(t, done.LastError)
}

func TestQueue_FailsTerminallyAfterMaxAttempts(t *testing.T) {
	repo := memory.NewJobRepository()
	q := channel.NewQueue("jobs.chat", repo, 5*time.Millisecond, logger.NewNopLogger())
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go q.Consume(ctx, func(ctx context.Context, job *entity.Job) (string, error) {
		return "", errors.New("model unavailable")
	})

	job := newJob()
	require.NoError(t, q.Enqueue(ctx, job))

	done := waitForTerminal(t, q, job.Id, 2*time.Second)
	assert.Equal(t, entity.JobStateFailed, done.State)
	assert.Equal(t, 3, done.Attempts)
	assert.Contains(t, done.LastError, "model unavailable")
}

func TestQueue_StatusUnknownJob(t *testing.T) {
	repo := memory.NewJobRepository()
	q := channel.NewQueue("jobs.chat", repo, 5*time.Millisecond, logger.NewNopLogger())
	defer q.Close()

	job, err := q.Status(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, job)
}
