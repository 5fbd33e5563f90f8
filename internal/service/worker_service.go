package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-chat-platform-be/internal/constant"
	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/internal/repository/contract"
	"ai-chat-platform-be/pkg/events"
	"ai-chat-platform-be/pkg/llm"
	"ai-chat-platform-be/pkg/queue"

	"github.com/google/uuid"
)

// IEventPublisher is the slice of the event bus the worker needs.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// NopEventPublisher drops events. Used when no bus is configured.
type NopEventPublisher struct{}

func (NopEventPublisher) Publish(ctx context.Context, event events.Event) error { return nil }

type IWorkerService interface {
	// Start consumes jobs until ctx is cancelled. It blocks.
	Start(ctx context.Context) error
}

type workerService struct {
	jobQueue         queue.Queue
	conversationRepo contract.ConversationRepository
	llmClient        *llm.Client
	publisher        IEventPublisher
	logger           logger.ILogger

	// locks serializes jobs per conversation so two deliveries for the same
	// conversation cannot interleave their read-append-save cycles.
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewWorkerService(
	jobQueue queue.Queue,
	conversationRepo contract.ConversationRepository,
	llmClient *llm.Client,
	publisher IEventPublisher,
	log logger.ILogger,
) IWorkerService {
	return &workerService{
		jobQueue:         jobQueue,
		conversationRepo: conversationRepo,
		llmClient:        llmClient,
		publisher:        publisher,
		logger:           log,
		locks:            make(map[uuid.UUID]*sync.Mutex),
	}
}

func (w *workerService) Start(ctx context.Context) error {
	w.logger.Info("Worker", "Starting job consumer", nil)
	return w.jobQueue.Consume(ctx, w.handle)
}

func (w *workerService) conversationLock(id uuid.UUID) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	lock, ok := w.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[id] = lock
	}
	return lock
}

// handle runs one job attempt. Any returned error marks the attempt failed;
// the queue decides whether it gets another try.
func (w *workerService) handle(ctx context.Context, job *entity.Job) (string, error) {
	lock := w.conversationLock(job.ConversationId)
	lock.Lock()
	defer lock.Unlock()

	conversation, err := w.conversationRepo.FindByOwnerAndId(ctx, job.OwnerId, job.ConversationId)
	if err != nil {
		return "", fmt.Errorf("load conversation: %w", err)
	}
	if conversation == nil {
		// The conversation may have been deleted between enqueue and
		// delivery. Treated as a normal failure so the job expires through
		// its retry budget rather than poisoning the queue.
		return "", w.fail(ctx, job, fmt.Errorf("conversation %s not found", job.ConversationId))
	}

	reply, err := w.llmClient.Complete(ctx, w.buildPrompt(job, conversation))
	if err != nil {
		return "", w.fail(ctx, job, fmt.Errorf("completion: %w", err))
	}

	conversation.Append(constant.ChatMessageRoleAssistant, reply, time.Now())
	if err := w.conversationRepo.Save(ctx, conversation); err != nil {
		return "", w.fail(ctx, job, fmt.Errorf("persist reply: %w", err))
	}

	w.publishOutcome(ctx, events.NewJobCompletedEvent(job.Id, job.ConversationId, job.OwnerId))
	return reply, nil
}

// buildPrompt prefers the job's own history snapshot when the enqueuer
// supplied one; otherwise the conversation's trailing window is used. An
// override replaces the stored context, never the job's input: the current
// message still goes last. The stored window already ends with it because
// the dispatcher persisted it before enqueueing.
func (w *workerService) buildPrompt(job *entity.Job, conversation *entity.Conversation) []llm.Message {
	window := conversation.ContextWindow(constant.ContextWindowMessages)
	if len(job.History) > 0 {
		override := job.History[:len(job.History):len(job.History)]
		window = append(override, entity.ChatMessage{
			Role:    constant.ChatMessageRoleUser,
			Content: job.Message,
		})
	}

	messages := make([]llm.Message, 0, len(window)+1)
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: constant.SystemPromptV1,
	})
	for _, msg := range window {
		messages = append(messages, llm.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return messages
}

// fail publishes the terminal failure event when this was the job's last
// attempt, then hands the error back to the queue.
func (w *workerService) fail(ctx context.Context, job *entity.Job, err error) error {
	if job.Attempts >= job.MaxAttempts {
		w.publishOutcome(ctx, events.NewJobFailedEvent(job.Id, job.ConversationId, job.OwnerId, err.Error()))
	}
	return err
}

func (w *workerService) publishOutcome(ctx context.Context, event events.Event) {
	if err := w.publisher.Publish(ctx, event); err != nil {
		w.logger.Warn("Worker", "Failed to publish job event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}
