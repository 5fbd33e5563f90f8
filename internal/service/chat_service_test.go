package service_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-chat-platform-be/internal/constant"
	"ai-chat-platform-be/internal/dto"
	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/internal/repository/contract"
	"ai-chat-platform-be/internal/repository/memory"
	"ai-chat-platform-be/internal/service"
	"ai-chat-platform-be/pkg/cache"
	"ai-chat-platform-be/pkg/llm"
	"ai-chat-platform-be/pkg/queue/channel"
	"ai-chat-platform-be/pkg/quota"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider answers every completion with a fixed response.
type scriptedProvider struct {
	response string
	chunks   []string
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.response, nil
}

func (p *scriptedProvider) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (<-chan llm.StreamChunk, error) {
	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		for _, text := range p.chunks {
			out <- llm.StreamChunk{Text: text}
		}
		out <- llm.StreamChunk{Done: true}
	}()
	return out, nil
}

// recordingProvider keeps every prompt it was asked to complete.
type recordingProvider struct {
	scriptedProvider
	mu      sync.Mutex
	prompts [][]llm.Message
}

func (p *recordingProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, history)
	p.mu.Unlock()
	return p.scriptedProvider.Chat(ctx, history, options...)
}

func (p *recordingProvider) lastPrompt() []llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) == 0 {
		return nil
	}
	return p.prompts[len(p.prompts)-1]
}

// countingConvRepo makes repository traffic observable to cache tests.
type countingConvRepo struct {
	contract.ConversationRepository
	finds atomic.Int32
}

func (r *countingConvRepo) FindByOwnerAndId(ctx context.Context, ownerId, id uuid.UUID) (*entity.Conversation, error) {
	r.finds.Add(1)
	return r.ConversationRepository.FindByOwnerAndId(ctx, ownerId, id)
}

type fixture struct {
	chat     service.IChatService
	worker   service.IWorkerService
	convRepo *memory.ConversationRepository
	queue    *channel.Queue
}

func newFixture(t *testing.T, provider llm.LLMProvider) *fixture {
	t.Helper()

	convRepo := memory.NewConversationRepository()
	jobRepo := memory.NewJobRepository()
	quotaStore := quota.NewStore(memory.NewQuotaRepository(), quota.Limits{Basic: 5, Pro: 10000})
	cacheStore := cache.NewMemoryCache()
	client := llm.NewClient(provider, time.Second, time.Minute, logger.NewNopLogger())
	jobQueue := channel.NewQueue("jobs.chat", jobRepo, 5*time.Millisecond, logger.NewNopLogger())
	t.Cleanup(func() { jobQueue.Close() })

	chat := service.NewChatService(
		convRepo, quotaStore, client, jobQueue, cacheStore,
		120*time.Second, 300*time.Second, 3,
		logger.NewNopLogger(),
	)
	worker := service.NewWorkerService(
		jobQueue, convRepo, client,
		service.NopEventPublisher{}, logger.NewNopLogger(),
	)
	return &fixture{chat: chat, worker: worker, convRepo: convRepo, queue: jobQueue}
}

func TestSendMessage_NewConversation(t *testing.T) {
	f := newFixture(t, &scriptedProvider{response: "Hi! How can I help?"})
	ctx := context.Background()
	userId := uuid.New()

	res, err := f.chat.SendMessage(ctx, userId, &dto.SendMessageRequest{Message: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "hi", res.ConversationTitle)
	assert.Equal(t, constant.ChatMessageRoleUser, res.Sent.Role)
	assert.Equal(t, "hi", res.Sent.Content)
	assert.Equal(t, constant.ChatMessageRoleAssistant, res.Reply.Role)
	assert.Equal(t, "Hi! How can I help?", res.Reply.Content)

	stored, err := f.convRepo.FindByOwnerAndId(ctx, userId, res.ConversationId)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Messages, 2)
}

func TestSendMessage_TitleTruncation(t *testing.T) {
	f := newFixture(t, &scriptedProvider{response: "ok"})
	userId := uuid.New()

	long := strings.Repeat("a", 80)
	res, err := f.chat.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Message: long})
	require.NoError(t, err)

	assert.Len(t, []rune(res.ConversationTitle), 50)
	assert.True(t, strings.HasSuffix(res.ConversationTitle, "..."))
}

func TestSendMessage_UnknownConversation(t *testing.T) {
	f := newFixture(t, &scriptedProvider{response: "ok"})
	missing := uuid.New()

	_, err := f.chat.SendMessage(context.Background(), uuid.New(), &dto.SendMessageRequest{
		ConversationId: &missing,
		Message:        "hello?",
	})
	assert.ErrorIs(t, err, service.ErrConversationNotFound)
}

func TestSendMessage_QuotaExhausted(t *testing.T) {
	f := newFixture(t, &scriptedProvider{response: "ok"})
	ctx := context.Background()
	userId := uuid.New()

	for i := 0; i < 5; i++ {
		_, err := f.chat.SendMessage(ctx, userId, &dto.SendMessageRequest{Message: "msg"})
		require.NoError(t, err)
	}

	_, err := f.chat.SendMessage(ctx, userId, &dto.SendMessageRequest{Message: "one too many"})
	var quotaErr *dto.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 5, quotaErr.Limit)
}

func TestSendMessage_FailedSendDoesNotConsumeQuota(t *testing.T) {
	f := newFixture(t, &scriptedProvider{response: "ok"})
	ctx := context.Background()
	userId := uuid.New()
	missing := uuid.New()

	for i := 0; i < 10; i++ {
		_, err := f.chat.SendMessage(ctx, userId, &dto.SendMessageRequest{
			ConversationId: &missing,
			Message:        "hello?",
		})
		require.Error(t, err)
	}

	status, err := f.chat.QuotaStatus(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, 5, status.Remaining, "rejected sends must not consume quota")
}

func TestSendMessageStream_EmitsFramesInOrder(t *testing.T) {
	f := newFixture(t, &scriptedProvider{chunks: []string{"Hel", "lo"}})
	ctx := context.Background()
	userId := uuid.New()

	stream, err := f.chat.SendMessageStream(ctx, userId, &dto.SendMessageRequest{Message: "hi"})
	require.NoError(t, err)

	var frames []dto.StreamEvent
	for event := range stream {
		frames = append(frames, event)
	}

	require.Len(t, frames, 4)
	assert.Equal(t, dto.StreamEventChatInfo, frames[0].Type)
	require.NotNil(t, frames[0].ConversationId)
	assert.Equal(t, dto.StreamEventContent, frames[1].Type)
	assert.Equal(t, "Hel", frames[1].Content)
	assert.Equal(t, dto.StreamEventContent, frames[2].Type)
	assert.Equal(t, "lo", frames[2].Content)
	assert.Equal(t, dto.StreamEventComplete, frames[3].Type)
	assert.Equal(t, "Hello", frames[3].FullContent)

	stored, err := f.convRepo.FindByOwnerAndId(ctx, userId, *frames[0].ConversationId)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "Hello", stored.Messages[1].Content)
}

func TestQueueMessage_WorkerCompletesJob(t *testing.T) {
	f := newFixture(t, &scriptedProvider{response: "queued answer"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	userId := uuid.New()

	go f.worker.Start(ctx)

	res, err := f.chat.QueueMessage(ctx, userId, &dto.QueueMessageRequest{Message: "answer me later"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.JobStateQueued), res.State)

	require.Eventually(t, func() bool {
		status, err := f.chat.JobStatus(ctx, userId, res.JobId)
		return err == nil && status.State == string(entity.JobStateCompleted)
	}, 2*time.Second, 10*time.Millisecond)

	status, err := f.chat.JobStatus(ctx, userId, res.JobId)
	require.NoError(t, err)
	assert.Equal(t, "queued answer", status.Result)

	stored, err := f.convRepo.FindByOwnerAndId(ctx, userId, res.ConversationId)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "queued answer", stored.Messages[1].Content)
}

func TestJobStatus_HiddenFromOtherUsers(t *testing.T) {
	f := newFixture(t, &scriptedProvider{response: "ok"})
	ctx := context.Background()

	res, err := f.chat.QueueMessage(ctx, uuid.New(), &dto.QueueMessageRequest{Message: "mine"})
	require.NoError(t, err)

	_, err = f.chat.JobStatus(ctx, uuid.New(), res.JobId)
	assert.ErrorIs(t, err, service.ErrJobNotFound)
}

func TestConversationLifecycle(t *testing.T) {
	f := newFixture(t, &scriptedProvider{response: "ok"})
	ctx := context.Background()
	userId := uuid.New()

	created, err := f.chat.CreateConversation(ctx, userId, &dto.CreateConversationRequest{Title: "Project notes"})
	require.NoError(t, err)

	list, err := f.chat.GetAllConversations(ctx, userId)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Project notes", list[0].Title)

	got, err := f.chat.GetConversation(ctx, userId, created.Id)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)

	require.NoError(t, f.chat.DeleteConversation(ctx, userId, created.Id))

	_, err = f.chat.GetConversation(ctx, userId, created.Id)
	assert.ErrorIs(t, err, service.ErrConversationNotFound)
}

func TestGetConversation_CachedReadSkipsRepository(t *testing.T) {
	repo := &countingConvRepo{ConversationRepository: memory.NewConversationRepository()}
	quotaStore := quota.NewStore(memory.NewQuotaRepository(), quota.Limits{Basic: 5, Pro: 10000})
	client := llm.NewClient(&scriptedProvider{response: "ok"}, time.Second, time.Minute, logger.NewNopLogger())
	jobQueue := channel.NewQueue("jobs.chat", memory.NewJobRepository(), 5*time.Millisecond, logger.NewNopLogger())
	t.Cleanup(func() { jobQueue.Close() })

	chat := service.NewChatService(
		repo, quotaStore, client, jobQueue, cache.NewMemoryCache(),
		120*time.Second, 300*time.Second, 3,
		logger.NewNopLogger(),
	)

	ctx := context.Background()
	owner := uuid.New()
	created, err := chat.CreateConversation(ctx, owner, &dto.CreateConversationRequest{Title: "cached"})
	require.NoError(t, err)

	// First read misses and warms the cache.
	_, err = chat.GetConversation(ctx, owner, created.Id)
	require.NoError(t, err)
	baseline := repo.finds.Load()

	for i := 0; i < 10; i++ {
		got, err := chat.GetConversation(ctx, owner, created.Id)
		require.NoError(t, err)
		assert.Equal(t, "cached", got.Title)
	}
	assert.Equal(t, baseline, repo.finds.Load(), "cached reads must not touch the repository")

	// The cached payload carries the owner, so strangers are rejected
	// without a lookup either.
	_, err = chat.GetConversation(ctx, uuid.New(), created.Id)
	assert.ErrorIs(t, err, service.ErrConversationNotFound)
	assert.Equal(t, baseline, repo.finds.Load())
}

func TestQueueMessage_HistoryOverrideKeepsCurrentMessage(t *testing.T) {
	provider := &recordingProvider{scriptedProvider: scriptedProvider{response: "noted"}}
	f := newFixture(t, provider)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	userId := uuid.New()

	go f.worker.Start(ctx)

	res, err := f.chat.QueueMessage(ctx, userId, &dto.QueueMessageRequest{
		Message: "the actual question",
		History: []dto.ChatHistoryEntry{
			{Role: constant.ChatMessageRoleUser, Content: "older context"},
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, err := f.chat.JobStatus(ctx, userId, res.JobId)
		return err == nil && status.State == string(entity.JobStateCompleted)
	}, 2*time.Second, 10*time.Millisecond)

	prompt := provider.lastPrompt()
	require.Len(t, prompt, 3, "system prompt, override turn, current message")
	assert.Equal(t, constant.ChatMessageRoleSystem, prompt[0].Role)
	assert.Equal(t, "older context", prompt[1].Content)
	assert.Equal(t, constant.ChatMessageRoleUser, prompt[2].Role)
	assert.Equal(t, "the actual question", prompt[2].Content)
}

func TestGetConversation_OtherUsersCannotRead(t *testing.T) {
	f := newFixture(t, &scriptedProvider{response: "ok"})
	ctx := context.Background()
	owner := uuid.New()

	created, err := f.chat.CreateConversation(ctx, owner, &dto.CreateConversationRequest{})
	require.NoError(t, err)

	// Warm the cache as the owner, then read as a stranger.
	_, err = f.chat.GetConversation(ctx, owner, created.Id)
	require.NoError(t, err)

	_, err = f.chat.GetConversation(ctx, uuid.New(), created.Id)
	assert.ErrorIs(t, err, service.ErrConversationNotFound)
}
