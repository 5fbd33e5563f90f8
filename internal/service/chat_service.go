package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ai-chat-platform-be/internal/constant"
	"ai-chat-platform-be/internal/dto"
	"ai-chat-platform-be/internal/entity"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/internal/repository/contract"
	"ai-chat-platform-be/pkg/cache"
	"ai-chat-platform-be/pkg/llm"
	"ai-chat-platform-be/pkg/queue"
	"ai-chat-platform-be/pkg/quota"

	"github.com/google/uuid"
)

type IChatService interface {
	CreateConversation(ctx context.Context, userId uuid.UUID, req *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error)
	GetAllConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationSummaryResponse, error)
	GetConversation(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ConversationResponse, error)
	DeleteConversation(ctx context.Context, userId uuid.UUID, id uuid.UUID) error

	SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	SendMessageStream(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (<-chan dto.StreamEvent, error)

	QueueMessage(ctx context.Context, userId uuid.UUID, req *dto.QueueMessageRequest) (*dto.QueueMessageResponse, error)
	JobStatus(ctx context.Context, userId uuid.UUID, jobId uuid.UUID) (*dto.JobStatusResponse, error)

	QuotaStatus(ctx context.Context, userId uuid.UUID) (*dto.QuotaStatusResponse, error)
}

type chatService struct {
	conversationRepo contract.ConversationRepository
	quotaStore       *quota.Store
	llmClient        *llm.Client
	jobQueue         queue.Queue
	cache            cache.Cache
	listTTL          time.Duration
	conversationTTL  time.Duration
	maxAttempts      int
	logger           logger.ILogger
}

func NewChatService(
	conversationRepo contract.ConversationRepository,
	quotaStore *quota.Store,
	llmClient *llm.Client,
	jobQueue queue.Queue,
	cacheStore cache.Cache,
	listTTL time.Duration,
	conversationTTL time.Duration,
	maxAttempts int,
	log logger.ILogger,
) IChatService {
	return &chatService{
		conversationRepo: conversationRepo,
		quotaStore:       quotaStore,
		llmClient:        llmClient,
		jobQueue:         jobQueue,
		cache:            cacheStore,
		listTTL:          listTTL,
		conversationTTL:  conversationTTL,
		maxAttempts:      maxAttempts,
		logger:           log,
	}
}

// --- Conversation CRUD ---

func (c *chatService) CreateConversation(ctx context.Context, userId uuid.UUID, req *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error) {
	now := time.Now()
	conversation := &entity.Conversation{
		Id:           uuid.New(),
		OwnerId:      userId,
		Title:        req.Title,
		Messages:     make([]entity.ChatMessage, 0),
		LastActivity: now,
		CreatedAt:    now,
	}
	if conversation.Title == "" {
		conversation.Title = "New Conversation"
	}

	if err := c.conversationRepo.Save(ctx, conversation); err != nil {
		return nil, err
	}

	return &dto.CreateConversationResponse{Id: conversation.Id}, nil
}

func (c *chatService) GetAllConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationSummaryResponse, error) {
	cacheKey := cache.UserConversationsKey(userId)
	if data, found := c.cache.Get(ctx, cacheKey); found {
		var cached []*dto.ConversationSummaryResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	conversations, err := c.conversationRepo.ListByOwner(ctx, userId)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ConversationSummaryResponse, 0, len(conversations))
	for _, conversation := range conversations {
		result = append(result, &dto.ConversationSummaryResponse{
			Id:           conversation.Id,
			Title:        conversation.Title,
			LastActivity: conversation.LastActivity,
			CreatedAt:    conversation.CreatedAt,
			UpdatedAt:    conversation.UpdatedAt,
		})
	}

	if data, err := json.Marshal(result); err == nil {
		c.cache.Set(ctx, cacheKey, data, c.listTTL)
	}
	return result, nil
}

// cachedConversation carries the owner alongside the payload. The key is
// conversation scoped, so a hit must not double as authorization; comparing
// the stored owner keeps cached reads off the repository entirely.
type cachedConversation struct {
	OwnerId      uuid.UUID                `json:"owner_id"`
	Conversation dto.ConversationResponse `json:"conversation"`
}

func (c *chatService) GetConversation(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ConversationResponse, error) {
	cacheKey := cache.ConversationKey(id)
	if data, found := c.cache.Get(ctx, cacheKey); found {
		var cached cachedConversation
		if err := json.Unmarshal(data, &cached); err == nil {
			if cached.OwnerId != userId {
				return nil, ErrConversationNotFound
			}
			return &cached.Conversation, nil
		}
	}

	conversation, err := c.conversationRepo.FindByOwnerAndId(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	result := mapConversation(conversation)
	if data, err := json.Marshal(cachedConversation{OwnerId: userId, Conversation: *result}); err == nil {
		c.cache.Set(ctx, cacheKey, data, c.conversationTTL)
	}
	return result, nil
}

func (c *chatService) DeleteConversation(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	deleted, err := c.conversationRepo.DeleteByOwnerAndId(ctx, userId, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrConversationNotFound
	}

	c.cache.Delete(ctx, cache.ConversationKey(id))
	c.cache.Delete(ctx, cache.UserConversationsKey(userId))
	return nil
}

// --- Synchronous send ---

// prepareSend validates the request, resolves or creates the target
// conversation, and consumes one quota unit. The consuming call happens only
// once the request is known to be serviceable; the earlier Check is a fast
// reject that spares exhausted users the conversation lookup.
func (c *chatService) prepareSend(ctx context.Context, userId uuid.UUID, conversationId *uuid.UUID, messageText string) (*entity.Conversation, error) {
	peek, err := c.quotaStore.Check(ctx, userId)
	if err != nil {
		return nil, err
	}
	if !peek.CanSend {
		return nil, &dto.QuotaExceededError{
			Limit:      peek.Limit,
			Used:       peek.Limit - peek.Remaining,
			ResetAfter: peek.ResetAt,
		}
	}

	var conversation *entity.Conversation
	now := time.Now()

	if conversationId != nil {
		existing, err := c.conversationRepo.FindByOwnerAndId(ctx, userId, *conversationId)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrConversationNotFound
		}
		conversation = existing
	} else {
		conversation = &entity.Conversation{
			Id:           uuid.New(),
			OwnerId:      userId,
			Title:        generateTitle(messageText),
			Messages:     make([]entity.ChatMessage, 0),
			LastActivity: now,
			CreatedAt:    now,
		}
	}

	status, err := c.quotaStore.CheckAndConsume(ctx, userId)
	if err != nil {
		return nil, err
	}
	if !status.CanSend {
		return nil, &dto.QuotaExceededError{
			Limit:      status.Limit,
			Used:       status.Limit - status.Remaining,
			ResetAfter: status.ResetAt,
		}
	}

	// The user message is saved before any model call so input survives a
	// failed or interrupted completion. Cached reads keep serving the
	// pre-send snapshot until their TTL lapses.
	conversation.Append(constant.ChatMessageRoleUser, messageText, now)
	if err := c.conversationRepo.Save(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (c *chatService) buildPrompt(conversation *entity.Conversation) []llm.Message {
	window := conversation.ContextWindow(constant.ContextWindowMessages)
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

func (c *chatService) SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	conversation, err := c.prepareSend(ctx, userId, req.ConversationId, req.Message)
	if err != nil {
		return nil, err
	}

	reply, err := c.llmClient.Complete(ctx, c.buildPrompt(conversation))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	conversation.Append(constant.ChatMessageRoleAssistant, reply, now)
	if err := c.conversationRepo.Save(ctx, conversation); err != nil {
		return nil, err
	}

	sent := conversation.Messages[len(conversation.Messages)-2]
	replied := conversation.Messages[len(conversation.Messages)-1]
	return &dto.SendMessageResponse{
		ConversationId:    conversation.Id,
		ConversationTitle: conversation.Title,
		Sent: &dto.ChatMessageResponse{
			Role:      sent.Role,
			Content:   sent.Content,
			Timestamp: sent.Timestamp,
		},
		Reply: &dto.ChatMessageResponse{
			Role:      replied.Role,
			Content:   replied.Content,
			Timestamp: replied.Timestamp,
		},
	}, nil
}

// SendMessageStream runs the same pipeline as SendMessage but emits the reply
// incrementally. The assistant message is persisted once, after the stream
// finishes; a stream error persists nothing.
func (c *chatService) SendMessageStream(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (<-chan dto.StreamEvent, error) {
	conversation, err := c.prepareSend(ctx, userId, req.ConversationId, req.Message)
	if err != nil {
		return nil, err
	}

	upstream, err := c.llmClient.CompleteStream(ctx, c.buildPrompt(conversation))
	if err != nil {
		return nil, err
	}

	out := make(chan dto.StreamEvent)
	go func() {
		defer close(out)

		conversationId := conversation.Id
		out <- dto.StreamEvent{
			Type:              dto.StreamEventChatInfo,
			ConversationId:    &conversationId,
			ConversationTitle: conversation.Title,
		}

		var full strings.Builder
		for chunk := range upstream {
			if chunk.Err != nil {
				c.logger.Error("Chat", "Stream failed", map[string]interface{}{
					"conversation_id": conversationId.String(),
					"error":           chunk.Err.Error(),
				})
				out <- dto.StreamEvent{
					Type:    dto.StreamEventError,
					Message: "The response stream was interrupted. Please try again.",
				}
				return
			}
			if chunk.Done {
				break
			}
			full.WriteString(chunk.Text)
			out <- dto.StreamEvent{
				Type:    dto.StreamEventContent,
				Content: chunk.Text,
			}
		}

		reply := full.String()
		conversation.Append(constant.ChatMessageRoleAssistant, reply, time.Now())
		if err := c.conversationRepo.Save(context.WithoutCancel(ctx), conversation); err != nil {
			c.logger.Error("Chat", "Failed to persist streamed reply", map[string]interface{}{
				"conversation_id": conversationId.String(),
				"error":           err.Error(),
			})
			out <- dto.StreamEvent{
				Type:    dto.StreamEventError,
				Message: "The response could not be saved. Please try again.",
			}
			return
		}

		out <- dto.StreamEvent{
			Type:        dto.StreamEventComplete,
			FullContent: reply,
		}
	}()
	return out, nil
}

// --- Asynchronous send ---

func (c *chatService) QueueMessage(ctx context.Context, userId uuid.UUID, req *dto.QueueMessageRequest) (*dto.QueueMessageResponse, error) {
	conversation, err := c.prepareSend(ctx, userId, req.ConversationId, req.Message)
	if err != nil {
		return nil, err
	}

	job := &entity.Job{
		Id:             uuid.New(),
		OwnerId:        userId,
		ConversationId: conversation.Id,
		Message:        req.Message,
		MaxAttempts:    c.maxAttempts,
		CreatedAt:      time.Now(),
	}
	if len(req.History) > 0 {
		job.History = make([]entity.ChatMessage, 0, len(req.History))
		for _, turn := range req.History {
			job.History = append(job.History, entity.ChatMessage{
				Role:    turn.Role,
				Content: turn.Content,
			})
		}
	}
	if err := c.jobQueue.Enqueue(ctx, job); err != nil {
		return nil, err
	}

	c.logger.Info("Chat", "Message queued", map[string]interface{}{
		"job_id":          job.Id.String(),
		"conversation_id": conversation.Id.String(),
	})
	return &dto.QueueMessageResponse{
		JobId:          job.Id,
		ConversationId: conversation.Id,
		State:          string(entity.JobStateQueued),
	}, nil
}

func (c *chatService) JobStatus(ctx context.Context, userId uuid.UUID, jobId uuid.UUID) (*dto.JobStatusResponse, error) {
	job, err := c.jobQueue.Status(ctx, jobId)
	if err != nil {
		return nil, err
	}
	if job == nil || job.OwnerId != userId {
		return nil, ErrJobNotFound
	}

	updatedAt := job.CreatedAt
	if job.UpdatedAt != nil {
		updatedAt = *job.UpdatedAt
	}
	return &dto.JobStatusResponse{
		JobId:          job.Id,
		ConversationId: job.ConversationId,
		State:          string(job.State),
		Attempts:       job.Attempts,
		Result:         job.Result,
		LastError:      job.LastError,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// --- Quota ---

func (c *chatService) QuotaStatus(ctx context.Context, userId uuid.UUID) (*dto.QuotaStatusResponse, error) {
	status, err := c.quotaStore.Check(ctx, userId)
	if err != nil {
		return nil, err
	}
	return &dto.QuotaStatusResponse{
		CanSend:   status.CanSend,
		Remaining: status.Remaining,
		Limit:     status.Limit,
		Tier:      status.Tier,
		ResetAt:   status.ResetAt,
	}, nil
}

// --- Helpers ---

func mapConversation(conversation *entity.Conversation) *dto.ConversationResponse {
	messages := make([]dto.ChatMessageResponse, 0, len(conversation.Messages))
	for _, msg := range conversation.Messages {
		messages = append(messages, dto.ChatMessageResponse{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	return &dto.ConversationResponse{
		Id:           conversation.Id,
		Title:        conversation.Title,
		Messages:     messages,
		LastActivity: conversation.LastActivity,
		CreatedAt:    conversation.CreatedAt,
		UpdatedAt:    conversation.UpdatedAt,
	}
}

// generateTitle derives a conversation title from the first message. Titles
// are capped at 50 runes, ellipsis included.
func generateTitle(message string) string {
	title := strings.TrimSpace(message)
	if title == "" {
		return "New Conversation"
	}

	runes := []rune(title)
	if len(runes) <= constant.ConversationTitleMaxLen {
		return title
	}
	return string(runes[:constant.ConversationTitleMaxLen-3]) + "..."
}
