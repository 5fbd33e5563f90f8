package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"ai-chat-platform-be/internal/dto"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/internal/pkg/serverutils"
	"ai-chat-platform-be/internal/service"
	"ai-chat-platform-be/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateConversation(ctx *fiber.Ctx) error
	GetAllConversations(ctx *fiber.Ctx) error
	ShowConversation(ctx *fiber.Ctx) error
	DeleteConversation(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	SendStream(ctx *fiber.Ctx) error
	Queue(ctx *fiber.Ctx) error
	JobStatus(ctx *fiber.Ctx) error
	QuotaStatus(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	limiter *ratelimit.Limiter
	logger  logger.ILogger
}

func NewChatController(chatService service.IChatService, limiter *ratelimit.Limiter, log logger.ILogger) IChatController {
	return &chatController{service: chatService, limiter: limiter, logger: log}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Use(serverutils.RateLimitMiddleware(c.limiter))

	h.Post("/conversations", c.CreateConversation)
	h.Get("/conversations", c.GetAllConversations)
	h.Get("/conversations/:id", c.ShowConversation)
	h.Delete("/conversations/:id", c.DeleteConversation)

	h.Post("/message", c.Send)
	h.Post("/message/stream", c.SendStream)
	h.Post("/message/queue", c.Queue)

	h.Get("/jobs/:id/status", c.JobStatus)

	h.Get("/quota", c.QuotaStatus)
}

func userIdFromCtx(ctx *fiber.Ctx) uuid.UUID {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	return userId
}

func (c *chatController) CreateConversation(ctx *fiber.Ctx) error {
	userId := userIdFromCtx(ctx)

	var req dto.CreateConversationRequest
	if err := ctx.BodyParser(&req); err != nil && len(ctx.Body()) > 0 {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateConversation(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create conversation", res))
}

func (c *chatController) GetAllConversations(ctx *fiber.Ctx) error {
	userId := userIdFromCtx(ctx)

	res, err := c.service.GetAllConversations(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all conversations", res))
}

func (c *chatController) ShowConversation(ctx *fiber.Ctx) error {
	userId := userIdFromCtx(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return service.ErrConversationNotFound
	}

	res, err := c.service.GetConversation(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show conversation", res))
}

func (c *chatController) DeleteConversation(ctx *fiber.Ctx) error {
	userId := userIdFromCtx(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return service.ErrConversationNotFound
	}

	if err := c.service.DeleteConversation(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete conversation", nil))
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	userId := userIdFromCtx(ctx)

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

// SendStream replies over SSE. Pre-stream failures (validation, quota,
// unknown conversation) still surface as plain JSON errors; once streaming
// starts, failures arrive as an error frame.
func (c *chatController) SendStream(ctx *fiber.Ctx) error {
	userId := userIdFromCtx(ctx)

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// The fiber context is recycled once this handler returns, but the body
	// stream writer keeps running. The stream gets its own context; the llm
	// client's stream timeout bounds its lifetime.
	stream, err := c.service.SendMessageStream(context.Background(), userId, &req)
	if err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for event := range stream {
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				// Client went away; drain so the producer can finish
				// persisting the reply.
				for range stream {
				}
				return
			}
		}
	}))
	return nil
}

func (c *chatController) Queue(ctx *fiber.Ctx) error {
	userId := userIdFromCtx(ctx)

	var req dto.QueueMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.QueueMessage(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Message queued", res))
}

func (c *chatController) JobStatus(ctx *fiber.Ctx) error {
	userId := userIdFromCtx(ctx)
	jobId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return service.ErrJobNotFound
	}

	res, err := c.service.JobStatus(ctx.Context(), userId, jobId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get job status", res))
}

func (c *chatController) QuotaStatus(ctx *fiber.Ctx) error {
	userId := userIdFromCtx(ctx)

	res, err := c.service.QuotaStatus(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get quota status", res))
}
