package websocket

import (
	"context"
	"os"

	"ai-chat-platform-be/internal/dto"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/internal/service"
	"ai-chat-platform-be/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ChatHandler streams replies over a websocket. Each inbound frame is one
// send request; the reply arrives as a sequence of StreamEvent frames.
// Browsers cannot set headers on websocket upgrades, so the JWT rides the
// token query parameter instead of the Authorization header.
type ChatHandler struct {
	service service.IChatService
	limiter *ratelimit.Limiter
	hub     *JobEventHub
	logger  logger.ILogger
}

func NewChatHandler(chatService service.IChatService, limiter *ratelimit.Limiter, hub *JobEventHub, log logger.ILogger) *ChatHandler {
	return &ChatHandler{service: chatService, limiter: limiter, hub: hub, logger: log}
}

func (h *ChatHandler) RegisterRoutes(r fiber.Router) {
	ws := r.Group("/chat/v1")

	ws.Use("/ws", func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}

		userId, err := parseToken(ctx.Query("token"))
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
		}
		ctx.Locals("user_id", userId)
		return ctx.Next()
	})

	ws.Get("/ws", websocket.New(h.serve))
	ws.Get("/ws/jobs", websocket.New(h.serveJobs))
}

func parseToken(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}
	userIdStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}
	return uuid.Parse(userIdStr)
}

func (h *ChatHandler) serve(conn *websocket.Conn) {
	defer conn.Close()

	userId, ok := conn.Locals("user_id").(uuid.UUID)
	if !ok {
		return
	}

	for {
		var req dto.SendMessageRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		if err := h.admit(userId); err != nil {
			if writeErr := conn.WriteJSON(dto.StreamEvent{
				Type:    dto.StreamEventError,
				Message: err.Error(),
			}); writeErr != nil {
				return
			}
			continue
		}

		stream, err := h.service.SendMessageStream(context.Background(), userId, &req)
		if err != nil {
			if writeErr := conn.WriteJSON(dto.StreamEvent{
				Type:    dto.StreamEventError,
				Message: err.Error(),
			}); writeErr != nil {
				return
			}
			continue
		}

		for event := range stream {
			if err := conn.WriteJSON(event); err != nil {
				// Client went away; drain so the reply still gets persisted.
				for range stream {
				}
				return
			}
		}
	}
}

// admit applies the same fixed-window limit the HTTP edge enforces; every
// inbound send frame counts as one request against the user's key.
func (h *ChatHandler) admit(userId uuid.UUID) error {
	decision := h.limiter.Admit(context.Background(), userId.String())
	if decision.Allowed {
		return nil
	}
	return &dto.RateLimitExceededError{
		Limit:      decision.Limit,
		Remaining:  decision.Remaining,
		ResetAt:    decision.ResetAt,
		RetryAfter: decision.RetryAfter,
	}
}

// serveJobs pushes terminal job frames for the authenticated user. The read
// side only watches for the client closing the socket.
func (h *ChatHandler) serveJobs(conn *websocket.Conn) {
	defer conn.Close()

	userId, ok := conn.Locals("user_id").(uuid.UUID)
	if !ok {
		return
	}

	frames, cancel := h.hub.Subscribe(userId)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
