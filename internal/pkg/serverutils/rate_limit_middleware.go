package serverutils

import (
	"fmt"

	"ai-chat-platform-be/internal/dto"
	"ai-chat-platform-be/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// RateLimitMiddleware applies the fixed-window limit per client. The key is
// the authenticated user when available, the client IP otherwise.
func RateLimitMiddleware(limiter *ratelimit.Limiter) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		key := ctx.IP()
		if userId, ok := ctx.Locals("user_id").(string); ok && userId != "" {
			key = userId
		}

		decision := limiter.Admit(ctx.Context(), key)
		ctx.Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
		ctx.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))

		if !decision.Allowed {
			return &dto.RateLimitExceededError{
				Limit:      decision.Limit,
				Remaining:  decision.Remaining,
				ResetAt:    decision.ResetAt,
				RetryAfter: decision.RetryAfter,
			}
		}
		return ctx.Next()
	}
}
