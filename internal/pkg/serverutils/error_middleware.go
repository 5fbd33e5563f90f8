package serverutils

import (
	"errors"
	"fmt"

	"ai-chat-platform-be/internal/dto"
	"ai-chat-platform-be/internal/service"
	"ai-chat-platform-be/pkg/queue"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware translates domain errors into HTTP responses so
// controllers can return errors untouched.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var rateLimitErr *dto.RateLimitExceededError
		if errors.As(err, &rateLimitErr) {
			ctx.Set("Retry-After", fmt.Sprintf("%d", int(rateLimitErr.RetryAfter.Seconds())))
			ctx.Set("X-RateLimit-Limit", fmt.Sprintf("%d", rateLimitErr.Limit))
			ctx.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", rateLimitErr.Remaining))
			return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":    false,
				"message":    rateLimitErr.Error(),
				"error_type": "RATE_LIMIT_EXCEEDED",
				"data":       rateLimitErr,
			})
		}

		var quotaErr *dto.QuotaExceededError
		if errors.As(err, &quotaErr) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":    false,
				"message":    quotaErr.Error(),
				"error_type": "QUOTA_EXCEEDED",
				"data":       quotaErr,
			})
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(validationErr.Error()))
		}

		if errors.Is(err, service.ErrConversationNotFound) || errors.Is(err, service.ErrJobNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(err.Error()))
		}

		if errors.Is(err, queue.ErrQueueUnavailable) {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse("service temporarily unavailable, please retry"))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
	}
}
