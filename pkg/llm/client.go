package llm

import (
	"context"
	"errors"
	"time"

	"ai-chat-platform-be/internal/constant"
	"ai-chat-platform-be/internal/pkg/logger"
)

// Client wraps a provider with the latency policy the chat flows rely on:
// a hard per-request timeout with an apology fallback for synchronous
// completions, and a looser overall deadline for streams. Provider errors
// other than a timeout pass through untouched so callers can retry.
type Client struct {
	provider      LLMProvider
	timeout       time.Duration
	streamTimeout time.Duration
	logger        logger.ILogger
}

func NewClient(provider LLMProvider, timeout, streamTimeout time.Duration, log logger.ILogger) *Client {
	return &Client{
		provider:      provider,
		timeout:       timeout,
		streamTimeout: streamTimeout,
		logger:        log,
	}
}

// Complete runs a full chat completion. If the provider does not answer
// within the configured timeout, the user gets a canned apology instead of
// a hard failure; the caller cannot tell the difference and should not.
func (c *Client) Complete(ctx context.Context, history []Message, options ...Option) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.provider.Chat(reqCtx, history, options...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			c.logger.Warn("Llm", "Completion timed out, returning fallback", map[string]interface{}{
				"timeout": c.timeout.String(),
			})
			return constant.FallbackApologyV1, nil
		}
		return "", err
	}
	return response, nil
}

// CompleteStream opens a streamed completion bounded by the stream timeout.
// Chunks are relayed as-is; the terminal chunk carries either Done or the
// provider's error.
func (c *Client) CompleteStream(ctx context.Context, history []Message, options ...Option) (<-chan StreamChunk, error) {
	streamCtx, cancel := context.WithTimeout(ctx, c.streamTimeout)

	upstream, err := c.provider.ChatStream(streamCtx, history, options...)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer cancel()
		for chunk := range upstream {
			out <- chunk
			if chunk.Done || chunk.Err != nil {
				return
			}
		}
		// Upstream closed without a terminal chunk. Surface it so consumers
		// are not left guessing whether the response is complete.
		out <- StreamChunk{Err: errors.New("llm: stream ended without completion")}
	}()
	return out, nil
}
