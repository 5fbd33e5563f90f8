package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// StreamChunk is one unit of a streamed response. Exactly one terminal chunk
// is delivered per stream: either Done is true or Err is non-nil, after which
// the channel is closed.
type StreamChunk struct {
	Text string
	Done bool
	Err  error
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and emits the response incrementally.
	// The returned channel is closed after the terminal chunk. Cancelling
	// ctx aborts the stream with a terminal error chunk.
	ChatStream(ctx context.Context, history []Message, options ...Option) (<-chan StreamChunk, error)
}
