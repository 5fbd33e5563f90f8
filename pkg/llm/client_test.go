package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-chat-platform-be/internal/constant"
	"ai-chat-platform-be/internal/pkg/logger"
	"ai-chat-platform-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider scripts provider behavior per test.
type fakeProvider struct {
	delay    time.Duration
	response string
	err      error
	chunks   []llm.StreamChunk
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeProvider) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (<-chan llm.StreamChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		for _, chunk := range f.chunks {
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func TestClient_CompletePassesThrough(t *testing.T) {
	provider := &fakeProvider{response: "Hello there"}
	client := llm.NewClient(provider, time.Second, time.Minute, logger.NewNopLogger())

	got, err := client.Complete(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", got)
}

func TestClient_CompleteTimesOutWithApology(t *testing.T) {
	provider := &fakeProvider{delay: 200 * time.Millisecond, response: "too late"}
	client := llm.NewClient(provider, 50*time.Millisecond, time.Minute, logger.NewNopLogger())

	got, err := client.Complete(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err, "a slow provider should degrade, not fail")
	assert.Equal(t, constant.FallbackApologyV1, got)
}

func TestClient_CompletePropagatesProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream 500")}
	client := llm.NewClient(provider, time.Second, time.Minute, logger.NewNopLogger())

	_, err := client.Complete(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	assert.ErrorContains(t, err, "upstream 500")
}

func TestClient_CompletePropagatesCallerCancellation(t *testing.T) {
	provider := &fakeProvider{delay: time.Second}
	client := llm.NewClient(provider, 10*time.Second, time.Minute, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, []llm.Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err, "caller cancellation must not be swallowed by the fallback")
}

func TestClient_CompleteStreamRelaysChunks(t *testing.T) {
	provider := &fakeProvider{chunks: []llm.StreamChunk{
		{Text: "Hel"},
		{Text: "lo"},
		{Done: true},
	}}
	client := llm.NewClient(provider, time.Second, time.Minute, logger.NewNopLogger())

	stream, err := client.CompleteStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	var text string
	var done bool
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		text += chunk.Text
		done = chunk.Done
	}
	assert.Equal(t, "Hello", text)
	assert.True(t, done)
}

func TestClient_CompleteStreamSurfacesTruncation(t *testing.T) {
	provider := &fakeProvider{chunks: []llm.StreamChunk{{Text: "partial"}}}
	client := llm.NewClient(provider, time.Second, time.Minute, logger.NewNopLogger())

	stream, err := client.CompleteStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	var last llm.StreamChunk
	for chunk := range stream {
		last = chunk
	}
	assert.Error(t, last.Err, "a stream that ends without a terminal chunk is an error")
}
