package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-chat-platform-be/pkg/llm"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiProvider struct {
	BaseURL   string
	ApiKey    string
	ModelName string
	Client    *http.Client
}

// Ensure GeminiProvider implements LLMProvider
var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(apiKey, modelName string) *GeminiProvider {
	return &GeminiProvider{
		BaseURL:   defaultBaseURL,
		ApiKey:    apiKey,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type geminiChatParts struct {
	Text string `json:"text"`
}

type geminiChatContent struct {
	Parts []*geminiChatParts `json:"parts"`
	Role  string             `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiChatRequest struct {
	Contents          []*geminiChatContent    `json:"contents"`
	SystemInstruction *geminiChatContent      `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiChatCandidate struct {
	Content *geminiChatContent `json:"content"`
}

type geminiChatResponse struct {
	Candidates []*geminiChatCandidate `json:"candidates"`
}

// buildRequest maps the generic history to the Gemini wire shape. Gemini has
// no "assistant" role and takes the system prompt out-of-band.
func (g *GeminiProvider) buildRequest(history []llm.Message, options *llm.Options) *geminiChatRequest {
	payload := &geminiChatRequest{
		Contents: make([]*geminiChatContent, 0, len(history)),
	}

	for _, msg := range history {
		if msg.Role == "system" {
			payload.SystemInstruction = &geminiChatContent{
				Parts: []*geminiChatParts{{Text: msg.Content}},
			}
			continue
		}
		role := msg.Role
		if role == "assistant" {
			role = "model"
		}
		payload.Contents = append(payload.Contents, &geminiChatContent{
			Parts: []*geminiChatParts{{Text: msg.Content}},
			Role:  role,
		})
	}

	if options.Temperature > 0 || options.MaxTokens > 0 {
		payload.GenerationConfig = &geminiGenerationConfig{
			Temperature:     options.Temperature,
			MaxOutputTokens: options.MaxTokens,
		}
	}
	return payload
}

func (g *GeminiProvider) newRequest(ctx context.Context, endpoint string, payload *geminiChatRequest) (*http.Request, error) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", g.ApiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (g *GeminiProvider) modelFor(options *llm.Options) string {
	if options.Model != "" {
		return options.Model
	}
	return g.ModelName
}

// --- Interface Implementation ---

func (g *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.BaseURL, g.modelFor(options))
	req, err := g.newRequest(ctx, endpoint, g.buildRequest(history, options))
	if err != nil {
		return "", err
	}

	res, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"gemini error: status %d, body: %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var geminiRes geminiChatResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil || len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini error: empty candidates in response")
	}
	return geminiRes.Candidates[0].Content.Parts[0].Text, nil
}

func (g *GeminiProvider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.StreamChunk, error) {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", g.BaseURL, g.modelFor(options))
	req, err := g.newRequest(ctx, endpoint, g.buildRequest(history, options))
	if err != nil {
		return nil, err
	}

	res, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		resBody, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return nil, fmt.Errorf(
			"gemini error: status %d, body: %s",
			res.StatusCode,
			string(resBody),
		)
	}

	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		defer res.Body.Close()

		scanner := bufio.NewScanner(res.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			var chunk geminiChatResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				out <- llm.StreamChunk{Err: fmt.Errorf("unmarshal stream chunk: %w", err)}
				return
			}
			if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
				continue
			}
			for _, part := range chunk.Candidates[0].Content.Parts {
				if part.Text == "" {
					continue
				}
				select {
				case out <- llm.StreamChunk{Text: part.Text}:
				case <-ctx.Done():
					out <- llm.StreamChunk{Err: ctx.Err()}
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			out <- llm.StreamChunk{Err: fmt.Errorf("read stream: %w", err)}
			return
		}
		out <- llm.StreamChunk{Done: true}
	}()
	return out, nil
}
