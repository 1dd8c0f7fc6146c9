package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"claimcheck/internal/config"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
// Ollama serves this API at <base>/v1, which is the default judge here.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAI(cfg config.LLM) *OpenAIClient {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// Ollama ignores the key but the client requires a bearer token.
		apiKey = "ollama"
	}
	cc := openai.DefaultConfig(apiKey)
	cc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	slog.Info("initialized OpenAI-compatible LLM client", "base_url", cc.BaseURL, "model", cfg.Model)
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, msgs []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages:    toChatMessages(msgs),
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func toChatMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
