package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"claimcheck/internal/config"
)

// GeminiClient is the Gemini variant of the gateway. It also implements
// SchemaClient: Gemini can constrain its output to a JSON schema, which
// spares callers the free-text JSON extraction path.
type GeminiClient struct {
	apiKey      string
	model       string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
}

func NewGemini(cfg config.LLM) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini provider requires an API key")
	}
	return &GeminiClient{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   int32(cfg.MaxTokens),
		timeout:     cfg.Timeout,
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, msgs []Message) (string, error) {
	return c.generate(ctx, msgs, nil)
}

func (c *GeminiClient) CompleteJSON(ctx context.Context, msgs []Message, schema map[string]any) (string, error) {
	return c.generate(ctx, msgs, schema)
}

func (c *GeminiClient) generate(ctx context.Context, msgs []Message, schema map[string]any) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: c.apiKey})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     &c.temperature,
		MaxOutputTokens: c.maxTokens,
	}
	if sys := systemText(msgs); sys != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: sys}}}
	}
	if schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = schema
	}

	result, err := client.Models.GenerateContent(ctx, c.model, userContents(msgs), cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *GeminiClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func systemText(msgs []Message) string {
	var parts []string
	for _, m := range msgs {
		if m.Role == RoleSystem {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func userContents(msgs []Message) []*genai.Content {
	var parts []*genai.Part
	for _, m := range msgs {
		if m.Role != RoleSystem {
			parts = append(parts, &genai.Part{Text: m.Content})
		}
	}
	return []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
}
