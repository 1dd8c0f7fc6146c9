package llm

import (
	"context"
	"errors"
	"fmt"

	"claimcheck/internal/config"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a chat-style completion request.
type Message struct {
	Role    string
	Content string
}

// System and User build messages for the two supported roles.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: RoleUser, Content: content} }

// ErrTransport marks failures to reach the model backend, as opposed to
// the backend answering with nothing useful (ErrEmptyResponse). Callers
// check with errors.Is.
var ErrTransport = errors.New("llm backend unreachable")

// ErrEmptyResponse means the backend answered but produced no text.
var ErrEmptyResponse = errors.New("empty model response")

// Client is the uniform text-completion gateway. Complete blocks the
// calling goroutine and suspends only at the network boundary, so it is
// safe to fan out from multiple goroutines.
type Client interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
}

// SchemaClient is implemented by backends that support schema-constrained
// JSON output. Callers that need structured responses should prefer this
// over scanning free text when the backend offers it.
type SchemaClient interface {
	CompleteJSON(ctx context.Context, msgs []Message, schema map[string]any) (string, error)
}

// New selects a gateway implementation from the configured provider.
func New(cfg config.LLM) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg), nil
	case "gemini":
		return NewGemini(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
