package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"claimcheck/internal/llm"
)

const reasoningSystemPrompt = `You are a data analyst. You cannot execute code or access the raw data. Based only on the dataset description, reason about what evidence would support or refute the claim: which columns matter, what relationships you would expect, and what analysis would settle it. Be concrete and concise.`

// ReasoningAnalyzer is the no-sandbox fallback: it asks the model to
// reason about the evidence instead of computing it.
type ReasoningAnalyzer struct {
	llm llm.Client
}

func NewReasoningAnalyzer(client llm.Client) *ReasoningAnalyzer {
	return &ReasoningAnalyzer{llm: client}
}

func (a *ReasoningAnalyzer) Analyze(ctx context.Context, claim string, dataset DatasetContext) (Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	user := fmt.Sprintf("Dataset: %s\n\nClaim: %s\n\nWhat evidence would support or refute this claim?", dataset.Summary, claim)
	resp, err := a.llm.Complete(ctx, []llm.Message{llm.System(reasoningSystemPrompt), llm.User(user)})
	if err != nil {
		slog.Warn("reasoning analysis failed", "error", err)
		return failure(start, err), nil
	}
	slog.Info("reasoning analysis finished", "elapsed", time.Since(start))
	return Result{
		Success:       true,
		Stdout:        resp,
		ExecutionTime: time.Since(start),
	}, nil
}
