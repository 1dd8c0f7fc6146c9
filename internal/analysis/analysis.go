// Package analysis produces the evidence the judge uses to ground
// metric scores: either real output from generated code executed in a
// sandbox against the dataset, or free-text reasoning when no sandbox
// credential is configured.
package analysis

import (
	"context"
	"strings"
	"time"

	"claimcheck/internal/config"
	"claimcheck/internal/llm"
)

// DatasetContext describes the dataset to the model without shipping
// the raw data: a free-text summary plus an optional task description.
type DatasetContext struct {
	Summary         string
	TaskDescription string
}

// Result is the immutable outcome of one grounding attempt.
// Success=false means judging proceeds without evidence.
type Result struct {
	Success       bool          `json:"success"`
	Stdout        string        `json:"stdout"`
	Stderr        string        `json:"stderr"`
	Code          string        `json:"code_executed,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

// Summary renders the result as judging context. Empty when the
// analysis failed outright.
func (r Result) Summary() string {
	if !r.Success {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.Stdout))
	if s := strings.TrimSpace(r.Stderr); s != "" {
		b.WriteString("\n[stderr]\n")
		b.WriteString(s)
	}
	return b.String()
}

// Analyzer is the grounding capability. Implementations convert every
// operational failure into Result{Success: false}; the error return is
// reserved for context cancellation.
type Analyzer interface {
	Analyze(ctx context.Context, claim string, dataset DatasetContext) (Result, error)
}

// New selects the analyzer variant once, at construction: the sandbox
// variant when a credential is configured, the reasoning fallback
// otherwise.
func New(cfg config.Config, client llm.Client) Analyzer {
	if cfg.SandboxEnabled() {
		return NewSandboxAnalyzer(cfg, client)
	}
	return NewReasoningAnalyzer(client)
}

func failure(start time.Time, err error) Result {
	return Result{
		Success:       false,
		ExecutionTime: time.Since(start),
		ErrorMessage:  err.Error(),
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... [truncated]"
}
