package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"claimcheck/internal/config"
	"claimcheck/internal/llm"
	"claimcheck/internal/sandbox"
)

const remoteDatasetName = "dataset.csv"

const codegenSystemPrompt = `You are a data scientist. Generate Python code to analyze a dataset and test a specific claim.

Available libraries: pandas, numpy, scipy, scikit-learn

The code must:
1. Load the dataset from 'dataset.csv'
2. Perform analysis relevant to the claim (correlations, aggregations, statistical tests)
3. Print clear results that can be used to judge whether the claim holds

Return ONLY the Python code, no explanations.`

// SandboxAnalyzer grounds a claim by generating analysis code and
// executing it against the dataset inside a short-lived sandbox session.
type SandboxAnalyzer struct {
	sb          *sandbox.Client
	llm         llm.Client
	datasetPath string
}

func NewSandboxAnalyzer(cfg config.Config, client llm.Client) *SandboxAnalyzer {
	return &SandboxAnalyzer{
		sb:          sandbox.NewClient(cfg.Sandbox),
		llm:         client,
		datasetPath: cfg.DatasetPath,
	}
}

func (a *SandboxAnalyzer) Analyze(ctx context.Context, claim string, dataset DatasetContext) (Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	code, err := a.generateCode(ctx, claim, dataset)
	if err != nil {
		slog.Warn("analysis code generation failed", "error", err)
		return failure(start, fmt.Errorf("code generation: %w", err)), nil
	}

	session, err := a.sb.Open(ctx)
	if err != nil {
		slog.Warn("sandbox open failed", "error", err)
		return failure(start, err), nil
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("sandbox close failed", "error", err)
		}
	}()

	f, err := os.Open(a.datasetPath)
	if err != nil {
		return failure(start, fmt.Errorf("open dataset: %w", err)), nil
	}
	uploadErr := session.UploadFile(ctx, remoteDatasetName, f)
	f.Close()
	if uploadErr != nil {
		slog.Warn("dataset upload failed", "error", uploadErr)
		return failure(start, uploadErr), nil
	}

	exec, err := session.RunCode(ctx, code)
	if err != nil {
		slog.Warn("sandbox execution failed", "error", err)
		return failure(start, err), nil
	}

	res := Result{
		Success:       exec.ExitCode == 0,
		Stdout:        truncate(exec.Stdout, config.MaxAnalysisOutputBytes),
		Stderr:        truncate(exec.Stderr, config.MaxAnalysisOutputBytes),
		Code:          code,
		ExecutionTime: time.Since(start),
	}
	if !res.Success {
		res.ErrorMessage = fmt.Sprintf("analysis code exited with status %d", exec.ExitCode)
	}
	slog.Info("sandbox analysis finished", "success", res.Success, "elapsed", res.ExecutionTime)
	return res, nil
}

func (a *SandboxAnalyzer) generateCode(ctx context.Context, claim string, dataset DatasetContext) (string, error) {
	user := fmt.Sprintf("Dataset Info: %s\n\nClaim to analyze: %s\n\nGenerate Python code to test this claim.", dataset.Summary, claim)
	resp, err := a.llm.Complete(ctx, []llm.Message{llm.System(codegenSystemPrompt), llm.User(user)})
	if err != nil {
		return "", err
	}
	code := stripCodeFence(resp)
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("model returned no code")
	}
	return code, nil
}

// stripCodeFence removes a surrounding markdown code block, if any.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// drop the language tag line ("python", "json", ...)
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
