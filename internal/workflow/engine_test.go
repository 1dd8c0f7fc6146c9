package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimcheck/internal/analysis"
	"claimcheck/internal/config"
	"claimcheck/internal/llm"
	"claimcheck/internal/metrics"
)

type stubAnalyzer struct {
	res analysis.Result
	err error
}

func (a stubAnalyzer) Analyze(_ context.Context, _ string, _ analysis.DatasetContext) (analysis.Result, error) {
	return a.res, a.err
}

// scriptedLLM answers judging prompts deterministically, optionally per
// metric, and records every prompt it sees.
type scriptedLLM struct {
	mu        sync.Mutex
	calls     int
	prompts   []string
	responses map[metrics.Metric]string
	fallback  string
}

func (s *scriptedLLM) Complete(_ context.Context, msgs []llm.Message) (string, error) {
	prompt := msgs[len(msgs)-1].Content
	s.mu.Lock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	for m, resp := range s.responses {
		if strings.Contains(prompt, fmt.Sprintf("Evaluate the %s", m)) {
			return resp, nil
		}
	}
	return s.fallback, nil
}

func (s *scriptedLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func engineConfig() config.Config {
	return config.Config{
		LLM:                config.LLM{Provider: "openai", Model: "test-model"},
		DatasetName:        "Big Mart Sales",
		DatasetDescription: "Retail sales data from Big Mart stores",
		DatasetPath:        "does-not-exist.csv",
		Parallel:           true,
		UngroundedScore:    1,
	}
}

func newTestEngine(cfg config.Config, an analysis.Analyzer, client llm.Client, cache *Cache) *Engine {
	return NewEngine(cfg, an, metrics.NewScorer(cfg, client), cache)
}

func goodAnalysis() stubAnalyzer {
	return stubAnalyzer{res: analysis.Result{Success: true, Stdout: "correlation: 0.57"}}
}

func TestEvaluateFullySupportedClaim(t *testing.T) {
	client := &scriptedLLM{fallback: `{"score": 5, "rationale": "supported by positive correlation"}`}
	e := newTestEngine(engineConfig(), goodAnalysis(), client, nil)

	report, err := e.Evaluate(context.Background(),
		"Items with higher MRP tend to have higher sales.",
		"Retail dataset of Big Mart item and outlet sales.", "")
	require.NoError(t, err)

	require.Len(t, report.Scores, len(metrics.AllMetrics))
	for _, m := range metrics.AllMetrics {
		assert.Equal(t, 5, report.Scores[m], "metric %s", m)
		assert.Equal(t, "supported by positive correlation", report.Explanations[m])
	}
	assert.Equal(t, 5.0, report.AverageScore)
	assert.Empty(t, report.Errors)
	require.NotNil(t, report.DataAnalysisSummary)
	assert.Contains(t, *report.DataAnalysisSummary, "correlation: 0.57")
	assert.Equal(t, len(metrics.AllMetrics), client.callCount())
}

func TestAverageScoreRounding(t *testing.T) {
	client := &scriptedLLM{responses: map[metrics.Metric]string{
		metrics.Correctness: `{"score": 5, "rationale": "r"}`,
		metrics.Helpfulness: `{"score": 4, "rationale": "r"}`,
		metrics.Coherence:   `{"score": 3, "rationale": "r"}`,
		metrics.Complexity:  `{"score": 5, "rationale": "r"}`,
		metrics.Verbosity:   `{"score": 4, "rationale": "r"}`,
	}}
	e := newTestEngine(engineConfig(), goodAnalysis(), client, nil)

	report, err := e.Evaluate(context.Background(), "claim", "summary", "")
	require.NoError(t, err)
	assert.Equal(t, 4.2, report.AverageScore)
}

func TestGroundingFailureDegradesScoring(t *testing.T) {
	client := &scriptedLLM{fallback: `{"score": 5, "rationale": "unreachable"}`}
	an := stubAnalyzer{res: analysis.Result{Success: false, ErrorMessage: "sandbox quota exhausted"}}
	e := newTestEngine(engineConfig(), an, client, nil)

	report, err := e.Evaluate(context.Background(), "claim", "summary", "")
	require.NoError(t, err)

	assert.Zero(t, client.callCount(), "no judge calls without grounding evidence")
	for _, m := range metrics.AllMetrics {
		assert.Equal(t, 1, report.Scores[m])
		assert.Contains(t, report.Explanations[m], "No data analysis evidence")
	}
	assert.Nil(t, report.DataAnalysisSummary)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[0], "analysis failed")
}

func TestEmptyClaimStillProducesValidReport(t *testing.T) {
	client := &scriptedLLM{fallback: `{"score": 1, "rationale": "nothing to judge"}`}
	e := newTestEngine(engineConfig(), goodAnalysis(), client, nil)

	report, err := e.Evaluate(context.Background(), "   ", "summary", "")
	require.NoError(t, err)

	require.Len(t, report.Scores, len(metrics.AllMetrics))
	for _, m := range metrics.AllMetrics {
		assert.GreaterOrEqual(t, report.Scores[m], metrics.MinScore)
		assert.LessOrEqual(t, report.Scores[m], metrics.MaxScore)
	}
	found := false
	for _, e := range report.Errors {
		if strings.Contains(e, "claim must not be empty") {
			found = true
		}
	}
	assert.True(t, found, "errors should record the empty claim: %v", report.Errors)
}

func TestDefaultDatasetSummarySubstituted(t *testing.T) {
	client := &scriptedLLM{fallback: `{"score": 4, "rationale": "r"}`}
	e := newTestEngine(engineConfig(), goodAnalysis(), client, nil)

	_, err := e.Evaluate(context.Background(), "claim", "", "")
	require.NoError(t, err)

	require.NotEmpty(t, client.prompts)
	assert.Contains(t, client.prompts[0], "Big Mart Sales",
		"judge prompts must carry the default dataset summary")
}

func TestEvaluateIsIdempotentModuloTiming(t *testing.T) {
	client := &scriptedLLM{fallback: `{"score": 4, "rationale": "stable"}`}
	e := newTestEngine(engineConfig(), goodAnalysis(), client, nil)

	ctx := context.Background()
	first, err := e.Evaluate(ctx, "claim", "summary", "task")
	require.NoError(t, err)
	second, err := e.Evaluate(ctx, "claim", "summary", "task")
	require.NoError(t, err)

	assert.Equal(t, first.Claim, second.Claim)
	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, first.Explanations, second.Explanations)
	assert.Equal(t, first.AverageScore, second.AverageScore)
	assert.Equal(t, first.Errors, second.Errors)
	assert.Equal(t, first.DataAnalysisSummary, second.DataAnalysisSummary)
}

func TestCacheSkipsJudgeCalls(t *testing.T) {
	client := &scriptedLLM{fallback: `{"score": 4, "rationale": "cached"}`}
	cache := NewCache(t.TempDir())
	e := newTestEngine(engineConfig(), goodAnalysis(), client, cache)

	ctx := context.Background()
	first, err := e.Evaluate(ctx, "claim", "summary", "")
	require.NoError(t, err)
	callsAfterFirst := client.callCount()
	assert.Equal(t, len(metrics.AllMetrics), callsAfterFirst)

	second, err := e.Evaluate(ctx, "claim", "summary", "")
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, client.callCount(), "second run must be served from cache")
	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, first.Explanations, second.Explanations)
}

func TestAggregationFailureYieldsMinimalReport(t *testing.T) {
	// A nil scorer makes the judging stage panic; the stage boundary
	// must absorb it and OUTPUT must still hand back a valid report.
	e := NewEngine(engineConfig(), goodAnalysis(), nil, nil)

	report, err := e.Evaluate(context.Background(), "claim", "summary", "")
	require.ErrorIs(t, err, ErrNoScores)
	require.NotNil(t, report)
	require.Len(t, report.Scores, len(metrics.AllMetrics))
	for _, m := range metrics.AllMetrics {
		assert.Equal(t, metrics.MinScore, report.Scores[m])
	}
	assert.NotEmpty(t, report.Errors)
}

func TestSequentialAndConcurrentEnginesAgree(t *testing.T) {
	responses := map[metrics.Metric]string{
		metrics.Correctness: `{"score": 5, "rationale": "a"}`,
		metrics.Helpfulness: `{"score": 2, "rationale": "b"}`,
		metrics.Coherence:   `{"score": 4, "rationale": "c"}`,
		metrics.Complexity:  `{"score": 3, "rationale": "d"}`,
		metrics.Verbosity:   `{"score": 4, "rationale": "e"}`,
	}

	seqCfg := engineConfig()
	seqCfg.Parallel = false
	conCfg := engineConfig()

	seq := newTestEngine(seqCfg, goodAnalysis(), &scriptedLLM{responses: responses}, nil)
	con := newTestEngine(conCfg, goodAnalysis(), &scriptedLLM{responses: responses}, nil)

	ctx := context.Background()
	seqReport, err := seq.Evaluate(ctx, "claim", "summary", "")
	require.NoError(t, err)
	conReport, err := con.Evaluate(ctx, "claim", "summary", "")
	require.NoError(t, err)

	assert.Equal(t, seqReport.Scores, conReport.Scores)
	assert.Equal(t, seqReport.Explanations, conReport.Explanations)
	assert.Equal(t, seqReport.AverageScore, conReport.AverageScore)
	assert.Equal(t, seqReport.Errors, conReport.Errors)
}
