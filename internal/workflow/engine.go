// Package workflow runs the four-stage claim evaluation pipeline:
// START -> ANALYZE -> EVALUATE -> OUTPUT. Every stage is a failure
// boundary; the pipeline always yields a schema-valid report.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"claimcheck/internal/analysis"
	"claimcheck/internal/config"
	"claimcheck/internal/llm"
	"claimcheck/internal/metrics"
)

// ErrNoScores is the only top-level Evaluate failure: the judging stage
// produced no evaluations at all. The report returned alongside it is
// still schema-valid.
var ErrNoScores = errors.New("no metric scores produced")

// Engine coordinates the analysis backend and the metric scorer for a
// single claim at a time. It holds no per-evaluation state; concurrent
// Evaluate calls are independent.
type Engine struct {
	cfg      config.Config
	analyzer analysis.Analyzer
	scorer   *metrics.Scorer
	cache    *Cache // nil disables judge-output caching
}

// New wires an Engine from configuration: gateway, analyzer variant,
// scorer and cache.
func New(cfg config.Config) (*Engine, error) {
	client, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return NewEngine(cfg, analysis.New(cfg, client), metrics.NewScorer(cfg, client), NewCache(cfg.RunsDir)), nil
}

// NewEngine wires an Engine from explicit collaborators. Tests use this
// to substitute deterministic analyzers and scorers.
func NewEngine(cfg config.Config, analyzer analysis.Analyzer, scorer *metrics.Scorer, cache *Cache) *Engine {
	return &Engine{cfg: cfg, analyzer: analyzer, scorer: scorer, cache: cache}
}

// Evaluate runs the pipeline for one claim and always returns a report
// with all five metric keys populated and scores in range. The error is
// non-nil only for an OUTPUT-stage aggregation failure, and even then
// the returned report is a valid minimal one.
func (e *Engine) Evaluate(ctx context.Context, claim, datasetSummary, taskDescription string) (*Report, error) {
	st := newState(claim, datasetSummary, taskDescription)
	slog.Info("starting evaluation workflow", "claim", snippet(claim, 100))

	e.runStage(st, "start", func() error { return e.stageStart(st) })
	e.runStage(st, "analyze", func() error { return e.stageAnalyze(ctx, st) })
	e.runStage(st, "evaluate", func() error { return e.stageEvaluate(ctx, st) })
	return e.stageOutput(st)
}

// runStage confines a stage's faults to the state's error list: the
// stage's own error return and any panic both become recorded strings,
// and the pipeline moves on.
func (e *Engine) runStage(st *State, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("stage fault", "stage", name, "panic", r)
			st.recordError(fmt.Sprintf("%s stage fault: %v", name, r))
		}
	}()
	if err := fn(); err != nil {
		slog.Warn("stage degraded", "stage", name, "error", err)
		st.recordError(fmt.Sprintf("%s stage: %v", name, err))
	}
}

// stageStart validates input and fills in the default dataset summary.
func (e *Engine) stageStart(st *State) error {
	if st.Dataset.Summary == "" {
		st.Dataset.Summary = analysis.DescribeDataset(e.cfg)
	}
	if strings.TrimSpace(st.Claim) == "" {
		return fmt.Errorf("claim must not be empty")
	}
	return nil
}

// stageAnalyze gathers grounding evidence. Analyzer failures are
// already folded into the result; only cancellation surfaces as error.
func (e *Engine) stageAnalyze(ctx context.Context, st *State) error {
	res, err := e.analyzer.Analyze(ctx, st.Claim, st.Dataset)
	if err != nil {
		st.Analysis = analysis.Result{Success: false, ErrorMessage: err.Error()}
		return fmt.Errorf("analysis aborted: %w", err)
	}
	st.Analysis = res
	if !res.Success {
		st.recordError(fmt.Sprintf("analysis failed: %s", res.ErrorMessage))
	}
	return nil
}

// stageEvaluate runs the judge, consulting the cache first so repeated
// evaluations of the same claim against the same context skip the
// model calls entirely.
func (e *Engine) stageEvaluate(ctx context.Context, st *State) error {
	in := metrics.Input{Claim: st.Claim, Dataset: st.Dataset, Analysis: st.Analysis}

	key := e.cacheKey(st)
	if e.cache != nil && st.Analysis.Success {
		if cached, err := e.cache.Load(key); err == nil {
			slog.Info("judge output served from cache", "key", snippet(key, 12))
			st.Evaluations = cached.Evaluations
			return nil
		}
	}

	evals, errs := e.scorer.ScoreAll(ctx, in)
	st.Evaluations = evals
	st.Errors = append(st.Errors, errs...)

	if e.cache != nil && st.Analysis.Success && len(errs) == 0 {
		if err := e.cache.Save(key, CachedJudgeOutput{
			Model:         e.cfg.LLM.Model,
			PromptVersion: metrics.PromptVersion,
			Evaluations:   evals,
		}); err != nil {
			slog.Warn("judge cache save failed", "error", err)
		}
	}
	return nil
}

// stageOutput assembles the final report. An aggregation failure (no
// evaluations at all) is the only top-level failure; it still returns a
// minimal valid report alongside the error.
func (e *Engine) stageOutput(st *State) (*Report, error) {
	if len(st.Evaluations) == 0 {
		st.recordError("aggregation failed: no metric scores produced")
		slog.Error("output stage: no metric scores, synthesizing minimal report")
		return minimalReport(st), fmt.Errorf("aggregation failed: %w", ErrNoScores)
	}
	report := buildReport(st)
	slog.Info("evaluation complete", "average_score", report.AverageScore, "errors", len(report.Errors))
	return report, nil
}

func (e *Engine) cacheKey(st *State) string {
	return judgeCacheKey(st.Claim, st.Dataset, st.Analysis.Summary(), e.cfg.LLM.Model)
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
