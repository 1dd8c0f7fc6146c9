package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"claimcheck/internal/analysis"
	"claimcheck/internal/config"
	"claimcheck/internal/llm"
)

// Input carries everything one judging round needs.
type Input struct {
	Claim    string
	Dataset  analysis.DatasetContext
	Analysis analysis.Result
}

// Scorer runs one judging call per metric and always yields a complete
// metric map. Faults in one metric never touch the others.
type Scorer struct {
	client          llm.Client
	parallel        bool
	ungroundedScore int
}

func NewScorer(cfg config.Config, client llm.Client) *Scorer {
	return &Scorer{
		client:          client,
		parallel:        cfg.Parallel,
		ungroundedScore: cfg.UngroundedScore,
	}
}

// ScoreAll evaluates every metric in AllMetrics and returns the full
// metric map plus any non-fatal error strings accumulated on the way.
// When the grounding step failed, all metrics short-circuit to the
// configured low default and no judge calls are made.
func (s *Scorer) ScoreAll(ctx context.Context, in Input) (map[Metric]Evaluation, []string) {
	if !in.Analysis.Success {
		slog.Info("analysis unavailable, short-circuiting metric evaluation", "default_score", s.ungroundedScore)
		out := make(map[Metric]Evaluation, len(AllMetrics))
		for _, m := range AllMetrics {
			out[m] = ungroundedEvaluation(m, s.ungroundedScore, in.Analysis.ErrorMessage)
		}
		return out, nil
	}
	if s.parallel {
		return s.scoreConcurrent(ctx, in)
	}
	return s.scoreSequential(ctx, in)
}

func (s *Scorer) scoreSequential(ctx context.Context, in Input) (map[Metric]Evaluation, []string) {
	out := make(map[Metric]Evaluation, len(AllMetrics))
	var errs []string
	for _, m := range AllMetrics {
		ev, es := s.scoreOne(ctx, m, in)
		out[m] = ev
		errs = append(errs, es...)
	}
	return out, errs
}

// scoreConcurrent fans out one goroutine per metric and joins on all of
// them; each metric captures its own failure as a fallback evaluation,
// so the group never short-circuits.
func (s *Scorer) scoreConcurrent(ctx context.Context, in Input) (map[Metric]Evaluation, []string) {
	evals := make([]Evaluation, len(AllMetrics))
	errStrs := make([][]string, len(AllMetrics))

	var g errgroup.Group
	for i, m := range AllMetrics {
		g.Go(func() error {
			evals[i], errStrs[i] = s.scoreOne(ctx, m, in)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[Metric]Evaluation, len(AllMetrics))
	var errs []string
	for i, m := range AllMetrics {
		out[m] = evals[i]
		errs = append(errs, errStrs[i]...)
	}
	return out, errs
}

func (s *Scorer) scoreOne(ctx context.Context, m Metric, in Input) (Evaluation, []string) {
	msgs := buildMessages(m, in)

	var raw string
	var err error
	if sc, ok := s.client.(llm.SchemaClient); ok {
		raw, err = sc.CompleteJSON(ctx, msgs, responseSchema())
	} else {
		raw, err = s.client.Complete(ctx, msgs)
	}
	if err != nil {
		slog.Warn("judge call failed", "metric", m, "error", err)
		reason := fmt.Sprintf("judge call failed: %v", err)
		return fallbackEvaluation(m, reason), []string{fmt.Sprintf("%s: %s", m, reason)}
	}

	ev, anomaly, err := parseEvaluation(m, raw)
	if err != nil {
		slog.Warn("judge response unparseable", "metric", m, "error", err)
		reason := fmt.Sprintf("error parsing response: %v", err)
		return fallbackEvaluation(m, reason), []string{fmt.Sprintf("%s: %s", m, reason)}
	}

	var errs []string
	if anomaly != "" {
		slog.Warn("judge score clamped", "metric", m, "detail", anomaly)
		errs = append(errs, anomaly)
	}
	slog.Info("metric evaluated", "metric", m, "score", ev.Score)
	return ev, errs
}
