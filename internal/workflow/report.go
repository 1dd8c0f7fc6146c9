package workflow

import (
	"math"
	"time"

	"claimcheck/internal/metrics"
)

// Report is the immutable aggregate outcome of one evaluation. It
// serializes to the persisted JSON document: all five metric keys are
// always present and every score is within [1,5].
type Report struct {
	Claim               string                    `json:"claim"`
	Scores              map[metrics.Metric]int    `json:"scores"`
	Explanations        map[metrics.Metric]string `json:"explanations"`
	AverageScore        float64                   `json:"average_score"`
	DataAnalysisSummary *string                   `json:"data_analysis_summary"`
	Errors              []string                  `json:"errors"`
	ExecutionTime       float64                   `json:"execution_time"`
	Timestamp           time.Time                 `json:"timestamp"`
}

func buildReport(st *State) *Report {
	r := &Report{
		Claim:        st.Claim,
		Scores:       make(map[metrics.Metric]int, len(metrics.AllMetrics)),
		Explanations: make(map[metrics.Metric]string, len(metrics.AllMetrics)),
		Errors:       append([]string{}, st.Errors...),
		Timestamp:    st.StartedAt,
	}

	total := 0
	for _, m := range metrics.AllMetrics {
		ev, ok := st.Evaluations[m]
		if !ok {
			// A missing key would break the report shape; hole-filling
			// here keeps the five-key invariant even if the scorer
			// misbehaved.
			ev = metrics.Evaluation{Metric: m, Score: metrics.MinScore, Rationale: "No evaluation was produced for this metric."}
			r.Errors = append(r.Errors, string(m)+": no evaluation produced")
		}
		r.Scores[m] = ev.Score
		r.Explanations[m] = ev.Rationale
		total += ev.Score
	}
	r.AverageScore = round2(float64(total) / float64(len(metrics.AllMetrics)))

	if summary := st.Analysis.Summary(); summary != "" {
		r.DataAnalysisSummary = &summary
	}
	r.ExecutionTime = round2(time.Since(st.StartedAt).Seconds())
	return r
}

// minimalReport is the OUTPUT-stage last resort: every metric at the
// lowest score with an explanatory rationale.
func minimalReport(st *State) *Report {
	evals := make(map[metrics.Metric]metrics.Evaluation, len(metrics.AllMetrics))
	for _, m := range metrics.AllMetrics {
		evals[m] = metrics.Evaluation{
			Metric:    m,
			Score:     metrics.MinScore,
			Rationale: "Evaluation could not be completed; defaulted to the lowest score.",
		}
	}
	st.Evaluations = evals
	return buildReport(st)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
