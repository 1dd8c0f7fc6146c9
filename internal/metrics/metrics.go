// Package metrics scores a claim along five independent quality
// dimensions using a language model as judge, and guarantees every
// metric always ends up with a bounded evaluation no matter what the
// judge returns.
package metrics

import "fmt"

// Metric is one judged quality dimension.
type Metric string

const (
	Correctness Metric = "correctness"
	Helpfulness Metric = "helpfulness"
	Coherence   Metric = "coherence"
	Complexity  Metric = "complexity"
	Verbosity   Metric = "verbosity"
)

// AllMetrics is the canonical evaluation order. Iteration, averaging
// and serialization all follow this order so sequential and concurrent
// runs produce identical reports.
var AllMetrics = []Metric{Correctness, Helpfulness, Coherence, Complexity, Verbosity}

const (
	MinScore = 1
	MaxScore = 5
)

// Evaluation is one metric's judged outcome. Score is always within
// [MinScore, MaxScore]; construction paths that cannot guarantee that
// fall back to fallbackEvaluation instead.
type Evaluation struct {
	Metric    Metric `json:"metric"`
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

func fallbackEvaluation(m Metric, reason string) Evaluation {
	return Evaluation{
		Metric:    m,
		Score:     MinScore,
		Rationale: fmt.Sprintf("Error during evaluation: %s", reason),
	}
}

// ungroundedEvaluation is the uniform low default used when no analysis
// evidence exists and the judge is not consulted at all.
func ungroundedEvaluation(m Metric, score int, cause string) Evaluation {
	rationale := "No data analysis evidence was available; defaulting to a low-confidence score."
	if cause != "" {
		rationale = fmt.Sprintf("No data analysis evidence was available (%s); defaulting to a low-confidence score.", cause)
	}
	return Evaluation{Metric: m, Score: score, Rationale: rationale}
}
