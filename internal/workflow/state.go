package workflow

import (
	"time"

	"claimcheck/internal/analysis"
	"claimcheck/internal/metrics"
)

// State is the mutable working record threaded through the pipeline
// stages. One State exists per Evaluate call; stages only add or
// replace fields, and the final stage consumes it into a Report.
type State struct {
	Claim       string
	Dataset     analysis.DatasetContext
	Analysis    analysis.Result
	Evaluations map[metrics.Metric]metrics.Evaluation
	Errors      []string
	StartedAt   time.Time
}

func newState(claim, datasetSummary, taskDescription string) *State {
	return &State{
		Claim: claim,
		Dataset: analysis.DatasetContext{
			Summary:         datasetSummary,
			TaskDescription: taskDescription,
		},
		StartedAt: time.Now(),
	}
}

func (s *State) recordError(msg string) {
	s.Errors = append(s.Errors, msg)
}
