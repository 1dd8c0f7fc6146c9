package config

const (
	MaxRequestBytes = 1 * 1024 * 1024 // 1MB JSON body for /api/evaluate
	MaxClaimBytes   = 8 * 1024
	MaxSummaryBytes = 64 * 1024

	// MaxAnalysisOutputBytes caps captured sandbox stdout/stderr so a
	// runaway print loop cannot blow up the judging prompts.
	MaxAnalysisOutputBytes = 32 * 1024
)
