package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// extractJSON pulls the first JSON object span out of free-form judge
// text: strip a surrounding markdown fence if present, then take the
// first '{' through the last '}'.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

// parseEvaluation decodes a judge response into an Evaluation. The
// returned anomaly string is non-empty when the score had to be clamped
// into range; the evaluation is still usable in that case. An error
// means the response was unusable and the caller must fall back.
func parseEvaluation(m Metric, raw string) (Evaluation, string, error) {
	span, err := extractJSON(raw)
	if err != nil {
		return Evaluation{}, "", err
	}

	var decoded struct {
		Score     *float64 `json:"score"`
		Rationale *string  `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(span), &decoded); err != nil {
		return Evaluation{}, "", fmt.Errorf("malformed JSON: %v", err)
	}
	if decoded.Score == nil || decoded.Rationale == nil {
		return Evaluation{}, "", fmt.Errorf("missing required fields in response")
	}
	if math.IsNaN(*decoded.Score) || math.IsInf(*decoded.Score, 0) {
		return Evaluation{}, "", fmt.Errorf("score is not a finite number")
	}

	score := int(math.Round(*decoded.Score))
	anomaly := ""
	if score < MinScore || score > MaxScore {
		anomaly = fmt.Sprintf("%s: judge returned out-of-range score %g, clamped", m, *decoded.Score)
		score = min(max(score, MinScore), MaxScore)
	}
	return Evaluation{Metric: m, Score: score, Rationale: *decoded.Rationale}, anomaly, nil
}
