package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"claimcheck/internal/analysis"
	"claimcheck/internal/metrics"
)

// CachedJudgeOutput is the persisted judge stage result for one
// (claim, context, model) combination.
type CachedJudgeOutput struct {
	Model         string                                `json:"model"`
	PromptVersion string                                `json:"prompt_version"`
	Evaluations   map[metrics.Metric]metrics.Evaluation `json:"evaluations"`
	CachedAt      string                                `json:"cached_at"`
}

// Cache stores judge outputs on disk keyed by a content hash, so
// re-evaluating an identical claim skips the model calls.
type Cache struct {
	dir string
}

func NewCache(runsDir string) *Cache {
	return &Cache{dir: filepath.Join(runsDir, "cache")}
}

func judgeCacheKey(claim string, dataset analysis.DatasetContext, analysisSummary, model string) string {
	h := sha256.New()
	h.Write([]byte(claim))
	h.Write([]byte{0})
	h.Write([]byte(dataset.Summary))
	h.Write([]byte{0})
	h.Write([]byte(dataset.TaskDescription))
	h.Write([]byte{0})
	h.Write([]byte(analysisSummary))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(metrics.PromptVersion))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key, "judge_output.json")
}

func (c *Cache) Load(key string) (*CachedJudgeOutput, error) {
	b, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, err
	}
	var out CachedJudgeOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if err := validateCached(out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Cache) Save(key string, out CachedJudgeOutput) error {
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if out.CachedAt == "" {
		out.CachedAt = time.Now().UTC().Format(time.RFC3339)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// validateCached rejects cache entries that would break the report
// invariants (missing metrics, out-of-range scores, stale prompts).
func validateCached(out CachedJudgeOutput) error {
	if out.PromptVersion != metrics.PromptVersion {
		return fmt.Errorf("stale prompt version %q", out.PromptVersion)
	}
	if len(out.Evaluations) != len(metrics.AllMetrics) {
		return fmt.Errorf("cached output has %d metrics", len(out.Evaluations))
	}
	for _, m := range metrics.AllMetrics {
		ev, ok := out.Evaluations[m]
		if !ok {
			return fmt.Errorf("cached output missing %s", m)
		}
		if ev.Score < metrics.MinScore || ev.Score > metrics.MaxScore {
			return fmt.Errorf("cached score out of range for %s", m)
		}
	}
	return nil
}
