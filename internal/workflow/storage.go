package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists evaluation reports under a runs directory, keeps a
// bounded index of recent runs, and prunes old run directories.
type Store struct {
	dir string
	max int
}

func NewStore(runsDir string, maxRuns int) *Store {
	return &Store{dir: runsDir, max: maxRuns}
}

// RunIndexEntry is one line of the recent-runs index.
type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Claim        string  `json:"claim"`
	AverageScore float64 `json:"average_score"`
	Timestamp    int64   `json:"ts"`
}

// SaveRun writes the report to runs/run_<id>/report.json and updates
// the index. Pruning failures are reported but do not fail the save.
func (s *Store) SaveRun(report *Report) (string, error) {
	runID := "run_" + uuid.NewString()
	runPath := filepath.Join(s.dir, runID)
	if err := os.MkdirAll(runPath, 0755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	if err := saveJSON(filepath.Join(runPath, "report.json"), report); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	if err := s.updateIndex(RunIndexEntry{
		RunID:        runID,
		Claim:        report.Claim,
		AverageScore: report.AverageScore,
		Timestamp:    time.Now().Unix(),
	}); err != nil {
		return "", fmt.Errorf("update index: %w", err)
	}
	if err := s.prune(); err != nil {
		return runID, fmt.Errorf("prune runs: %w", err)
	}
	return runID, nil
}

// LoadRun reads a previously saved report by run id.
func (s *Store) LoadRun(runID string) (*Report, error) {
	if !strings.HasPrefix(runID, "run_") || filepath.Base(runID) != runID {
		return nil, fmt.Errorf("invalid run id")
	}
	b, err := os.ReadFile(filepath.Join(s.dir, runID, "report.json"))
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Index returns the recent-runs index, newest first.
func (s *Store) Index() ([]RunIndexEntry, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, "index.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}
	var entries []RunIndexEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) updateIndex(entry RunIndexEntry) error {
	if s.max <= 0 {
		return nil
	}
	entries, err := s.Index()
	if err != nil {
		entries = nil
	}
	entries = append([]RunIndexEntry{entry}, entries...)
	if len(entries) > s.max {
		entries = entries[:s.max]
	}
	return saveJSON(filepath.Join(s.dir, "index.json"), entries)
}

type runEntry struct {
	path    string
	modTime time.Time
}

func (s *Store) prune() error {
	if s.max <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var runs []runEntry
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "run_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		runs = append(runs, runEntry{
			path:    filepath.Join(s.dir, entry.Name()),
			modTime: info.ModTime(),
		})
	}
	if len(runs) <= s.max {
		return nil
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].modTime.After(runs[j].modTime)
	})
	for i := s.max; i < len(runs); i++ {
		if err := os.RemoveAll(runs[i].path); err != nil {
			return err
		}
	}
	return nil
}

func saveJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
