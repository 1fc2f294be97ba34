// Package baseline persists analysis summaries across runs and compares new
// results against them, so CI can fail on redundancy regressions rather than
// absolute numbers alone.
package baseline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/covdup/covdup/internal/hooks"
	"github.com/covdup/covdup/pkg/models"
)

// DefaultPath is where the baseline lives unless the caller overrides it.
const DefaultPath = ".covdup/baseline.yaml"

// Baseline is a saved snapshot of one analysis run.
type Baseline struct {
	SavedAt             time.Time `yaml:"saved_at"`
	Commit              string    `yaml:"commit,omitempty"`
	TotalTests          int       `yaml:"total_tests"`
	ExactDuplicates     int       `yaml:"exact_duplicates"`
	SubsetDuplicates    int       `yaml:"subset_duplicates"`
	SimilarPairs        int       `yaml:"similar_pairs"`
	DuplicatePercentage float64   `yaml:"duplicate_percentage"`
	OverallScore        float64   `yaml:"overall_score"`
}

// FromReport captures the baseline-relevant fields of a report.
func FromReport(r *models.Report) Baseline {
	return Baseline{
		SavedAt:             r.GeneratedAt,
		Commit:              r.Commit,
		TotalTests:          r.Summary.TotalTests,
		ExactDuplicates:     r.Summary.ExactDuplicates,
		SubsetDuplicates:    r.Summary.SubsetDuplicates,
		SimilarPairs:        r.Summary.SimilarPairs,
		DuplicatePercentage: r.Summary.DuplicatePercentage,
		OverallScore:        r.Score.Overall,
	}
}

// Save writes the baseline to path, creating parent directories as needed.
func Save(path string, b Baseline) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(b)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a baseline from path. A missing file returns os.ErrNotExist so
// callers can treat the first run specially.
func Load(path string) (Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Baseline{}, err
	}
	var b Baseline
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Baseline{}, fmt.Errorf("parsing baseline %s: %w", path, err)
	}
	return b, nil
}

// Gate holds the CI thresholds. Zero-valued limits are disabled; a gate of
// all zeros with FailOnIncrease false always passes.
type Gate struct {
	MaxDuplicates          int     `yaml:"max_duplicates"`
	MaxDuplicatePercentage float64 `yaml:"max_duplicate_percentage"`
	MinOverallScore        float64 `yaml:"min_overall_score"`
	FailOnIncrease         bool    `yaml:"fail_on_increase"`
}

// Violation describes one failed gate condition.
type Violation struct {
	Rule   string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Detail)
}

// Check evaluates the gate against the current run. The baseline argument is
// only consulted when FailOnIncrease is set; pass nil when no baseline
// exists yet.
func (g Gate) Check(current Baseline, previous *Baseline) []Violation {
	var violations []Violation

	if g.MaxDuplicates > 0 && current.ExactDuplicates > g.MaxDuplicates {
		violations = append(violations, Violation{
			Rule:   "max_duplicates",
			Detail: fmt.Sprintf("%d exact duplicates, limit is %d", current.ExactDuplicates, g.MaxDuplicates),
		})
	}
	if g.MaxDuplicatePercentage > 0 && current.DuplicatePercentage > g.MaxDuplicatePercentage {
		violations = append(violations, Violation{
			Rule:   "max_duplicate_percentage",
			Detail: fmt.Sprintf("%.1f%% duplicates, limit is %.1f%%", current.DuplicatePercentage, g.MaxDuplicatePercentage),
		})
	}
	if g.MinOverallScore > 0 && current.OverallScore < g.MinOverallScore {
		violations = append(violations, Violation{
			Rule:   "min_overall_score",
			Detail: fmt.Sprintf("overall score %.1f, minimum is %.1f", current.OverallScore, g.MinOverallScore),
		})
	}
	if g.FailOnIncrease && previous != nil {
		if current.ExactDuplicates > previous.ExactDuplicates {
			violations = append(violations, Violation{
				Rule:   "fail_on_increase",
				Detail: fmt.Sprintf("exact duplicates rose from %d to %d", previous.ExactDuplicates, current.ExactDuplicates),
			})
		}
		if current.SubsetDuplicates > previous.SubsetDuplicates {
			violations = append(violations, Violation{
				Rule:   "fail_on_increase",
				Detail: fmt.Sprintf("subset duplicates rose from %d to %d", previous.SubsetDuplicates, current.SubsetDuplicates),
			})
		}
	}
	return violations
}

// CheckNotify runs Check and fires OnGateFail with the violations when any
// gate condition fails. A nil bus just checks.
func (g Gate) CheckNotify(current Baseline, previous *Baseline, bus *hooks.Bus) []Violation {
	violations := g.Check(current, previous)
	if len(violations) > 0 {
		bus.Trigger(hooks.OnGateFail, violations)
	}
	return violations
}

// TrendPath is the default location of the append-only trend log.
const TrendPath = ".covdup/trend.yaml"

// TrendEntry is one historical data point.
type TrendEntry struct {
	At                  time.Time `yaml:"at"`
	Commit              string    `yaml:"commit,omitempty"`
	TotalTests          int       `yaml:"total_tests"`
	ExactDuplicates     int       `yaml:"exact_duplicates"`
	DuplicatePercentage float64   `yaml:"duplicate_percentage"`
	OverallScore        float64   `yaml:"overall_score"`
}

// AppendTrend adds one entry to the trend log at path.
func AppendTrend(path string, b Baseline) error {
	entries, err := LoadTrend(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	entries = append(entries, TrendEntry{
		At:                  b.SavedAt,
		Commit:              b.Commit,
		TotalTests:          b.TotalTests,
		ExactDuplicates:     b.ExactDuplicates,
		DuplicatePercentage: b.DuplicatePercentage,
		OverallScore:        b.OverallScore,
	})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadTrend reads the trend log, oldest first.
func LoadTrend(path string) ([]TrendEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []TrendEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing trend log %s: %w", path, err)
	}
	return entries, nil
}
