package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/covdup/covdup/pkg/models"
)

// Assembler builds the full structured report consumed by renderers: one
// analysis pass, a quality score, similarity distribution stats, and the
// top-N display slices.
type Assembler struct {
	engine  *Engine
	commit  string
	version string
	now     func() time.Time
}

// AssemblerOption configures report assembly.
type AssemblerOption func(*Assembler)

// WithCommit stamps the report with a VCS commit hash.
func WithCommit(commit string) AssemblerOption {
	return func(a *Assembler) {
		a.commit = commit
	}
}

// WithVersion stamps the report with the tool version.
func WithVersion(version string) AssemblerOption {
	return func(a *Assembler) {
		a.version = version
	}
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

// NewAssembler creates an assembler bound to an engine.
func NewAssembler(engine *Engine, opts ...AssemblerOption) *Assembler {
	a := &Assembler{engine: engine, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble runs the analysis at the given threshold and builds the report.
func (a *Assembler) Assemble(threshold float64) (*models.Report, error) {
	analysis, err := a.engine.Analyze(threshold)
	if err != nil {
		return nil, err
	}
	score := NewScorer(a.engine).ScoreAnalysis(analysis)

	fillSimilarityStats(&analysis.Summary, analysis.Similar)

	return &models.Report{
		GeneratedAt: a.now().UTC(),
		Commit:      a.commit,
		Version:     a.version,
		Summary:     analysis.Summary,
		Score:       *score,
		ExactGroups: analysis.ExactGroups,
		Subsets:     analysis.Subsets,
		Similar:     analysis.Similar,
		TopGroups:   topGroups(analysis.ExactGroups),
		TopSubsets:  head(analysis.Subsets, models.TopN),
		TopSimilar:  head(analysis.Similar, models.TopN),
	}, nil
}

// fillSimilarityStats computes mean and percentile stats over similar-pair
// scores. Quantiles use the empirical distribution so p50 of a single pair
// is that pair's score.
func fillSimilarityStats(s *models.Summary, pairs []models.SimilarPair) {
	if len(pairs) == 0 {
		return
	}
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		scores[i] = p.Score
	}
	sort.Float64s(scores)
	s.AvgSimilarity = round3(stat.Mean(scores, nil))
	s.P50Similarity = round3(stat.Quantile(0.5, stat.Empirical, scores, nil))
	s.P95Similarity = round3(stat.Quantile(0.95, stat.Empirical, scores, nil))
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}

// topGroups returns up to TopN groups ordered by size descending, ties by
// original position, without disturbing the input slice.
func topGroups(groups []models.DuplicateGroup) []models.DuplicateGroup {
	idx := make([]int, len(groups))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool {
		return len(groups[idx[x]].Tests) > len(groups[idx[y]].Tests)
	})
	out := make([]models.DuplicateGroup, 0, min(len(groups), models.TopN))
	for _, i := range idx {
		if len(out) == models.TopN {
			break
		}
		out = append(out, groups[i])
	}
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) <= n {
		return append([]T(nil), s...)
	}
	return append([]T(nil), s[:n]...)
}

// GenerateReport renders a plain-text duplication report of the engine's
// current contents at the engine's default threshold. Renderers needing
// richer formats go through the Assembler and the output package instead.
func (e *Engine) GenerateReport() (string, error) {
	analysis, err := e.Analyze(e.threshold)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Test Duplication Report\n")
	b.WriteString("=======================\n\n")

	b.WriteString("Exact Duplicates\n")
	b.WriteString("----------------\n")
	if len(analysis.ExactGroups) == 0 {
		b.WriteString("none\n")
	}
	for i, g := range analysis.ExactGroups {
		fmt.Fprintf(&b, "group %d (%d tests): %s\n", i+1, len(g.Tests), strings.Join(g.Tests, ", "))
	}

	b.WriteString("\nSubset Duplicates\n")
	b.WriteString("-----------------\n")
	if len(analysis.Subsets) == 0 {
		b.WriteString("none\n")
	}
	for _, r := range analysis.Subsets {
		fmt.Fprintf(&b, "%s is a subset of %s (%.1f%% of its size)\n", r.Subset, r.Superset, r.SizeRatio*100)
	}

	b.WriteString("\nSimilar Tests\n")
	b.WriteString("-------------\n")
	if len(analysis.Similar) == 0 {
		b.WriteString("none\n")
	}
	for _, p := range analysis.Similar {
		fmt.Fprintf(&b, "%s ~ %s (%.1f%% similar)\n", p.TestA, p.TestB, p.Score*100)
	}

	s := analysis.Summary
	b.WriteString("\nSummary\n")
	b.WriteString("-------\n")
	fmt.Fprintf(&b, "total tests:        %d\n", s.TotalTests)
	fmt.Fprintf(&b, "exact duplicates:   %d in %d group(s)\n", s.ExactDuplicates, s.DuplicateGroups)
	fmt.Fprintf(&b, "subset duplicates:  %d\n", s.SubsetDuplicates)
	fmt.Fprintf(&b, "similar pairs:      %d (threshold %.2f)\n", s.SimilarPairs, s.Threshold)
	fmt.Fprintf(&b, "duplicate rate:     %.1f%%\n", s.DuplicatePercentage)
	if s.WorkerFaults > 0 {
		fmt.Fprintf(&b, "worker faults:      %d (partitions retried sequentially)\n", s.WorkerFaults)
	}

	return b.String(), nil
}
