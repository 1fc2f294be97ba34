package analyzer

import (
	"fmt"
	"math"

	"github.com/covdup/covdup/pkg/models"
)

// Component weights for the overall score.
const (
	weightDuplication = 0.5
	weightEfficiency  = 0.3
	weightUniqueness  = 0.2
)

// Penalty per percentage point of affected tests, per component.
const (
	penaltyDuplication = 2.0
	penaltyEfficiency  = 1.0
	penaltyUniqueness  = 0.5
)

// Scorer turns an engine's analysis results into a composite quality score
// with actionable recommendations.
type Scorer struct {
	engine *Engine
}

// NewScorer creates a scorer bound to an engine.
func NewScorer(engine *Engine) *Scorer {
	return &Scorer{engine: engine}
}

// Score computes the quality score from the engine's current contents at the
// engine's default threshold.
func (s *Scorer) Score() (*models.QualityScore, error) {
	analysis, err := s.engine.Analyze(s.engine.Threshold())
	if err != nil {
		return nil, err
	}
	return s.ScoreAnalysis(analysis), nil
}

// ScoreAnalysis computes the quality score for an already-run analysis.
// Each component starts at 100 and loses a fixed penalty per percentage
// point of tests implicated in its category. All scores round to one
// decimal before grading, so reported components always sum consistently
// with the overall.
func (s *Scorer) ScoreAnalysis(a *models.Analysis) *models.QualityScore {
	total := a.Summary.TotalTests
	if total == 0 {
		// An empty suite has nothing wrong with it. Surface the emptiness
		// through a recommendation rather than a failing grade.
		return &models.QualityScore{
			Overall:            100.0,
			Duplication:        100.0,
			CoverageEfficiency: 100.0,
			Uniqueness:         100.0,
			Grade:              "A+",
			Recommendations: []models.Recommendation{{
				Priority: models.PriorityLow,
				Message:  "no tests analyzed; ingest coverage data before scoring",
			}},
		}
	}

	dupTests := countDuplicateMembers(a.ExactGroups)
	subsetTests := countSubsetSides(a.Subsets)
	similarTests := countSimilarMembers(a.Similar)

	dup := componentScore(dupTests, total, penaltyDuplication)
	eff := componentScore(subsetTests, total, penaltyEfficiency)
	uniq := componentScore(similarTests, total, penaltyUniqueness)
	overall := round1(dup*weightDuplication + eff*weightEfficiency + uniq*weightUniqueness)

	return &models.QualityScore{
		Overall:            overall,
		Duplication:        dup,
		CoverageEfficiency: eff,
		Uniqueness:         uniq,
		Grade:              models.GradeFor(overall),
		Recommendations:    s.recommend(a, dupTests, subsetTests, similarTests),
	}
}

// componentScore applies the linear penalty model: 100 minus penalty points
// per percent of affected tests, floored at zero.
func componentScore(affected, total int, penalty float64) float64 {
	pct := float64(affected) / float64(total) * 100
	score := 100 - penalty*pct
	if score < 0 {
		score = 0
	}
	return round1(score)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// countDuplicateMembers counts every test that belongs to an exact-duplicate
// group, including the member that would be kept.
func countDuplicateMembers(groups []models.DuplicateGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Tests)
	}
	return n
}

// countSubsetSides counts distinct tests appearing on the subset side of any
// relation. A test subsumed by several supersets still counts once.
func countSubsetSides(subsets []models.SubsetRelation) int {
	seen := make(map[string]struct{}, len(subsets))
	for _, r := range subsets {
		seen[r.Subset] = struct{}{}
	}
	return len(seen)
}

// countSimilarMembers counts distinct tests appearing in any similar pair.
func countSimilarMembers(pairs []models.SimilarPair) int {
	seen := make(map[string]struct{}, len(pairs)*2)
	for _, p := range pairs {
		seen[p.TestA] = struct{}{}
		seen[p.TestB] = struct{}{}
	}
	return len(seen)
}

// similarMembers lists the distinct tests appearing in any similar pair, in
// the engine's insertion order.
func similarMembers(e *Engine, pairs []models.SimilarPair) []string {
	member := make(map[string]struct{}, len(pairs)*2)
	for _, p := range pairs {
		member[p.TestA] = struct{}{}
		member[p.TestB] = struct{}{}
	}
	var names []string
	for _, name := range e.TestNames() {
		if _, ok := member[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// zeroCoverageTests lists the tests with empty coverage, in insertion order.
func zeroCoverageTests(e *Engine) []string {
	var names []string
	for _, cs := range e.tests {
		if cs.Empty() {
			names = append(names, cs.TestName)
		}
	}
	return names
}

// recommend derives prioritized actions from the analysis, worst category
// first. Exact duplicates are the cheapest wins so they rank highest.
func (s *Scorer) recommend(a *models.Analysis, dupTests, subsetTests, similarTests int) []models.Recommendation {
	var recs []models.Recommendation

	if len(a.ExactGroups) > 0 {
		removable := 0
		var tests []string
		for _, g := range a.ExactGroups {
			removable += g.Redundant()
			tests = append(tests, g.Tests[1:]...)
		}
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Message: fmt.Sprintf("remove %d exact duplicate test(s) across %d group(s); they add no coverage",
				removable, len(a.ExactGroups)),
			Tests: tests,
		})
	}

	if len(a.Subsets) > 0 {
		seen := make(map[string]struct{}, len(a.Subsets))
		var tests []string
		for _, r := range a.Subsets {
			if _, ok := seen[r.Subset]; ok {
				continue
			}
			seen[r.Subset] = struct{}{}
			tests = append(tests, r.Subset)
		}
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityMedium,
			Message: fmt.Sprintf("review %d test(s) fully covered by a broader test; consider merging or removing them",
				len(tests)),
			Tests: tests,
		})
	}

	if len(a.Similar) > 0 {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityLow,
			Message: fmt.Sprintf("%d test pair(s) exceed %.0f%% coverage similarity; check for overlapping scenarios",
				len(a.Similar), a.Summary.Threshold*100),
			Tests: similarMembers(s.engine, a.Similar),
		})
	}

	if a.Summary.ZeroCoverageTests > 0 {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityMedium,
			Message: fmt.Sprintf("%d test(s) recorded no coverage; they may be misconfigured or purely behavioral",
				a.Summary.ZeroCoverageTests),
			Tests: zeroCoverageTests(s.engine),
		})
	}

	if len(recs) == 0 {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityLow,
			Message:  "no redundancy detected; test suite coverage is well distributed",
		})
	}
	return recs
}
