package models

// DuplicateGroup is a set of >= 2 tests whose flattened coverage is
// pairwise identical. Tests appear in first-insertion order.
type DuplicateGroup struct {
	Tests []string `json:"tests"`
}

// Redundant returns the number of tests that could be removed while keeping
// the group's coverage (all members but one).
func (g DuplicateGroup) Redundant() int {
	if len(g.Tests) == 0 {
		return 0
	}
	return len(g.Tests) - 1
}

// SubsetRelation records a test whose coverage is a strict subset of
// another test's coverage. CoverageRatio is the fraction of the subset's own
// lines that the superset covers, which is 1.0 by construction; SizeRatio is
// |subset| / |superset|, the metric renderers use to judge how small the
// subset test is.
type SubsetRelation struct {
	Subset        string  `json:"subset"`
	Superset      string  `json:"superset"`
	CoverageRatio float64 `json:"coverage_ratio"`
	SizeRatio     float64 `json:"size_ratio"`
}

// SimilarPair is a pair of tests with Jaccard similarity at or above the
// query threshold, excluding pairs already reported as exact or subset
// duplicates.
type SimilarPair struct {
	TestA string  `json:"test_a"`
	TestB string  `json:"test_b"`
	Score float64 `json:"score"`
}

// Summary holds the per-category counts of one analysis run. Summaries are
// stable and comparable field-by-field across runs given identical input,
// which is what baseline quality gates rely on.
type Summary struct {
	TotalTests           int     `json:"total_tests"`
	ExactDuplicates      int     `json:"exact_duplicates"` // removable tests, sum of (group size - 1)
	DuplicateGroups      int     `json:"duplicate_groups"`
	SubsetDuplicates     int     `json:"subset_duplicates"`
	SimilarPairs         int     `json:"similar_pairs"`
	DuplicatePercentage  float64 `json:"duplicate_percentage"`
	Threshold            float64 `json:"threshold"`
	WorkerFaults         int     `json:"worker_faults,omitempty"`
	AvgSimilarity        float64 `json:"avg_similarity,omitempty"`
	P50Similarity        float64 `json:"p50_similarity,omitempty"`
	P95Similarity        float64 `json:"p95_similarity,omitempty"`
	ZeroCoverageTests    int     `json:"zero_coverage_tests,omitempty"`
	DistinctCoverageSets int     `json:"distinct_coverage_sets"`
}

// Analysis bundles the three result collections of one engine query pass.
type Analysis struct {
	ExactGroups []DuplicateGroup `json:"exact_groups"`
	Subsets     []SubsetRelation `json:"subsets"`
	Similar     []SimilarPair    `json:"similar"`
	Summary     Summary          `json:"summary"`
}
