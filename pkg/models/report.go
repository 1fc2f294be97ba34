package models

import "time"

// TopN is the number of entries per category kept in the display slices of a
// Report. Renderers that want everything read the full Analysis instead.
const TopN = 10

// Report is the single structured object external renderers consume:
// summary counts, the full result collections, the quality score, and
// fixed-size top-N display slices. It carries no behavior beyond plain data.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Commit      string    `json:"commit,omitempty"`
	Version     string    `json:"version,omitempty"`

	Summary Summary      `json:"summary"`
	Score   QualityScore `json:"score"`

	ExactGroups []DuplicateGroup `json:"exact_groups"`
	Subsets     []SubsetRelation `json:"subsets"`
	Similar     []SimilarPair    `json:"similar"`

	TopGroups  []DuplicateGroup `json:"top_groups"`
	TopSubsets []SubsetRelation `json:"top_subsets"`
	TopSimilar []SimilarPair    `json:"top_similar"`
}
