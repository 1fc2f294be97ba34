package models

// Priority ranks a recommendation by urgency.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is a human-readable action derived from the weakest score
// components, carrying the specific tests or groups it refers to.
type Recommendation struct {
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
	Tests    []string `json:"tests,omitempty"`
}

// QualityScore is the 0-100 composite quality assessment of a test suite:
// duplication (weight 0.5), coverage efficiency (0.3), uniqueness (0.2).
type QualityScore struct {
	Overall            float64          `json:"overall_score"`
	Duplication        float64          `json:"duplication_score"`
	CoverageEfficiency float64          `json:"coverage_efficiency_score"`
	Uniqueness         float64          `json:"uniqueness_score"`
	Grade              string           `json:"grade"`
	Recommendations    []Recommendation `json:"recommendations"`
}

// gradeCutoffs maps overall score to letter grade. Boundary values belong to
// the higher grade (97.0 is an A+).
var gradeCutoffs = []struct {
	min   float64
	grade string
}{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{67, "D+"},
	{63, "D"},
	{60, "D-"},
}

// GradeFor returns the letter grade for an overall score.
func GradeFor(score float64) string {
	for _, c := range gradeCutoffs {
		if score >= c.min {
			return c.grade
		}
	}
	return "F"
}
