package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covdup/covdup/internal/output"
	"github.com/covdup/covdup/pkg/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		GeneratedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Commit:      "abc1234",
		Version:     "1.0.0",
		Summary: models.Summary{
			TotalTests:           4,
			ExactDuplicates:      1,
			DuplicateGroups:      1,
			SubsetDuplicates:     1,
			SimilarPairs:         1,
			DuplicatePercentage:  25.0,
			Threshold:            0.7,
			DistinctCoverageSets: 3,
		},
		Score: models.QualityScore{
			Overall:            62.5,
			Duplication:        50.0,
			CoverageEfficiency: 75.0,
			Uniqueness:         75.0,
			Grade:              "D",
			Recommendations: []models.Recommendation{
				{Priority: models.PriorityHigh, Message: "remove 1 exact duplicate test(s)", Tests: []string{"t2"}},
			},
		},
		ExactGroups: []models.DuplicateGroup{{Tests: []string{"t1", "t2"}}},
		Subsets:     []models.SubsetRelation{{Subset: "small", Superset: "big", CoverageRatio: 1.0, SizeRatio: 0.4}},
		Similar:     []models.SimilarPair{{TestA: "a", TestB: "b", Score: 0.8}},
	}
}

func TestRenderHTML(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderHTML(sampleReport(), &buf))
	html := buf.String()

	assert.Contains(t, html, "Test Coverage Redundancy Report")
	assert.Contains(t, html, "abc1234")
	assert.Contains(t, html, "t1, t2")
	assert.Contains(t, html, "40.0%")
	assert.Contains(t, html, "80.0%")
	assert.Contains(t, html, "prio-high")
}

func TestRenderHTML_EmptyCollections(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	rep := sampleReport()
	rep.ExactGroups = nil
	rep.Subsets = nil
	rep.Similar = nil

	var buf bytes.Buffer
	require.NoError(t, r.RenderHTML(rep, &buf))
	assert.Contains(t, buf.String(), "No exact duplicates.")
	assert.Contains(t, buf.String(), "No subset duplicates.")
}

func TestRenderHTMLFile(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, r.RenderHTMLFile(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<html")
}

func TestBuildDocument(t *testing.T) {
	doc := BuildDocument(sampleReport())

	var buf bytes.Buffer
	require.NoError(t, doc.RenderText(&buf, false))
	text := buf.String()

	assert.Contains(t, text, "Test Coverage Redundancy Report")
	assert.Contains(t, text, "Summary")
	assert.Contains(t, text, "Quality Score")
	assert.Contains(t, text, "Exact Duplicates")
	assert.Contains(t, text, "Recommendations")
	assert.Contains(t, text, "small")
}

func TestBuildDocument_Markdown(t *testing.T) {
	doc := BuildDocument(sampleReport())

	var buf bytes.Buffer
	require.NoError(t, doc.RenderMarkdown(&buf))
	md := buf.String()

	assert.Contains(t, md, "# Test Coverage Redundancy Report")
	assert.Contains(t, md, "| Subset | Superset | Size Ratio |")
}

func TestBuildDocument_JSONData(t *testing.T) {
	rep := sampleReport()
	doc := BuildDocument(rep)

	var buf bytes.Buffer
	f := output.New(output.WithFormat(output.FormatJSON), output.WithWriter(&buf))
	require.NoError(t, f.Output(doc))
	assert.Contains(t, buf.String(), `"grade": "D"`)
	assert.Equal(t, rep, doc.RenderData())
}

func TestBuildDocument_OmitsEmptySections(t *testing.T) {
	rep := sampleReport()
	rep.ExactGroups = nil
	rep.Subsets = nil
	rep.Similar = nil
	rep.Score.Recommendations = nil

	doc := BuildDocument(rep)
	// Only the summary and score tables remain.
	assert.Len(t, doc.Sections, 2)
}
