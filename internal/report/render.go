// Package report turns an assembled analysis report into presentable
// documents: terminal-friendly renderables and a standalone HTML page.
package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"

	"github.com/covdup/covdup/internal/output"
	"github.com/covdup/covdup/pkg/models"
)

//go:embed template.html
var templateFS embed.FS

// Renderer handles HTML report generation.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer creates a renderer with the embedded template.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"gradeClass": func(grade string) string {
			switch grade[:1] {
			case "A", "B":
				return "good"
			case "C", "D":
				return "warning"
			default:
				return "danger"
			}
		},
		"pct": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
		"ratio": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v*100)
		},
		"score": func(v float64) string {
			return fmt.Sprintf("%.1f", v)
		},
		"joinTests": func(tests []string) string {
			return strings.Join(tests, ", ")
		},
	}

	tmplContent, err := templateFS.ReadFile("template.html")
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("report").Funcs(funcMap).Parse(string(tmplContent))
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderHTML writes the full HTML page for a report.
func (r *Renderer) RenderHTML(rep *models.Report, w io.Writer) error {
	return r.tmpl.Execute(w, rep)
}

// RenderHTMLFile writes the HTML page to a file.
func (r *Renderer) RenderHTMLFile(rep *models.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.RenderHTML(rep, f)
}

// BuildDocument converts a report into the renderable document the text,
// markdown, CSV, and TOON formatters consume.
func BuildDocument(rep *models.Report) *output.Document {
	doc := &output.Document{
		Title: "Test Coverage Redundancy Report",
		Data:  rep,
	}

	doc.Sections = append(doc.Sections, summaryTable(rep), scoreSection(rep))

	if len(rep.ExactGroups) > 0 {
		doc.Sections = append(doc.Sections, exactTable(rep.ExactGroups))
	}
	if len(rep.Subsets) > 0 {
		doc.Sections = append(doc.Sections, subsetTable(rep.Subsets))
	}
	if len(rep.Similar) > 0 {
		doc.Sections = append(doc.Sections, similarTable(rep.Similar))
	}
	if len(rep.Score.Recommendations) > 0 {
		doc.Sections = append(doc.Sections, recommendationSection(rep.Score.Recommendations))
	}
	return doc
}

func summaryTable(rep *models.Report) output.Renderable {
	s := rep.Summary
	rows := [][]string{
		{"Total tests", fmt.Sprintf("%d", s.TotalTests)},
		{"Exact duplicates", fmt.Sprintf("%d in %d group(s)", s.ExactDuplicates, s.DuplicateGroups)},
		{"Subset duplicates", fmt.Sprintf("%d", s.SubsetDuplicates)},
		{"Similar pairs", fmt.Sprintf("%d at threshold %.2f", s.SimilarPairs, s.Threshold)},
		{"Duplicate rate", fmt.Sprintf("%.1f%%", s.DuplicatePercentage)},
		{"Distinct coverage sets", fmt.Sprintf("%d", s.DistinctCoverageSets)},
	}
	if s.ZeroCoverageTests > 0 {
		rows = append(rows, []string{"Zero-coverage tests", fmt.Sprintf("%d", s.ZeroCoverageTests)})
	}
	if s.WorkerFaults > 0 {
		rows = append(rows, []string{"Worker faults", fmt.Sprintf("%d", s.WorkerFaults)})
	}
	if rep.Commit != "" {
		rows = append(rows, []string{"Commit", rep.Commit})
	}
	return output.NewTable("Summary", []string{"Metric", "Value"}, rows, nil, s)
}

func scoreSection(rep *models.Report) output.Renderable {
	sc := rep.Score
	rows := [][]string{
		{"Overall", fmt.Sprintf("%.1f", sc.Overall), sc.Grade},
		{"Duplication", fmt.Sprintf("%.1f", sc.Duplication), ""},
		{"Coverage efficiency", fmt.Sprintf("%.1f", sc.CoverageEfficiency), ""},
		{"Uniqueness", fmt.Sprintf("%.1f", sc.Uniqueness), ""},
	}
	return output.NewTable("Quality Score", []string{"Component", "Score", "Grade"}, rows, nil, sc)
}

func exactTable(groups []models.DuplicateGroup) output.Renderable {
	rows := make([][]string, len(groups))
	for i, g := range groups {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", len(g.Tests)),
			strings.Join(g.Tests, ", "),
		}
	}
	return output.NewTable("Exact Duplicates", []string{"Group", "Size", "Tests"}, rows, nil, groups)
}

func subsetTable(subsets []models.SubsetRelation) output.Renderable {
	rows := make([][]string, len(subsets))
	for i, r := range subsets {
		rows[i] = []string{
			r.Subset,
			r.Superset,
			fmt.Sprintf("%.1f%%", r.SizeRatio*100),
		}
	}
	return output.NewTable("Subset Duplicates", []string{"Subset", "Superset", "Size Ratio"}, rows, nil, subsets)
}

func similarTable(pairs []models.SimilarPair) output.Renderable {
	rows := make([][]string, len(pairs))
	for i, p := range pairs {
		rows[i] = []string{
			p.TestA,
			p.TestB,
			fmt.Sprintf("%.1f%%", p.Score*100),
		}
	}
	return output.NewTable("Similar Tests", []string{"Test A", "Test B", "Similarity"}, rows, nil, pairs)
}

func recommendationSection(recs []models.Recommendation) output.Renderable {
	sections := make([]output.Section, len(recs))
	for i, r := range recs {
		content := r.Message
		if len(r.Tests) > 0 {
			content += "\n  " + strings.Join(r.Tests, "\n  ")
		}
		sections[i] = output.Section{
			Title:   fmt.Sprintf("[%s]", strings.ToUpper(string(r.Priority))),
			Content: content,
		}
	}
	return &output.Section{
		Title:    "Recommendations",
		Sections: sections,
		Data:     recs,
	}
}
