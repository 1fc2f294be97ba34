package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/covdup/covdup/internal/loader"
	"github.com/covdup/covdup/pkg/analyzer"
	"github.com/covdup/covdup/pkg/config"
	"github.com/covdup/covdup/pkg/models"
)

// AnalyzeTestsInput is the base input for all covdup tools.
type AnalyzeTestsInput struct {
	CoverageFile string   `json:"coverage_file" jsonschema:"Path to the per-test coverage JSON file (test name to file to line numbers)."`
	Threshold    *float64 `json:"threshold,omitempty" jsonschema:"Jaccard similarity threshold (0.0-1.0). Default 0.7 when omitted."`
	Format       string   `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
}

// ScoreTestsInput configures the score_tests tool.
type ScoreTestsInput struct {
	AnalyzeTestsInput
	TopRecommendations int `json:"top_recommendations,omitempty" jsonschema:"Limit the number of recommendations returned. Default all."`
}

// threshold distinguishes an omitted threshold from an explicit 0.0, which
// is a valid value meaning "report every overlapping pair".
func (in AnalyzeTestsInput) threshold() float64 {
	if in.Threshold == nil {
		return analyzer.DefaultThreshold
	}
	return *in.Threshold
}

// buildEngine loads the coverage file and returns an engine with every test
// ingested in document order.
func buildEngine(in AnalyzeTestsInput) (*analyzer.Engine, error) {
	l, err := loader.New(config.DefaultConfig().Security)
	if err != nil {
		return nil, err
	}
	tests, err := l.Load(in.CoverageFile)
	if err != nil {
		return nil, err
	}

	e := analyzer.New(analyzer.WithParallel(true))
	for _, tc := range tests {
		if err := e.Ingest(tc.Name, tc.Coverage); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func toolResult(data any, format string) (*mcp.CallToolResult, any, error) {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return nil, nil, err
	}
	text := string(out)
	if format == "json" {
		// Callers asking for json still get a structured payload; the text
		// body stays TOON for token economy.
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, data, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + msg}},
		IsError: true,
	}, nil, nil
}

func handleAnalyzeTests(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeTestsInput) (*mcp.CallToolResult, any, error) {
	if input.CoverageFile == "" {
		return toolError("coverage_file is required")
	}
	e, err := buildEngine(input)
	if err != nil {
		return toolError(err.Error())
	}

	analysis, err := e.Analyze(input.threshold())
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(analysis, input.Format)
}

func handleScoreTests(ctx context.Context, req *mcp.CallToolRequest, input ScoreTestsInput) (*mcp.CallToolResult, any, error) {
	if input.CoverageFile == "" {
		return toolError("coverage_file is required")
	}
	e, err := buildEngine(input.AnalyzeTestsInput)
	if err != nil {
		return toolError(err.Error())
	}

	analysis, err := e.Analyze(input.threshold())
	if err != nil {
		return toolError(err.Error())
	}
	score := analyzer.NewScorer(e).ScoreAnalysis(analysis)

	if n := input.TopRecommendations; n > 0 && n < len(score.Recommendations) {
		score.Recommendations = score.Recommendations[:n]
	}
	return toolResult(score, input.Format)
}

func handleFindSimilarTests(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeTestsInput) (*mcp.CallToolResult, any, error) {
	if input.CoverageFile == "" {
		return toolError("coverage_file is required")
	}
	e, err := buildEngine(input)
	if err != nil {
		return toolError(err.Error())
	}

	pairs, err := e.FindSimilarCoverage(input.threshold())
	if err != nil {
		return toolError(err.Error())
	}
	out := struct {
		Pairs     []models.SimilarPair `json:"pairs" toon:"pairs"`
		Threshold float64              `json:"threshold" toon:"threshold"`
	}{pairs, input.threshold()}
	return toolResult(out, input.Format)
}
