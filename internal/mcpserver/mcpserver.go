// Package mcpserver exposes the coverage-redundancy analyses as MCP tools
// over stdio, so agents can query duplicate tests without shelling out to
// the CLI.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers the covdup analysis tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates an MCP server with all covdup tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "covdup",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "analyze_tests",
		Description: "Analyze per-test coverage data for redundancy: exact duplicate tests, " +
			"tests whose coverage is a strict subset of another test, and pairs above a " +
			"Jaccard similarity threshold.",
	}, handleAnalyzeTests)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "score_tests",
		Description: "Compute a 0-100 quality score for a test suite from its coverage " +
			"redundancy, with a letter grade and prioritized recommendations.",
	}, handleScoreTests)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "find_similar_tests",
		Description: "List test pairs whose flattened coverage sets have Jaccard similarity " +
			"at or above a threshold, excluding exact and subset duplicates.",
	}, handleFindSimilarTests)
}
