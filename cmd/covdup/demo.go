package main

import (
	"github.com/urfave/cli/v2"

	"github.com/covdup/covdup/internal/report"
	"github.com/covdup/covdup/internal/vcs"
	"github.com/covdup/covdup/pkg/analyzer"
)

func demoCmd() *cli.Command {
	return &cli.Command{
		Name:   "demo",
		Usage:  "Run the analyzer on a small built-in example suite",
		Action: runDemoCmd,
	}
}

// demoSuite exhibits each redundancy kind: an exact duplicate pair, a test
// subsumed by a broader one, a near-duplicate pair, and a zero-coverage test.
var demoSuite = []struct {
	name     string
	coverage map[string][]int
}{
	{"test_login", map[string][]int{"auth.py": {10, 11, 12, 20}}},
	{"test_login_again", map[string][]int{"auth.py": {10, 11, 12, 20}}},
	{"test_login_happy_path", map[string][]int{"auth.py": {10, 11, 12}}},
	{"test_checkout_full", map[string][]int{"cart.py": {5, 6, 7, 8}, "payment.py": {30, 31}}},
	{"test_checkout_similar", map[string][]int{"cart.py": {5, 6, 7, 8}, "payment.py": {30, 40}}},
	{"test_skipped", map[string][]int{}},
	{"test_inventory", map[string][]int{"inventory.py": {100, 101, 102}}},
}

func runDemoCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine := analyzer.New(analyzer.WithConfig(cfg))
	for _, tc := range demoSuite {
		if err := engine.Ingest(tc.name, tc.coverage); err != nil {
			return err
		}
	}

	info := vcs.DescribeOrEmpty(vcs.NewGitDescriber(), ".")
	assembler := analyzer.NewAssembler(engine,
		analyzer.WithCommit(info.Commit),
		analyzer.WithVersion(version),
	)

	rep, err := assembler.Assemble(resolveThreshold(c, cfg))
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(report.BuildDocument(rep))
}
