package main

import (
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/covdup/covdup/internal/cache"
	"github.com/covdup/covdup/internal/report"
	"github.com/covdup/covdup/internal/vcs"
	"github.com/covdup/covdup/pkg/analyzer"
	"github.com/covdup/covdup/pkg/config"
	"github.com/covdup/covdup/pkg/models"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Find duplicate, subset, and similar tests in a coverage file",
		ArgsUsage: "<coverage.json>",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:    "threshold",
				Aliases: []string{"t"},
				Usage:   "Jaccard similarity threshold in [0, 1]",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	path, err := coveragePath(c)
	if err != nil {
		return err
	}

	rep, err := assembleReport(c, cfg, path)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(report.BuildDocument(rep)); err != nil {
		return err
	}

	if rep.Summary.WorkerFaults > 0 {
		formatter.Warning("%d worker chunk(s) fell back to sequential execution", rep.Summary.WorkerFaults)
	}
	return nil
}

// assembleReport produces the full report for a coverage file, consulting
// the cross-run file cache first. The cache key covers the input content
// hash and the similarity threshold.
func assembleReport(c *cli.Context, cfg *config.Config, path string) (*models.Report, error) {
	threshold := resolveThreshold(c, cfg)

	fileCache, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled && !c.Bool("no-cache"))
	if err != nil {
		return nil, err
	}

	var key, inputHash string
	if fileCache.Enabled() {
		inputHash, err = cache.HashFile(path)
		if err != nil {
			return nil, err
		}
		key = cache.Key(inputHash, threshold)
		if rep, ok := fileCache.Fetch(key, inputHash); ok {
			if cfg.Output.Verbose {
				color.Cyan("Using cached analysis for %s", path)
			}
			return rep, nil
		}
	}

	engine, err := buildEngine(c, cfg, path)
	if err != nil {
		return nil, err
	}

	info := vcs.DescribeOrEmpty(vcs.NewGitDescriber(), ".")
	assembler := analyzer.NewAssembler(engine,
		analyzer.WithCommit(info.Commit),
		analyzer.WithVersion(version),
	)

	rep, err := assembler.Assemble(threshold)
	if err != nil {
		return nil, err
	}

	if fileCache.Enabled() {
		if err := fileCache.Store(key, inputHash, rep); err != nil && cfg.Output.Verbose {
			color.Yellow("Warning: failed to cache analysis: %v", err)
		}
	}
	return rep, nil
}
