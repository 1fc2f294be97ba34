package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/covdup/covdup/internal/loader"
	"github.com/covdup/covdup/internal/output"
	"github.com/covdup/covdup/internal/progress"
	"github.com/covdup/covdup/pkg/analyzer"
	"github.com/covdup/covdup/pkg/config"
)

// loadConfig resolves the effective config: the --config flag wins, otherwise
// standard locations are probed and defaults fill the rest.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.LoadOrDefault(), nil
}

// newFormatter builds the output formatter from global flags, falling back to
// the config's format when the flag is unset.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	formatStr := c.String("format")
	if !c.IsSet("format") && cfg.Output.Format != "" {
		formatStr = cfg.Output.Format
	}
	format := output.ParseFormat(formatStr)

	if path := c.String("output"); path != "" {
		return output.NewFile(format, path)
	}
	return output.New(
		output.WithFormat(format),
		output.WithColor(cfg.Output.Color),
	), nil
}

// resolveThreshold picks the similarity threshold: flag, then config, then
// the engine default.
func resolveThreshold(c *cli.Context, cfg *config.Config) float64 {
	if c.IsSet("threshold") {
		return c.Float64("threshold")
	}
	if cfg.Analysis.SimilarityThreshold > 0 {
		return cfg.Analysis.SimilarityThreshold
	}
	return analyzer.DefaultThreshold
}

// coveragePath extracts the single coverage-file argument.
func coveragePath(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("no coverage file specified (usage: covdup %s <coverage.json>)", c.Command.Name)
	}
	return c.Args().First(), nil
}

// buildEngine loads the coverage file and ingests every test into a fresh
// engine, with a progress bar on stderr.
func buildEngine(c *cli.Context, cfg *config.Config, path string, opts ...analyzer.Option) (*analyzer.Engine, error) {
	ld, err := loader.New(cfg.Security)
	if err != nil {
		return nil, err
	}

	tests, err := ld.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load coverage: %w", err)
	}

	engineOpts := []analyzer.Option{analyzer.WithConfig(cfg)}
	if c.Bool("sequential") {
		engineOpts = append(engineOpts, analyzer.WithParallel(false))
	}
	engineOpts = append(engineOpts, opts...)
	engine := analyzer.New(engineOpts...)

	tracker := progress.NewTracker("Ingesting tests", len(tests))
	for _, tc := range tests {
		if err := engine.Ingest(tc.Name, tc.Coverage); err != nil {
			tracker.FinishError(err)
			return nil, err
		}
		tracker.Tick()
	}
	tracker.FinishSuccess()

	return engine, nil
}
