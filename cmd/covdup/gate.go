package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/covdup/covdup/internal/baseline"
	"github.com/covdup/covdup/internal/hooks"
)

func gateCmd() *cli.Command {
	return &cli.Command{
		Name:      "gate",
		Usage:     "Fail CI when redundancy exceeds configured limits or regresses against the baseline",
		ArgsUsage: "<coverage.json>",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:    "threshold",
				Aliases: []string{"t"},
				Usage:   "Jaccard similarity threshold in [0, 1]",
			},
			&cli.IntFlag{
				Name:  "max-duplicates",
				Usage: "Maximum removable exact duplicates allowed (0 disables)",
			},
			&cli.Float64Flag{
				Name:  "max-duplicate-percentage",
				Usage: "Maximum duplicate percentage allowed (0 disables)",
			},
			&cli.Float64Flag{
				Name:  "min-score",
				Usage: "Minimum overall quality score required (0 disables)",
			},
			&cli.BoolFlag{
				Name:  "fail-on-increase",
				Usage: "Fail if duplicates increased since the saved baseline",
			},
			&cli.StringFlag{
				Name:  "baseline",
				Value: baseline.DefaultPath,
				Usage: "Baseline file path",
			},
			&cli.BoolFlag{
				Name:  "update-baseline",
				Usage: "Save the current run as the new baseline and append to the trend log",
			},
		},
		Action: runGateCmd,
	}
}

func runGateCmd(c *cli.Context) error {
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
	current := baseline.FromReport(rep)

	baselinePath := c.String("baseline")
	var previous *baseline.Baseline
	prev, err := baseline.Load(baselinePath)
	switch {
	case err == nil:
		previous = &prev
	case errors.Is(err, os.ErrNotExist):
		// first run, nothing to compare against
	default:
		return fmt.Errorf("failed to load baseline: %w", err)
	}

	gate := baseline.Gate{
		MaxDuplicates:          c.Int("max-duplicates"),
		MaxDuplicatePercentage: c.Float64("max-duplicate-percentage"),
		MinOverallScore:        c.Float64("min-score"),
		FailOnIncrease:         c.Bool("fail-on-increase"),
	}

	bus := hooks.NewBus()
	if cfg.Output.Verbose {
		bus.Register(hooks.OnGateFail, func(hc hooks.Context) {
			if v, ok := hc.Data.([]baseline.Violation); ok {
				color.Yellow("Gate tripped %d rule(s)", len(v))
			}
		})
	}

	violations := gate.CheckNotify(current, previous, bus)
	if len(violations) > 0 {
		for _, v := range violations {
			color.Red("✗ %s", v)
		}
		return cli.Exit(fmt.Sprintf("gate failed with %d violation(s)", len(violations)), 2)
	}

	if c.Bool("update-baseline") {
		if err := baseline.Save(baselinePath, current); err != nil {
			return fmt.Errorf("failed to save baseline: %w", err)
		}
		if err := baseline.AppendTrend(baseline.TrendPath, current); err != nil {
			return fmt.Errorf("failed to append trend entry: %w", err)
		}
		color.Green("Baseline updated at %s", baselinePath)
	}

	color.Green("✓ Gate passed (%d duplicates, %.1f%% duplication, score %.1f)",
		current.ExactDuplicates, current.DuplicatePercentage, current.OverallScore)
	return nil
}
