package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/covdup/covdup/internal/report"
	"github.com/covdup/covdup/internal/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-run analysis whenever the coverage file changes",
		ArgsUsage: "<coverage.json>",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:    "threshold",
				Aliases: []string{"t"},
				Usage:   "Jaccard similarity threshold in [0, 1]",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before re-analyzing after a write",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	path, err := coveragePath(c)
	if err != nil {
		return err
	}

	analyze := func() {
		rep, err := assembleReport(c, cfg, path)
		if err != nil {
			color.Red("Analysis failed: %v", err)
			return
		}

		formatter, err := newFormatter(c, cfg)
		if err != nil {
			color.Red("Error: %v", err)
			return
		}
		defer formatter.Close()

		if err := formatter.Output(report.BuildDocument(rep)); err != nil {
			color.Red("Error: %v", err)
		}
	}

	// Initial run before entering the loop.
	analyze()

	watcher, err := watch.New(path, c.Duration("debounce"))
	if err != nil {
		return err
	}
	defer watcher.Stop()
	watcher.SetCallback(analyze)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
