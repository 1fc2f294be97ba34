package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/covdup/covdup/internal/cache"
	"github.com/covdup/covdup/internal/output"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the analysis result cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache entry count, size, and age",
				Action: runCacheStatsCmd,
			},
			{
				Name:   "clear",
				Usage:  "Remove all cached analysis results",
				Action: runCacheClearCmd,
			},
		},
	}
}

func runCacheStatsCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	fileCache, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled)
	if err != nil {
		return err
	}

	stats, err := fileCache.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := [][]string{
		{"Entries", fmt.Sprintf("%d", stats.Entries)},
		{"Total size", humanize.Bytes(uint64(stats.TotalSize))},
		{"Oldest entry", stats.OldestAge.Round(time.Second).String()},
		{"Newest entry", stats.NewestAge.Round(time.Second).String()},
	}
	return formatter.Output(output.NewTable("Cache Stats", []string{"Metric", "Value"}, rows, nil, stats))
}

func runCacheClearCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	fileCache, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled)
	if err != nil {
		return err
	}

	if err := fileCache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	color.Green("Cache cleared")
	return nil
}
