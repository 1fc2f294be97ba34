package main

import (
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/covdup/covdup/internal/report"
)

func reportCmd() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Generate a full redundancy report, optionally as HTML",
		ArgsUsage: "<coverage.json>",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:    "threshold",
				Aliases: []string{"t"},
				Usage:   "Jaccard similarity threshold in [0, 1]",
			},
			&cli.StringFlag{
				Name:  "html",
				Usage: "Write a standalone HTML report to the given path",
			},
		},
		Action: runReportCmd,
	}
}

func runReportCmd(c *cli.Context) error {
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

	if htmlPath := c.String("html"); htmlPath != "" {
		renderer, err := report.NewRenderer()
		if err != nil {
			return err
		}
		if err := renderer.RenderHTMLFile(rep, htmlPath); err != nil {
			return err
		}
		color.Green("HTML report written to %s", htmlPath)
		return nil
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(report.BuildDocument(rep))
}
