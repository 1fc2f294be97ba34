package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/covdup/covdup/internal/output"
	"github.com/covdup/covdup/pkg/models"
)

func scoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "Score test suite quality on a 0-100 scale",
		ArgsUsage: "<coverage.json>",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:    "threshold",
				Aliases: []string{"t"},
				Usage:   "Jaccard similarity threshold in [0, 1]",
			},
		},
		Action: runScoreCmd,
	}
}

func runScoreCmd(c *cli.Context) error {
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

	return formatter.Output(scoreTable(rep.Score))
}

func scoreTable(score models.QualityScore) *output.Table {
	rows := [][]string{
		{"Overall", fmt.Sprintf("%.1f", score.Overall), score.Grade},
		{"Duplication", fmt.Sprintf("%.1f", score.Duplication), ""},
		{"Coverage efficiency", fmt.Sprintf("%.1f", score.CoverageEfficiency), ""},
		{"Uniqueness", fmt.Sprintf("%.1f", score.Uniqueness), ""},
	}
	for _, rec := range score.Recommendations {
		msg := rec.Message
		if len(rec.Tests) > 0 {
			msg += " (" + strings.Join(rec.Tests, ", ") + ")"
		}
		rows = append(rows, []string{"Recommendation", strings.ToUpper(string(rec.Priority)), msg})
	}

	return output.NewTable(
		"Test Suite Quality",
		[]string{"Component", "Score", "Detail"},
		rows,
		nil,
		score,
	)
}
