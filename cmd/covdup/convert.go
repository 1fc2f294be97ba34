package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/covdup/covdup/internal/loader"
)

func convertCmd() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert coverage.py or Go cover profiles to the canonical per-test format",
		ArgsUsage: "<input-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "from",
				Usage:    "Input format: coveragepy or gocover",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "test",
				Usage: "Test name to assign (gocover profiles carry no per-test contexts)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "coverage.json",
				Usage:   "Output path for the canonical coverage file",
			},
		},
		Action: runConvertCmd,
	}
}

func runConvertCmd(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("no input file specified (usage: covdup convert --from coveragepy <input>)")
	}
	inputPath := c.Args().First()

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	var tests []loader.TestCoverage
	switch c.String("from") {
	case "coveragepy":
		tests, err = loader.FromCoveragePy(f)
	case "gocover":
		testName := c.String("test")
		if testName == "" {
			return fmt.Errorf("--test is required for gocover input")
		}
		var tc loader.TestCoverage
		tc, err = loader.FromGoCover(f, testName)
		tests = []loader.TestCoverage{tc}
	default:
		return fmt.Errorf("unknown input format %q (expected coveragepy or gocover)", c.String("from"))
	}
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", inputPath, err)
	}

	outPath := c.String("out")
	if err := loader.WriteCanonical(outPath, tests); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	color.Green("Converted %d test(s) to %s", len(tests), outPath)
	return nil
}
