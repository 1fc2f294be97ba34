package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

const defaultConfigTOML = `# covdup configuration

[analysis]
similarity_threshold = 0.7

[performance]
enable_parallel = true
max_workers = 0 # 0 means all CPUs
enable_cache = true

[security]
max_file_size = 104857600 # 100 MiB
max_tests = 100000
max_lines_per_file = 1000000

[cache]
enabled = true
dir = ".covdup/cache"
ttl = 24 # hours

[output]
format = "text"
color = true
verbose = false
`

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default covdup.toml to the current directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	const path = "covdup.toml"

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTOML), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	color.Green("Created %s", path)
	return nil
}
