package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/covdup/covdup/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:   "mcp",
		Usage:  "Run a Model Context Protocol server over stdio",
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return mcpserver.NewServer(version).Run(ctx)
}
