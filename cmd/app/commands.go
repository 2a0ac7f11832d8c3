package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/acm-uiuc/authcore/internal/app"
	"github.com/acm-uiuc/authcore/internal/config"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getAPIKeyCommands()...)
	cmds = append(cmds, getIAMCommands()...)
	return cmds
}

// withContainer loads configuration, builds the container and shuts it down after fn.
func withContainer(ctx context.Context, fn func(cfg *config.Config, container *app.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	container := app.NewContainer(cfg)
	defer func() { _ = container.Shutdown(ctx) }()

	return fn(cfg, container)
}

// formatFlag is the shared text/json output flag.
func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

// actorFlag names the principal recorded in audit entries.
func actorFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "actor",
		Aliases: []string{"a"},
		Value:   "cli",
		Usage:   "Actor recorded in the audit log",
	}
}
