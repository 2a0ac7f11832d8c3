package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/acm-uiuc/authcore/cmd/app/commands"
	"github.com/acm-uiuc/authcore/internal/app"
	"github.com/acm-uiuc/authcore/internal/config"
)

func getAPIKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-api-key",
			Usage: "Issue an organization API key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "roles",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Comma-separated roles (e.g., manage:events,scan:tickets)",
				},
				&cli.StringFlag{
					Name:     "description",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Human-readable key description",
				},
				&cli.StringFlag{
					Name:    "owner",
					Aliases: []string{"o"},
					Value:   "cli",
					Usage:   "Owner recorded on the key and in the audit log",
				},
				&cli.DurationFlag{
					Name:    "expires-in",
					Aliases: []string{"e"},
					Usage:   "Key lifetime (e.g., 720h). Omit for a key that never expires",
				},
				&cli.StringFlag{
					Name:    "restrictions",
					Aliases: []string{"p"},
					Usage:   `JSON array of policy restrictions (e.g., [{"name":"EventsHostRestrictionPolicy","params":{"host":["ACM"]}}])`,
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(_ *config.Config, container *app.Container) error {
					apiKeyUseCase, err := container.APIKeyUseCase()
					if err != nil {
						return err
					}

					return commands.RunCreateAPIKey(
						ctx,
						apiKeyUseCase,
						container.Logger(),
						commands.DefaultIO().Writer,
						commands.CreateAPIKeyOptions{
							Owner:            cmd.String("owner"),
							Roles:            cmd.String("roles"),
							Description:      cmd.String("description"),
							ExpiresIn:        cmd.Duration("expires-in"),
							RestrictionsJSON: cmd.String("restrictions"),
							Format:           cmd.String("format"),
						},
						time.Now(),
					)
				})
			},
		},
		{
			Name:  "revoke-api-key",
			Usage: "Revoke an organization API key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Key ID (the 12 hex characters after acmuiuc_)",
				},
				actorFlag(),
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(_ *config.Config, container *app.Container) error {
					apiKeyUseCase, err := container.APIKeyUseCase()
					if err != nil {
						return err
					}

					return commands.RunRevokeAPIKey(
						ctx,
						apiKeyUseCase,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("id"),
						cmd.String("actor"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "clean-expired-api-keys",
			Usage: "Delete API keys whose expiry has passed",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(_ *config.Config, container *app.Container) error {
					apiKeyUseCase, err := container.APIKeyUseCase()
					if err != nil {
						return err
					}

					return commands.RunCleanExpiredAPIKeys(
						ctx,
						apiKeyUseCase,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("format"),
					)
				})
			},
		},
	}
}
