package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/acm-uiuc/authcore/cmd/app/commands"
	"github.com/acm-uiuc/authcore/internal/app"
	"github.com/acm-uiuc/authcore/internal/config"
)

func getIAMCommands() []*cli.Command {
	return []*cli.Command{
		setRolesCommand("set-group-roles", "Replace the roles granted to an identity provider group",
			commands.RoleTargetGroup, "Group ID"),
		setRolesCommand("set-user-roles", "Replace the override roles of a user",
			commands.RoleTargetUser, "User email"),
	}
}

func setRolesCommand(name, usage string, target commands.RoleTarget, idUsage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Aliases:  []string{"i"},
				Required: true,
				Usage:    idUsage,
			},
			&cli.StringFlag{
				Name:     "roles",
				Aliases:  []string{"r"},
				Required: true,
				Usage:    "Comma-separated roles, or 'all'",
			},
			actorFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withContainer(ctx, func(_ *config.Config, container *app.Container) error {
				iamUseCase, err := container.IAMUseCase()
				if err != nil {
					return err
				}

				return commands.RunSetRoles(
					ctx,
					iamUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					target,
					cmd.String("id"),
					cmd.String("roles"),
					cmd.String("actor"),
					cmd.String("format"),
				)
			})
		},
	}
}
