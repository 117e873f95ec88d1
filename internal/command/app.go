package command

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"codelink/hub/internal/config"
)

type Deps struct {
	LoadConfig      func() config.Config
	RunServe        func(context.Context, config.Config) error
	RunMigrateUp    func(context.Context, config.Config) error
	RunClearStorage func(context.Context, config.Config) error
}

func BuildApp(deps Deps) *cli.App {
	return &cli.App{
		Name:  "codelink",
		Usage: "relay hub between editor agents and mobile clients",
		Action: func(ctx *cli.Context) error {
			return runServe(ctx.Context, deps, loadConfig(deps))
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the relay hub",
				Action: func(ctx *cli.Context) error {
					return runServe(ctx.Context, deps, loadConfig(deps))
				},
			},
			{
				Name:  "migrate",
				Usage: "run database migration",
				Subcommands: []*cli.Command{
					{
						Name:  "up",
						Usage: "sync the schema",
						Action: func(ctx *cli.Context) error {
							return runMigrateUp(ctx.Context, deps, loadConfig(deps))
						},
					},
				},
			},
			{
				Name:  "projects",
				Usage: "manage stored projects",
				Subcommands: []*cli.Command{
					{
						Name:  "clear",
						Usage: "remove every stored project",
						Action: func(ctx *cli.Context) error {
							return runClearStorage(ctx.Context, deps, loadConfig(deps))
						},
					},
				},
			},
		},
	}
}

func loadConfig(deps Deps) config.Config {
	if deps.LoadConfig != nil {
		return deps.LoadConfig()
	}
	return config.LoadConfig()
}

func runServe(ctx context.Context, deps Deps, cfg config.Config) error {
	if deps.RunServe == nil {
		return errors.New("serve runner is not configured")
	}
	return deps.RunServe(ctx, cfg)
}

func runMigrateUp(ctx context.Context, deps Deps, cfg config.Config) error {
	if deps.RunMigrateUp == nil {
		return errors.New("migrate up runner is not configured")
	}
	return deps.RunMigrateUp(ctx, cfg)
}

func runClearStorage(ctx context.Context, deps Deps, cfg config.Config) error {
	if deps.RunClearStorage == nil {
		return errors.New("clear runner is not configured")
	}
	return deps.RunClearStorage(ctx, cfg)
}
