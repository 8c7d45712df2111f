package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/gidevo/gidevo-api-tool/internal/commands"
	"github.com/gidevo/gidevo-api-tool/internal/telemetry"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func optionalBool(c *cli.Command, name string) *bool {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Bool(name)
	return &v
}

func generateOptions(c *cli.Command) commands.GenerateOptions {
	return commands.GenerateOptions{
		Spec:      c.String("spec"),
		Language:  c.String("language"),
		Output:    c.String("output"),
		Templates: c.String("templates"),
		Strict:    optionalBool(c, "strict"),
	}
}

func generateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "spec", Aliases: []string{"s"}, Usage: "path to the OpenAPI or GraphQL spec"},
		&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "target language (typescript, python)"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output directory"},
		&cli.StringFlag{Name: "templates", Usage: "directory overriding the built-in templates"},
		&cli.BoolFlag{Name: "strict", Usage: "use strict validation"},
	}
}

func main() {
	_ = godotenv.Load()

	flags := &commands.Flags{}
	var (
		ctrl     *commands.Controller
		shutdown telemetry.ShutdownFunc
	)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:    "gidevo-api-tool",
		Usage:   "Generate TypeScript and Python SDKs from OpenAPI and GraphQL specs",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "log format (console, json)",
				Sources:     cli.EnvVars("LOG_FORMAT"),
				Value:       "console",
				Destination: &flags.LogFormat,
			},
			&cli.BoolFlag{
				Name:        "no-spinner",
				Usage:       "disable progress spinners",
				Destination: &flags.NoSpinner,
			},
			&cli.BoolFlag{
				Name:        "no-color",
				Usage:       "disable colored output",
				Sources:     cli.EnvVars("NO_COLOR"),
				Destination: &flags.NoColor,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(flags.LogLevel)
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			switch flags.LogFormat {
			case "json":
				log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
			case "console", "":
			default:
				return ctx, fmt.Errorf("unknown log format %q", flags.LogFormat)
			}
			log.Logger = log.Level(level)

			ctrl, shutdown, err = commands.Default(ctx, flags, version, log.Logger)
			return ctx, err
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if shutdown == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return shutdown(ctx)
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate an SDK from a spec",
				Flags: generateFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Generate(ctx, generateOptions(c))
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate a spec",
				ArgsUsage: "SPEC",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "strict", Usage: "use strict validation"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one spec file")
					}
					return ctrl.Validate(ctx, commands.ValidateOptions{
						Spec:   c.Args().First(),
						Strict: optionalBool(c, "strict"),
					})
				},
			},
			{
				Name:  "init",
				Usage: "Create a new API project",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "project template (openapi, graphql)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "project directory"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx, commands.InitOptions{
						Template: c.String("template"),
						Output:   c.String("output"),
					})
				},
			},
			{
				Name:  "config",
				Usage: "Manage the project config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "init", Usage: "create a sample .gidevorc.json"},
					&cli.BoolFlag{Name: "show", Usage: "show the effective configuration"},
					&cli.BoolFlag{Name: "path", Usage: "show the config file in use"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Config(ctx, commands.ConfigOptions{
						Init: c.Bool("init"),
						Show: c.Bool("show"),
						Path: c.Bool("path"),
					})
				},
			},
			{
				Name:            "plugin",
				Usage:           "Run a plugin, or list plugins with \"plugin list\"",
				ArgsUsage:       "NAME [ARGS...]",
				SkipFlagParsing: true,
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() == 0 {
						return fmt.Errorf("expected a plugin name")
					}
					if c.Args().First() == "list" {
						return ctrl.PluginList(ctx)
					}
					return ctrl.Plugin(ctx, c.Args().First(), c.Args().Tail())
				},
			},
			{
				Name:  "login",
				Usage: "Store an API token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Usage: "API token; prompted for when omitted"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Login(ctx, c.String("token"))
				},
			},
			{
				Name:  "logout",
				Usage: "Remove stored credentials",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Logout(ctx)
				},
			},
			{
				Name:  "whoami",
				Usage: "Show the current authentication status",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.WhoAmI(ctx)
				},
			},
			{
				Name:  "watch",
				Usage: "Regenerate the SDK whenever the spec changes",
				Flags: generateFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Watch(ctx, generateOptions(c))
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run gidevo-api-tool")
	}
}
