package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/gidevo/gidevo-api-tool/internal/auth"
	"github.com/gidevo/gidevo-api-tool/internal/config"
	"github.com/gidevo/gidevo-api-tool/internal/generator"
	"github.com/gidevo/gidevo-api-tool/internal/plugin"
	"github.com/gidevo/gidevo-api-tool/internal/scaffold"
	"github.com/gidevo/gidevo-api-tool/internal/secrets"
	"github.com/gidevo/gidevo-api-tool/internal/telemetry"
)

// Default builds a controller with the production dependencies. The returned
// function flushes telemetry and must be called before exit.
func Default(ctx context.Context, flags *Flags, version string, logger zerolog.Logger) (*Controller, telemetry.ShutdownFunc, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	env, err := config.LoadEnv()
	if err != nil {
		return nil, nil, err
	}

	store := config.NewStore(workDir, logger)

	telemetryCfg := telemetry.Config{ServiceName: "gidevo-api-tool", Version: version}
	if cfg, err := store.Load(); err != nil {
		// The command reports the config error itself
		logger.Warn().Err(err).Msg("failed to load config, telemetry disabled")
	} else {
		telemetryCfg.Enabled = cfg.Telemetry.Enabled
		telemetryCfg.Endpoint = cfg.Telemetry.Endpoint
		telemetryCfg.Insecure = cfg.Telemetry.Insecure
	}

	shutdown, err := telemetry.Init(ctx, telemetryCfg, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize telemetry")
		telemetryCfg.Enabled = false
		shutdown = func(context.Context) error { return nil }
	}

	secretStore, err := secrets.New(logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	interactive := isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())

	var spin Spinner = NoSpinner{}
	if interactive && !flags.NoSpinner {
		spin = TerminalSpinner{}
	}
	var prompter Prompter
	if interactive {
		prompter = &FormPrompter{}
	}

	deps := Dependencies{
		Config:    store,
		Generator: generator.New(nil, logger),
		Validator: defaultValidator{},
		Auth:      auth.NewService(secretStore, env.APIToken),
		Plugins:   plugin.NewLoader(logger),
		Scaffold:  scaffold.New(),
		Prompter:  prompter,
		Watchers:  watcherFactory{logger: logger},
		Spinner:   spin,
		Output:    NewConsoleOutput(os.Stdout, flags.NoColor),
		Tracker:   telemetry.NewTracker(telemetryCfg.Enabled, logger, nil),
		Logger:    logger,
		WorkDir:   workDir,
		Version:   version,
	}
	return NewController(flags, deps), shutdown, nil
}
