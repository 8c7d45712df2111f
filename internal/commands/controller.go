// Package commands contains the CLI commands for the application
package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"

	"github.com/gidevo/gidevo-api-tool/internal/auth"
	"github.com/gidevo/gidevo-api-tool/internal/codegen"
	"github.com/gidevo/gidevo-api-tool/internal/config"
	"github.com/gidevo/gidevo-api-tool/internal/generator"
	"github.com/gidevo/gidevo-api-tool/internal/plugin"
	"github.com/gidevo/gidevo-api-tool/internal/scaffold"
	"github.com/gidevo/gidevo-api-tool/internal/telemetry"
	"github.com/gidevo/gidevo-api-tool/internal/validator"
	"github.com/gidevo/gidevo-api-tool/internal/watch"
)

// Flags holds the global command line flags
type Flags struct {
	LogLevel  string
	LogFormat string
	NoSpinner bool
	NoColor   bool
}

// Interfaces for dependency injection

type ConfigLoader interface {
	Load() (*config.Config, error)
	Path() (string, error)
}

type SDKGenerator interface {
	Generate(ctx context.Context, opts generator.Options) (*generator.Result, error)
}

// LanguageRegistry reports the target languages the generator supports
type LanguageRegistry interface {
	Has(language string) bool
	Languages() []string
}

type SpecValidator interface {
	ValidateFile(ctx context.Context, path string, opts validator.Options) validator.Result
}

type AuthService interface {
	Login(token string) (*auth.Session, error)
	Logout() error
	WhoAmI() (*auth.Status, error)
}

type PluginLoader interface {
	Discover(ctx context.Context, dir string) ([]plugin.Plugin, error)
}

type Scaffolder interface {
	Init(opts scaffold.Options) (*scaffold.Result, error)
}

// Prompter asks for values missing from the command line
type Prompter interface {
	InitOptions(defaults scaffold.Options) (scaffold.Options, error)
	Token() (string, error)
}

type WatcherFactory interface {
	NewWatcher(paths []string, onChange watch.ChangeFunc) (SpecWatcher, error)
}

type SpecWatcher interface {
	Start(ctx context.Context) error
	Close() error
}

type SignalNotifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// Dependencies of the commands. Prompter is nil when the terminal is not
// interactive.
type Dependencies struct {
	Config         ConfigLoader
	Generator      SDKGenerator
	Languages      LanguageRegistry
	Validator      SpecValidator
	Auth           AuthService
	Plugins        PluginLoader
	Scaffold       Scaffolder
	Prompter       Prompter
	Watchers       WatcherFactory
	SignalNotifier SignalNotifier
	Spinner        Spinner
	Output         Output
	Tracker        *telemetry.Tracker
	Logger         zerolog.Logger

	// WorkDir is where config --init writes the sample config
	WorkDir string
	Version string
}

// Controller runs the commands
type Controller struct {
	Flags *Flags
	deps  Dependencies
}

// NewController creates a controller. Unset optional dependencies get
// quiet defaults.
func NewController(flags *Flags, deps Dependencies) *Controller {
	if flags == nil {
		flags = &Flags{}
	}
	if deps.Spinner == nil {
		deps.Spinner = NoSpinner{}
	}
	if deps.Output == nil {
		deps.Output = NewConsoleOutput(os.Stdout, flags.NoColor)
	}
	if deps.Tracker == nil {
		deps.Tracker = telemetry.NewTracker(false, deps.Logger, nil)
	}
	if deps.Validator == nil {
		deps.Validator = defaultValidator{}
	}
	if deps.Languages == nil {
		deps.Languages = codegen.DefaultRegistry
	}
	if deps.SignalNotifier == nil {
		deps.SignalNotifier = defaultSignalNotifier{}
	}
	return &Controller{Flags: flags, deps: deps}
}

type defaultValidator struct{}

func (defaultValidator) ValidateFile(ctx context.Context, path string, opts validator.Options) validator.Result {
	return validator.ValidateFile(ctx, path, opts)
}

type defaultSignalNotifier struct{}

func (defaultSignalNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (defaultSignalNotifier) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

type watcherFactory struct {
	logger zerolog.Logger
}

func (f watcherFactory) NewWatcher(paths []string, onChange watch.ChangeFunc) (SpecWatcher, error) {
	return watch.New(paths, onChange, watch.Options{}, f.logger)
}

func (c *Controller) loadConfig() (*config.Config, error) {
	if c.deps.Config == nil {
		cfg := config.Default()
		return &cfg, nil
	}
	return c.deps.Config.Load()
}
