package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gidevo/gidevo-api-tool/internal/auth"
	"github.com/gidevo/gidevo-api-tool/internal/config"
	"github.com/gidevo/gidevo-api-tool/internal/generator"
	"github.com/gidevo/gidevo-api-tool/internal/plugin"
	"github.com/gidevo/gidevo-api-tool/internal/scaffold"
	"github.com/gidevo/gidevo-api-tool/internal/watch"
)

func newTestController(deps Dependencies) (*Controller, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	deps.Output = NewConsoleOutput(buf, true)
	deps.Logger = zerolog.Nop()
	if deps.SignalNotifier == nil {
		deps.SignalNotifier = noopSignalNotifier{}
	}
	return NewController(&Flags{}, deps), buf
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type staticConfig struct {
	cfg  config.Config
	path string
	err  error
}

func newStaticConfig() *staticConfig {
	return &staticConfig{cfg: config.Default()}
}

func (s *staticConfig) Load() (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg := s.cfg
	return &cfg, nil
}

func (s *staticConfig) Path() (string, error) {
	return s.path, s.err
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, opts generator.Options) (*generator.Result, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generator.Result), args.Error(1)
}

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Login(token string) (*auth.Session, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *mockAuth) Logout() error {
	return m.Called().Error(0)
}

func (m *mockAuth) WhoAmI() (*auth.Status, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Status), args.Error(1)
}

type mockPluginLoader struct {
	mock.Mock
}

func (m *mockPluginLoader) Discover(ctx context.Context, dir string) ([]plugin.Plugin, error) {
	args := m.Called(ctx, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]plugin.Plugin), args.Error(1)
}

type mockPlugin struct {
	mock.Mock
	name string
}

func (m *mockPlugin) Name() string { return m.name }
func (m *mockPlugin) Path() string { return "plugins/" + m.name + ".wasm" }

func (m *mockPlugin) Initialize(ctx context.Context, pluginCtx plugin.Context) error {
	return m.Called(ctx, pluginCtx).Error(0)
}

func (m *mockPlugin) Run(ctx context.Context, args []string) (bool, error) {
	ret := m.Called(ctx, args)
	return ret.Bool(0), ret.Error(1)
}

func (m *mockPlugin) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockScaffolder struct {
	mock.Mock
}

func (m *mockScaffolder) Init(opts scaffold.Options) (*scaffold.Result, error) {
	args := m.Called(opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scaffold.Result), args.Error(1)
}

type mockPrompter struct {
	mock.Mock
}

func (m *mockPrompter) InitOptions(defaults scaffold.Options) (scaffold.Options, error) {
	args := m.Called(defaults)
	return args.Get(0).(scaffold.Options), args.Error(1)
}

func (m *mockPrompter) Token() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

type noopSignalNotifier struct{}

func (noopSignalNotifier) Notify(chan<- os.Signal, ...os.Signal) {}
func (noopSignalNotifier) Stop(chan<- os.Signal)                 {}

// fakeWatcherFactory hands out a watcher that reports one change per path
// and then stops
type fakeWatcherFactory struct {
	paths []string
	err   error
}

func (f *fakeWatcherFactory) NewWatcher(paths []string, onChange watch.ChangeFunc) (SpecWatcher, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.paths = paths
	return &fakeWatcher{paths: paths, onChange: onChange}, nil
}

type fakeWatcher struct {
	paths    []string
	onChange watch.ChangeFunc
	closed   bool
}

func (w *fakeWatcher) Start(ctx context.Context) error {
	for _, p := range w.paths {
		_ = w.onChange(ctx, p)
	}
	return context.Canceled
}

func (w *fakeWatcher) Close() error {
	w.closed = true
	return nil
}
