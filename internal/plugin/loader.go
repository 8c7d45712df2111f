package plugin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Extension is the file extension of plugin modules
const Extension = ".wasm"

// Loader discovers plugins in a directory
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a new plugin loader
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger: logger.With().Str("component", "plugin").Logger(),
	}
}

// Discover loads every .wasm module in dir, in file name order. A missing
// directory yields no plugins. Modules that fail to load are skipped with a
// warning.
func (l *Loader) Discover(ctx context.Context, dir string) ([]Plugin, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug().Str("dir", dir).Msg("plugin directory not found")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plugin directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var plugins []Plugin
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), Extension) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		p, err := l.Load(ctx, path)
		if err != nil {
			l.logger.Warn().Err(err).Str("path", path).Msg("skipping plugin")
			continue
		}
		l.logger.Debug().Str("plugin", p.Name()).Str("path", path).Msg("loaded plugin")
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// Load instantiates a single plugin module
func (l *Loader) Load(ctx context.Context, path string) (Plugin, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Instantiate(ctx, wasmBytes, path, name)
}

// Find returns the plugin named name, ignoring case
func Find(plugins []Plugin, name string) (Plugin, bool) {
	for _, p := range plugins {
		if strings.EqualFold(p.Name(), name) {
			return p, true
		}
	}
	return nil, false
}

// CloseAll closes every plugin and joins the errors
func CloseAll(ctx context.Context, plugins []Plugin) error {
	var errs []error
	for _, p := range plugins {
		if err := p.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
