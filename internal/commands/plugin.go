package commands

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gidevo/gidevo-api-tool/internal/config"
	"github.com/gidevo/gidevo-api-tool/internal/plugin"
)

// ErrPluginFailed is returned when a plugin reports failure
var ErrPluginFailed = errors.New("plugin failed")

func (c *Controller) discoverPlugins(ctx context.Context) ([]plugin.Plugin, *config.PluginsConfig, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Plugins.Enabled {
		return nil, nil, errors.New("plugins are disabled (set plugins.enabled in the config file)")
	}

	plugins, err := c.deps.Plugins.Discover(ctx, cfg.Plugins.Directory)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load plugins: %w", err)
	}
	return plugins, &cfg.Plugins, nil
}

// Plugin runs the plugin called name with args
func (c *Controller) Plugin(ctx context.Context, name string, args []string) error {
	plugins, settings, err := c.discoverPlugins(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := plugin.CloseAll(context.WithoutCancel(ctx), plugins); err != nil {
			c.deps.Logger.Warn().Err(err).Msg("failed to close plugins")
		}
	}()

	out := c.deps.Output
	p, ok := plugin.Find(plugins, name)
	if !ok {
		out.Error("Plugin not found: %s", name)
		return fmt.Errorf("plugin not found: %s", name)
	}

	ctx, span := c.deps.Tracker.Start(ctx, "command.plugin", attribute.String("plugin", p.Name()))
	defer span.End()

	pluginCtx := plugin.Context{
		"version": c.deps.Version,
		"workDir": c.deps.WorkDir,
		"config":  settings.Config,
	}
	if err := p.Initialize(ctx, pluginCtx); err != nil {
		c.deps.Tracker.CaptureError(ctx, err)
		return err
	}

	out.Info("Running plugin: %s", p.Name())
	ok, err = p.Run(ctx, args)
	if err != nil {
		c.deps.Tracker.CaptureError(ctx, err)
		return err
	}
	if !ok {
		out.Error("Plugin %s failed.", p.Name())
		return fmt.Errorf("%w: %s", ErrPluginFailed, p.Name())
	}

	c.deps.Tracker.Track(ctx, "plugin_success", attribute.String("plugin", p.Name()))
	out.Success("Plugin %s completed successfully.", p.Name())
	return nil
}

// PluginList prints the discovered plugins
func (c *Controller) PluginList(ctx context.Context) error {
	plugins, settings, err := c.discoverPlugins(ctx)
	if err != nil {
		return err
	}
	defer plugin.CloseAll(context.WithoutCancel(ctx), plugins)

	out := c.deps.Output
	if len(plugins) == 0 {
		out.Info("No plugins found in %s", settings.Directory)
		return nil
	}
	for _, p := range plugins {
		out.KeyValue(p.Name(), p.Path())
	}
	return nil
}
