package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.yaml.in/yaml/v4"

	"github.com/gidevo/gidevo-api-tool/internal/config"
)

// ConfigOptions selects the config action. With none set the effective
// configuration is shown.
type ConfigOptions struct {
	Init bool
	Show bool
	Path bool
}

// Config creates, locates or shows the project config file
func (c *Controller) Config(ctx context.Context, opts ConfigOptions) error {
	out := c.deps.Output

	if opts.Init {
		path := filepath.Join(c.deps.WorkDir, config.FileNames[0])
		if err := config.WriteSample(path); err != nil {
			if errors.Is(err, fs.ErrExist) {
				out.Warn("Config file already exists: %s", path)
				out.Info("Remove the existing file first or edit it manually")
				return nil
			}
			return err
		}
		out.Success("Created configuration file: %s", path)
		out.Info("Edit %s to customize defaults", config.FileNames[0])
		return nil
	}

	if c.deps.Config == nil {
		return errors.New("no config loader configured")
	}

	path, err := c.deps.Config.Path()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if opts.Path {
		if path == "" {
			out.Info("No config file found")
			out.Info("Run gidevo-api-tool config --init to create one")
			return nil
		}
		out.Success("Config file found: %s", path)
		return nil
	}

	cfg, err := c.deps.Config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if path == "" {
		out.Info("No configuration file found, using default settings")
	} else {
		out.Success("Config file: %s", path)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	out.Println()
	out.Printf("%s", data)
	return nil
}
