package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gidevo/gidevo-api-tool/internal/scaffold"
)

// InitOptions holds the init flags. Empty values are prompted for on an
// interactive terminal and otherwise taken from the project config.
type InitOptions struct {
	Template string
	Output   string
}

// Init scaffolds a new API project
func (c *Controller) Init(ctx context.Context, opts InitOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	target := scaffold.Options{Template: opts.Template, Output: opts.Output}
	if (target.Template == "" || target.Output == "") && c.deps.Prompter != nil {
		defaults := scaffold.Options{
			Template: firstNonEmpty(target.Template, cfg.Init.Template),
			Output:   firstNonEmpty(target.Output, cfg.Init.Output),
		}
		target, err = c.deps.Prompter.InitOptions(defaults)
		if err != nil {
			return fmt.Errorf("failed to get init options: %w", err)
		}
	}
	target.Template = firstNonEmpty(target.Template, cfg.Init.Template)
	target.Output = firstNonEmpty(target.Output, cfg.Init.Output)

	ctx, span := c.deps.Tracker.Start(ctx, "command.init", attribute.String("template", target.Template))
	defer span.End()

	out := c.deps.Output
	result, err := c.deps.Scaffold.Init(target)
	if err != nil {
		out.Error("%v", err)
		c.deps.Tracker.CaptureError(ctx, err)
		return err
	}
	c.deps.Tracker.Track(ctx, "init_success", attribute.String("template", target.Template))

	out.Success("Project initialized successfully!")
	out.KeyValue("Directory", result.Dir)
	for _, f := range result.Files {
		out.Printf("    %s\n", f)
	}
	out.Println()
	out.Info("Next steps:")
	out.Printf("  cd %s\n", filepath.Base(result.Dir))
	out.Printf("  gidevo-api-tool generate --spec %s\n", result.SpecFile())
	return nil
}

// validateNewProjectDir accepts a missing or empty directory
func validateNewProjectDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) > 0 {
		return fmt.Errorf("directory %s is not empty", dir)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
