package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gidevo/gidevo-api-tool/internal/config"
	"github.com/gidevo/gidevo-api-tool/internal/generator"
	"github.com/gidevo/gidevo-api-tool/internal/sdkerr"
)

// GenerateOptions holds the generate and watch flags. Empty values and a nil
// Strict fall back to the project config.
type GenerateOptions struct {
	Spec      string
	Language  string
	Output    string
	Templates string
	Strict    *bool
}

func (o GenerateOptions) merge(cfg *config.Config) GenerateOptions {
	if o.Spec == "" {
		o.Spec = cfg.Generate.Spec
	}
	if o.Language == "" {
		o.Language = cfg.Generate.Language
	}
	if o.Output == "" {
		o.Output = cfg.Generate.Output
	}
	if o.Templates == "" {
		o.Templates = cfg.Generate.Templates
	}
	if o.Strict == nil {
		strict := cfg.Validate.Strict
		o.Strict = &strict
	}
	return o
}

func (c *Controller) generateOptions(opts GenerateOptions) (GenerateOptions, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return opts, fmt.Errorf("failed to load config: %w", err)
	}
	opts = opts.merge(cfg)

	// The language is checked before the spec file is touched
	if !c.deps.Languages.Has(opts.Language) {
		return opts, &sdkerr.UnsupportedLanguageError{Language: opts.Language, Supported: c.deps.Languages.Languages()}
	}
	if opts.Spec == "" {
		return opts, errors.New("no spec file given (use --spec or set generate.spec in the config file)")
	}
	if _, err := os.Stat(opts.Spec); err != nil {
		return opts, fmt.Errorf("spec file not found: %s", opts.Spec)
	}
	return opts, nil
}

func (o GenerateOptions) generatorOptions() generator.Options {
	var templates fs.FS
	if o.Templates != "" {
		templates = os.DirFS(o.Templates)
	}
	return generator.Options{
		SpecPath:  o.Spec,
		Language:  o.Language,
		OutputDir: o.Output,
		Strict:    o.Strict != nil && *o.Strict,
		Templates: templates,
	}
}

// Generate renders an SDK from a spec file
func (c *Controller) Generate(ctx context.Context, opts GenerateOptions) error {
	opts, err := c.generateOptions(opts)
	if err != nil {
		c.deps.Output.Error("%v", err)
		return err
	}

	ctx, span := c.deps.Tracker.Start(ctx, "command.generate", attribute.String("language", opts.Language))
	defer span.End()
	c.deps.Tracker.Track(ctx, "generate_start", attribute.String("language", opts.Language))

	var result *generator.Result
	title := fmt.Sprintf("Generating %s SDK from %s", opts.Language, opts.Spec)
	err = c.deps.Spinner.Run(ctx, title, func(ctx context.Context) error {
		var err error
		result, err = c.deps.Generator.Generate(ctx, opts.generatorOptions())
		return err
	})
	if err != nil {
		c.reportGenerateError(err)
		c.deps.Tracker.CaptureError(ctx, err)
		return err
	}

	c.deps.Tracker.Track(ctx, "generate_success", attribute.Int("artifacts", len(result.Artifacts)))
	c.reportGenerated(opts.Output, result)
	return nil
}

func (c *Controller) reportGenerated(outputDir string, result *generator.Result) {
	out := c.deps.Output
	out.Success("Generation completed successfully!")

	abs, err := filepath.Abs(outputDir)
	if err != nil {
		abs = outputDir
	}
	out.KeyValue("Output", abs)
	for _, path := range result.Artifacts {
		rel, err := filepath.Rel(outputDir, path)
		if err != nil {
			rel = path
		}
		out.Printf("    %s\n", rel)
	}
}

func (c *Controller) reportGenerateError(err error) {
	out := c.deps.Output

	var verr *sdkerr.ValidationError
	if errors.As(err, &verr) {
		out.Error("Generation failed: %s has %d validation error(s)", verr.Path, len(verr.Errors))
		printErrors(out, verr.Errors)
		return
	}
	out.Error("Generation failed: %v", err)
}

func printErrors(out Output, errs []string) {
	for i, e := range errs {
		out.Printf("    %d. %s\n", i+1, e)
	}
}
