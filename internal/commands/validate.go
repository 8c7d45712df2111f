package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gidevo/gidevo-api-tool/internal/spec"
	"github.com/gidevo/gidevo-api-tool/internal/validator"
)

// ValidateOptions holds the validate flags. A nil Strict falls back to the
// project config.
type ValidateOptions struct {
	Spec   string
	Strict *bool
}

// Validate checks a spec file and lists every finding
func (c *Controller) Validate(ctx context.Context, opts ValidateOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	strict := cfg.Validate.Strict
	if opts.Strict != nil {
		strict = *opts.Strict
	}
	mode := "basic"
	if strict {
		mode = "strict"
	}

	out := c.deps.Output
	abs, err := filepath.Abs(opts.Spec)
	if err != nil {
		abs = opts.Spec
	}
	out.KeyValue("Spec File", abs)
	out.KeyValue("Validation Mode", mode)

	ctx, span := c.deps.Tracker.Start(ctx, "command.validate", attribute.String("mode", mode))
	defer span.End()
	c.deps.Tracker.Track(ctx, "validate_start", attribute.String("mode", mode))

	var result validator.Result
	start := time.Now()
	err = c.deps.Spinner.Run(ctx, fmt.Sprintf("Validating specification (%s mode)", mode), func(ctx context.Context) error {
		result = c.deps.Validator.ValidateFile(ctx, opts.Spec, validator.Options{Strict: strict})
		return nil
	})
	if err != nil {
		return err
	}
	duration := time.Since(start)

	if !result.Valid {
		out.Error("Validation failed: found %d error(s)", len(result.Errors))
		printErrors(out, result.Errors)
		c.deps.Tracker.Track(ctx, "validate_fail", attribute.String("mode", mode), attribute.Int("errors", len(result.Errors)))
		return result.Err(opts.Spec, strict)
	}

	out.Success("Specification is valid! (%s)", formatDuration(duration))
	c.printSpecInfo(opts.Spec)
	c.deps.Tracker.Track(ctx, "validate_success", attribute.String("mode", mode), attribute.Int64("duration_ms", duration.Milliseconds()))
	return nil
}

func (c *Controller) printSpecInfo(path string) {
	s, err := spec.ParseFile(path)
	if err != nil || s.OpenAPI == nil {
		return
	}
	doc := s.OpenAPI
	out := c.deps.Output
	out.KeyValue("OpenAPI Version", doc.SpecVersion())
	out.KeyValue("Title", orNA(doc.Info.Title))
	out.KeyValue("Version", orNA(doc.Info.Version))
	out.KeyValue("Endpoints", fmt.Sprint(len(doc.Paths)))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
