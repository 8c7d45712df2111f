// Package generator runs the spec-to-SDK pipeline for one target language:
// parse the spec, validate it, render the strategy's artifacts and write them
// to an output directory.
package generator

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gidevo/gidevo-api-tool/internal/codegen"
	"github.com/gidevo/gidevo-api-tool/internal/codegen/render"
	"github.com/gidevo/gidevo-api-tool/internal/sdkerr"
	"github.com/gidevo/gidevo-api-tool/internal/spec"
	"github.com/gidevo/gidevo-api-tool/internal/validator"
)

const tracerName = "github.com/gidevo/gidevo-api-tool/internal/generator"

// State is a stage of a generation run
type State int

const (
	StateIdle State = iota
	StateParsing
	StateValidating
	StateRendering
	StateWriting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsing:
		return "parsing"
	case StateValidating:
		return "validating"
	case StateRendering:
		return "rendering"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Options describes one generation run
type Options struct {
	// SpecPath is the OpenAPI or GraphQL file to read
	SpecPath string

	// Language is a name registered in the strategy registry
	Language string

	// OutputDir receives the artifacts; it is created if missing
	OutputDir string

	// Strict selects the strict validation rule set
	Strict bool

	// Templates overrides the strategy's built-in templates when non-nil
	Templates fs.FS
}

// Result reports how far a run got
type Result struct {
	State State

	// FailedAt is the stage that failed when State is StateFailed
	FailedAt State

	// Artifacts lists the written files in write order
	Artifacts []string
}

// Generator orchestrates generation runs. It holds no per-run state, so one
// Generator may serve concurrent runs into different output directories.
type Generator struct {
	registry *codegen.Registry
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// New creates a generator over registry. A nil registry uses the default one.
func New(registry *codegen.Registry, logger zerolog.Logger) *Generator {
	if registry == nil {
		registry = codegen.DefaultRegistry
	}
	return &Generator{
		registry: registry,
		logger:   logger.With().Str("component", "generator").Logger(),
		tracer:   otel.Tracer(tracerName),
	}
}

type run struct {
	result *Result
	logger zerolog.Logger
}

func (r *run) enter(state State) {
	r.logger.Debug().
		Stringer("from", r.result.State).
		Stringer("to", state).
		Msg("stage transition")
	r.result.State = state
}

func (r *run) fail(err error) (*Result, error) {
	r.result.FailedAt = r.result.State
	r.enter(StateFailed)
	return r.result, err
}

// Generate runs the whole pipeline. The language is checked before the spec
// is read, so an unsupported language never touches the file system. Files
// written before a write failure are left in place.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Result, error) {
	r := &run{
		result: &Result{State: StateIdle},
		logger: g.logger.With().
			Str("spec", opts.SpecPath).
			Str("language", opts.Language).
			Logger(),
	}

	strategy, err := g.registry.Get(opts.Language, codegen.Options{Templates: opts.Templates})
	if err != nil {
		return r.fail(err)
	}

	r.enter(StateParsing)
	s, err := g.parse(ctx, opts.SpecPath)
	if err != nil {
		return r.fail(err)
	}

	r.enter(StateValidating)
	if err := g.validate(ctx, s, opts); err != nil {
		return r.fail(err)
	}

	r.enter(StateRendering)
	artifacts, err := g.render(ctx, strategy, s)
	if err != nil {
		return r.fail(err)
	}

	r.enter(StateWriting)
	written, err := g.write(ctx, opts.OutputDir, artifacts)
	r.result.Artifacts = written
	if err != nil {
		return r.fail(err)
	}

	r.enter(StateDone)
	r.logger.Info().
		Str("output", opts.OutputDir).
		Int("files", len(written)).
		Msg("generation complete")
	return r.result, nil
}

func (g *Generator) parse(ctx context.Context, path string) (*spec.Spec, error) {
	_, span := g.tracer.Start(ctx, "spec.parse", trace.WithAttributes(attribute.String("spec.path", path)))
	defer span.End()

	s, err := spec.ParseFile(path)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("spec.kind", string(s.Kind)))
	return s, nil
}

func (g *Generator) validate(ctx context.Context, s *spec.Spec, opts Options) error {
	ctx, span := g.tracer.Start(ctx, "spec.validate", trace.WithAttributes(attribute.Bool("validate.strict", opts.Strict)))
	defer span.End()

	res := validator.Validate(ctx, s, validator.Options{Strict: opts.Strict})
	span.SetAttributes(attribute.Int("validate.errors", len(res.Errors)))
	if err := res.Err(opts.SpecPath, opts.Strict); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (g *Generator) render(ctx context.Context, strategy codegen.Generator, s *spec.Spec) ([]render.Artifact, error) {
	_, span := g.tracer.Start(ctx, "sdk.render", trace.WithAttributes(attribute.String("sdk.language", strategy.Language())))
	defer span.End()

	artifacts, err := strategy.Generate(s)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("sdk.artifacts", len(artifacts)))
	return artifacts, nil
}

func (g *Generator) write(ctx context.Context, outputDir string, artifacts []render.Artifact) ([]string, error) {
	_, span := g.tracer.Start(ctx, "sdk.write", trace.WithAttributes(attribute.String("sdk.output", outputDir)))
	defer span.End()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		err = &sdkerr.IOError{Op: "create directory", Path: outputDir, Cause: err}
		recordError(span, err)
		return nil, err
	}

	var written []string
	for _, a := range artifacts {
		path := filepath.Join(outputDir, filepath.FromSlash(a.Path))
		if dir := filepath.Dir(path); dir != outputDir {
			if err := os.MkdirAll(dir, 0755); err != nil {
				err = &sdkerr.IOError{Op: "create directory", Path: dir, Cause: err}
				recordError(span, err)
				return written, err
			}
		}
		if err := os.WriteFile(path, []byte(a.Contents), 0644); err != nil {
			err = &sdkerr.IOError{Op: "write", Path: path, Cause: err}
			recordError(span, err)
			return written, err
		}
		g.logger.Debug().Str("path", path).Int("bytes", len(a.Contents)).Msg("wrote artifact")
		written = append(written, path)
	}
	return written, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
