package codegen

import (
	"io/fs"

	"github.com/gidevo/gidevo-api-tool/internal/codegen/render"
	"github.com/gidevo/gidevo-api-tool/internal/spec"
)

// Generator is the interface that all language-specific SDK strategies must implement
type Generator interface {
	// Generate renders the client and types modules for s. Output must be
	// byte-identical for identical input.
	Generate(s *spec.Spec) ([]render.Artifact, error)

	// Language returns the name of the target language (e.g., "typescript", "python")
	Language() string

	// FileExtension returns the file extension for generated files (e.g., ".ts", ".py")
	FileExtension() string
}

// Options contains common options for code generation
type Options struct {
	// Templates replaces the strategy's built-in template set when non-nil
	Templates fs.FS
}
