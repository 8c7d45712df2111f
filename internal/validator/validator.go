// Package validator checks parsed specs before generation.
//
// Two independent rule sets are available. Basic mode checks the presence of
// the fields every generated client needs. Strict mode walks the whole
// document for malformed operations, parameters and schemas and then runs a
// full OpenAPI compliance pass. A document can pass one and fail the other.
package validator

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gidevo/gidevo-api-tool/internal/sdkerr"
	"github.com/gidevo/gidevo-api-tool/internal/spec"
)

// Options selects the rule set
type Options struct {
	Strict bool
}

// Result is the outcome of a validation run. Valid is true exactly when
// Errors is empty.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func newResult(errs []string) Result {
	if errs == nil {
		errs = []string{}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// Err converts a failed result into a *sdkerr.ValidationError, or nil when valid
func (r Result) Err(path string, strict bool) error {
	if r.Valid {
		return nil
	}
	return &sdkerr.ValidationError{Path: path, Strict: strict, Errors: r.Errors}
}

// Validate runs the selected rule set over s. GraphQL specs are always valid.
// Findings are returned, never raised.
func Validate(ctx context.Context, s *spec.Spec, opts Options) Result {
	if s == nil {
		return newResult([]string{"No spec to validate"})
	}
	if s.IsGraphQL() {
		return newResult(nil)
	}
	if opts.Strict {
		return newResult(strictRules(ctx, s.Raw))
	}
	return newResult(basicRules(s.OpenAPI))
}

// ValidateFile reads and parses path, then validates it. Read and parse
// failures are reported as a single finding rather than an error.
func ValidateFile(ctx context.Context, path string, opts Options) Result {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedFormat(ext) {
		return newResult([]string{"Unsupported file format: " + ext})
	}

	s, err := spec.ParseFile(path)
	if err != nil {
		return newResult([]string{"Failed to parse spec: " + err.Error()})
	}
	return Validate(ctx, s, opts)
}

func supportedFormat(ext string) bool {
	for _, f := range spec.Formats() {
		if f == ext {
			return true
		}
	}
	return false
}
