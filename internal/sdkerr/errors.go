// Package sdkerr provides the structured error types surfaced by the
// spec-to-SDK pipeline.
//
// Every fatal condition in a generation run is one of these types, so callers
// can branch with errors.Is against a sentinel or errors.As against a type:
//
//	err := gen.Generate(ctx, opts)
//	var verr *sdkerr.ValidationError
//	if errors.As(err, &verr) {
//	    for _, msg := range verr.Errors {
//	        fmt.Println(msg)
//	    }
//	}
package sdkerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrParse indicates the spec file could not be read or deserialized.
	ErrParse = errors.New("parse error")

	// ErrValidation indicates the spec failed structural checks.
	ErrValidation = errors.New("validation error")

	// ErrUnsupportedLanguage indicates no strategy is registered for a language.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrTemplate indicates a template was missing or failed to render.
	ErrTemplate = errors.New("template error")

	// ErrIO indicates the output directory or a file write failed.
	ErrIO = errors.New("io error")
)

// ParseError represents a malformed or unreadable spec file.
type ParseError struct {
	// Path is the spec file path
	Path string
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Cause }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ValidationError carries every finding of a failed validation, in order.
type ValidationError struct {
	// Path is the spec file path, if known
	Path string
	// Strict is true when the strict rule set produced the findings
	Strict bool
	// Errors is the full ordered list of findings
	Errors []string
}

func (e *ValidationError) Error() string {
	mode := "basic"
	if e.Strict {
		mode = "strict"
	}
	msg := fmt.Sprintf("validation failed (%s mode)", mode)
	if e.Path != "" {
		msg += " for " + e.Path
	}
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnsupportedLanguageError is returned when the requested target language has
// no registered strategy.
type UnsupportedLanguageError struct {
	Language  string
	Supported []string
}

func (e *UnsupportedLanguageError) Error() string {
	msg := "unsupported language: " + e.Language
	if len(e.Supported) > 0 {
		msg += " (supported: " + strings.Join(e.Supported, ", ") + ")"
	}
	return msg
}

func (e *UnsupportedLanguageError) Is(target error) bool { return target == ErrUnsupportedLanguage }

// TemplateError reports a missing, unreadable, or failing template.
type TemplateError struct {
	// Path is the template path inside the strategy's template set
	Path  string
	Cause error
}

func (e *TemplateError) Error() string {
	msg := "template error: " + e.Path
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TemplateError) Unwrap() error { return e.Cause }

func (e *TemplateError) Is(target error) bool { return target == ErrTemplate }

// IOError reports a failure creating the output directory or writing a file.
type IOError struct {
	Op    string
	Path  string
	Cause error
}

func (e *IOError) Error() string {
	msg := "io error"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *IOError) Unwrap() error { return e.Cause }

func (e *IOError) Is(target error) bool { return target == ErrIO }
