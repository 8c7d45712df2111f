package commands

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidevo/gidevo-api-tool/internal/sdkerr"
)

func TestValidate_Valid(t *testing.T) {
	// Test: a valid spec prints its summary
	specPath := writeFile(t, t.TempDir(), "api.json", minimalSpec)

	ctrl, buf := newTestController(Dependencies{Config: newStaticConfig()})
	require.NoError(t, ctrl.Validate(context.Background(), ValidateOptions{Spec: specPath}))

	out := buf.String()
	assert.Contains(t, out, fmt.Sprintf("  %-16s %s\n", "Validation Mode:", "basic"))
	assert.Contains(t, out, "✔ Specification is valid!")
	assert.Contains(t, out, fmt.Sprintf("  %-16s %s\n", "OpenAPI Version:", "3.0.0"))
	assert.Contains(t, out, fmt.Sprintf("  %-16s %s\n", "Title:", "T"))
	assert.Contains(t, out, fmt.Sprintf("  %-16s %s\n", "Endpoints:", "1"))
}

func TestValidate_Invalid(t *testing.T) {
	// Test: every finding is listed and the error carries them all
	specPath := writeFile(t, t.TempDir(), "api.yaml", "openapi: 3.0.0\ninfo:\n  title: T\npaths: {}\n")

	ctrl, buf := newTestController(Dependencies{Config: newStaticConfig()})
	err := ctrl.Validate(context.Background(), ValidateOptions{Spec: specPath})
	require.Error(t, err)

	var verr *sdkerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Missing required field: info.version", "No paths defined"}, verr.Errors)

	out := buf.String()
	assert.Contains(t, out, "✖ Validation failed: found 2 error(s)")
	assert.Contains(t, out, "    1. Missing required field: info.version\n")
	assert.Contains(t, out, "    2. No paths defined\n")
}

func TestValidate_StrictMode(t *testing.T) {
	tests := []struct {
		name      string
		cfgStrict bool
		flag      *bool
		wantMode  string
		wantValid bool
	}{
		{"config selects strict", true, nil, "strict", false},
		{"flag overrides config", true, boolPtr(false), "basic", true},
		{"flag selects strict", false, boolPtr(true), "strict", false},
	}

	// Passes the basic checks but has an operation without responses
	doc := `{"openapi": "3.0.0", "info": {"title": "T", "version": "1"}, "paths": {"/a": {"get": {}}}}`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specPath := writeFile(t, t.TempDir(), "api.json", doc)
			cfg := newStaticConfig()
			cfg.cfg.Validate.Strict = tt.cfgStrict

			ctrl, buf := newTestController(Dependencies{Config: cfg})
			err := ctrl.Validate(context.Background(), ValidateOptions{Spec: specPath, Strict: tt.flag})

			assert.Contains(t, buf.String(), fmt.Sprintf("  %-16s %s\n", "Validation Mode:", tt.wantMode))
			if tt.wantValid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, sdkerr.ErrValidation)
			}
		})
	}
}

func TestValidate_UnsupportedFormat(t *testing.T) {
	specPath := writeFile(t, t.TempDir(), "api.txt", "hello")

	ctrl, buf := newTestController(Dependencies{Config: newStaticConfig()})
	err := ctrl.Validate(context.Background(), ValidateOptions{Spec: specPath})
	assert.ErrorIs(t, err, sdkerr.ErrValidation)
	assert.Contains(t, buf.String(), "1. Unsupported file format: .txt")
}
