package validator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidevo/gidevo-api-tool/internal/sdkerr"
	"github.com/gidevo/gidevo-api-tool/internal/spec"
)

const minimalSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "T", "version": "1.0.0"},
  "paths": {"/health": {"get": {"responses": {"200": {"description": "OK"}}}}}
}`

func mustParse(t *testing.T, name, content string) *spec.Spec {
	t.Helper()
	s, err := spec.Parse(name, []byte(content))
	require.NoError(t, err)
	return s
}

func TestValidate_BasicValid(t *testing.T) {
	// Test: a complete minimal document passes in both modes
	s := mustParse(t, "api.json", minimalSpec)

	for _, strict := range []bool{false, true} {
		res := Validate(context.Background(), s, Options{Strict: strict})
		assert.True(t, res.Valid, "strict=%v errors=%v", strict, res.Errors)
		assert.Empty(t, res.Errors)
		assert.NotNil(t, res.Errors)
		assert.NoError(t, res.Err("api.json", strict))
	}
}

func TestValidate_BasicAccumulates(t *testing.T) {
	// Test plan:
	// - Each basic rule fires independently
	// - All findings are reported, in rule order

	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "missing info.version",
			doc:  `{"openapi": "3.0.0", "info": {"title": "T"}, "paths": {"/a": {}}}`,
			want: []string{MsgMissingVersion},
		},
		{
			name: "empty paths",
			doc:  `{"openapi": "3.0.0", "info": {"title": "T", "version": "1"}, "paths": {}}`,
			want: []string{MsgNoPaths},
		},
		{
			name: "missing version and empty paths",
			doc:  `{"openapi": "3.1.0", "info": {"title": "T"}, "paths": {}}`,
			want: []string{MsgMissingVersion, MsgNoPaths},
		},
		{
			name: "everything missing",
			doc:  `{}`,
			want: []string{MsgInvalidVersion, MsgMissingTitle, MsgMissingVersion, MsgNoPaths},
		},
		{
			name: "swagger 2 document",
			doc:  `{"swagger": "2.0", "info": {"title": "T", "version": "1"}, "paths": {"/a": {}}}`,
			want: []string{MsgInvalidVersion},
		},
		{
			name: "top-level version field",
			doc:  `{"version": "3.0.1", "info": {"title": "T", "version": "1"}, "paths": {"/a": {}}}`,
			want: nil,
		},
		{
			name: "array root",
			doc:  `[]`,
			want: []string{MsgInvalidVersion, MsgMissingTitle, MsgMissingVersion, MsgNoPaths},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(context.Background(), mustParse(t, "api.json", tt.doc), Options{})
			if tt.want == nil {
				assert.True(t, res.Valid)
				assert.Empty(t, res.Errors)
				return
			}
			assert.False(t, res.Valid)
			assert.Equal(t, tt.want, res.Errors)
		})
	}
}

func TestValidate_MessagesMentionField(t *testing.T) {
	// Test: findings name what is missing
	doc := `{"openapi": "3.0.0", "info": {"title": "T"}, "paths": {}}`
	res := Validate(context.Background(), mustParse(t, "api.json", doc), Options{})

	require.GreaterOrEqual(t, len(res.Errors), 2)
	assert.Contains(t, res.Errors[0], "version")
	assert.Contains(t, strings.ToLower(res.Errors[1]), "paths")
}

func TestValidate_GraphQLAlwaysValid(t *testing.T) {
	s := mustParse(t, "schema.graphql", "this is not even graphql {")
	for _, strict := range []bool{false, true} {
		res := Validate(context.Background(), s, Options{Strict: strict})
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
	}
}

func TestValidate_ModesAreIndependent(t *testing.T) {
	// Test: empty paths fails basic but is allowed by the strict rules
	doc := `{"openapi": "3.0.0", "info": {"title": "T", "version": "1"}, "paths": {}}`
	s := mustParse(t, "api.json", doc)

	basic := Validate(context.Background(), s, Options{})
	strict := Validate(context.Background(), s, Options{Strict: true})
	assert.False(t, basic.Valid)
	assert.True(t, strict.Valid, "errors: %v", strict.Errors)

	// Test: a bad response passes basic and fails strict
	doc = `{"openapi": "3.0.0", "info": {"title": "T", "version": "1"},
	        "paths": {"/a": {"get": {"responses": {"200": {}}}}}}`
	s = mustParse(t, "api.json", doc)

	basic = Validate(context.Background(), s, Options{})
	strict = Validate(context.Background(), s, Options{Strict: true})
	assert.True(t, basic.Valid)
	assert.False(t, strict.Valid)
	assert.Equal(t, []string{"Missing description for response 200 of GET /a"}, strict.Errors)
}

func TestValidate_StrictRules(t *testing.T) {
	tests := []struct {
		name  string
		paths string
		extra string
		want  []string
	}{
		{
			name:  "unsupported verb",
			paths: `{"/a": {"fetch": {"responses": {"200": {"description": "ok"}}}, "x-tag": 1, "summary": "s"}}`,
			want:  []string{`Unsupported HTTP method "fetch" at /a`},
		},
		{
			name:  "path without slash",
			paths: `{"a": {"get": {"responses": {"200": {"description": "ok"}}}}}`,
			want:  []string{`Path "a" must start with "/"`},
		},
		{
			name:  "missing responses",
			paths: `{"/a": {"get": {}, "post": {"responses": {}}}}`,
			want:  []string{"Missing responses for GET /a", "Missing responses for POST /a"},
		},
		{
			name: "bad parameters",
			paths: `{"/a/{id}": {"get": {
				"parameters": [
					{"name": "id", "in": "path", "schema": {"type": "string"}},
					{"in": "query", "schema": {"type": "string"}},
					{"name": "q", "in": "body", "schema": {"type": "string"}},
					{"name": "h", "in": "header"}
				],
				"responses": {"200": {"description": "ok"}}}}}`,
			want: []string{
				`Path parameter "id" of GET /a/{id} must be required`,
				"Parameter 1 of GET /a/{id} is missing a name",
				`Parameter "q" of GET /a/{id} has invalid location "body"`,
				`Parameter "h" of GET /a/{id} must have a schema or content`,
			},
		},
		{
			name:  "parameters not an array",
			paths: `{"/a": {"parameters": {"name": "x"}, "get": {"responses": {"200": {"description": "ok"}}}}}`,
			want:  []string{"Parameters of /a must be an array"},
		},
		{
			name:  "bad schemas",
			paths: `{"/a": {"get": {"responses": {"200": {"description": "ok"}}}}}`,
			extra: `"components": {"schemas": {
				"List": {"type": "array"},
				"Odd": {"type": "file"},
				"Ptr": {"$ref": "#/components/schemas/Missing"},
				"Obj": {"type": "object", "properties": {"x": {"type": "array", "items": {"type": "strin"}}}}
			}}`,
			want: []string{
				"Array schema at components.schemas.List is missing items",
				`Unknown schema type "strin" at components.schemas.Obj.properties.x.items`,
				`Unknown schema type "file" at components.schemas.Odd`,
				`Unresolved reference "#/components/schemas/Missing" at components.schemas.Ptr`,
			},
		},
		{
			name:  "inline response schema ref",
			paths: `{"/a": {"get": {"responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Nope"}}}}}}}}`,
			want:  []string{`Unresolved reference "#/components/schemas/Nope" at GET /a response 200 application/json`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"openapi": "3.0.0", "info": {"title": "T", "version": "1"}, "paths": ` + tt.paths
			if tt.extra != "" {
				doc += ", " + tt.extra
			}
			doc += "}"

			res := Validate(context.Background(), mustParse(t, "api.json", doc), Options{Strict: true})
			assert.False(t, res.Valid)
			assert.Equal(t, tt.want, res.Errors)
		})
	}
}

func TestValidate_StrictDocumentShape(t *testing.T) {
	res := Validate(context.Background(), mustParse(t, "api.json", `[1]`), Options{Strict: true})
	assert.Equal(t, []string{"Document must be an object"}, res.Errors)

	res = Validate(context.Background(), mustParse(t, "api.json", `{"openapi": "3.0", "info": {}}`), Options{Strict: true})
	assert.Equal(t, []string{
		`Invalid openapi version "3.0" (expected 3.x.y)`,
		"Missing required field: info.title",
		"Missing required field: info.version",
		"Missing required field: paths",
	}, res.Errors)
}

func TestValidate_StrictCompliancePass(t *testing.T) {
	// Test: findings the structural walk does not cover come from the compliance pass
	doc := `{"openapi": "3.0.0", "info": {"title": "T", "version": "1"},
	  "paths": {"/a": {"get": {"responses": {"200": {"description": "ok"}}}}},
	  "components": {"schemas": {"Pet": {"type": "string", "pattern": "["}}}}`

	res := Validate(context.Background(), mustParse(t, "api.json", doc), Options{Strict: true})
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0], "Schema compliance: "), res.Errors[0])
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		return p
	}

	t.Run("valid yaml", func(t *testing.T) {
		p := write("api.yaml", "openapi: 3.0.0\ninfo:\n  title: T\n  version: 1.0.0\npaths:\n  /health:\n    get:\n      responses:\n        '200':\n          description: OK\n")
		res := ValidateFile(context.Background(), p, Options{})
		assert.True(t, res.Valid, "%v", res.Errors)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		p := write("api.txt", "{}")
		res := ValidateFile(context.Background(), p, Options{})
		assert.Equal(t, []string{"Unsupported file format: .txt"}, res.Errors)
	})

	t.Run("broken json", func(t *testing.T) {
		p := write("broken.json", "{")
		res := ValidateFile(context.Background(), p, Options{})
		require.Len(t, res.Errors, 1)
		assert.True(t, strings.HasPrefix(res.Errors[0], "Failed to parse spec: "))
	})

	t.Run("missing file", func(t *testing.T) {
		res := ValidateFile(context.Background(), filepath.Join(dir, "nope.json"), Options{})
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0], "Failed to parse spec")
	})

	t.Run("graphql", func(t *testing.T) {
		p := write("schema.gql", "type Query { a: Int }")
		assert.True(t, ValidateFile(context.Background(), p, Options{Strict: true}).Valid)
	})
}

func TestResult_Err(t *testing.T) {
	res := newResult([]string{MsgMissingTitle, MsgNoPaths})
	err := res.Err("api.json", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, sdkerr.ErrValidation)

	var verr *sdkerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{MsgMissingTitle, MsgNoPaths}, verr.Errors)
	assert.True(t, verr.Strict)
}
