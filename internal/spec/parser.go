package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/gidevo/gidevo-api-tool/internal/sdkerr"
)

// HTTPMethods are the path item keys treated as operations, in output order
var HTTPMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// IsHTTPMethod reports whether key names an operation in a path item
func IsHTTPMethod(key string) bool {
	key = strings.ToLower(key)
	for _, m := range HTTPMethods {
		if m == key {
			return true
		}
	}
	return false
}

// Formats returns the file extensions Parse understands
func Formats() []string {
	return []string{".json", ".yaml", ".yml", ".graphql", ".gql"}
}

// ParseFile reads path and parses it by extension
func ParseFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &sdkerr.ParseError{Path: path, Message: "cannot read file", Cause: err}
	}
	return Parse(path, data)
}

// Parse turns raw file content into a Spec. The format is chosen by the
// extension of path: .json, .yaml/.yml, or .graphql/.gql.
func Parse(path string, content []byte) (*Spec, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".json":
		var raw any
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, &sdkerr.ParseError{Path: path, Message: "invalid JSON", Cause: err}
		}
		switch raw.(type) {
		case map[string]any, []any:
		default:
			return nil, &sdkerr.ParseError{Path: path, Message: "JSON document must be an object or array"}
		}
		return newOpenAPISpec(path, raw), nil

	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, &sdkerr.ParseError{Path: path, Message: "invalid YAML", Cause: err}
		}
		return newOpenAPISpec(path, normalizeYAML(raw)), nil

	case ".graphql", ".gql":
		return &Spec{
			Kind:    KindGraphQL,
			Source:  path,
			GraphQL: &GraphQLSchema{RawSchemaText: string(content)},
		}, nil
	}

	if ext == "" {
		ext = "(none)"
	}
	return nil, &sdkerr.ParseError{
		Path:    path,
		Message: fmt.Sprintf("unsupported file format %s (expected one of %s)", ext, strings.Join(Formats(), ", ")),
	}
}

func newOpenAPISpec(path string, raw any) *Spec {
	return &Spec{
		Kind:    KindOpenAPI,
		Source:  path,
		OpenAPI: decodeDocument(raw),
		Raw:     raw,
	}
}

// normalizeYAML converts map[any]any nodes into map[string]any so the tree
// can be handled the same way as decoded JSON.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	}
	return v
}

// decodeDocument builds the typed view of raw section by section. A section
// that does not fit its typed shape is left empty rather than failing the
// parse; validators report those shapes from Raw.
func decodeDocument(raw any) *Document {
	doc := &Document{
		Paths: map[string]PathItem{},
		Components: Components{
			Schemas:         map[string]*SchemaNode{},
			SecuritySchemes: map[string]SecurityScheme{},
		},
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return doc
	}

	doc.Version = scalarString(m["openapi"])
	doc.AltVersion = scalarString(m["version"])

	if info, ok := m["info"].(map[string]any); ok {
		doc.Info = Info{
			Title:       scalarString(info["title"]),
			Version:     scalarString(info["version"]),
			Description: scalarString(info["description"]),
		}
	}

	if servers, ok := m["servers"].([]any); ok {
		for _, s := range servers {
			var server Server
			if decodeLenient(s, &server) {
				doc.Servers = append(doc.Servers, server)
			}
		}
	}

	if paths, ok := m["paths"].(map[string]any); ok {
		for p, item := range paths {
			var pi PathItem
			decodeLenient(item, &pi)
			if pi.Operations == nil {
				pi.Operations = map[string]*Operation{}
			}
			doc.Paths[p] = pi
		}
	}

	if comps, ok := m["components"].(map[string]any); ok {
		if schemas, ok := comps["schemas"].(map[string]any); ok {
			for name, s := range schemas {
				var node SchemaNode
				if decodeLenient(s, &node) {
					doc.Components.Schemas[name] = &node
				}
			}
		}
		if schemes, ok := comps["securitySchemes"].(map[string]any); ok {
			for name, s := range schemes {
				var scheme SecurityScheme
				if decodeLenient(s, &scheme) {
					doc.Components.SecuritySchemes[name] = scheme
				}
			}
		}
	}

	return doc
}

// UnmarshalJSON keeps the HTTP method keys and the shared parameters of a
// path item. Operations that do not decode are skipped.
func (p *PathItem) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	p.Operations = make(map[string]*Operation)
	for key, value := range fields {
		lower := strings.ToLower(key)
		if lower == "parameters" {
			var params []Parameter
			if err := json.Unmarshal(value, &params); err == nil {
				p.Parameters = params
			}
			continue
		}
		if !IsHTTPMethod(lower) {
			continue
		}
		var op Operation
		if err := json.Unmarshal(value, &op); err != nil {
			continue
		}
		p.Operations[lower] = &op
	}
	return nil
}

func decodeLenient(v any, out any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(t)
	}
	return ""
}
