package render

import (
	"sort"
	"strings"

	"github.com/gidevo/gidevo-api-tool/internal/spec"
)

// View is the language-neutral data a strategy renders from. Operations are
// ordered by path and then by HTTP method order, models by name.
type View struct {
	Title       string
	Version     string
	Description string
	BaseURL     string

	Operations []Operation
	Models     []Model

	// GraphQL is set for GraphQL specs only
	GraphQL *GraphQLView
}

// GraphQLView holds what the GraphQL client templates need
type GraphQLView struct {
	Roots spec.RootFields
	// ParseErr is set when the schema text could not be parsed; Roots is empty then
	ParseErr error
}

// Operation is one HTTP operation flattened for rendering
type Operation struct {
	// Name is the operationId, or a name derived from method and path.
	// Strategies make it unique after converting it to an identifier.
	Name        string
	Method      string
	Path        string
	Summary     string
	Description string
	Deprecated  bool

	PathParams   []Param
	QueryParams  []Param
	HeaderParams []Param

	Body     *Body
	Response *spec.SchemaNode
}

// Doc joins summary, description and the deprecation notice
func (o Operation) Doc() string {
	var parts []string
	if s := strings.TrimSpace(o.Summary); s != "" {
		parts = append(parts, s)
	}
	if d := strings.TrimSpace(o.Description); d != "" && d != strings.TrimSpace(o.Summary) {
		parts = append(parts, d)
	}
	if o.Deprecated {
		parts = append(parts, "Deprecated.")
	}
	return strings.Join(parts, "\n\n")
}

// Param is a path, query or header parameter
type Param struct {
	Name        string
	Required    bool
	Description string
	Schema      *spec.SchemaNode
}

// Body is the request payload of an operation
type Body struct {
	ContentType string
	Required    bool
	Schema      *spec.SchemaNode
}

// Model is one named component schema
type Model struct {
	Name   string
	Schema *spec.SchemaNode
}

// Segment is one piece of a path template: either literal text or a parameter
type Segment struct {
	Literal string
	Param   string
}

// Build flattens a parsed spec into a View. Build never fails; GraphQL
// schemas that do not parse yield an empty root field list.
func Build(s *spec.Spec) *View {
	if s.IsGraphQL() {
		roots, err := s.GraphQL.RootFields()
		return &View{GraphQL: &GraphQLView{Roots: roots, ParseErr: err}}
	}

	doc := s.OpenAPI
	if doc == nil {
		doc = &spec.Document{}
	}

	v := &View{
		Title:       doc.Info.Title,
		Version:     doc.Info.Version,
		Description: doc.Info.Description,
	}
	if len(doc.Servers) > 0 {
		v.BaseURL = doc.Servers[0].URL
	}

	for _, path := range sortedPaths(doc.Paths) {
		item := doc.Paths[path]
		for _, method := range spec.HTTPMethods {
			op, ok := item.Operations[method]
			if !ok || op == nil {
				continue
			}
			v.Operations = append(v.Operations, buildOperation(path, method, item.Parameters, op))
		}
	}

	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v.Models = append(v.Models, Model{Name: name, Schema: doc.Components.Schemas[name]})
	}

	return v
}

func buildOperation(path, method string, shared []spec.Parameter, op *spec.Operation) Operation {
	name := op.OperationID
	if name == "" {
		name = MethodName(method, path)
	}

	o := Operation{
		Name:        name,
		Method:      strings.ToUpper(method),
		Path:        path,
		Summary:     op.Summary,
		Description: op.Description,
		Deprecated:  op.Deprecated,
		Response:    successSchema(op.Responses),
	}

	for _, p := range mergeParameters(shared, op.Parameters) {
		param := Param{Name: p.Name, Required: p.Required, Description: p.Description, Schema: p.Schema}
		switch p.In {
		case "path":
			param.Required = true
			o.PathParams = append(o.PathParams, param)
		case "query":
			o.QueryParams = append(o.QueryParams, param)
		case "header":
			o.HeaderParams = append(o.HeaderParams, param)
		}
	}

	// path template parameters the spec forgot to declare are plain strings
	declared := map[string]bool{}
	for _, p := range o.PathParams {
		declared[p.Name] = true
	}
	for _, seg := range PathSegments(path) {
		if seg.Param != "" && !declared[seg.Param] {
			declared[seg.Param] = true
			o.PathParams = append(o.PathParams, Param{Name: seg.Param, Required: true, Schema: &spec.SchemaNode{Type: "string"}})
		}
	}

	if rb := op.RequestBody; rb != nil {
		if ct, mt, ok := pickContent(rb.Content); ok {
			o.Body = &Body{ContentType: ct, Required: rb.Required, Schema: mt.Schema}
		}
	}
	return o
}

// mergeParameters appends op-level parameters to path-level ones; an
// op-level parameter replaces a path-level one with the same name and location.
func mergeParameters(shared, own []spec.Parameter) []spec.Parameter {
	key := func(p spec.Parameter) string { return p.In + "\x00" + p.Name }

	overridden := map[string]bool{}
	for _, p := range own {
		overridden[key(p)] = true
	}

	var out []spec.Parameter
	for _, p := range shared {
		if !overridden[key(p)] {
			out = append(out, p)
		}
	}
	return append(out, own...)
}

// successSchema returns the schema of the first 2xx response, falling back
// to "default"
func successSchema(responses map[string]spec.Response) *spec.SchemaNode {
	codes := make([]string, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if strings.HasPrefix(code, "2") {
			if _, mt, ok := pickContent(responses[code].Content); ok {
				return mt.Schema
			}
			return nil
		}
	}
	if def, ok := responses["default"]; ok {
		if _, mt, ok := pickContent(def.Content); ok {
			return mt.Schema
		}
	}
	return nil
}

// pickContent prefers application/json, then any JSON media type, then the
// first media type by name
func pickContent(content map[string]spec.MediaType) (string, spec.MediaType, bool) {
	if len(content) == 0 {
		return "", spec.MediaType{}, false
	}
	if mt, ok := content["application/json"]; ok {
		return "application/json", mt, true
	}

	types := make([]string, 0, len(content))
	for ct := range content {
		types = append(types, ct)
	}
	sort.Strings(types)
	for _, ct := range types {
		if strings.Contains(ct, "json") {
			return ct, content[ct], true
		}
	}
	return types[0], content[types[0]], true
}

// PathSegments splits a templated path such as /pets/{id}/toys into
// literal and parameter pieces
func PathSegments(path string) []Segment {
	var segs []Segment
	for path != "" {
		open := strings.Index(path, "{")
		if open < 0 {
			segs = append(segs, Segment{Literal: path})
			break
		}
		end := strings.Index(path[open:], "}")
		if end < 0 {
			segs = append(segs, Segment{Literal: path})
			break
		}
		if open > 0 {
			segs = append(segs, Segment{Literal: path[:open]})
		}
		segs = append(segs, Segment{Param: path[open+1 : open+end]})
		path = path[open+end+1:]
	}
	return segs
}

func sortedPaths(paths map[string]spec.PathItem) []string {
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
