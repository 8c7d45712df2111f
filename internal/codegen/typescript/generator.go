package typescript

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/gidevo/gidevo-api-tool/internal/codegen/render"
	"github.com/gidevo/gidevo-api-tool/internal/codegen/writer"
	"github.com/gidevo/gidevo-api-tool/internal/spec"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names inside a template set
const (
	RESTClientTemplate    = "client.rest.ts.tmpl"
	GraphQLClientTemplate = "client.graphql.ts.tmpl"
	TypesTemplate         = "types.ts.tmpl"
)

// Built-in declarations always present in types.ts
var builtinTypes = []string{"ApiResponse", "ErrorResponse"}

var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "let": true, "static": true, "await": true,
}

// Generator renders a fetch-based TypeScript client and a types module
type Generator struct {
	templates *render.TemplateSet
}

// NewGenerator creates a new TypeScript generator. A nil templates uses the
// built-in set.
func NewGenerator(templates fs.FS) *Generator {
	if templates == nil {
		templates = BuiltinTemplates()
	}
	return &Generator{
		templates: render.NewTemplateSet(templates, nil),
	}
}

// BuiltinTemplates returns the embedded template set
func BuiltinTemplates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Language returns the name of the target language
func (g *Generator) Language() string {
	return "typescript"
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return ".ts"
}

type clientData struct {
	*render.View
	Operations []operation
	Imports    bool
	RootFields string
}

type typesData struct {
	*render.View
	Builtins     string
	Declarations string
}

type operation struct {
	Name       string
	Doc        string
	Params     string
	ReturnType string
	Method     string
	Path       string
	Options    string
}

// Generate renders client.ts and types.ts for s
func (g *Generator) Generate(s *spec.Spec) ([]render.Artifact, error) {
	view := render.Build(s)

	clientTemplate := RESTClientTemplate
	if view.GraphQL != nil {
		clientTemplate = GraphQLClientTemplate
	}

	client, err := g.templates.Render(clientTemplate, g.clientData(view))
	if err != nil {
		return nil, err
	}

	types, err := g.templates.Render(TypesTemplate, g.typesData(view))
	if err != nil {
		return nil, err
	}

	return []render.Artifact{
		{Path: "client.ts", Contents: client},
		{Path: "types.ts", Contents: types},
	}, nil
}

func (g *Generator) clientData(view *render.View) clientData {
	data := clientData{View: view, Imports: len(view.Models) > 0}

	if view.GraphQL != nil {
		data.RootFields = rootFieldsConst(view.GraphQL.Roots)
		return data
	}

	r := Resolver{RefPrefix: "types."}
	methods := render.NewNames()
	for _, op := range view.Operations {
		o := buildOperation(r, op)
		o.Name = methods.Claim(o.Name)
		data.Operations = append(data.Operations, o)
	}
	return data
}

func buildOperation(r Resolver, op render.Operation) operation {
	w := writer.NewWriter("  ")
	w.WriteJSDoc(op.Doc())

	// body and params are always the trailing arguments
	args := render.NewNames("body", "params")
	idents := map[string]string{}
	var params []string
	for _, p := range op.PathParams {
		idents[p.Name] = args.Claim(paramIdent(p.Name))
		params = append(params, fmt.Sprintf("%s: %s", idents[p.Name], r.Resolve(p.Schema)))
	}

	extra := append(append([]render.Param{}, op.QueryParams...), op.HeaderParams...)
	extraRequired := false
	for _, p := range extra {
		extraRequired = extraRequired || p.Required
	}

	if op.Body != nil {
		bodyType := r.Resolve(op.Body.Schema)
		switch {
		case op.Body.Required:
			params = append(params, "body: "+bodyType)
		case extraRequired:
			params = append(params, "body: "+bodyType+" | undefined")
		default:
			params = append(params, "body?: "+bodyType)
		}
	}

	if len(extra) > 0 {
		fields := make([]string, 0, len(extra))
		for _, p := range extra {
			opt := "?"
			if p.Required {
				opt = ""
			}
			fields = append(fields, fmt.Sprintf("%s%s: %s", propertyKey(p.Name), opt, r.Resolve(p.Schema)))
		}
		decl := "params: { " + strings.Join(fields, "; ") + " }"
		if !extraRequired {
			decl += " = {}"
		}
		params = append(params, decl)
	}

	returnType := "void"
	if op.Response != nil {
		returnType = r.Resolve(op.Response)
	}

	return operation{
		Name:       methodIdent(op.Name),
		Doc:        strings.TrimRight(w.String(), "\n"),
		Params:     strings.Join(params, ", "),
		ReturnType: returnType,
		Method:     op.Method,
		Path:       pathExpr(op.Path, idents),
		Options:    requestOptions(op),
	}
}

func requestOptions(op render.Operation) string {
	var parts []string
	if len(op.QueryParams) > 0 {
		parts = append(parts, "query: "+paramObject(op.QueryParams))
	}
	if len(op.HeaderParams) > 0 {
		parts = append(parts, "headers: "+paramObject(op.HeaderParams))
	}
	if op.Body != nil {
		parts = append(parts, "body")
		if op.Body.ContentType != "application/json" {
			parts = append(parts, "contentType: "+quote(op.Body.ContentType))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func paramObject(params []render.Param) string {
	fields := make([]string, 0, len(params))
	for _, p := range params {
		fields = append(fields, fmt.Sprintf("%s: %s", propertyKey(p.Name), memberAccess("params", p.Name)))
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

// pathExpr renders a path template as a JavaScript template literal with
// encoded parameters. idents maps parameter names to argument names; missing
// entries use paramIdent.
func pathExpr(path string, idents map[string]string) string {
	var sb strings.Builder
	sb.WriteString("`")
	for _, seg := range render.PathSegments(path) {
		if seg.Param != "" {
			ident, ok := idents[seg.Param]
			if !ok {
				ident = paramIdent(seg.Param)
			}
			fmt.Fprintf(&sb, "${encodeURIComponent(String(%s))}", ident)
			continue
		}
		lit := strings.ReplaceAll(seg.Literal, `\`, `\\`)
		lit = strings.ReplaceAll(lit, "`", "\\`")
		lit = strings.ReplaceAll(lit, "${", "\\${")
		sb.WriteString(lit)
	}
	sb.WriteString("`")
	return sb.String()
}

func (g *Generator) typesData(view *render.View) typesData {
	data := typesData{View: view}

	declared := map[string]bool{}
	for _, m := range view.Models {
		declared[TypeName(m.Name)] = true
	}

	w := writer.NewWriter("  ")
	for _, name := range builtinTypes {
		if declared[name] {
			continue
		}
		switch name {
		case "ApiResponse":
			w.WriteBlock("export interface ApiResponse<T> {", "}", func() {
				w.WriteLine("data: T;")
				w.WriteLine("status: number;")
			})
		case "ErrorResponse":
			w.WriteBlock("export interface ErrorResponse {", "}", func() {
				w.WriteLine("message: string;")
				w.WriteLine("code: string;")
			})
		}
		w.BlankLine()
	}
	data.Builtins = strings.TrimRight(w.String(), "\n")

	w.Reset()
	if view.GraphQL != nil {
		writeRootFieldTypes(w, view.GraphQL.Roots)
	}
	for _, m := range view.Models {
		writeModel(w, m)
		w.BlankLine()
	}
	data.Declarations = strings.TrimRight(w.String(), "\n")
	return data
}

func writeModel(w *writer.Writer, m render.Model) {
	name := TypeName(m.Name)
	n := m.Schema
	if n != nil {
		w.WriteJSDoc(n.Description)
	}

	if n.Kind() != spec.NodeObject || len(n.Properties) == 0 {
		w.WriteLinef("export type %s = %s;", name, ResolveType(n))
		return
	}

	props := make([]string, 0, len(n.Properties))
	for p := range n.Properties {
		props = append(props, p)
	}
	sort.Strings(props)

	w.WriteBlock(fmt.Sprintf("export interface %s {", name), "}", func() {
		for _, p := range props {
			prop := n.Properties[p]
			if prop != nil {
				w.WriteJSDoc(prop.Description)
			}
			opt := "?"
			if n.IsRequired(p) {
				opt = ""
			}
			w.WriteLinef("%s%s: %s;", propertyKey(p), opt, ResolveType(prop))
		}
		if n.AdditionalProperties != nil {
			w.WriteLine("[key: string]: unknown;")
		}
	})
}

func writeRootFieldTypes(w *writer.Writer, roots spec.RootFields) {
	for _, kind := range []struct {
		name   string
		fields []spec.RootField
	}{
		{"QueryField", roots.Queries},
		{"MutationField", roots.Mutations},
		{"SubscriptionField", roots.Subscriptions},
	} {
		w.WriteLinef("export type %s = %s;", kind.name, fieldUnion(kind.fields))
	}
	w.BlankLine()
}

func fieldUnion(fields []spec.RootField) string {
	if len(fields) == 0 {
		return "never"
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = quote(f.Name)
	}
	return strings.Join(names, " | ")
}

func rootFieldsConst(roots spec.RootFields) string {
	list := func(fields []spec.RootField) string {
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = quote(f.Name)
		}
		return "[" + strings.Join(names, ", ") + "]"
	}
	w := writer.NewWriter("  ")
	w.WriteBlock("export const RootFields = {", "} as const;", func() {
		w.WriteLinef("queries: %s,", list(roots.Queries))
		w.WriteLinef("mutations: %s,", list(roots.Mutations))
		w.WriteLinef("subscriptions: %s,", list(roots.Subscriptions))
	})
	return strings.TrimRight(w.String(), "\n")
}

func paramIdent(name string) string {
	id := render.Identifier(render.CamelCase(name))
	if reserved[id] || id == "body" || id == "params" {
		return id + "Param"
	}
	return id
}

func methodIdent(name string) string {
	id := render.Identifier(render.CamelCase(name))
	switch id {
	case "request", "constructor":
		return id + "Op"
	}
	return id
}

func propertyKey(name string) string {
	if render.IsIdentifier(name) {
		return name
	}
	return quote(name)
}

func memberAccess(object, name string) string {
	if render.IsIdentifier(name) {
		return object + "." + name
	}
	return object + "[" + quote(name) + "]"
}
