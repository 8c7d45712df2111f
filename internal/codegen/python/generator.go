package python

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/gidevo/gidevo-api-tool/internal/codegen/render"
	"github.com/gidevo/gidevo-api-tool/internal/codegen/writer"
	"github.com/gidevo/gidevo-api-tool/internal/spec"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names inside a template set
const (
	RESTClientTemplate    = "client.rest.py.tmpl"
	GraphQLClientTemplate = "client.graphql.py.tmpl"
	ModelsTemplate        = "models.py.tmpl"
)

// Generator renders a requests-based Python client and a dataclass models module
type Generator struct {
	templates *render.TemplateSet
}

// NewGenerator creates a new Python generator. A nil templates uses the
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
	return "python"
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return ".py"
}

type clientData struct {
	*render.View
	Operations []operation
	RootFields string
}

type modelsData struct {
	*render.View
	Declarations string
}

type operation struct {
	Name       string
	Params     string
	ReturnType string
	Doc        string
	Call       string
}

// Generate renders client.py and models.py for s
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

	models, err := g.templates.Render(ModelsTemplate, modelsData{View: view, Declarations: declarations(view)})
	if err != nil {
		return nil, err
	}

	return []render.Artifact{
		{Path: "client.py", Contents: client},
		{Path: "models.py", Contents: models},
	}, nil
}

func (g *Generator) clientData(view *render.View) clientData {
	data := clientData{View: view}
	if view.GraphQL != nil {
		data.RootFields = rootFieldsDict(view.GraphQL.Roots)
		return data
	}

	r := Resolver{RefPrefix: "models."}
	methods := render.NewNames()
	for _, op := range view.Operations {
		o := buildOperation(r, op)
		o.Name = methods.Claim(o.Name)
		data.Operations = append(data.Operations, o)
	}
	return data
}

// argument is one parameter of a generated method
type argument struct {
	render.Param
	Ident string
}

// arguments gives every parameter an argument name unique within the method.
// A query or header parameter whose name is taken gets an _query or _header
// suffix.
func arguments(op render.Operation) (path, query, header []argument) {
	names := render.NewNames("self", "body")
	for _, p := range op.PathParams {
		path = append(path, argument{Param: p, Ident: names.Claim(paramIdent(p.Name))})
	}
	for _, p := range op.QueryParams {
		id := paramIdent(p.Name)
		query = append(query, argument{Param: p, Ident: names.Claim(id, id+"_query")})
	}
	for _, p := range op.HeaderParams {
		id := paramIdent(p.Name)
		header = append(header, argument{Param: p, Ident: names.Claim(id, id+"_header")})
	}
	return path, query, header
}

func buildOperation(r Resolver, op render.Operation) operation {
	var required, optional []string
	pathArgs, queryArgs, headerArgs := arguments(op)

	idents := map[string]string{}
	for _, a := range pathArgs {
		idents[a.Name] = a.Ident
		required = append(required, fmt.Sprintf("%s: %s", a.Ident, r.Resolve(a.Schema, Context{})))
	}

	bodyParam := ""
	if op.Body != nil {
		bodyParam = "body"
		ctx := Context{Property: "body"}
		if op.Body.Required {
			ctx.Required = []string{"body"}
			required = append(required, "body: "+r.Resolve(op.Body.Schema, ctx))
		} else {
			optional = append(optional, "body: "+r.Resolve(op.Body.Schema, ctx)+" = None")
		}
	}

	for _, a := range append(append([]argument{}, queryArgs...), headerArgs...) {
		ctx := Context{Property: a.Name}
		if a.Required {
			ctx.Required = []string{a.Name}
			required = append(required, fmt.Sprintf("%s: %s", a.Ident, r.Resolve(a.Schema, ctx)))
			continue
		}
		optional = append(optional, fmt.Sprintf("%s: %s = None", a.Ident, r.Resolve(a.Schema, ctx)))
	}

	params := append([]string{"self"}, append(required, optional...)...)

	args := []string{strconv.Quote(op.Method), pathExpr(op.Path, idents)}
	if len(queryArgs) > 0 {
		args = append(args, "params="+paramDict(queryArgs))
	}
	if len(headerArgs) > 0 {
		args = append(args, "headers="+paramDict(headerArgs))
	}
	if bodyParam != "" {
		if strings.Contains(op.Body.ContentType, "json") {
			args = append(args, "json_body="+bodyParam)
		} else {
			args = append(args, "data="+bodyParam, "content_type="+strconv.Quote(op.Body.ContentType))
		}
	}

	call := "self.request(" + strings.Join(args, ", ") + ")"
	returnType := "None"
	if op.Response != nil {
		returnType = r.Resolve(op.Response, Context{})
		call = "return " + call
	}

	w := writer.NewWriter("    ")
	w.WriteDocstring(op.Doc())

	return operation{
		Name:       methodIdent(op.Name),
		Params:     strings.Join(params, ", "),
		ReturnType: returnType,
		Doc:        strings.TrimRight(w.String(), "\n"),
		Call:       call,
	}
}

// paramDict maps wire names to argument names
func paramDict(args []argument) string {
	entries := make([]string, 0, len(args))
	for _, a := range args {
		entries = append(entries, fmt.Sprintf("%s: %s", strconv.Quote(a.Name), a.Ident))
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

// pathExpr renders a path template as an f-string with quoted parameters,
// or a plain string when the path has none. idents maps parameter names to
// argument names; missing entries use paramIdent.
func pathExpr(path string, idents map[string]string) string {
	segs := render.PathSegments(path)
	hasParams := false
	for _, seg := range segs {
		hasParams = hasParams || seg.Param != ""
	}
	if !hasParams {
		return strconv.Quote(path)
	}

	var sb strings.Builder
	sb.WriteString(`f"`)
	for _, seg := range segs {
		if seg.Param != "" {
			ident, ok := idents[seg.Param]
			if !ok {
				ident = paramIdent(seg.Param)
			}
			fmt.Fprintf(&sb, "{quote(str(%s), safe='')}", ident)
			continue
		}
		lit := strings.ReplaceAll(seg.Literal, `\`, `\\`)
		lit = strings.ReplaceAll(lit, `"`, `\"`)
		lit = strings.ReplaceAll(lit, "{", "{{")
		lit = strings.ReplaceAll(lit, "}", "}}")
		sb.WriteString(lit)
	}
	sb.WriteString(`"`)
	return sb.String()
}

// declarations writes the model classes and type aliases. Classes come
// first; aliases are quoted so they may refer to names declared later.
func declarations(view *render.View) string {
	w := writer.NewWriter("    ").WithCommentPrefix("#")

	declared := map[string]bool{}
	for _, m := range view.Models {
		declared[TypeName(m.Name)] = true
	}

	if !declared["ApiResponse"] {
		writeClass(w, "ApiResponse", "", []string{"data: Any", "status: int"})
	}
	if !declared["ErrorResponse"] {
		writeClass(w, "ErrorResponse", "", []string{"message: str", "code: str"})
	}

	var aliases []render.Model
	for _, m := range view.Models {
		n := m.Schema
		if n.Kind() != spec.NodeObject || len(n.Properties) == 0 {
			aliases = append(aliases, m)
			continue
		}
		writeClass(w, TypeName(m.Name), n.Description, modelFields(n))
	}

	if view.GraphQL != nil {
		roots := view.GraphQL.Roots
		writeAlias(w, "QueryField", "", literal(roots.Queries))
		writeAlias(w, "MutationField", "", literal(roots.Mutations))
		writeAlias(w, "SubscriptionField", "", literal(roots.Subscriptions))
	}
	for _, m := range aliases {
		desc := ""
		if m.Schema != nil {
			desc = m.Schema.Description
		}
		writeAlias(w, TypeName(m.Name), desc, ResolveType(m.Schema, Context{}))
	}

	return strings.TrimRight(w.String(), "\n")
}

// modelFields lists required fields first, each group sorted by name
func modelFields(n *spec.SchemaNode) []string {
	names := make([]string, 0, len(n.Properties))
	for p := range n.Properties {
		names = append(names, p)
	}
	sort.Strings(names)

	var required, optional []string
	for _, p := range names {
		ctx := Context{Required: n.Required, Property: p}
		hint := ResolveType(n.Properties[p], ctx)
		ident := fieldIdent(p)

		var line string
		switch {
		case ident != p && ctx.optional():
			line = fmt.Sprintf("%s: %s = field(default=None, metadata={%q: %q})", ident, hint, "json", p)
		case ident != p:
			line = fmt.Sprintf("%s: %s = field(metadata={%q: %q})", ident, hint, "json", p)
		case ctx.optional():
			line = fmt.Sprintf("%s: %s = None", ident, hint)
		default:
			line = fmt.Sprintf("%s: %s", ident, hint)
		}

		if ctx.optional() {
			optional = append(optional, line)
		} else {
			required = append(required, line)
		}
	}
	return append(required, optional...)
}

func writeClass(w *writer.Writer, name, doc string, fields []string) {
	w.BlankLine()
	w.WriteLine("@dataclass")
	w.WriteLinef("class %s:", name)
	w.Indent()
	defer w.Dedent()

	if strings.TrimSpace(doc) != "" {
		w.WriteDocstring(doc)
		w.BlankLine()
	}
	if len(fields) == 0 {
		w.WriteLine("pass")
		return
	}
	for _, f := range fields {
		w.WriteLine(f)
	}
}

func writeAlias(w *writer.Writer, name, doc, hint string) {
	w.BlankLine()
	w.WriteDocComment(doc)
	w.WriteLinef("%s: TypeAlias = %s", name, strconv.Quote(hint))
}

func literal(fields []spec.RootField) string {
	if len(fields) == 0 {
		return "None"
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = quote(f.Name)
	}
	return "Literal[" + strings.Join(names, ", ") + "]"
}

func rootFieldsDict(roots spec.RootFields) string {
	list := func(fields []spec.RootField) string {
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = strconv.Quote(f.Name)
		}
		return "[" + strings.Join(names, ", ") + "]"
	}
	w := writer.NewWriter("    ")
	w.WriteBlock("ROOT_FIELDS: Dict[str, List[str]] = {", "}", func() {
		w.WriteLinef(`"queries": %s,`, list(roots.Queries))
		w.WriteLinef(`"mutations": %s,`, list(roots.Mutations))
		w.WriteLinef(`"subscriptions": %s,`, list(roots.Subscriptions))
	})
	return strings.TrimRight(w.String(), "\n")
}

func paramIdent(name string) string {
	id := fieldIdent(name)
	switch id {
	case "self", "body", "quote", "models", "requests":
		return id + "_param"
	}
	return id
}

func fieldIdent(name string) string {
	id := render.SnakeCase(name)
	if id == "" {
		id = name
	}
	id = render.Identifier(id)
	if keywords[id] {
		return id + "_"
	}
	return id
}

func methodIdent(name string) string {
	id := fieldIdent(name)
	switch id {
	case "request", "get", "post", "put", "patch", "delete":
		return id + "_op"
	}
	return id
}
