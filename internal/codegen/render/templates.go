package render

import (
	"bytes"
	"io/fs"
	"strconv"
	"strings"
	"text/template"

	"github.com/gidevo/gidevo-api-tool/internal/sdkerr"
)

// Artifact is one generated file, relative to the output directory
type Artifact struct {
	Path     string
	Contents string
}

// BaseFuncs are the helpers every template set gets
func BaseFuncs() template.FuncMap {
	return template.FuncMap{
		"quote":  strconv.Quote,
		"join":   strings.Join,
		"upper":  strings.ToUpper,
		"lower":  strings.ToLower,
		"pascal": PascalCase,
		"camel":  CamelCase,
		"snake":  SnakeCase,
		"indent": indent,
	}
}

// TemplateSet renders named templates read from a file system. Templates are
// parsed on every Render call so an overriding directory is always read fresh.
type TemplateSet struct {
	fsys  fs.FS
	funcs template.FuncMap
}

// NewTemplateSet creates a template set over fsys. funcs are added on top of
// BaseFuncs.
func NewTemplateSet(fsys fs.FS, funcs template.FuncMap) *TemplateSet {
	all := BaseFuncs()
	for name, fn := range funcs {
		all[name] = fn
	}
	return &TemplateSet{fsys: fsys, funcs: all}
}

// Render executes the template called name against data. A missing,
// unparsable or failing template is a *sdkerr.TemplateError naming it.
func (t *TemplateSet) Render(name string, data any) (string, error) {
	src, err := fs.ReadFile(t.fsys, name)
	if err != nil {
		return "", &sdkerr.TemplateError{Path: name, Cause: err}
	}

	tmpl, err := template.New(name).
		Funcs(t.funcs).
		Option("missingkey=error").
		Parse(string(src))
	if err != nil {
		return "", &sdkerr.TemplateError{Path: name, Cause: err}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", &sdkerr.TemplateError{Path: name, Cause: err}
	}
	return buf.String(), nil
}

// indent prefixes every non-empty line of s with n spaces
func indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}
