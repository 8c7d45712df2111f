package python

import (
	"strings"

	"github.com/gidevo/gidevo-api-tool/internal/codegen/render"
	"github.com/gidevo/gidevo-api-tool/internal/spec"
)

// Any is the type used for nodes that match no known shape
const Any = "Any"

// Context carries the property being resolved and its parent's required list.
// A named property missing from Required resolves to Optional[...].
type Context struct {
	Required []string
	Property string
}

func (c Context) optional() bool {
	if c.Property == "" {
		return false
	}
	for _, r := range c.Required {
		if r == c.Property {
			return false
		}
	}
	return true
}

// Resolver turns schema nodes into Python type hints
type Resolver struct {
	// RefPrefix is prepended to referenced type names, e.g. "models."
	RefPrefix string
}

// ResolveType resolves n with no reference prefix
func ResolveType(n *spec.SchemaNode, ctx Context) string {
	return Resolver{}.Resolve(n, ctx)
}

// Resolve returns the type hint for n. Nullable nodes and optional
// properties are wrapped in Optional once.
func (r Resolver) Resolve(n *spec.SchemaNode, ctx Context) string {
	t := r.base(n)
	if ctx.optional() || (n != nil && n.Nullable) {
		return optional(t)
	}
	return t
}

func (r Resolver) base(n *spec.SchemaNode) string {
	switch n.Kind() {
	case spec.NodeReference:
		return r.RefPrefix + TypeName(n.RefName())

	case spec.NodeOneOf, spec.NodeAnyOf:
		members := n.Members()
		parts := make([]string, 0, len(members))
		seen := map[string]bool{}
		for _, m := range members {
			t := r.Resolve(m, Context{})
			if !seen[t] {
				seen[t] = true
				parts = append(parts, t)
			}
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return "Union[" + strings.Join(parts, ", ") + "]"

	case spec.NodeAllOf:
		// Python has no intersection type; the first member names the shape
		return r.Resolve(n.AllOf[0], Context{})

	case spec.NodeArray:
		if n.Items == nil {
			return "List[" + Any + "]"
		}
		return "List[" + stripOptional(r.Resolve(n.Items, Context{})) + "]"

	case spec.NodeObject:
		if n.AdditionalProperties != nil {
			return "Dict[str, " + r.Resolve(n.AdditionalProperties, Context{}) + "]"
		}
		return "Dict[str, Any]"

	case spec.NodePrimitive:
		return primitive(n)
	}
	return Any
}

func primitive(n *spec.SchemaNode) string {
	switch n.Type {
	case "string":
		if values := n.EnumStrings(); len(values) > 0 {
			quoted := make([]string, len(values))
			for i, v := range values {
				quoted[i] = quote(v)
			}
			return "Literal[" + strings.Join(quoted, ", ") + "]"
		}
		if n.Format == "binary" {
			return "bytes"
		}
		return "str"
	case "integer":
		return "int"
	case "number":
		return "float"
	case "boolean":
		return "bool"
	}
	return Any
}

func optional(t string) string {
	if strings.HasPrefix(t, "Optional[") {
		return t
	}
	return "Optional[" + t + "]"
}

func stripOptional(t string) string {
	if strings.HasPrefix(t, "Optional[") && strings.HasSuffix(t, "]") {
		return t[len("Optional[") : len(t)-1]
	}
	return t
}

// TypeName makes a component name usable as a Python class name
func TypeName(name string) string {
	id := render.Identifier(name)
	if keywords[id] {
		return id + "_"
	}
	return id
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}
