package typescript

import (
	"strings"

	"github.com/gidevo/gidevo-api-tool/internal/codegen/render"
	"github.com/gidevo/gidevo-api-tool/internal/spec"
)

// Unknown is the type used for nodes that match no known shape
const Unknown = "unknown"

// Resolver turns schema nodes into TypeScript type expressions. Nullable
// nodes get a "| null" member; optionality is expressed on properties, not here.
type Resolver struct {
	// RefPrefix is prepended to referenced type names, e.g. "types."
	RefPrefix string
}

// ResolveType resolves n with no reference prefix
func ResolveType(n *spec.SchemaNode) string {
	return Resolver{}.Resolve(n)
}

// Resolve returns the type expression for n
func (r Resolver) Resolve(n *spec.SchemaNode) string {
	t := r.base(n)
	if n != nil && n.Nullable && t != Unknown {
		return t + " | null"
	}
	return t
}

func (r Resolver) base(n *spec.SchemaNode) string {
	switch n.Kind() {
	case spec.NodeReference:
		return r.RefPrefix + TypeName(n.RefName())

	case spec.NodeOneOf, spec.NodeAnyOf:
		return r.join(n.Members(), " | ", false)

	case spec.NodeAllOf:
		return r.join(n.Members(), " & ", true)

	case spec.NodeArray:
		if n.Items == nil {
			return Unknown + "[]"
		}
		return group(r.Resolve(n.Items)) + "[]"

	case spec.NodeObject:
		if n.AdditionalProperties != nil {
			return "Record<string, " + r.Resolve(n.AdditionalProperties) + ">"
		}
		return "Record<string, unknown>"

	case spec.NodePrimitive:
		return primitive(n)
	}
	return Unknown
}

func (r Resolver) join(members []*spec.SchemaNode, sep string, groupUnions bool) string {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		t := r.Resolve(m)
		if groupUnions {
			t = group(t)
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, sep)
}

func primitive(n *spec.SchemaNode) string {
	switch n.Type {
	case "string":
		if values := n.EnumStrings(); len(values) > 0 {
			quoted := make([]string, len(values))
			for i, v := range values {
				quoted[i] = quote(v)
			}
			return strings.Join(quoted, " | ")
		}
		return "string"
	case "integer", "number":
		return "number"
	case "boolean":
		return "boolean"
	}
	return Unknown
}

// group wraps union and intersection types in parentheses so they can be
// used as an array element or intersection member
func group(t string) string {
	if strings.Contains(t, " | ") || strings.Contains(t, " & ") {
		return "(" + t + ")"
	}
	return t
}

// TypeName makes a component name usable as a TypeScript type name
func TypeName(name string) string {
	return render.Identifier(name)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
