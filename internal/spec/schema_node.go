package spec

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NodeKind names the single active shape of a SchemaNode
type NodeKind string

const (
	NodeUnknown   NodeKind = "unknown"
	NodeReference NodeKind = "reference"
	NodeOneOf     NodeKind = "oneOf"
	NodeAnyOf     NodeKind = "anyOf"
	NodeAllOf     NodeKind = "allOf"
	NodeArray     NodeKind = "array"
	NodeObject    NodeKind = "object"
	NodePrimitive NodeKind = "primitive"
)

// SchemaNode is a recursive description of one data shape.
type SchemaNode struct {
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Description string `json:"description,omitempty"`
	Nullable    bool   `json:"nullable,omitempty"`

	Items *SchemaNode `json:"items,omitempty"`

	Properties           map[string]*SchemaNode `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	AdditionalProperties *SchemaNode            `json:"additionalProperties,omitempty"`

	Ref string `json:"$ref,omitempty"`

	OneOf []*SchemaNode `json:"oneOf,omitempty"`
	AnyOf []*SchemaNode `json:"anyOf,omitempty"`
	AllOf []*SchemaNode `json:"allOf,omitempty"`
}

// UnmarshalJSON accepts `type` as a string or an OpenAPI 3.1 type list, and
// `additionalProperties` as a boolean or a schema.
func (n *SchemaNode) UnmarshalJSON(data []byte) error {
	type plain SchemaNode
	var aux struct {
		plain
		Type                 json.RawMessage `json:"type,omitempty"`
		AdditionalProperties json.RawMessage `json:"additionalProperties,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*n = SchemaNode(aux.plain)
	n.Type = ""
	n.AdditionalProperties = nil

	if len(aux.Type) > 0 {
		var single string
		if err := json.Unmarshal(aux.Type, &single); err == nil {
			n.Type = single
		} else {
			var list []string
			if err := json.Unmarshal(aux.Type, &list); err != nil {
				return err
			}
			for _, t := range list {
				if t == "null" {
					n.Nullable = true
					continue
				}
				if n.Type == "" {
					n.Type = t
				}
			}
		}
	}

	ap := bytes.TrimSpace(aux.AdditionalProperties)
	switch {
	case len(ap) == 0, bytes.Equal(ap, []byte("false")), bytes.Equal(ap, []byte("null")):
	case bytes.Equal(ap, []byte("true")):
		n.AdditionalProperties = &SchemaNode{}
	default:
		var inner SchemaNode
		if err := json.Unmarshal(ap, &inner); err != nil {
			return err
		}
		n.AdditionalProperties = &inner
	}
	return nil
}

// Kind reports which shape is active. When several are present the first of
// reference, oneOf, anyOf, allOf, array, object, primitive wins.
func (n *SchemaNode) Kind() NodeKind {
	if n == nil {
		return NodeUnknown
	}
	switch {
	case n.Ref != "":
		return NodeReference
	case len(n.OneOf) > 0:
		return NodeOneOf
	case len(n.AnyOf) > 0:
		return NodeAnyOf
	case len(n.AllOf) > 0:
		return NodeAllOf
	}

	switch n.Type {
	case "array":
		return NodeArray
	case "object":
		return NodeObject
	case "string", "integer", "number", "boolean":
		return NodePrimitive
	case "":
		if n.Properties != nil || n.AdditionalProperties != nil {
			return NodeObject
		}
		if n.Items != nil {
			return NodeArray
		}
	}
	return NodeUnknown
}

// RefName returns the final path segment of the node's reference pointer
func (n *SchemaNode) RefName() string {
	return RefName(n.Ref)
}

// RefName returns the final path segment of a `$ref` pointer,
// e.g. "#/components/schemas/Pet" -> "Pet".
func RefName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// Members returns the composite members for oneOf/anyOf/allOf nodes
func (n *SchemaNode) Members() []*SchemaNode {
	switch n.Kind() {
	case NodeOneOf:
		return n.OneOf
	case NodeAnyOf:
		return n.AnyOf
	case NodeAllOf:
		return n.AllOf
	}
	return nil
}

// IsRequired reports whether name is listed in the node's required list
func (n *SchemaNode) IsRequired(name string) bool {
	if n == nil {
		return false
	}
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// EnumStrings returns the enum values that are strings, in declaration order
func (n *SchemaNode) EnumStrings() []string {
	var out []string
	for _, v := range n.Enum {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
