package spec

import (
	"fmt"
	"sort"

	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/astparser"
)

// RootField is one field of a Query, Mutation or Subscription root type
type RootField struct {
	Name string
	// Type is the GraphQL return type, e.g. "[User]"
	Type     string
	Required bool
	Doc      string
}

// RootFields lists the root operation fields declared in a GraphQL schema
type RootFields struct {
	Queries       []RootField
	Mutations     []RootField
	Subscriptions []RootField
}

// Empty reports whether no root fields were found
func (r RootFields) Empty() bool {
	return len(r.Queries) == 0 && len(r.Mutations) == 0 && len(r.Subscriptions) == 0
}

// RootFields parses the schema text and collects the fields of the Query,
// Mutation and Subscription types, including `extend type` blocks.
// Fields of each root are sorted by name.
func (g *GraphQLSchema) RootFields() (RootFields, error) {
	doc, report := astparser.ParseGraphqlDocumentString(g.RawSchemaText)
	if report.HasErrors() {
		return RootFields{}, fmt.Errorf("failed to parse GraphQL: %v", report)
	}

	var fields RootFields
	for i := range doc.RootNodes {
		node := &doc.RootNodes[i]

		var (
			name string
			refs []int
		)
		switch node.Kind {
		case ast.NodeKindObjectTypeDefinition:
			def := doc.ObjectTypeDefinitions[node.Ref]
			name = doc.Input.ByteSliceString(def.Name)
			refs = def.FieldsDefinition.Refs
		case ast.NodeKindObjectTypeExtension:
			ext := doc.ObjectTypeExtensions[node.Ref]
			name = doc.Input.ByteSliceString(ext.Name)
			refs = ext.FieldsDefinition.Refs
		default:
			continue
		}

		var target *[]RootField
		switch name {
		case "Query":
			target = &fields.Queries
		case "Mutation":
			target = &fields.Mutations
		case "Subscription":
			target = &fields.Subscriptions
		default:
			continue
		}

		for _, ref := range refs {
			*target = append(*target, parseRootField(&doc, ref))
		}
	}

	for _, list := range []*[]RootField{&fields.Queries, &fields.Mutations, &fields.Subscriptions} {
		sort.SliceStable(*list, func(i, j int) bool { return (*list)[i].Name < (*list)[j].Name })
	}
	return fields, nil
}

func parseRootField(doc *ast.Document, ref int) RootField {
	def := doc.FieldDefinitions[ref]
	typ, required := parseType(doc, def.Type)
	return RootField{
		Name:     doc.Input.ByteSliceString(def.Name),
		Type:     typ,
		Required: required,
		Doc:      getDescription(doc, def.Description),
	}
}

func parseType(doc *ast.Document, typeRef int) (string, bool) {
	required := false
	current := typeRef

	if doc.Types[current].TypeKind == ast.TypeKindNonNull {
		required = true
		current = doc.Types[current].OfType
	}

	if doc.Types[current].TypeKind == ast.TypeKindList {
		inner, _ := parseType(doc, doc.Types[current].OfType)
		return "[" + inner + "]", required
	}

	if doc.Types[current].TypeKind == ast.TypeKindNamed {
		return doc.Input.ByteSliceString(doc.Types[current].Name), required
	}

	return "Unknown", required
}

func getDescription(doc *ast.Document, desc ast.Description) string {
	if !desc.IsDefined {
		return ""
	}
	return doc.Input.ByteSliceString(desc.Content)
}
