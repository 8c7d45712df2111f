package spec

// Kind discriminates the two shapes a parsed spec can take
type Kind string

const (
	// KindOpenAPI marks a JSON/YAML OpenAPI-shaped document
	KindOpenAPI Kind = "openapi"
	// KindGraphQL marks a raw GraphQL schema
	KindGraphQL Kind = "graphql"
)

// Spec is the normalized, read-only result of parsing a spec file.
// Exactly one of OpenAPI or GraphQL is set, matching Kind.
type Spec struct {
	Kind   Kind
	Source string

	OpenAPI *Document
	GraphQL *GraphQLSchema

	// Raw is the deserialized document (object or array) for OpenAPI-kind specs.
	// Rule sets that inspect shapes the typed Document drops read from here.
	Raw any
}

// IsGraphQL reports whether the spec wraps a GraphQL schema
func (s *Spec) IsGraphQL() bool {
	return s != nil && s.Kind == KindGraphQL
}

// GraphQLSchema wraps raw GraphQL SDL text, unparsed
type GraphQLSchema struct {
	RawSchemaText string
}

// Document is the typed view of an OpenAPI-shaped spec
type Document struct {
	// Version holds `openapi`, or a top-level `version` when `openapi` is absent
	Version    string              `json:"openapi"`
	AltVersion string              `json:"version,omitempty"`
	Info       Info                `json:"info"`
	Servers    []Server            `json:"servers,omitempty"`
	Paths      map[string]PathItem `json:"paths"`
	Components Components          `json:"components"`
}

// SpecVersion returns the declared OpenAPI version
func (d *Document) SpecVersion() string {
	if d.Version != "" {
		return d.Version
	}
	return d.AltVersion
}

// Info is the document's info block
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Server is one entry of the servers list
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PathItem maps a lower-case HTTP method to its operation.
// Non-operation keys of a path item are kept in Parameters only.
type PathItem struct {
	Operations map[string]*Operation
	Parameters []Parameter
}

// Operation is a single HTTP operation
type Operation struct {
	OperationID string              `json:"operationId,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Description string              `json:"description,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Deprecated  bool                `json:"deprecated,omitempty"`
	Parameters  []Parameter         `json:"parameters,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses,omitempty"`
}

// Parameter is a path, query, header or cookie parameter
type Parameter struct {
	Name        string      `json:"name"`
	In          string      `json:"in"`
	Required    bool        `json:"required,omitempty"`
	Description string      `json:"description,omitempty"`
	Schema      *SchemaNode `json:"schema,omitempty"`
}

// RequestBody describes an operation's request payload
type RequestBody struct {
	Description string               `json:"description,omitempty"`
	Required    bool                 `json:"required,omitempty"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// Response describes one response of an operation
type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// MediaType holds the schema for one content type
type MediaType struct {
	Schema *SchemaNode `json:"schema,omitempty"`
}

// Components holds the named reusable definitions
type Components struct {
	Schemas         map[string]*SchemaNode    `json:"schemas,omitempty"`
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes,omitempty"`
}

// SecurityScheme describes one authentication scheme
type SecurityScheme struct {
	Type         string `json:"type"`
	Scheme       string `json:"scheme,omitempty"`
	BearerFormat string `json:"bearerFormat,omitempty"`
	Name         string `json:"name,omitempty"`
	In           string `json:"in,omitempty"`
	Description  string `json:"description,omitempty"`
}
