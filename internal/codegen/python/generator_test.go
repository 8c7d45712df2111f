package python

import (
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidevo/gidevo-api-tool/internal/codegen/render"
	"github.com/gidevo/gidevo-api-tool/internal/sdkerr"
	"github.com/gidevo/gidevo-api-tool/internal/spec"
)

const minimalSpec = `{"openapi": "3.0.0", "info": {"title": "T", "version": "1.0.0"},
  "paths": {"/health": {"get": {"responses": {"200": {"description": "OK"}}}}}}`

const petSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "Pets", "version": "2.1.0"},
  "servers": [{"url": "https://pets.example.com"}],
  "paths": {
    "/pets": {
      "get": {
        "operationId": "list_pets",
        "summary": "List pets",
        "parameters": [
          {"name": "limit", "in": "query", "schema": {"type": "integer"}},
          {"name": "X-Request-Id", "in": "header", "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"type": "array", "items": {"$ref": "#/components/schemas/Pet"}}}}}}
      },
      "post": {
        "operationId": "createPet",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/NewPet"}}}},
        "responses": {"201": {"description": "created", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}}}}
      }
    },
    "/pets/{petId}": {
      "delete": {
        "parameters": [{"name": "petId", "in": "path", "required": true, "schema": {"type": "integer"}}],
        "responses": {"204": {"description": "gone"}}
      }
    }
  },
  "components": {
    "schemas": {
      "Pet": {
        "type": "object",
        "description": "A pet in the store",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "integer"},
          "name": {"type": "string"},
          "tag": {"type": "string", "nullable": true},
          "status": {"type": "string", "enum": ["available", "sold"]},
          "owner-id": {"type": "string"}
        }
      },
      "NewPet": {"allOf": [{"$ref": "#/components/schemas/Pet"}, {"type": "object"}]},
      "Tags": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

func generate(t *testing.T, g *Generator, name, content string) map[string]string {
	t.Helper()
	s, err := spec.Parse(name, []byte(content))
	require.NoError(t, err)

	artifacts, err := g.Generate(s)
	require.NoError(t, err)

	out := map[string]string{}
	for _, a := range artifacts {
		out[a.Path] = a.Contents
	}
	return out
}

func TestGenerator_Metadata(t *testing.T) {
	g := NewGenerator(nil)
	assert.Equal(t, "python", g.Language())
	assert.Equal(t, ".py", g.FileExtension())
}

func TestGenerator_MinimalSpec(t *testing.T) {
	// Test: a minimal spec yields client.py and models.py
	out := generate(t, NewGenerator(nil), "api.json", minimalSpec)
	require.Len(t, out, 2)

	client := out["client.py"]
	assert.Contains(t, client, "# Code generated by gidevo-api-tool. DO NOT EDIT.\n# T 1.0.0\n")
	assert.Contains(t, client, "class ApiClient:")
	assert.Contains(t, client, `base_url: str = "",`)
	assert.Contains(t, client, "    def get_health(self) -> None:\n        self.request(\"GET\", \"/health\")\n")

	models := out["models.py"]
	assert.Contains(t, models, "from __future__ import annotations")
	assert.Contains(t, models, "@dataclass\nclass ApiResponse:\n    data: Any\n    status: int\n")
	assert.Contains(t, models, "@dataclass\nclass ErrorResponse:\n    message: str\n    code: str\n")
}

func TestGenerator_RESTClient(t *testing.T) {
	// Test plan:
	// - method names are snake_case, derived from method+path when there is no operationId
	// - required arguments come before optional ones
	// - path params are URL-quoted inside an f-string
	client := generate(t, NewGenerator(nil), "api.json", petSpec)["client.py"]

	assert.Contains(t, client, `base_url: str = "https://pets.example.com",`)
	assert.Contains(t, client, "    def list_pets(self, limit: Optional[int] = None, x_request_id: Optional[str] = None) -> List[models.Pet]:\n"+
		"        \"\"\"List pets\"\"\"\n"+
		"        return self.request(\"GET\", \"/pets\", params={\"limit\": limit}, headers={\"X-Request-Id\": x_request_id})\n")
	assert.Contains(t, client, "    def create_pet(self, body: models.NewPet) -> models.Pet:\n"+
		"        return self.request(\"POST\", \"/pets\", json_body=body)\n")
	assert.Contains(t, client, "    def delete_pets_pet_id(self, pet_id: int) -> None:\n"+
		"        self.request(\"DELETE\", f\"/pets/{quote(str(pet_id), safe='')}\")\n")
}

func TestGenerator_Models(t *testing.T) {
	models := generate(t, NewGenerator(nil), "api.json", petSpec)["models.py"]

	assert.Contains(t, models, "@dataclass\nclass Pet:\n    \"\"\"A pet in the store\"\"\"\n\n"+
		"    id: int\n"+
		"    name: str\n"+
		"    owner_id: Optional[str] = field(default=None, metadata={\"json\": \"owner-id\"})\n"+
		"    status: Optional[Literal['available', 'sold']] = None\n"+
		"    tag: Optional[str] = None\n")
	assert.Contains(t, models, `NewPet: TypeAlias = "Pet"`)
	assert.Contains(t, models, `Tags: TypeAlias = "List[str]"`)

	// classes precede aliases
	assert.Less(t, strings.Index(models, "class Pet:"), strings.Index(models, "NewPet: TypeAlias"))
}

func TestGenerator_BuiltinNameClash(t *testing.T) {
	doc := `{"openapi": "3.0.0", "info": {"title": "T", "version": "1"}, "paths": {"/a": {"get": {"responses": {"200": {"description": "ok"}}}}},
	  "components": {"schemas": {"ApiResponse": {"type": "string"}}}}`
	models := generate(t, NewGenerator(nil), "api.json", doc)["models.py"]

	assert.Contains(t, models, `ApiResponse: TypeAlias = "str"`)
	assert.NotContains(t, models, "class ApiResponse:")
	assert.Contains(t, models, "class ErrorResponse:")
}

func TestGenerator_GraphQL(t *testing.T) {
	sdl := `
type Query { pets: [String] me: String }
type Mutation { adopt(id: ID!): Boolean }
`
	out := generate(t, NewGenerator(nil), "schema.graphql", sdl)

	client := out["client.py"]
	assert.Contains(t, client, "    def query(self, query: str, variables: Optional[Dict[str, Any]] = None) -> Any:")
	assert.Contains(t, client, "    def mutate(self, mutation: str, variables: Optional[Dict[str, Any]] = None) -> Any:")
	assert.Contains(t, client, "ROOT_FIELDS: Dict[str, List[str]] = {\n"+
		"    \"queries\": [\"me\", \"pets\"],\n"+
		"    \"mutations\": [\"adopt\"],\n"+
		"    \"subscriptions\": [],\n"+
		"}\n")

	models := out["models.py"]
	assert.Contains(t, models, `QueryField: TypeAlias = "Literal['me', 'pets']"`)
	assert.Contains(t, models, `SubscriptionField: TypeAlias = "None"`)
}

func TestGenerator_Deterministic(t *testing.T) {
	first := generate(t, NewGenerator(nil), "api.json", petSpec)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, generate(t, NewGenerator(nil), "api.json", petSpec))
	}
}

func TestGenerator_TemplateOverride(t *testing.T) {
	fsys := fstest.MapFS{
		RESTClientTemplate: {Data: []byte("# {{ .Title }}\n")},
		ModelsTemplate:     {Data: []byte("# models\n")},
	}
	out := generate(t, NewGenerator(fsys), "api.json", minimalSpec)
	assert.Equal(t, "# T\n", out["client.py"])
	assert.Equal(t, "# models\n", out["models.py"])
}

func TestGenerator_MissingTemplate(t *testing.T) {
	// Test: a missing template is a TemplateError naming it
	fsys := fstest.MapFS{
		RESTClientTemplate: {Data: []byte("ok")},
	}
	s, err := spec.Parse("api.json", []byte(minimalSpec))
	require.NoError(t, err)

	_, err = NewGenerator(fsys).Generate(s)
	var terr *sdkerr.TemplateError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ModelsTemplate, terr.Path)
}

func TestBuildOperation_OptionalBody(t *testing.T) {
	// Test: an optional body follows required params and is sent raw for non-JSON types
	op := render.Operation{
		Name:        "search",
		Method:      "POST",
		Path:        "/search",
		Body:        &render.Body{ContentType: "text/plain", Schema: &spec.SchemaNode{Type: "string"}},
		QueryParams: []render.Param{{Name: "q", Required: true, Schema: &spec.SchemaNode{Type: "string"}}},
	}
	got := buildOperation(Resolver{}, op)
	assert.Equal(t, "search", got.Name)
	assert.Equal(t, "self, q: str, body: Optional[str] = None", got.Params)
	assert.Equal(t, `self.request("POST", "/search", params={"q": q}, data=body, content_type="text/plain")`, got.Call)
	assert.Equal(t, "None", got.ReturnType)
}

func TestPathExpr(t *testing.T) {
	assert.Equal(t, `"/health"`, pathExpr("/health", nil))
	assert.Equal(t, `f"/users/{quote(str(user_id), safe='')}/keys/{quote(str(key_id), safe='')}"`,
		pathExpr("/users/{user_id}/keys/{key-id}", nil))
	assert.Equal(t, `f"/a/{quote(str(self_param), safe='')}"`, pathExpr("/a/{self}", nil))
}

func TestIdentifiers(t *testing.T) {
	assert.Equal(t, "x_request_id", fieldIdent("X-Request-Id"))
	assert.Equal(t, "class_", fieldIdent("class"))
	assert.Equal(t, "_2_fa", fieldIdent("2fa"))
	assert.Equal(t, "body_param", paramIdent("body"))
	assert.Equal(t, "get_op", methodIdent("get"))
	assert.Equal(t, "get_pet_by_id", methodIdent("getPetById"))
}

const clashSpec = `{"openapi": "3.0.0", "info": {"title": "T", "version": "1"},
  "paths": {
    "/a": {"get": {"operationId": "get_pet", "responses": {"200": {"description": "ok"}}}},
    "/b": {"get": {"operationId": "getPet", "responses": {"200": {"description": "ok"}}}},
    "/c": {"get": {"operationId": "getPet", "responses": {"200": {"description": "ok"}}}},
    "/d": {"get": {"operationId": "getPet2", "responses": {"200": {"description": "ok"}}}}
  }}`

func TestGenerator_MethodNamesUnique(t *testing.T) {
	// Test: operation ids that collide once converted, or with a suffixed name, get distinct methods
	client := generate(t, NewGenerator(nil), "api.json", clashSpec)["client.py"]

	var names []string
	for _, m := range regexp.MustCompile(`def (\w+)\(self\) -> None:`).FindAllStringSubmatch(client, -1) {
		names = append(names, m[1])
	}
	assert.Equal(t, []string{"get_pet", "get_pet2", "get_pet3", "get_pet22"}, names)
	assert.Contains(t, client, "    def get_pet22(self) -> None:\n        self.request(\"GET\", \"/d\")\n")
}

func TestBuildOperation_ArgumentNamesUnique(t *testing.T) {
	// Test plan:
	// - a query parameter named like a path parameter gets an _query suffix
	// - a header that snake-cases to a taken name gets an _header suffix
	// - the request dicts keep the wire names
	str := &spec.SchemaNode{Type: "string"}
	op := render.Operation{
		Name:       "getPetsId",
		Method:     "GET",
		Path:       "/pets/{id}",
		PathParams: []render.Param{{Name: "id", Required: true, Schema: str}},
		QueryParams: []render.Param{
			{Name: "id", Schema: &spec.SchemaNode{Type: "integer"}},
			{Name: "x_request_id", Schema: str},
		},
		HeaderParams: []render.Param{{Name: "X-Request-Id", Schema: str}},
	}

	got := buildOperation(Resolver{}, op)
	assert.Equal(t, "self, id: str, id_query: Optional[int] = None, x_request_id: Optional[str] = None, "+
		"x_request_id_header: Optional[str] = None", got.Params)
	assert.Equal(t, `self.request("GET", f"/pets/{quote(str(id), safe='')}", `+
		`params={"id": id_query, "x_request_id": x_request_id}, headers={"X-Request-Id": x_request_id_header})`, got.Call)
}
