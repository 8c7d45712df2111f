package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/gidevo/gidevo-api-tool/internal/spec"
)

var strictVersionPattern = regexp.MustCompile(`^3\.\d+\.\d+$`)

// Non-operation keys allowed in a path item
var pathItemFields = map[string]bool{
	"summary":     true,
	"description": true,
	"servers":     true,
	"parameters":  true,
	"$ref":        true,
}

var parameterLocations = map[string]bool{
	"query":  true,
	"header": true,
	"path":   true,
	"cookie": true,
}

var schemaTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"array":   true,
	"object":  true,
	"null":    true,
}

// strictRules walks the raw document. When the structural walk is clean the
// document is handed to kin-openapi for a full compliance check.
func strictRules(ctx context.Context, raw any) []string {
	root, ok := raw.(map[string]any)
	if !ok {
		return []string{"Document must be an object"}
	}

	c := &strictChecker{root: root}
	c.checkVersion()
	c.checkInfo()
	c.checkPaths()
	c.checkComponents()

	if len(c.errs) == 0 {
		if msg := complianceCheck(ctx, root); msg != "" {
			c.addf("Schema compliance: %s", msg)
		}
	}
	return c.errs
}

type strictChecker struct {
	root map[string]any
	errs []string
}

func (c *strictChecker) addf(format string, args ...any) {
	c.errs = append(c.errs, fmt.Sprintf(format, args...))
}

func (c *strictChecker) checkVersion() {
	v, present := c.root["openapi"]
	if !present {
		c.addf("Missing required field: openapi")
		return
	}
	s, _ := v.(string)
	if !strictVersionPattern.MatchString(s) {
		c.addf("Invalid openapi version %q (expected 3.x.y)", fmt.Sprint(v))
	}
}

func (c *strictChecker) checkInfo() {
	info, ok := c.root["info"].(map[string]any)
	if !ok {
		c.addf("Missing required field: info")
		return
	}
	for _, field := range []string{"title", "version"} {
		if s, _ := info[field].(string); s == "" {
			c.addf("Missing required field: info.%s", field)
		}
	}
}

func (c *strictChecker) checkPaths() {
	rawPaths, present := c.root["paths"]
	if !present {
		c.addf("Missing required field: paths")
		return
	}
	paths, ok := rawPaths.(map[string]any)
	if !ok {
		c.addf("Field paths must be an object")
		return
	}

	for _, path := range sortedKeys(paths) {
		if !strings.HasPrefix(path, "/") {
			c.addf("Path %q must start with \"/\"", path)
		}
		item, ok := paths[path].(map[string]any)
		if !ok {
			c.addf("Path item at %s must be an object", path)
			continue
		}

		if params, present := item["parameters"]; present {
			c.checkParameters(path, params)
		}

		for _, key := range sortedKeys(item) {
			switch {
			case spec.IsHTTPMethod(key) && key == strings.ToLower(key):
				c.checkOperation(path, key, item[key])
			case pathItemFields[key], strings.HasPrefix(key, "x-"):
			default:
				c.addf("Unsupported HTTP method %q at %s", key, path)
			}
		}
	}
}

func (c *strictChecker) checkOperation(path, method string, raw any) {
	where := strings.ToUpper(method) + " " + path
	op, ok := raw.(map[string]any)
	if !ok {
		c.addf("Operation %s must be an object", where)
		return
	}

	if params, present := op["parameters"]; present {
		c.checkParameters(where, params)
	}

	if body, ok := op["requestBody"].(map[string]any); ok {
		if _, isRef := body["$ref"]; !isRef {
			c.checkContent(where+" requestBody", body["content"])
		}
	}

	responses, ok := op["responses"].(map[string]any)
	if !ok || len(responses) == 0 {
		c.addf("Missing responses for %s", where)
		return
	}
	for _, code := range sortedKeys(responses) {
		resp, ok := responses[code].(map[string]any)
		if !ok {
			c.addf("Response %s of %s must be an object", code, where)
			continue
		}
		if _, isRef := resp["$ref"]; isRef {
			continue
		}
		if _, ok := resp["description"].(string); !ok {
			c.addf("Missing description for response %s of %s", code, where)
		}
		c.checkContent(fmt.Sprintf("%s response %s", where, code), resp["content"])
	}
}

func (c *strictChecker) checkParameters(where string, raw any) {
	params, ok := raw.([]any)
	if !ok {
		c.addf("Parameters of %s must be an array", where)
		return
	}

	for i, rp := range params {
		p, ok := rp.(map[string]any)
		if !ok {
			c.addf("Parameter %d of %s must be an object", i, where)
			continue
		}
		if ref, isRef := p["$ref"]; isRef {
			c.checkRef(fmt.Sprintf("parameter %d of %s", i, where), ref)
			continue
		}

		name, _ := p["name"].(string)
		if name == "" {
			c.addf("Parameter %d of %s is missing a name", i, where)
			name = fmt.Sprintf("#%d", i)
		}
		in, _ := p["in"].(string)
		if !parameterLocations[in] {
			c.addf("Parameter %q of %s has invalid location %q", name, where, fmt.Sprint(p["in"]))
		}
		if in == "path" {
			if required, _ := p["required"].(bool); !required {
				c.addf("Path parameter %q of %s must be required", name, where)
			}
		}

		schema, hasSchema := p["schema"]
		_, hasContent := p["content"]
		switch {
		case hasSchema:
			c.checkSchema(fmt.Sprintf("parameter %q of %s", name, where), schema)
		case hasContent:
			c.checkContent(fmt.Sprintf("parameter %q of %s", name, where), p["content"])
		default:
			c.addf("Parameter %q of %s must have a schema or content", name, where)
		}
	}
}

func (c *strictChecker) checkContent(where string, raw any) {
	if raw == nil {
		return
	}
	content, ok := raw.(map[string]any)
	if !ok {
		c.addf("Content of %s must be an object", where)
		return
	}
	for _, mediaType := range sortedKeys(content) {
		mt, ok := content[mediaType].(map[string]any)
		if !ok {
			c.addf("Media type %s of %s must be an object", mediaType, where)
			continue
		}
		if schema, present := mt["schema"]; present {
			c.checkSchema(where+" "+mediaType, schema)
		}
	}
}

func (c *strictChecker) checkComponents() {
	rawComponents, present := c.root["components"]
	if !present {
		return
	}
	components, ok := rawComponents.(map[string]any)
	if !ok {
		c.addf("Field components must be an object")
		return
	}
	rawSchemas, present := components["schemas"]
	if !present {
		return
	}
	schemas, ok := rawSchemas.(map[string]any)
	if !ok {
		c.addf("Field components.schemas must be an object")
		return
	}
	for _, name := range sortedKeys(schemas) {
		c.checkSchema("components.schemas."+name, schemas[name])
	}
}

func (c *strictChecker) checkSchema(where string, raw any) {
	if _, isBool := raw.(bool); isBool {
		return
	}
	node, ok := raw.(map[string]any)
	if !ok {
		c.addf("Schema at %s must be an object", where)
		return
	}

	if ref, isRef := node["$ref"]; isRef {
		c.checkRef(where, ref)
		return
	}

	isArray := false
	switch t := node["type"].(type) {
	case nil:
	case string:
		if !schemaTypes[t] {
			c.addf("Unknown schema type %q at %s", t, where)
		}
		isArray = t == "array"
	case []any:
		for _, v := range t {
			s, _ := v.(string)
			if !schemaTypes[s] {
				c.addf("Unknown schema type %q at %s", fmt.Sprint(v), where)
			}
			isArray = isArray || s == "array"
		}
	default:
		c.addf("Unknown schema type %q at %s", fmt.Sprint(t), where)
	}

	items, hasItems := node["items"]
	if isArray && !hasItems {
		c.addf("Array schema at %s is missing items", where)
	}
	if hasItems {
		c.checkSchema(where+".items", items)
	}

	if props, present := node["properties"]; present {
		m, ok := props.(map[string]any)
		if !ok {
			c.addf("Properties of schema at %s must be an object", where)
		}
		for _, name := range sortedKeys(m) {
			c.checkSchema(where+".properties."+name, m[name])
		}
	}

	if ap, present := node["additionalProperties"]; present {
		c.checkSchema(where+".additionalProperties", ap)
	}

	for _, key := range []string{"oneOf", "anyOf", "allOf"} {
		rawMembers, present := node[key]
		if !present {
			continue
		}
		members, ok := rawMembers.([]any)
		if !ok || len(members) == 0 {
			c.addf("Field %s of schema at %s must be a non-empty array", key, where)
			continue
		}
		for i, m := range members {
			c.checkSchema(fmt.Sprintf("%s.%s[%d]", where, key, i), m)
		}
	}
}

// checkRef verifies that local references point at an existing node.
// External references are left to the compliance pass.
func (c *strictChecker) checkRef(where string, raw any) {
	ref, ok := raw.(string)
	if !ok || ref == "" {
		c.addf("Reference at %s must be a non-empty string", where)
		return
	}
	if !strings.HasPrefix(ref, "#") {
		return
	}
	if !resolvePointer(c.root, ref) {
		c.addf("Unresolved reference %q at %s", ref, where)
	}
}

func resolvePointer(root map[string]any, ref string) bool {
	pointer := strings.TrimPrefix(ref, "#")
	if pointer == "" {
		return true
	}
	if !strings.HasPrefix(pointer, "/") {
		return false
	}

	var current any = root
	for _, part := range strings.Split(pointer[1:], "/") {
		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
		m, ok := current.(map[string]any)
		if !ok {
			return false
		}
		current, ok = m[part]
		if !ok {
			return false
		}
	}
	return true
}

// complianceCheck loads the document with kin-openapi and validates it,
// returning the first failure message or "".
func complianceCheck(ctx context.Context, root map[string]any) string {
	data, err := json.Marshal(root)
	if err != nil {
		return err.Error()
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return err.Error()
	}
	if err := doc.Validate(ctx); err != nil {
		return err.Error()
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
