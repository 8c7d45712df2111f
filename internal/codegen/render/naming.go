package render

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// PascalCase capitalizes every alphanumeric run of s and joins them.
// Existing inner capitals are kept.
//
//	"get_pet"    -> "GetPet"
//	"/pets/{id}" -> "PetsId"
//	"userId"     -> "UserId"
func PascalCase(s string) string {
	var sb strings.Builder
	for _, part := range splitNonAlnum(s) {
		r := []rune(part)
		sb.WriteString(titleCaser.String(string(r[0])))
		sb.WriteString(string(r[1:]))
	}
	return sb.String()
}

// CamelCase is PascalCase with a lower-case first letter
func CamelCase(s string) string {
	p := PascalCase(s)
	if p == "" {
		return ""
	}
	r := []rune(p)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// SnakeCase lower-cases s and separates words with underscores. Word
// boundaries are non-alphanumeric runs and case changes.
//
//	"getPetById" -> "get_pet_by_id"
//	"HTTPServer" -> "http_server"
func SnakeCase(s string) string {
	var words []string
	for _, part := range splitNonAlnum(s) {
		words = append(words, splitCamel(part)...)
	}
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

// MethodName derives a method name from an HTTP verb and a path when an
// operation has no operationId: ("GET", "/pets/{id}") -> "getPetsId".
func MethodName(verb, path string) string {
	return strings.ToLower(verb) + PascalCase(path)
}

// Identifier makes s usable as an identifier in the generated languages
func Identifier(s string) string {
	if s == "" {
		return "_"
	}
	var sb strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteRune('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// IsIdentifier reports whether s is already a plain ASCII-style identifier
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func splitNonAlnum(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func splitCamel(s string) []string {
	runes := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := unicode.IsLower(prev) && unicode.IsUpper(cur) ||
			unicode.IsDigit(prev) && unicode.IsLetter(cur) ||
			unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	return append(words, string(runes[start:]))
}

// Names hands out identifiers that are unique within one scope, such as the
// methods of a client class or the arguments of one method.
type Names struct {
	used map[string]bool
}

// NewNames creates a scope in which reserved are already taken
func NewNames(reserved ...string) *Names {
	n := &Names{used: map[string]bool{}}
	for _, r := range reserved {
		n.used[r] = true
	}
	return n
}

// Claim takes the first free candidate. When all are taken the first
// candidate gets the smallest free numeric suffix, starting at 2.
func (n *Names) Claim(candidates ...string) string {
	for _, c := range candidates {
		if !n.used[c] {
			n.used[c] = true
			return c
		}
	}
	base := candidates[0]
	for i := 2; ; i++ {
		c := base + strconv.Itoa(i)
		if !n.used[c] {
			n.used[c] = true
			return c
		}
	}
}
