package codegen

import (
	"sort"

	"github.com/gidevo/gidevo-api-tool/internal/sdkerr"
)

// Factory builds a generator for one run
type Factory func(opts Options) Generator

// Registry manages available code generators
type Registry struct {
	generators map[string]Factory
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Factory),
	}
}

// Register adds a new generator factory to the registry
func (r *Registry) Register(language string, factory Factory) {
	r.generators[language] = factory
}

// Has reports whether language has a registered generator
func (r *Registry) Has(language string) bool {
	_, ok := r.generators[language]
	return ok
}

// Get returns a generator for the specified language, or a
// *sdkerr.UnsupportedLanguageError
func (r *Registry) Get(language string, opts Options) (Generator, error) {
	factory, exists := r.generators[language]
	if !exists {
		return nil, &sdkerr.UnsupportedLanguageError{Language: language, Supported: r.Languages()}
	}

	return factory(opts), nil
}

// Languages returns the registered language names, sorted
func (r *Registry) Languages() []string {
	languages := make([]string, 0, len(r.generators))
	for lang := range r.generators {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	return languages
}
