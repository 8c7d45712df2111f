package codegen

import (
	"github.com/gidevo/gidevo-api-tool/internal/codegen/python"
	"github.com/gidevo/gidevo-api-tool/internal/codegen/typescript"
)

// DefaultRegistry is the global registry instance with pre-registered generators
var DefaultRegistry = NewRegistry()

func init() {
	ts := func(opts Options) Generator {
		return typescript.NewGenerator(opts.Templates)
	}
	py := func(opts Options) Generator {
		return python.NewGenerator(opts.Templates)
	}

	DefaultRegistry.Register("typescript", ts)
	DefaultRegistry.Register("ts", ts)

	DefaultRegistry.Register("python", py)
	DefaultRegistry.Register("py", py)
}
