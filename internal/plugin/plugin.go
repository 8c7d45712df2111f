// Package plugin loads WebAssembly plugins for the CLI.
//
// A plugin is a reactor module exporting allocate, deallocate and
// handle_request. handle_request receives a method name and a JSON input and
// returns a packed (ptr << 32 | len) pointing at a JSON output.
package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Methods understood by handle_request
const (
	MethodName       = "name"
	MethodInitialize = "initialize"
	MethodRun        = "run"
)

// ErrMissingExport is returned when a module lacks part of the plugin ABI
var ErrMissingExport = errors.New("missing plugin export")

// Context is passed to Initialize as a JSON object
type Context map[string]any

// Plugin is a loaded plugin instance
type Plugin interface {
	// Name returns the name the plugin reports, or its file name when it
	// reports none
	Name() string

	// Path returns the module file the plugin was loaded from
	Path() string

	Initialize(ctx context.Context, pluginCtx Context) error

	// Run invokes the plugin with args and reports whether it succeeded
	Run(ctx context.Context, args []string) (bool, error)

	Close(ctx context.Context) error
}

// Instantiate compiles wasmBytes in a fresh runtime and binds the plugin ABI.
// fallbackName is used when the module does not report a name.
func Instantiate(ctx context.Context, wasmBytes []byte, path, fallbackName string) (Plugin, error) {
	if len(wasmBytes) == 0 {
		return nil, fmt.Errorf("wasm bytes cannot be empty")
	}

	runtime := wazero.NewRuntime(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	// Reactor module: skip _start
	config := wazero.NewModuleConfig().
		WithStdout(nil).
		WithStderr(nil).
		WithName("").
		WithStartFunctions()

	module, err := runtime.InstantiateModule(ctx, compiled, config)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if initialize := module.ExportedFunction("_initialize"); initialize != nil {
		if _, err := initialize.Call(ctx); err != nil {
			runtime.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	p := &wasmPlugin{
		path:    path,
		runtime: runtime,
		module:  module,
	}
	exports := []struct {
		name string
		fn   *api.Function
	}{
		{"handle_request", &p.handleRequest},
		{"allocate", &p.allocate},
		{"deallocate", &p.deallocate},
	}
	for _, e := range exports {
		if *e.fn = module.ExportedFunction(e.name); *e.fn == nil {
			runtime.Close(ctx)
			return nil, fmt.Errorf("%w: %s", ErrMissingExport, e.name)
		}
	}
	if module.Memory() == nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("%w: memory", ErrMissingExport)
	}

	p.name = fallbackName
	if out, err := p.invoke(ctx, MethodName, nil); err == nil {
		var name string
		if json.Unmarshal(out, &name) == nil && name != "" {
			p.name = name
		}
	}

	return p, nil
}

type wasmPlugin struct {
	name string
	path string

	// A module instance is single threaded
	mu sync.Mutex

	runtime       wazero.Runtime
	module        api.Module
	handleRequest api.Function
	allocate      api.Function
	deallocate    api.Function
}

func (p *wasmPlugin) Name() string {
	return p.name
}

func (p *wasmPlugin) Path() string {
	return p.path
}

func (p *wasmPlugin) Initialize(ctx context.Context, pluginCtx Context) error {
	if pluginCtx == nil {
		pluginCtx = Context{}
	}
	input, err := json.Marshal(pluginCtx)
	if err != nil {
		return fmt.Errorf("failed to encode plugin context: %w", err)
	}

	out, err := p.invoke(ctx, MethodInitialize, input)
	if err != nil {
		return fmt.Errorf("plugin %s: %w", p.name, err)
	}

	// An object with an "error" member reports a failed initialization
	var resp any
	if len(out) > 0 && json.Unmarshal(out, &resp) == nil {
		if m, ok := resp.(map[string]any); ok {
			if msg, ok := m["error"].(string); ok && msg != "" {
				return fmt.Errorf("plugin %s failed to initialize: %s", p.name, msg)
			}
		}
	}
	return nil
}

func (p *wasmPlugin) Run(ctx context.Context, args []string) (bool, error) {
	if args == nil {
		args = []string{}
	}
	input, err := json.Marshal(args)
	if err != nil {
		return false, fmt.Errorf("failed to encode plugin arguments: %w", err)
	}

	out, err := p.invoke(ctx, MethodRun, input)
	if err != nil {
		return false, fmt.Errorf("plugin %s: %w", p.name, err)
	}

	var ok bool
	if err := json.Unmarshal(out, &ok); err != nil {
		return false, fmt.Errorf("plugin %s returned %q, expected a boolean", p.name, out)
	}
	return ok, nil
}

func (p *wasmPlugin) Close(ctx context.Context) error {
	return p.runtime.Close(ctx)
}

func (p *wasmPlugin) invoke(ctx context.Context, method string, input []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mem := p.module.Memory()

	methodBytes := []byte(method)
	methodPtr, err := p.allocate.Call(ctx, uint64(len(methodBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate memory for method: %w", err)
	}
	defer func() { _, _ = p.deallocate.Call(ctx, methodPtr[0]) }()

	if !mem.Write(uint32(methodPtr[0]), methodBytes) {
		return nil, fmt.Errorf("failed to write method to memory")
	}

	inputPtr, err := p.allocate.Call(ctx, uint64(len(input)))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate memory for input: %w", err)
	}
	defer func() { _, _ = p.deallocate.Call(ctx, inputPtr[0]) }()

	if !mem.Write(uint32(inputPtr[0]), input) {
		return nil, fmt.Errorf("failed to write input to memory")
	}

	result, err := p.handleRequest.Call(ctx,
		methodPtr[0], uint64(len(methodBytes)),
		inputPtr[0], uint64(len(input)))
	if err != nil {
		return nil, fmt.Errorf("failed to call handle_request: %w", err)
	}

	// ptr << 32 | len
	packed := result[0]
	if packed == 0 {
		return nil, fmt.Errorf("handle_request returned null")
	}
	outputPtr := uint32(packed >> 32)
	outputLen := uint32(packed & 0xFFFFFFFF)

	output, ok := mem.Read(outputPtr, outputLen)
	if !ok {
		return nil, fmt.Errorf("failed to read output from memory")
	}

	// The view is invalid once the guest frees it
	out := make([]byte, len(output))
	copy(out, output)

	_, _ = p.deallocate.Call(ctx, uint64(outputPtr))

	return out, nil
}
