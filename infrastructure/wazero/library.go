package wazero

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/reglet-dev/luahost/hostfuncs"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	lua "github.com/yuin/gopher-lua"
)

// LibraryConfig holds configuration for building a library from a module.
type LibraryConfig struct {
	// ModuleName is the name the module is instantiated under.
	// Empty instantiates an anonymous module.
	ModuleName string

	// Exports restricts the exposed functions. Empty exposes every supported export.
	Exports []string
}

// LibraryOption configures NewLibrary.
type LibraryOption func(*LibraryConfig)

// WithModuleName sets the instantiated module name.
func WithModuleName(name string) LibraryOption {
	return func(c *LibraryConfig) {
		c.ModuleName = name
	}
}

// WithExports restricts the library to the given exports.
func WithExports(names ...string) LibraryOption {
	return func(c *LibraryConfig) {
		c.Exports = append(c.Exports, names...)
	}
}

func defaultLibraryConfig() LibraryConfig {
	return LibraryConfig{}
}

// ModuleLibrary is a native library backed by an instantiated WASM module.
type ModuleLibrary struct {
	lib      *hostfuncs.Library
	module   api.Module
	compiled wazero.CompiledModule
}

// NewLibrary compiles wasmBytes, instantiates it in runtime and returns a library
// named name exposing the module's numeric exports.
func NewLibrary(ctx context.Context, runtime wazero.Runtime, name string, wasmBytes []byte, opts ...LibraryOption) (*ModuleLibrary, error) {
	cfg := defaultLibraryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	mod, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(cfg.ModuleName))
	if err != nil {
		compiled.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	defs := compiled.ExportedFunctions()
	names := cfg.Exports
	if len(names) == 0 {
		for exportName := range defs {
			names = append(names, exportName)
		}
		sort.Strings(names)
	}

	lib := hostfuncs.NewLibrary(name)
	for _, exportName := range names {
		def, ok := defs[exportName]
		if !ok {
			mod.Close(ctx)
			compiled.Close(ctx)
			return nil, fmt.Errorf("export %q not found", exportName)
		}
		if !supported(def.ParamTypes()) || !supported(def.ResultTypes()) {
			slog.DebugContext(ctx, "wazero: skipping export with unsupported signature",
				"library", name, "export", exportName)
			continue
		}
		lib.AddFunction(exportName, exportFunction(mod.ExportedFunction(exportName), def, name, exportName))
	}

	return &ModuleLibrary{lib: lib, module: mod, compiled: compiled}, nil
}

// Library returns the descriptor to hand to a host context.
func (m *ModuleLibrary) Library() *hostfuncs.Library {
	return m.lib
}

// Close releases the module instance. Scripts must not call the library afterwards.
func (m *ModuleLibrary) Close(ctx context.Context) error {
	err := m.module.Close(ctx)
	if cerr := m.compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

func exportFunction(fn api.Function, def api.FunctionDefinition, libName, exportName string) lua.LGFunction {
	params := def.ParamTypes()
	results := def.ResultTypes()
	qualified := hostfuncs.CallInfo{Library: libName, Function: exportName}.QualifiedName()

	return func(L *lua.LState) int {
		if got := L.GetTop(); got != len(params) {
			L.RaiseError("%s expects %d arguments, got %d", qualified, len(params), got)
			return 0
		}

		args := make([]uint64, len(params))
		for i, t := range params {
			args[i] = encode(t, float64(L.CheckNumber(i+1)))
		}

		out, err := fn.Call(hostfuncs.Context(L), args...)
		if err != nil {
			L.RaiseError("%s: %v", qualified, err)
			return 0
		}

		for i, t := range results {
			L.Push(lua.LNumber(decode(t, out[i])))
		}
		return len(results)
	}
}

func supported(types []api.ValueType) bool {
	for _, t := range types {
		switch t {
		case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		default:
			return false
		}
	}
	return true
}

func encode(t api.ValueType, v float64) uint64 {
	switch t {
	case api.ValueTypeI32:
		return api.EncodeI32(int32(v))
	case api.ValueTypeI64:
		return api.EncodeI64(int64(v))
	case api.ValueTypeF32:
		return api.EncodeF32(float32(v))
	default:
		return api.EncodeF64(v)
	}
}

func decode(t api.ValueType, v uint64) float64 {
	switch t {
	case api.ValueTypeI32:
		return float64(int32(uint32(v)))
	case api.ValueTypeI64:
		return float64(int64(v))
	case api.ValueTypeF32:
		return float64(math.Float32frombits(uint32(v)))
	default:
		return math.Float64frombits(v)
	}
}
