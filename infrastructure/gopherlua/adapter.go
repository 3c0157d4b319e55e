package gopherlua

import (
	"sort"

	"github.com/reglet-dev/luahost/hostfuncs"
	lua "github.com/yuin/gopher-lua"
)

// AdapterConfig holds configuration for binding libraries.
type AdapterConfig struct {
	// Middleware wraps every bound function, first entry outermost.
	Middleware []hostfuncs.Middleware

	// Merge installs functions into an existing global table of the same
	// name instead of replacing it.
	Merge bool
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithMiddleware adds middleware applied to every bound function.
func WithMiddleware(mw ...hostfuncs.Middleware) AdapterOption {
	return func(c *AdapterConfig) {
		c.Middleware = append(c.Middleware, mw...)
	}
}

// WithMerge enables merging into an existing global table.
func WithMerge(enabled bool) AdapterOption {
	return func(c *AdapterConfig) {
		c.Merge = enabled
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{}
}

// RegisterWithState installs lib into L as a global table named after the
// library's current name and returns that table.
//
// Each function is wrapped with the configured middleware before it is
// stored in the table, so the middleware sees the name it was bound under.
func RegisterWithState(L *lua.LState, lib *hostfuncs.Library, opts ...AdapterOption) *lua.LTable {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	name := lib.Name()
	var tbl *lua.LTable
	if cfg.Merge {
		if existing, ok := L.GetGlobal(name).(*lua.LTable); ok {
			tbl = existing
		}
	}
	if tbl == nil {
		tbl = L.CreateTable(0, lib.Len())
	}

	lib.Each(func(fnName string, fn lua.LGFunction) {
		call := hostfuncs.CallInfo{Library: name, Function: fnName}
		L.SetField(tbl, fnName, L.NewFunction(hostfuncs.Wrap(call, fn, cfg.Middleware...)))
	})

	L.SetGlobal(name, tbl)
	return tbl
}

// RegisterAll installs every library in order. Later libraries win on name clashes.
func RegisterAll(L *lua.LState, libs []*hostfuncs.Library, opts ...AdapterOption) {
	for _, lib := range libs {
		RegisterWithState(L, lib, opts...)
	}
}

// RegisterGlobals installs host values as globals, in name order.
func RegisterGlobals(L *lua.LState, globals map[string]any) {
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		L.SetGlobal(name, hostfuncs.ToLua(L, globals[name]))
	}
}
