// Package registry keeps compiled scripts keyed by logical name.
package registry

import (
	"sort"

	"github.com/reglet-dev/luahost/engine"
	lua "github.com/yuin/gopher-lua"
)

// Artifact is a compiled script bound to the state it was compiled in.
// The function is only valid inside that state.
type Artifact struct {
	State *engine.State
	Proto *lua.FunctionProto
	fn    *lua.LFunction
	Name  string
	Chunk string
}

// NewArtifact builds the callable main function of proto inside state.
func NewArtifact(name, chunk string, state *engine.State, proto *lua.FunctionProto) *Artifact {
	return &Artifact{
		Name:  name,
		Chunk: chunk,
		State: state,
		Proto: proto,
		fn:    state.LState().NewFunctionFromProto(proto),
	}
}

// Function returns the chunk's main function.
func (a *Artifact) Function() *lua.LFunction {
	return a.fn
}

// Close tears down the artifact's state.
func (a *Artifact) Close() {
	if a == nil {
		return
	}
	a.State.Close()
}

// registryConfig holds configuration for the Registry.
type registryConfig struct {
	onReplace func(old, replacement *Artifact)
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{}
}

// RegistryOption configures a Registry instance.
type RegistryOption func(*registryConfig)

// WithOnReplace sets a callback invoked before a forced store closes the previous artifact.
func WithOnReplace(fn func(old, replacement *Artifact)) RegistryOption {
	return func(c *registryConfig) {
		c.onReplace = fn
	}
}

// Registry maps logical names to artifacts. It is not safe for concurrent use.
type Registry struct {
	entries map[string]*Artifact
	config  registryConfig
}

// NewRegistry creates an empty Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{
		entries: make(map[string]*Artifact),
		config:  cfg,
	}
}

// Store admits a under a.Name. Without force an existing entry wins and Store
// returns false; the caller keeps ownership of a. With force the previous
// entry is closed and replaced.
func (r *Registry) Store(a *Artifact, force bool) bool {
	old, exists := r.entries[a.Name]
	if exists && !force {
		return false
	}
	if exists && old != a {
		if r.config.onReplace != nil {
			r.config.onReplace(old, a)
		}
		old.Close()
	}
	r.entries[a.Name] = a
	return true
}

// Lookup returns the artifact stored under name.
func (r *Registry) Lookup(name string) (*Artifact, bool) {
	a, ok := r.entries[name]
	return a, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered artifacts.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Close closes every artifact and empties the registry.
func (r *Registry) Close() {
	for name, a := range r.entries {
		a.Close()
		delete(r.entries, name)
	}
}
