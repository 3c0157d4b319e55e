package host

import (
	"log/slog"

	"github.com/reglet-dev/luahost/domain/ports"
	"github.com/reglet-dev/luahost/engine"
	"github.com/reglet-dev/luahost/hostfuncs"
)

// contextConfig holds configuration for a Context.
type contextConfig struct {
	logger     *slog.Logger
	source     ports.SourceReader
	globals    map[string]any
	libraries  []*hostfuncs.Library
	bundles    []hostfuncs.Bundle
	middleware []hostfuncs.Middleware
	stateOpts  []engine.Option
}

func defaultContextConfig() contextConfig {
	return contextConfig{
		globals: make(map[string]any),
	}
}

// Option configures a Context.
type Option func(*contextConfig)

// WithLogger sets the logger used for compile and run events.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *contextConfig) {
		c.logger = logger
	}
}

// WithLibrary registers a native library, as AddLibrary does.
func WithLibrary(lib *hostfuncs.Library) Option {
	return func(c *contextConfig) {
		c.libraries = append(c.libraries, lib)
	}
}

// WithBundle registers every library of a bundle.
// Bundles are expanded after the libraries passed with WithLibrary.
func WithBundle(b hostfuncs.Bundle) Option {
	return func(c *contextConfig) {
		c.bundles = append(c.bundles, b)
	}
}

// WithMiddleware wraps every native function bound by the Context.
// The first middleware is the outermost.
func WithMiddleware(mw ...hostfuncs.Middleware) Option {
	return func(c *contextConfig) {
		c.middleware = append(c.middleware, mw...)
	}
}

// WithStateOptions sets the options used to create every interpreter state.
func WithStateOptions(opts ...engine.Option) Option {
	return func(c *contextConfig) {
		c.stateOpts = append(c.stateOpts, opts...)
	}
}

// WithSourceReader replaces the reader used by the file based operations.
func WithSourceReader(r ports.SourceReader) Option {
	return func(c *contextConfig) {
		c.source = r
	}
}

// WithGlobal installs a host value as a global in every compiled script, as AddGlobal does.
func WithGlobal(name string, value any) Option {
	return func(c *contextConfig) {
		c.globals[name] = value
	}
}
