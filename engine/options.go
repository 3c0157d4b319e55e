package engine

// stateConfig holds configuration for new owning states.
type stateConfig struct {
	callStackSize       int
	registrySize        int
	skipOpenLibs        bool
	includeGoStackTrace bool
}

func defaultStateConfig() stateConfig {
	return stateConfig{}
}

// Option configures a new owning State.
type Option func(*stateConfig)

// WithSkipOpenLibs creates the state without the Lua standard libraries.
func WithSkipOpenLibs(skip bool) Option {
	return func(c *stateConfig) {
		c.skipOpenLibs = skip
	}
}

// WithCallStackSize sets the call stack size of the state. Zero keeps the engine default.
func WithCallStackSize(size int) Option {
	return func(c *stateConfig) {
		c.callStackSize = size
	}
}

// WithRegistrySize sets the initial data stack size of the state. Zero keeps the engine default.
func WithRegistrySize(size int) Option {
	return func(c *stateConfig) {
		c.registrySize = size
	}
}

// WithGoStackTrace includes Go stack traces in errors raised by panicking host functions.
func WithGoStackTrace(enabled bool) Option {
	return func(c *stateConfig) {
		c.includeGoStackTrace = enabled
	}
}
