package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/reglet-dev/luahost/domain/entities"
	lherrors "github.com/reglet-dev/luahost/domain/errors"
	"github.com/reglet-dev/luahost/engine"
	"github.com/reglet-dev/luahost/host/registry"
	"github.com/reglet-dev/luahost/hostfuncs"
	"github.com/reglet-dev/luahost/infrastructure/filesource"
	"github.com/reglet-dev/luahost/infrastructure/gopherlua"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Environment holds globals set in a script's state right before it runs.
type Environment map[string]any

// Context compiles, caches and runs Lua scripts by logical name.
// A Context is not safe for concurrent use.
type Context struct {
	logger    *slog.Logger
	config    contextConfig
	registry  *registry.Registry
	globals   map[string]any
	libraries []*hostfuncs.Library
}

// NewContext creates an empty Context with the given options.
func NewContext(opts ...Option) *Context {
	cfg := defaultContextConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.source == nil {
		cfg.source = filesource.NewFileSource()
	}

	c := &Context{
		logger:  cfg.logger,
		config:  cfg,
		globals: cfg.globals,
	}
	c.registry = registry.NewRegistry(registry.WithOnReplace(func(old, _ *registry.Artifact) {
		c.logger.Debug("replacing compiled script", "name", old.Name, "chunk", old.Chunk)
	}))

	c.libraries = append(c.libraries, cfg.libraries...)
	for _, b := range cfg.bundles {
		c.libraries = append(c.libraries, b.Libraries()...)
	}
	return c
}

// NewState returns a fresh owning state with no libraries and no compiled code.
func (c *Context) NewState() *engine.State {
	return engine.New(c.config.stateOpts...)
}

// AddLibrary registers lib for every script compiled afterwards.
// The library is bound under the name it has at compile time.
func (c *Context) AddLibrary(lib *hostfuncs.Library) {
	c.libraries = append(c.libraries, lib)
}

// AddGlobal installs value as a global in every script compiled afterwards.
func (c *Context) AddGlobal(name string, value any) {
	c.globals[name] = value
}

// CompileString compiles source and registers it under name.
// Without force an existing entry is kept and the call is a no-op.
func (c *Context) CompileString(name, source string, force bool) error {
	if c.keepExisting(name, force) {
		return nil
	}
	a, err := c.compile(name, name, []byte(source))
	if err != nil {
		return err
	}
	c.store(a, force)
	return nil
}

// CompileFile reads the script at path, compiles it and registers it under name.
// Without force an existing entry is kept and the file is not read.
func (c *Context) CompileFile(name, path string, force bool) error {
	if c.keepExisting(name, force) {
		return nil
	}
	src, err := c.config.source.ReadSource(path)
	if err != nil {
		return &lherrors.IOError{Path: path, Err: err}
	}
	a, err := c.compile(name, path, src)
	if err != nil {
		return err
	}
	c.store(a, force)
	return nil
}

// CompileGlob compiles every file under root matching pattern. Each script is
// registered under its slash separated path relative to root, without extension.
// It returns the names processed before the first failure.
func (c *Context) CompileGlob(root, pattern string, force bool) ([]string, error) {
	matches, err := c.config.source.Glob(root, pattern)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(m, path.Ext(m))
		if err := c.CompileFile(name, filepath.Join(root, filepath.FromSlash(m)), force); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}

// CompileManifest installs the manifest's globals, then compiles its includes
// and its scripts. Relative paths resolve against baseDir.
func (c *Context) CompileManifest(m *entities.Manifest, baseDir string) error {
	if m == nil {
		return fmt.Errorf("manifest is nil")
	}
	for name, value := range m.Globals {
		c.AddGlobal(name, value)
	}

	for _, pattern := range m.Include {
		if _, err := c.CompileGlob(baseDir, pattern, false); err != nil {
			return fmt.Errorf("manifest %q include %q: %w", m.Name, pattern, err)
		}
	}

	for _, s := range m.Scripts {
		var err error
		if s.Path != "" {
			p := s.Path
			if !filepath.IsAbs(p) {
				p = filepath.Join(baseDir, p)
			}
			err = c.CompileFile(s.Name, p, s.Force)
		} else {
			err = c.CompileString(s.Name, s.Source, s.Force)
		}
		if err != nil {
			return fmt.Errorf("manifest %q: %w", m.Name, err)
		}
	}

	c.logger.Debug("manifest compiled", "manifest", m.Name, "scripts", c.registry.Len())
	return nil
}

// NewStateFor returns a borrowing state over the instance that holds name.
// Closing it leaves the compiled script intact.
func (c *Context) NewStateFor(name string) (*engine.State, error) {
	a, ok := c.registry.Lookup(name)
	if !ok {
		return nil, &lherrors.NotFoundError{Name: name}
	}
	return engine.Borrow(a.State)
}

// Run executes the script registered under name and discards its results.
// ctx is attached to the state for the duration of the call.
func (c *Context) Run(ctx context.Context, name string) error {
	_, err := c.run(ctx, name, nil, 0)
	return err
}

// RunWithEnvironment sets env as globals in the script's state, then runs it.
// The globals stay set for later runs of the same script.
func (c *Context) RunWithEnvironment(ctx context.Context, name string, env Environment) error {
	_, err := c.run(ctx, name, env, 0)
	return err
}

// Call executes the script registered under name and returns its results.
func (c *Context) Call(ctx context.Context, name string) ([]lua.LValue, error) {
	return c.run(ctx, name, nil, lua.MultRet)
}

// CompileStringAndRun compiles source into a throwaway state and runs it.
// Nothing is registered.
func (c *Context) CompileStringAndRun(ctx context.Context, source string) error {
	a, err := c.compile("", "anonymous-"+uuid.NewString(), []byte(source))
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = c.execute(ctx, a, 0)
	return err
}

// CompileFileAndRun compiles the script at path into a throwaway state and runs it.
// Nothing is registered.
func (c *Context) CompileFileAndRun(ctx context.Context, path string) error {
	src, err := c.config.source.ReadSource(path)
	if err != nil {
		return &lherrors.IOError{Path: path, Err: err}
	}
	a, err := c.compile("", path, src)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = c.execute(ctx, a, 0)
	return err
}

// Has reports whether a script is registered under name.
func (c *Context) Has(name string) bool {
	return c.registry.Has(name)
}

// Names returns the registered script names in sorted order.
func (c *Context) Names() []string {
	return c.registry.Names()
}

// Close disposes every compiled script.
func (c *Context) Close() {
	c.registry.Close()
}

func (c *Context) keepExisting(name string, force bool) bool {
	if force || !c.registry.Has(name) {
		return false
	}
	c.logger.Debug("script already compiled, keeping existing", "name", name)
	return true
}

func (c *Context) store(a *registry.Artifact, force bool) {
	if !c.registry.Store(a, force) {
		a.Close()
		return
	}
	c.logger.Debug("script compiled", "name", a.Name, "chunk", a.Chunk, "force", force)
}

// compile creates a state, binds globals and libraries into it, then compiles src.
// The state is closed on failure.
func (c *Context) compile(name, chunk string, src []byte) (*registry.Artifact, error) {
	state := c.NewState()
	L := state.LState()

	gopherlua.RegisterGlobals(L, c.globals)
	gopherlua.RegisterAll(L, c.libraries, gopherlua.WithMiddleware(c.config.middleware...))

	ast, err := parse.Parse(bytes.NewReader(src), chunk)
	if err != nil {
		state.Close()
		return nil, &lherrors.CompileError{Err: err, Name: name, Chunk: chunk}
	}
	proto, err := lua.Compile(ast, chunk)
	if err != nil {
		state.Close()
		return nil, &lherrors.CompileError{Err: err, Name: name, Chunk: chunk}
	}
	return registry.NewArtifact(name, chunk, state, proto), nil
}

func (c *Context) run(ctx context.Context, name string, env Environment, nret int) ([]lua.LValue, error) {
	a, ok := c.registry.Lookup(name)
	if !ok {
		return nil, &lherrors.NotFoundError{Name: name}
	}
	if len(env) > 0 {
		gopherlua.RegisterGlobals(a.State.LState(), env)
	}
	return c.execute(ctx, a, nret)
}

// execute calls the artifact's main function and restores the stack depth.
func (c *Context) execute(ctx context.Context, a *registry.Artifact, nret int) ([]lua.LValue, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	L := a.State.LState()
	if ctx.Done() != nil {
		L.SetContext(ctx)
		defer L.RemoveContext()
	}

	top := L.GetTop()
	defer L.SetTop(top)

	c.logger.DebugContext(ctx, "running script", "name", a.Name, "chunk", a.Chunk)

	L.Push(a.Function())
	if err := L.PCall(0, nret, nil); err != nil {
		rerr := runtimeError(ctx, a.Name, err)
		c.logger.DebugContext(ctx, "script failed", "name", a.Name, "error", rerr)
		return nil, rerr
	}

	if nret == 0 {
		return nil, nil
	}
	results := make([]lua.LValue, 0, L.GetTop()-top)
	for i := top + 1; i <= L.GetTop(); i++ {
		results = append(results, L.Get(i))
	}
	return results, nil
}

func runtimeError(ctx context.Context, name string, err error) error {
	rerr := &lherrors.ScriptRuntimeError{Err: err, Name: name}

	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		if apiErr.Object != nil {
			rerr.Message = apiErr.Object.String()
		}
		rerr.Traceback = apiErr.StackTrace
	}
	if cerr := ctx.Err(); cerr != nil {
		rerr.Err = fmt.Errorf("%w: %w", cerr, err)
	}
	return rerr
}
