// Command luahost compiles and runs Lua scripts with the standard native libraries.
//
//	luahost [-v] [-wasm name=module.wasm]... run <script.lua>
//	luahost [-v] [-wasm name=module.wasm]... load [-set key=value]... <manifest.yaml> [script...]
//	luahost schema
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reglet-dev/luahost/application/schema"
	"github.com/reglet-dev/luahost/host"
	"github.com/reglet-dev/luahost/hostfuncs"
	wazerolib "github.com/reglet-dev/luahost/infrastructure/wazero"
	lhlog "github.com/reglet-dev/luahost/log"
	"github.com/tetratelabs/wazero"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// pairs collects repeated key=value flags.
type pairs map[string]string

func (p pairs) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+p[k])
	}
	return strings.Join(parts, ",")
}

func (p pairs) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	p[k] = val
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("luahost", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "enable debug logging")
	wasmMods := pairs{}
	fs.Var(wasmMods, "wasm", "expose a WASM module's exports as library `name=path` (repeatable)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: luahost [-v] [-wasm name=path]... <run|load|schema> [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := lhlog.New(stderr, lhlog.WithLevel(level))
	slog.SetDefault(logger)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "schema" {
		return printSchema(stdout, logger)
	}

	opts := []host.Option{
		host.WithLogger(logger),
		host.WithBundle(hostfuncs.StandardBundle(logger)),
		host.WithMiddleware(hostfuncs.PanicRecoveryMiddleware(), hostfuncs.LoggingMiddleware(logger)),
	}
	if len(wasmMods) > 0 {
		rt := wazero.NewRuntime(ctx)
		defer rt.Close(ctx)

		libs, err := loadWasm(ctx, rt, wasmMods)
		if err != nil {
			logger.Error("failed to load wasm module", "error", err)
			return exitError
		}
		for _, lib := range libs {
			opts = append(opts, host.WithLibrary(lib))
		}
	}

	lctx := host.NewContext(opts...)
	defer lctx.Close()

	switch cmd {
	case "run":
		return runScript(ctx, lctx, rest, stderr, logger)
	case "load":
		return loadManifest(ctx, lctx, rest, stderr, logger)
	default:
		fmt.Fprintf(stderr, "luahost: unknown command %q\n", cmd)
		fs.Usage()
		return exitUsage
	}
}

func printSchema(stdout io.Writer, logger *slog.Logger) int {
	raw, err := schema.ManifestSchema()
	if err != nil {
		logger.Error("failed to generate schema", "error", err)
		return exitError
	}
	fmt.Fprintln(stdout, string(raw))
	return exitOK
}

func loadWasm(ctx context.Context, rt wazero.Runtime, mods pairs) ([]*hostfuncs.Library, error) {
	names := make([]string, 0, len(mods))
	for name := range mods {
		names = append(names, name)
	}
	sort.Strings(names)

	libs := make([]*hostfuncs.Library, 0, len(names))
	for _, name := range names {
		wasmBytes, err := os.ReadFile(mods[name])
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", mods[name], err)
		}
		lib, err := wazerolib.NewLibrary(ctx, rt, name, wasmBytes, wazerolib.WithModuleName(name))
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", name, err)
		}
		libs = append(libs, lib.Library())
	}
	return libs, nil
}

func runScript(ctx context.Context, lctx *host.Context, args []string, stderr io.Writer, logger *slog.Logger) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: luahost run <script.lua>")
		return exitUsage
	}
	if err := lctx.CompileFileAndRun(ctx, args[0]); err != nil {
		logger.Error("script failed", "path", args[0], "error", err)
		return exitError
	}
	return exitOK
}

func loadManifest(ctx context.Context, lctx *host.Context, args []string, stderr io.Writer, logger *slog.Logger) int {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	fs.SetOutput(stderr)
	values := pairs{}
	fs.Var(values, "set", "template value `key=value` available as {{.config.key}} (repeatable)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: luahost load [-set key=value]... <manifest.yaml> [script...]")
		return exitUsage
	}

	path := fs.Arg(0)
	loader, err := host.NewLoader()
	if err != nil {
		logger.Error("failed to create loader", "error", err)
		return exitError
	}

	config := make(map[string]interface{}, len(values))
	for k, v := range values {
		config[k] = v
	}
	manifest, err := loader.LoadManifestFile(path, config)
	if err != nil {
		logger.Error("failed to load manifest", "path", path, "error", err)
		return exitError
	}
	if err := lctx.CompileManifest(manifest, filepath.Dir(path)); err != nil {
		logger.Error("failed to compile manifest", "path", path, "error", err)
		return exitError
	}

	names := fs.Args()[1:]
	if len(names) == 0 {
		names = manifest.ScriptNames()
	}
	for _, name := range names {
		if err := lctx.Run(ctx, name); err != nil {
			logger.Error("script failed", "name", name, "error", err)
			return exitError
		}
	}
	return exitOK
}
