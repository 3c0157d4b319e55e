package hostfuncs

import (
	"encoding/json"
	"log/slog"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// Bundle is a pre-configured set of related libraries.
// Every call to Libraries returns fresh descriptors, since a host context
// takes ownership of the libraries handed to it.
type Bundle interface {
	Libraries() []*Library
}

// staticBundle builds its libraries from constructors on demand.
type staticBundle struct {
	build []func() *Library
}

func (b *staticBundle) Libraries() []*Library {
	libs := make([]*Library, 0, len(b.build))
	for _, fn := range b.build {
		libs = append(libs, fn())
	}
	return libs
}

// compositeBundle combines multiple bundles into one.
type compositeBundle struct {
	bundles []Bundle
}

func (b *compositeBundle) Libraries() []*Library {
	var libs []*Library
	for _, bundle := range b.bundles {
		libs = append(libs, bundle.Libraries()...)
	}
	return libs
}

// Combine returns a bundle containing the libraries of all given bundles.
func Combine(bundles ...Bundle) Bundle {
	return &compositeBundle{bundles: bundles}
}

// LogBundle returns the "log" library: debug, info, warn and error.
// Each takes a message and an optional table of fields:
//
//	log.info("report ready", { rows = 12 })
func LogBundle(logger *slog.Logger) Bundle {
	return &staticBundle{build: []func() *Library{
		func() *Library {
			return NewLibrary("log").
				AddFunction("debug", logFunction(logger, slog.LevelDebug)).
				AddFunction("info", logFunction(logger, slog.LevelInfo)).
				AddFunction("warn", logFunction(logger, slog.LevelWarn)).
				AddFunction("error", logFunction(logger, slog.LevelError))
		},
	}}
}

func logFunction(logger *slog.Logger, level slog.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		msg := L.CheckString(1)
		var args []any
		if fields := L.OptTable(2, nil); fields != nil {
			converted, err := ToGo(fields)
			if err != nil {
				L.ArgError(2, err.Error())
				return 0
			}
			if m, ok := converted.(map[string]any); ok {
				keys := make([]string, 0, len(m))
				for k := range m {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					args = append(args, slog.Any(k, m[k]))
				}
			} else {
				args = append(args, slog.Any("fields", converted))
			}
		}
		logger.Log(Context(L), level, msg, args...)
		return 0
	}
}

// JSONBundle returns the "json" library: encode(value) and decode(text).
// Both return nil and an error message on failure.
func JSONBundle() Bundle {
	return &staticBundle{build: []func() *Library{
		func() *Library {
			return NewLibrary("json").
				AddFunction("encode", jsonEncode).
				AddFunction("decode", jsonDecode)
		},
	}}
}

func jsonEncode(L *lua.LState) int {
	v, err := ToGo(L.CheckAny(1))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	data, err := json.Marshal(v)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(data))
	return 1
}

func jsonDecode(L *lua.LState) int {
	var v any
	if err := json.Unmarshal([]byte(L.CheckString(1)), &v); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(ToLua(L, v))
	return 1
}

// StandardBundle returns the log and json libraries.
func StandardBundle(logger *slog.Logger) Bundle {
	return Combine(LogBundle(logger), JSONBundle())
}
