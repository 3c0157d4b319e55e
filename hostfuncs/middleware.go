package hostfuncs

import (
	"fmt"
	"log/slog"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Middleware wraps a native function to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	tracing := func(call CallInfo, next lua.LGFunction) lua.LGFunction {
//	    return func(L *lua.LState) int {
//	        log.Printf("calling %s", call.QualifiedName())
//	        return next(L)
//	    }
//	}
type Middleware func(call CallInfo, next lua.LGFunction) lua.LGFunction

// Wrap applies mw to fn so that mw[0] is the outermost layer.
func Wrap(call CallInfo, fn lua.LGFunction, mw ...Middleware) lua.LGFunction {
	wrapped := fn
	for i := len(mw) - 1; i >= 0; i-- {
		wrapped = mw[i](call, wrapped)
	}
	return wrapped
}

// PanicRecoveryMiddleware converts Go panics inside native functions into Lua
// errors that name the failing function. Errors raised through the engine
// (L.RaiseError, L.ArgError) pass through untouched.
func PanicRecoveryMiddleware() Middleware {
	return func(call CallInfo, next lua.LGFunction) lua.LGFunction {
		return func(L *lua.LState) int {
			defer func() {
				if r := recover(); r != nil {
					if apiErr, ok := r.(*lua.ApiError); ok {
						panic(apiErr)
					}
					L.RaiseError("%s: panic: %s", call.QualifiedName(), panicMessage(r))
				}
			}()
			return next(L)
		}
	}
}

// LoggingMiddleware logs every native call at debug level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(call CallInfo, next lua.LGFunction) lua.LGFunction {
		return func(L *lua.LState) int {
			start := time.Now()
			args := L.GetTop()
			n := next(L)
			logger.DebugContext(Context(L), "native call",
				"function", call.QualifiedName(),
				"args", args,
				"results", n,
				"duration", time.Since(start))
			return n
		}
	}
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
