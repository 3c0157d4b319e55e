package hostfuncs

import (
	"context"
	"encoding/json"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// HostFunc is a typed native function. It receives the call context and the
// decoded first argument, and returns a value handed back to the script.
type HostFunc[Req any, Resp any] func(context.Context, Req) (Resp, error)

// NewJSONFunction wraps a typed HostFunc into a lua.LGFunction.
// The first Lua argument is converted to Req through its JSON representation
// and the response is converted back to a Lua value the same way. A missing
// or nil argument leaves Req at its zero value. Errors are raised in the script.
//
// Usage:
//
//	lib.AddFunction("greet", hostfuncs.NewJSONFunction(func(ctx context.Context, req GreetRequest) (GreetResponse, error) {
//	    return GreetResponse{Message: "hello " + req.Name}, nil
//	}))
//
//	-- in Lua
//	local resp = lib.greet({ name = "ada" })
func NewJSONFunction[Req any, Resp any](fn HostFunc[Req, Resp]) lua.LGFunction {
	return func(L *lua.LState) int {
		var req Req
		if L.GetTop() > 0 && L.Get(1) != lua.LNil {
			if err := decodeArg(L.Get(1), &req); err != nil {
				L.ArgError(1, err.Error())
				return 0
			}
		}

		resp, err := fn(Context(L), req)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}

		lv, err := encodeResult(L, resp)
		if err != nil {
			L.RaiseError("failed to marshal response: %s", err.Error())
			return 0
		}
		L.Push(lv)
		return 1
	}
}

func decodeArg(lv lua.LValue, v any) error {
	data, err := ToGo(lv)
	if err != nil {
		return fmt.Errorf("failed to convert argument: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal argument: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal request: %w", err)
	}
	return nil
}

func encodeResult(L *lua.LState, v any) (lua.LValue, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return lua.LNil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return lua.LNil, err
	}
	return ToLua(L, generic), nil
}
