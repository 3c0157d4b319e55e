package hostfuncs

import (
	"context"

	lua "github.com/yuin/gopher-lua"
)

// CallInfo identifies the native function a middleware is wrapping.
type CallInfo struct {
	Library  string
	Function string
}

// QualifiedName returns the script visible name, e.g. "stats.avg".
func (c CallInfo) QualifiedName() string {
	if c.Library == "" {
		return c.Function
	}
	return c.Library + "." + c.Function
}

// Context returns the context attached to the running state, or
// context.Background when the host did not attach one.
func Context(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
