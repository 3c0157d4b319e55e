// Package engine wraps gopher-lua interpreter states.
//
// A State either owns its *lua.LState and closes it exactly once, or borrows
// the handle of another State and never closes it. Borrowed states share the
// stack and globals of their source; the source must outlive every borrower.
package engine
