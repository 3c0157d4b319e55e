// Package hostfuncs provides the native library descriptors exposed to Lua scripts.
//
// A Library is a named, ordered set of lua.LGFunction values. Libraries are plain
// data: they are installed into an interpreter state only when a script is
// compiled (see infrastructure/gopherlua), so the same descriptor can be bound
// into any number of states.
//
// # Basic Usage
//
//	lib := hostfuncs.NewLibrary("stats")
//	lib.AddFunction("avg", func(L *lua.LState) int {
//	    n := L.GetTop()
//	    var sum lua.LNumber
//	    for i := 1; i <= n; i++ {
//	        sum += L.CheckNumber(i)
//	    }
//	    L.Push(sum / lua.LNumber(n))
//	    return 1
//	})
//
// Scripts then call stats.avg(1, 2, 3).
//
// Bundles group ready-made libraries (log, json) and middleware wraps every
// function at bind time for cross-cutting behavior such as logging or panic recovery.
package hostfuncs
