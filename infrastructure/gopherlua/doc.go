// Package gopherlua binds native library descriptors into gopher-lua states.
//
// Binding is the second half of a two phase protocol: hosts first describe
// libraries with hostfuncs.Library, then RegisterWithState installs them into
// a concrete *lua.LState right before source is compiled there.
//
// # Basic Usage
//
//	lib := hostfuncs.NewLibrary("foolib").AddFunction("foo", foo)
//
//	L := lua.NewState()
//	tbl := gopherlua.RegisterWithState(L, lib,
//	    gopherlua.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
//	)
//
// After the call the global "foolib" holds tbl and scripts may call foolib.foo().
package gopherlua
