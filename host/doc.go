// Package host embeds Lua scripts into a Go application.
//
// A Context compiles scripts into their own interpreter states, keeps them in
// a registry keyed by logical name and runs them on demand. Native libraries
// and globals added to the Context are bound into every state it creates at
// compile time. The first compile of a name wins unless force is set.
//
//	ctx := host.NewContext(host.WithBundle(hostfuncs.StandardBundle(slog.Default())))
//	defer ctx.Close()
//	if err := ctx.CompileString("hello", `print("hello")`, false); err != nil {
//		return err
//	}
//	return ctx.Run(context.Background(), "hello")
//
// The Loader turns a YAML manifest into an entities.Manifest that
// Context.CompileManifest applies.
package host
