// Package wazero exposes WebAssembly module exports to Lua scripts.
//
// NewLibrary compiles and instantiates a module with a wazero runtime and
// builds a hostfuncs.Library whose functions call the module's numeric exports
// (i32, i64, f32, f64). The library is bound like any other native library.
//
// # Basic Usage
//
//	rt := wazero.NewRuntime(ctx)
//	defer rt.Close(ctx)
//
//	mathlib, err := wazeroadapter.NewLibrary(ctx, rt, "wasmmath", wasmBytes)
//	if err != nil {
//	    return err
//	}
//	defer mathlib.Close(ctx)
//
//	hc := host.NewContext()
//	hc.AddLibrary(mathlib.Library())
//
// Scripts then call wasmmath.add(2, 3). Arguments are converted according to
// the export's parameter types and results come back as Lua numbers.
// Exports using other value types are skipped.
package wazero
