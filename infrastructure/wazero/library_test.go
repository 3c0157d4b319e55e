package wazero

import (
	"context"
	"math"
	"testing"

	"github.com/reglet-dev/luahost/infrastructure/gopherlua"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	lua "github.com/yuin/gopher-lua"
)

// mathWasm exports add(i32, i32) -> i32 and trap() which hits unreachable.
var mathWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: (i32, i32) -> i32, () -> ()
	0x01, 0x0a, 0x02, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x00, 0x00,
	// function section
	0x03, 0x03, 0x02, 0x00, 0x01,
	// export section: "add" -> 0, "trap" -> 1
	0x07, 0x0e, 0x02,
	0x03, 'a', 'd', 'd', 0x00, 0x00,
	0x04, 't', 'r', 'a', 'p', 0x00, 0x01,
	// code section
	0x0a, 0x0d, 0x02,
	0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
	0x03, 0x00, 0x00, 0x0b,
}

func newRuntime(t *testing.T) (context.Context, wazero.Runtime) {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })
	return ctx, rt
}

func TestDefaultLibraryConfig(t *testing.T) {
	cfg := defaultLibraryConfig()
	assert.Empty(t, cfg.ModuleName)
	assert.Empty(t, cfg.Exports)
}

func TestWithOptions(t *testing.T) {
	cfg := defaultLibraryConfig()
	WithModuleName("math")(&cfg)
	WithExports("add")(&cfg)

	assert.Equal(t, "math", cfg.ModuleName)
	assert.Equal(t, []string{"add"}, cfg.Exports)
}

func TestNewLibrary(t *testing.T) {
	ctx, rt := newRuntime(t)

	ml, err := NewLibrary(ctx, rt, "wasmmath", mathWasm)
	require.NoError(t, err)
	defer ml.Close(ctx)

	lib := ml.Library()
	assert.Equal(t, "wasmmath", lib.Name())
	assert.Equal(t, []string{"add", "trap"}, lib.Names())

	L := lua.NewState()
	defer L.Close()
	gopherlua.RegisterWithState(L, lib)

	require.NoError(t, L.DoString(`sum = wasmmath.add(2, 3); neg = wasmmath.add(-7, 2)`))
	assert.Equal(t, lua.LNumber(5), L.GetGlobal("sum"))
	assert.Equal(t, lua.LNumber(-5), L.GetGlobal("neg"))
}

func TestNewLibrary_Errors(t *testing.T) {
	ctx, rt := newRuntime(t)

	ml, err := NewLibrary(ctx, rt, "wasmmath", mathWasm)
	require.NoError(t, err)
	defer ml.Close(ctx)

	L := lua.NewState()
	defer L.Close()
	gopherlua.RegisterWithState(L, ml.Library())

	t.Run("argument count", func(t *testing.T) {
		err := L.DoString(`wasmmath.add(1)`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wasmmath.add expects 2 arguments, got 1")
	})

	t.Run("argument type", func(t *testing.T) {
		err := L.DoString(`wasmmath.add(1, "x")`)
		require.Error(t, err)
	})

	t.Run("trap", func(t *testing.T) {
		err := L.DoString(`wasmmath.trap()`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wasmmath.trap")
		assert.Contains(t, err.Error(), "unreachable")
	})
}

func TestNewLibrary_WithExports(t *testing.T) {
	ctx, rt := newRuntime(t)

	ml, err := NewLibrary(ctx, rt, "wasmmath", mathWasm, WithExports("add"), WithModuleName("math"))
	require.NoError(t, err)
	defer ml.Close(ctx)

	assert.Equal(t, []string{"add"}, ml.Library().Names())
}

func TestNewLibrary_UnknownExport(t *testing.T) {
	ctx, rt := newRuntime(t)

	_, err := NewLibrary(ctx, rt, "wasmmath", mathWasm, WithExports("mul"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `export "mul" not found`)
}

func TestNewLibrary_InvalidModule(t *testing.T) {
	ctx, rt := newRuntime(t)

	_, err := NewLibrary(ctx, rt, "broken", []byte("not wasm"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile module")
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		typ api.ValueType
		in  float64
	}{
		{api.ValueTypeI32, -12},
		{api.ValueTypeI32, math.MaxInt32},
		{api.ValueTypeI64, -1 << 40},
		{api.ValueTypeF32, 1.5},
		{api.ValueTypeF64, math.Pi},
	}
	for _, tt := range tests {
		t.Run(api.ValueTypeName(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.in, decode(tt.typ, encode(tt.typ, tt.in)))
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, supported(nil))
	assert.True(t, supported([]api.ValueType{api.ValueTypeI32, api.ValueTypeF64}))
	assert.False(t, supported([]api.ValueType{api.ValueTypeExternref}))
}
