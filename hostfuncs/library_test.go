package hostfuncs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func constFunc(v lua.LValue) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(v)
		return 1
	}
}

func TestNewLibrary_Empty(t *testing.T) {
	lib := NewLibrary("foolib")
	assert.Equal(t, "foolib", lib.Name())
	assert.Equal(t, 0, lib.Len())
	assert.Empty(t, lib.Names())
}

func TestLibrary_AddFunction_KeepsOrder(t *testing.T) {
	lib := NewLibrary("lib").
		AddFunction("zebra", constFunc(lua.LNumber(1))).
		AddFunction("alpha", constFunc(lua.LNumber(2)))

	assert.Equal(t, []string{"zebra", "alpha"}, lib.Names())
	assert.Equal(t, 2, lib.Len())
}

func TestLibrary_AddFunction_LastWriteWins(t *testing.T) {
	lib := NewLibrary("lib").
		AddFunction("a", constFunc(lua.LString("first"))).
		AddFunction("b", constFunc(lua.LString("other"))).
		AddFunction("a", constFunc(lua.LString("second")))

	assert.Equal(t, []string{"a", "b"}, lib.Names())

	fn, ok := lib.Function("a")
	require.True(t, ok)

	L := lua.NewState()
	defer L.Close()
	L.SetGlobal("a", L.NewFunction(fn))
	require.NoError(t, L.DoString(`result = a()`))
	assert.Equal(t, "second", L.GetGlobal("result").String())
}

func TestLibrary_SetName(t *testing.T) {
	lib := NewLibrary("some_foolib")
	lib.SetName("foolib")
	assert.Equal(t, "foolib", lib.Name())
}

func TestLibrary_AddFunctions_SortedByName(t *testing.T) {
	lib := NewLibrary("lib").AddFunctions(map[string]lua.LGFunction{
		"c": constFunc(lua.LNil),
		"a": constFunc(lua.LNil),
		"b": constFunc(lua.LNil),
	})
	assert.Equal(t, []string{"a", "b", "c"}, lib.Names())
}

func TestLibrary_Function_Missing(t *testing.T) {
	_, ok := NewLibrary("lib").Function("nope")
	assert.False(t, ok)
}

func TestLibrary_Each(t *testing.T) {
	lib := NewLibrary("lib").
		AddFunction("one", constFunc(lua.LNil)).
		AddFunction("two", constFunc(lua.LNil))

	var seen []string
	lib.Each(func(name string, f lua.LGFunction) {
		assert.NotNil(t, f)
		seen = append(seen, name)
	})
	assert.Equal(t, []string{"one", "two"}, seen)
}
