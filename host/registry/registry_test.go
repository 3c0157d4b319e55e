package registry

import (
	"strings"
	"testing"

	"github.com/reglet-dev/luahost/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

func compile(t *testing.T, name, src string) *Artifact {
	t.Helper()
	chunk, err := parse.Parse(strings.NewReader(src), name)
	require.NoError(t, err)
	proto, err := lua.Compile(chunk, name)
	require.NoError(t, err)
	return NewArtifact(name, name, engine.New(), proto)
}

func TestArtifact_Function(t *testing.T) {
	a := compile(t, "answer", "return 42")
	defer a.Close()

	L := a.State.LState()
	L.Push(a.Function())
	require.NoError(t, L.PCall(0, 1, nil))
	assert.Equal(t, lua.LNumber(42), L.Get(-1))
}

func TestRegistry_FirstWins(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	first := compile(t, "job", "return 1")
	second := compile(t, "job", "return 2")
	defer second.Close()

	assert.True(t, r.Store(first, false))
	assert.False(t, r.Store(second, false))

	got, ok := r.Lookup("job")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.True(t, first.State.Valid())
}

func TestRegistry_ForceReplaces(t *testing.T) {
	var replaced []string
	r := NewRegistry(WithOnReplace(func(old, _ *Artifact) {
		replaced = append(replaced, old.Name)
	}))
	defer r.Close()

	first := compile(t, "job", "return 1")
	second := compile(t, "job", "return 2")

	require.True(t, r.Store(first, false))
	require.True(t, r.Store(second, true))

	got, _ := r.Lookup("job")
	assert.Same(t, second, got)
	assert.False(t, first.State.Valid(), "replaced artifact should be closed")
	assert.Equal(t, []string{"job"}, replaced)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ForceSameArtifact(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	a := compile(t, "job", "return 1")
	require.True(t, r.Store(a, false))
	require.True(t, r.Store(a, true))
	assert.True(t, a.State.Valid())
}

func TestRegistry_NamesAndClose(t *testing.T) {
	r := NewRegistry()
	a := compile(t, "b", "")
	b := compile(t, "a", "")
	r.Store(a, false)
	r.Store(b, false)

	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("c"))

	r.Close()
	assert.Equal(t, 0, r.Len())
	assert.False(t, a.State.Valid())
	assert.False(t, b.State.Valid())

	_, ok := r.Lookup("a")
	assert.False(t, ok)
}
