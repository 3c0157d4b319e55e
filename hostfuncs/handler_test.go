package hostfuncs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

type greetRequest struct {
	Name  string `json:"name"`
	Times int    `json:"times"`
}

type greetResponse struct {
	Message string   `json:"message"`
	Lines   []string `json:"lines"`
}

func greet(_ context.Context, req greetRequest) (greetResponse, error) {
	if req.Name == "" {
		return greetResponse{}, errors.New("name is required")
	}
	resp := greetResponse{Message: "hello " + req.Name}
	for i := 0; i < req.Times; i++ {
		resp.Lines = append(resp.Lines, req.Name)
	}
	return resp, nil
}

func newGreetState(t *testing.T) *lua.LState {
	t.Helper()
	L := lua.NewState()
	t.Cleanup(L.Close)
	L.SetGlobal("greet", L.NewFunction(NewJSONFunction(greet)))
	return L
}

func TestNewJSONFunction(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		L := newGreetState(t)
		require.NoError(t, L.DoString(`
			local resp = greet({ name = "ada", times = 2 })
			message = resp.message
			count = #resp.lines
		`))
		assert.Equal(t, "hello ada", L.GetGlobal("message").String())
		assert.Equal(t, lua.LNumber(2), L.GetGlobal("count"))
	})

	t.Run("handler error is raised", func(t *testing.T) {
		L := newGreetState(t)
		err := L.DoString(`greet({})`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("missing argument uses zero request", func(t *testing.T) {
		L := newGreetState(t)
		err := L.DoString(`greet()`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("mistyped argument", func(t *testing.T) {
		L := newGreetState(t)
		err := L.DoString(`greet({ name = "ada", times = "many" })`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal")
	})
}

func TestNewJSONFunction_ReceivesContext(t *testing.T) {
	var got any
	fn := NewJSONFunction(func(ctx context.Context, _ map[string]any) (bool, error) {
		got = ctx.Value(ctxKey{})
		return true, nil
	})

	L := lua.NewState()
	defer L.Close()
	L.SetGlobal("probe", L.NewFunction(fn))
	L.SetContext(context.WithValue(context.Background(), ctxKey{}, "attached"))
	defer L.RemoveContext()

	require.NoError(t, L.DoString(`ok = probe({})`))
	assert.Equal(t, "attached", got)
	assert.Equal(t, lua.LTrue, L.GetGlobal("ok"))
}
