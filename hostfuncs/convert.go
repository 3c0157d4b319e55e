package hostfuncs

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// maxSafeInteger is the largest integer a float64 represents exactly.
const maxSafeInteger = 1 << 53

// ToGo converts a Lua value to plain Go data.
// Sequences become []any, other tables map[string]any, integral numbers int64.
// Functions, threads and channels cannot be converted; cyclic tables are rejected.
func ToGo(lv lua.LValue) (any, error) {
	return toGo(lv, make(map[*lua.LTable]bool))
}

func toGo(lv lua.LValue, seen map[*lua.LTable]bool) (any, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(v), nil
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < maxSafeInteger {
			return int64(f), nil
		}
		return f, nil
	case lua.LString:
		return string(v), nil
	case *lua.LUserData:
		return v.Value, nil
	case *lua.LTable:
		if seen[v] {
			return nil, fmt.Errorf("cyclic table")
		}
		seen[v] = true
		defer delete(seen, v)
		return tableToGo(v, seen)
	default:
		return nil, fmt.Errorf("cannot convert %s to a Go value", lv.Type())
	}
}

func tableToGo(t *lua.LTable, seen map[*lua.LTable]bool) (any, error) {
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n := t.MaxN(); n > 0 && n == count {
		list := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			item, err := toGo(t.RawGetInt(i), seen)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list = append(list, item)
		}
		return list, nil
	}

	out := make(map[string]any, count)
	var firstErr error
	t.ForEach(func(k, v lua.LValue) {
		if firstErr != nil {
			return
		}
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = kv.String()
		default:
			firstErr = fmt.Errorf("unsupported table key type %s", k.Type())
			return
		}
		item, err := toGo(v, seen)
		if err != nil {
			firstErr = fmt.Errorf("%s: %w", key, err)
			return
		}
		out[key] = item
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// ToLua converts Go data to a Lua value owned by L.
// Slices and arrays become sequences, string keyed maps become tables and
// anything without a Lua counterpart is wrapped in userdata. A map or slice
// reachable from itself becomes a table that references itself.
func ToLua(L *lua.LState, v any) lua.LValue {
	c := &luaConverter{L: L, seen: make(map[refKey]*lua.LTable)}
	return c.convert(v)
}

// refKey identifies a map or slice backing store.
type refKey struct {
	ptr  uintptr
	size int
	kind reflect.Kind
}

type luaConverter struct {
	L    *lua.LState
	seen map[refKey]*lua.LTable
}

func (c *luaConverter) convert(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return x
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case []byte:
		return lua.LString(string(x))
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case []any:
		t, done := c.table(reflect.ValueOf(x), len(x), 0)
		if done {
			return t
		}
		for _, item := range x {
			t.Append(c.convert(item))
		}
		return t
	case map[string]any:
		t, done := c.table(reflect.ValueOf(x), 0, len(x))
		if done {
			return t
		}
		for _, k := range sortedKeys(x) {
			t.RawSetString(k, c.convert(x[k]))
		}
		return t
	}
	return c.fromReflect(reflect.ValueOf(v))
}

// table returns the table already built for rv, or a fresh one registered
// under rv before its elements are converted.
func (c *luaConverter) table(rv reflect.Value, narr, nhash int) (*lua.LTable, bool) {
	ptr := rv.Pointer()
	if ptr == 0 {
		return c.L.CreateTable(narr, nhash), false
	}
	key := refKey{ptr: ptr, size: rv.Len(), kind: rv.Kind()}
	if t, ok := c.seen[key]; ok {
		return t, true
	}
	t := c.L.CreateTable(narr, nhash)
	c.seen[key] = t
	return t, false
}

func (c *luaConverter) fromReflect(rv reflect.Value) lua.LValue {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.Bool:
		return lua.LBool(rv.Bool())
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Slice, reflect.Array:
		var (
			t    *lua.LTable
			done bool
		)
		if rv.Kind() == reflect.Slice {
			t, done = c.table(rv, rv.Len(), 0)
		} else {
			t = c.L.CreateTable(rv.Len(), 0)
		}
		if done {
			return t
		}
		for i := 0; i < rv.Len(); i++ {
			t.Append(c.convert(rv.Index(i).Interface()))
		}
		return t
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		t, done := c.table(rv, 0, rv.Len())
		if done {
			return t
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			t.RawSetString(k.String(), c.convert(rv.MapIndex(k).Interface()))
		}
		return t
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return lua.LNil
		}
	case reflect.Invalid:
		return lua.LNil
	}
	ud := c.L.NewUserData()
	ud.Value = rv.Interface()
	return ud
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
