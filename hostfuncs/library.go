package hostfuncs

import (
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// Library is a named collection of native functions exposed to scripts as a
// global table. Function names are unique; re-adding a name replaces the
// function and keeps its original position.
type Library struct {
	name    string
	entries []entry
	index   map[string]int
}

type entry struct {
	fn   lua.LGFunction
	name string
}

// NewLibrary creates an empty library that binds under name.
func NewLibrary(name string) *Library {
	return &Library{
		name:  name,
		index: make(map[string]int),
	}
}

// Name returns the global name the library binds under.
func (l *Library) Name() string {
	return l.name
}

// SetName renames the library. Binds already performed keep the old name.
func (l *Library) SetName(name string) {
	l.name = name
}

// AddFunction registers fn under name, replacing any previous function of that name.
func (l *Library) AddFunction(name string, fn lua.LGFunction) *Library {
	if i, ok := l.index[name]; ok {
		l.entries[i].fn = fn
		return l
	}
	l.index[name] = len(l.entries)
	l.entries = append(l.entries, entry{name: name, fn: fn})
	return l
}

// AddFunctions registers every function of funcs in name order.
func (l *Library) AddFunctions(funcs map[string]lua.LGFunction) *Library {
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		l.AddFunction(name, funcs[name])
	}
	return l
}

// Function returns the function registered under name.
func (l *Library) Function(name string) (lua.LGFunction, bool) {
	i, ok := l.index[name]
	if !ok {
		return nil, false
	}
	return l.entries[i].fn, true
}

// Names returns the function names in registration order.
func (l *Library) Names() []string {
	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of registered functions.
func (l *Library) Len() int {
	return len(l.entries)
}

// Each calls fn for every registered function in registration order.
func (l *Library) Each(fn func(name string, f lua.LGFunction)) {
	for _, e := range l.entries {
		fn(e.name, e.fn)
	}
}
