package engine

import (
	"errors"

	lua "github.com/yuin/gopher-lua"
)

// ErrInvalidState is returned when borrowing from a nil or closed State.
var ErrInvalidState = errors.New("engine: invalid interpreter state")

type ownership uint8

const (
	owning ownership = iota
	borrowing
)

func (o ownership) String() string {
	if o == borrowing {
		return "borrowing"
	}
	return "owning"
}

// State is a handle to one Lua execution environment.
// Borrowers share the owner's released flag, so they become invalid once the
// owner is closed.
type State struct {
	ls       *lua.LState
	mode     ownership
	closed   bool
	released *bool
}

// New creates an owning State with a fresh engine state and an empty stack.
func New(opts ...Option) *State {
	cfg := defaultStateConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ls := lua.NewState(lua.Options{
		CallStackSize:       cfg.callStackSize,
		RegistrySize:        cfg.registrySize,
		SkipOpenLibs:        cfg.skipOpenLibs,
		IncludeGoStackTrace: cfg.includeGoStackTrace,
	})
	return &State{ls: ls, mode: owning, released: new(bool)}
}

// Borrow creates a State sharing src's stack and globals without owning them.
// Closing the returned State leaves src untouched.
func Borrow(src *State) (*State, error) {
	if !src.Valid() {
		return nil, ErrInvalidState
	}
	return &State{ls: src.ls, mode: borrowing, released: src.released}, nil
}

// LState returns the underlying engine handle.
func (s *State) LState() *lua.LState {
	return s.ls
}

// Owned reports whether Close releases the engine handle.
func (s *State) Owned() bool {
	return s.mode == owning
}

// Valid reports whether the State can still be used.
func (s *State) Valid() bool {
	return s != nil && s.ls != nil && !s.closed && !*s.released
}

// Top returns the current stack depth.
func (s *State) Top() int {
	return s.ls.GetTop()
}

// Mode returns "owning" or "borrowing".
func (s *State) Mode() string {
	return s.mode.String()
}

// Close releases the engine handle if the State owns it. Safe to call more than once.
func (s *State) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	if s.mode == owning {
		*s.released = true
		s.ls.Close()
	}
}
