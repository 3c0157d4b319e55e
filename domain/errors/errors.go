// Package errors provides the structured error types surfaced by the script host.
// All error types support error unwrapping via errors.As() and errors.Is().
//
// Compile failures belong to the logic class (ErrLogic); runtime failures and
// unknown script names belong to the runtime class (ErrRuntime). I/O failures
// belong to neither so callers can tell a bad path from a bad script.
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/luahost/domain/entities"
)

// Error classes. Use errors.Is(err, ErrLogic) / errors.Is(err, ErrRuntime).
var (
	ErrLogic   = stdErrors.New("logic error")
	ErrRuntime = stdErrors.New("runtime error")
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
// This function recognizes custom error types and categorizes them appropriately.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return entities.NewErrorDetail("internal", err.Error())
}

// CompileError is returned when script source fails to parse or compile.
// The registry is never modified when a CompileError is returned.
type CompileError struct {
	Err   error
	Name  string // logical name, empty for anonymous compiles
	Chunk string // chunk name handed to the engine
}

func (e *CompileError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("compile %q failed: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("compile %s failed: %v", e.Chunk, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Is reports membership in the logic error class.
func (e *CompileError) Is(target error) bool {
	return target == ErrLogic
}

// ToErrorDetail implements DetailedError.
func (e *CompileError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "compile", Code: e.Name}
	return detail.WithDetails(map[string]any{"chunk": e.Chunk})
}

// ScriptRuntimeError is returned when the engine reports a fault while
// executing a compiled script. The instance that failed should be discarded.
type ScriptRuntimeError struct {
	Err       error
	Name      string
	Message   string // engine error value, without traceback
	Traceback string
}

func (e *ScriptRuntimeError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Name != "" {
		return fmt.Sprintf("run %q failed: %s", e.Name, msg)
	}
	return fmt.Sprintf("run failed: %s", msg)
}

func (e *ScriptRuntimeError) Unwrap() error {
	return e.Err
}

// Is reports membership in the runtime error class.
func (e *ScriptRuntimeError) Is(target error) bool {
	return target == ErrRuntime
}

// ToErrorDetail implements DetailedError.
func (e *ScriptRuntimeError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "runtime", Code: e.Name}
	if e.Traceback != "" {
		detail.Stack = []byte(e.Traceback)
	}
	return detail
}

// NotFoundError is returned when a logical name is absent from the registry.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("script %q not found", e.Name)
}

// Is reports membership in the runtime error class.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrRuntime
}

// ToErrorDetail implements DetailedError.
func (e *NotFoundError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "not_found", Code: e.Name, IsNotFound: true}
}

// IOError is returned when script source cannot be read.
type IOError struct {
	Err  error
	Path string
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read script %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *IOError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "io", Code: e.Path}
}

// ConfigError represents a manifest validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}

// SchemaError represents a schema generation or validation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: "schema"}
}
