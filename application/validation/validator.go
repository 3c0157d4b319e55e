// Package validation checks parsed script manifests.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/luahost/application/schema"
	"github.com/reglet-dev/luahost/domain/entities"
	lherrors "github.com/reglet-dev/luahost/domain/errors"
	"github.com/reglet-dev/luahost/domain/ports"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ManifestValidator implements ports.ManifestValidator in two passes:
// the generated JSON schema first, then struct tag rules.
type ManifestValidator struct {
	schema   *jsonschema.Schema
	validate *validator.Validate
}

// NewManifestValidator compiles the manifest schema and prepares the struct validator.
func NewManifestValidator() (ports.ManifestValidator, error) {
	raw, err := schema.ManifestSchema()
	if err != nil {
		return nil, err
	}
	sch, err := compileSchema(schema.ManifestSchemaID, raw)
	if err != nil {
		return nil, err
	}

	return &ManifestValidator{
		schema:   sch,
		validate: newStructValidator(),
	}, nil
}

func compileSchema(id string, raw []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, bytes.NewReader(raw)); err != nil {
		return nil, &lherrors.SchemaError{Type: "Manifest", Err: fmt.Errorf("failed to add schema resource: %w", err)}
	}
	sch, err := compiler.Compile(id)
	if err != nil {
		return nil, &lherrors.SchemaError{Type: "Manifest", Err: err}
	}
	return sch, nil
}

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		return doublestar.ValidatePattern(fl.Field().String())
	})
	return v
}

// Validate checks the manifest against its schema and field rules.
// Rule violations are reported in the result; the error is reserved for
// failures of the validator itself.
func (v *ManifestValidator) Validate(manifest *entities.Manifest) (*entities.ValidationResult, error) {
	if manifest == nil {
		return nil, fmt.Errorf("manifest is nil")
	}
	result := &entities.ValidationResult{Valid: true}

	b, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}
	var obj interface{}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}

	if err := v.schema.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("schema validation error: %w", err)
		}
		for _, cause := range leaves(ve) {
			result.Add(pointerField(cause.InstanceLocation), cause.Message)
		}
	}

	if err := v.validate.Struct(manifest); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("struct validation error: %w", err)
		}
		for _, fe := range fieldErrs {
			result.Add(namespaceField(fe.Namespace()), ruleMessage(fe))
		}
	}

	return result, nil
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

// pointerField turns "/scripts/0/name" into "scripts[0].name".
func pointerField(ptr string) string {
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if isIndex(p) {
			b.WriteString("[" + p + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	if b.Len() == 0 {
		return "manifest"
	}
	return b.String()
}

func isIndex(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// namespaceField drops the root struct name from a validator namespace.
func namespaceField(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "one of source or path is required"
	case "excluded_with":
		return "source and path are mutually exclusive"
	case "glob":
		return fmt.Sprintf("invalid glob pattern %q", fe.Value())
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}
