package host

import (
	"fmt"
	"strings"

	apptemplate "github.com/reglet-dev/luahost/application/template"
	"github.com/reglet-dev/luahost/application/validation"
	"github.com/reglet-dev/luahost/domain/entities"
	lherrors "github.com/reglet-dev/luahost/domain/errors"
	"github.com/reglet-dev/luahost/domain/ports"
	"github.com/reglet-dev/luahost/infrastructure/filesource"
	"github.com/reglet-dev/luahost/infrastructure/parser"
)

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	templateEngine  ports.TemplateEngine
	parser          ports.ManifestParser
	validator       ports.ManifestValidator
	source          ports.SourceReader
	strictTemplates bool // Fail on missing template keys
	skipValidation  bool
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		parser:          parser.NewYamlManifestParser(),
		strictTemplates: true,
	}
}

// Loader orchestrates the manifest loading pipeline:
// template rendering, YAML parsing, then validation.
type Loader struct {
	config loaderConfig
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithParser sets a custom manifest parser.
func WithParser(p ports.ManifestParser) LoaderOption {
	return func(c *loaderConfig) {
		c.parser = p
	}
}

// WithTemplateEngine sets a template engine.
func WithTemplateEngine(t ports.TemplateEngine) LoaderOption {
	return func(c *loaderConfig) {
		c.templateEngine = t
	}
}

// WithValidator replaces the default schema and struct validator.
func WithValidator(v ports.ManifestValidator) LoaderOption {
	return func(c *loaderConfig) {
		c.validator = v
	}
}

// WithoutValidation skips manifest validation entirely.
func WithoutValidation() LoaderOption {
	return func(c *loaderConfig) {
		c.skipValidation = true
	}
}

// WithLoaderSource sets the reader used by LoadManifestFile.
func WithLoaderSource(r ports.SourceReader) LoaderOption {
	return func(c *loaderConfig) {
		c.source = r
	}
}

// WithStrictTemplates enables/disables strict template mode.
// When enabled (default), template rendering fails if a referenced key is missing.
// Disable only for development or when missing keys should become empty strings.
func WithStrictTemplates(enabled bool) LoaderOption {
	return func(c *loaderConfig) {
		c.strictTemplates = enabled
	}
}

// NewLoader creates a new Loader with defaults.
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.templateEngine == nil {
		cfg.templateEngine = apptemplate.NewGoTemplateEngine(
			apptemplate.WithStrict(cfg.strictTemplates),
		)
	}
	if cfg.source == nil {
		cfg.source = filesource.NewFileSource()
	}
	if cfg.validator == nil && !cfg.skipValidation {
		v, err := validation.NewManifestValidator()
		if err != nil {
			return nil, fmt.Errorf("failed to create manifest validator: %w", err)
		}
		cfg.validator = v
	}

	return &Loader{config: cfg}, nil
}

// LoadManifest renders, parses and validates a script manifest.
// An invalid manifest is reported as a *errors.ConfigError.
func (l *Loader) LoadManifest(raw []byte, config map[string]interface{}) (*entities.Manifest, error) {
	data, err := l.config.templateEngine.Render(raw, config)
	if err != nil {
		return nil, fmt.Errorf("failed to render manifest: %w", err)
	}

	manifest, err := l.config.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if l.config.skipValidation {
		return manifest, nil
	}

	res, err := l.config.validator.Validate(manifest)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if !res.Valid {
		return nil, invalidManifest(res)
	}

	return manifest, nil
}

// LoadManifestFile reads the manifest at path and loads it.
func (l *Loader) LoadManifestFile(path string, config map[string]interface{}) (*entities.Manifest, error) {
	raw, err := l.config.source.ReadSource(path)
	if err != nil {
		return nil, &lherrors.IOError{Path: path, Err: err}
	}
	return l.LoadManifest(raw, config)
}

func invalidManifest(res *entities.ValidationResult) error {
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, e := range res.Errors {
		fmt.Fprintf(&b, "\n- %s: %s", e.Field, e.Message)
	}

	cerr := &lherrors.ConfigError{Err: fmt.Errorf("%s", b.String())}
	if len(res.Errors) > 0 {
		cerr.Field = res.Errors[0].Field
	}
	return cerr
}
