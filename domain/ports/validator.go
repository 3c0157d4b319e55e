package ports

import "github.com/reglet-dev/luahost/domain/entities"

// ManifestValidator validates a parsed manifest.
type ManifestValidator interface {
	// Validate checks the manifest against its schema and field rules.
	Validate(manifest *entities.Manifest) (*entities.ValidationResult, error)
}
