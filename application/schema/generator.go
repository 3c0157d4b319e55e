// Package schema provides JSON schema generation for script manifests.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/reglet-dev/luahost/domain/entities"
	lherrors "github.com/reglet-dev/luahost/domain/errors"
)

// ManifestSchemaID is the $id of the generated manifest schema.
const ManifestSchemaID = "https://reglet.dev/schemas/luahost/manifest.json"

// ManifestSchema returns the JSON schema describing entities.Manifest.
// Unknown properties are rejected at every level.
func ManifestSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		Anonymous:      true,
	}
	s := reflector.Reflect(&entities.Manifest{})
	s.ID = jsonschema.ID(ManifestSchemaID)
	s.Title = "luahost script manifest"
	return marshal(s)
}

func marshal(s *jsonschema.Schema) ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, &lherrors.SchemaError{Type: "Manifest", Err: fmt.Errorf("failed to marshal schema: %w", err)}
	}
	return jsonBytes, nil
}
