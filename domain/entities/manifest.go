package entities

// Manifest declares a set of scripts to compile into a host context.
type Manifest struct {
	Globals map[string]any `json:"globals,omitempty" yaml:"globals,omitempty"`
	Name    string         `json:"name" yaml:"name" validate:"required" jsonschema:"minLength=1"`
	Version string         `json:"version,omitempty" yaml:"version,omitempty"`
	Include []string       `json:"include,omitempty" yaml:"include,omitempty" validate:"dive,glob"`
	Scripts []ScriptEntry  `json:"scripts,omitempty" yaml:"scripts,omitempty" validate:"dive"`
}

// ScriptEntry is a single named script in a Manifest.
// Exactly one of Source and Path must be set.
type ScriptEntry struct {
	Name   string `json:"name" yaml:"name" validate:"required" jsonschema:"minLength=1"`
	Source string `json:"source,omitempty" yaml:"source,omitempty" validate:"required_without=Path,excluded_with=Path"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Force  bool   `json:"force,omitempty" yaml:"force,omitempty"`
}

// ScriptNames returns the names of the explicit script entries in declaration order.
func (m *Manifest) ScriptNames() []string {
	names := make([]string, 0, len(m.Scripts))
	for _, s := range m.Scripts {
		names = append(names, s.Name)
	}
	return names
}
