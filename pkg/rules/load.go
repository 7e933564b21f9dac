package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Load reads a rule table from a YAML or JSON file.
// The format is chosen by extension; anything other than .json is read as YAML.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	return Parse(data, format)
}

// Parse decodes a rule table. Unknown kinds are rejected so that a typo does
// not silently disable a constraint.
func Parse(data []byte, format string) (*Table, error) {
	var t Table
	switch format {
	case "json":
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to parse rules json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to parse rules yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported rules format: %s", format)
	}

	for _, k := range t.Kinds {
		if !k.Kind.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidKind, k.Kind)
		}
	}
	for _, p := range t.Forbidden {
		if !p.Child.Valid() || !p.Ancestor.Valid() {
			return nil, fmt.Errorf("%w: forbidden pair %s/%s", domain.ErrInvalidKind, p.Child, p.Ancestor)
		}
	}
	return t.Compile(), nil
}
