package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk catalog format: a list of definitions authored by
// content designers. The struct is exported so tooling (the schema generator)
// can reflect over the same contract the loader enforces.
type Document struct {
	Entries []Definition `json:"entries" yaml:"entries" jsonschema:"title=Catalog Entries,description=Symbol definitions consumed by the combat runtime.,required"`
}

// Parse decodes a YAML catalog document and validates every entry.
func Parse(data []byte) (*Catalog, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode document: %w", err)
	}
	if len(doc.Entries) == 0 {
		return nil, fmt.Errorf("catalog: document has no entries")
	}
	cat, err := New(doc.Entries)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return cat, nil
}

// LoadFile reads and parses a YAML catalog document from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadFileOrDefault falls back to the built-in table when no path is given.
func LoadFileOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
