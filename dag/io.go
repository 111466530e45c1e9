package dag

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"
)

// LoadFixture reads a Fixture from filename. A .yaml/.yml extension is
// decoded with sigs.k8s.io/yaml (which converts to JSON and then reuses
// Fixture's json tags); everything else is parsed as JSON directly.
func LoadFixture(filename string) (*Fixture, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading fixture file: %w", err)
	}
	var fx Fixture
	if isYAMLFile(filename) {
		if err := yaml.Unmarshal(data, &fx); err != nil {
			return nil, fmt.Errorf("parsing fixture YAML: %w", err)
		}
		return &fx, nil
	}
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture JSON: %w", err)
	}
	return &fx, nil
}

func isYAMLFile(filename string) bool {
	ext := strings.ToLower(filename)
	return strings.HasSuffix(ext, ".yaml") || strings.HasSuffix(ext, ".yml")
}

// SaveFixture writes a Fixture to a JSON file, pretty-printed.
func SaveFixture(filename string, fx *Fixture) error {
	data, err := json.MarshalIndent(fx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling fixture: %w", err)
	}
	return os.WriteFile(filename, data, 0644)
}
