// Package scenario loads and saves ordered step lists as YAML files.
package scenario

import (
	"os"

	"gopkg.in/yaml.v3"

	"screenpilot/internal/errors"
	"screenpilot/internal/step"
)

// Scenario is a named, ordered automation sequence. Step types are kept as
// plain strings on disk: unknown types load fine and only fail when executed.
type Scenario struct {
	Name  string      `yaml:"name,omitempty"`
	Steps []step.Step `yaml:"steps"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.Internal, "read scenario %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML scenario bytes.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrap(err, errors.Internal, "parse scenario")
	}
	return &sc, nil
}

// Save writes the scenario to path.
func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return errors.Wrap(err, errors.Internal, "encode scenario")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.Internal, "write scenario %s", path)
	}
	return nil
}
