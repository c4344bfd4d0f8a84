package notebook

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SliderSpec describes one value cell and the slider a presentation layer
// should render for it. The core only consumes Name and Default; the range
// fields are passed through to clients.
type SliderSpec struct {
	Name    string  `yaml:"name" json:"name"`
	Label   string  `yaml:"label" json:"label"`
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Step    float64 `yaml:"step" json:"step"`
	Default float64 `yaml:"default" json:"default"`
}

// Manifest declares the notebook's value cells.
type Manifest struct {
	Values []SliderSpec `yaml:"values" json:"values"`
}

// DefaultManifest returns the built-in slider set: sample size and noise.
func DefaultManifest() Manifest {
	return Manifest{
		Values: []SliderSpec{
			{Name: "n", Label: "Sample size (n)", Min: 50, Max: 2000, Step: 50, Default: 500},
			{Name: "sigma", Label: "Noise σ", Min: 0.1, Max: 5.0, Step: 0.1, Default: 1.0},
		},
	}
}

// LoadManifest reads and validates a manifest from a YAML file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}
	return m, nil
}

// Validate checks slider declarations for consistency.
func (m Manifest) Validate() error {
	if len(m.Values) == 0 {
		return fmt.Errorf("manifest declares no value cells")
	}

	seen := make(map[string]bool, len(m.Values))
	for _, v := range m.Values {
		if v.Name == "" {
			return fmt.Errorf("value cell name is required")
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate value cell: %q", v.Name)
		}
		seen[v.Name] = true

		if v.Min >= v.Max {
			return fmt.Errorf("value cell %q: min %g must be below max %g", v.Name, v.Min, v.Max)
		}
		if v.Step <= 0 {
			return fmt.Errorf("value cell %q: step must be positive", v.Name)
		}
		if v.Default < v.Min || v.Default > v.Max {
			return fmt.Errorf("value cell %q: default %g outside [%g, %g]", v.Name, v.Default, v.Min, v.Max)
		}
	}
	return nil
}
