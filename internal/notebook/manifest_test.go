package notebook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultManifestIsValid(t *testing.T) {
	m := DefaultManifest()
	require.NoError(t, m.Validate())
	require.Len(t, m.Values, 2)
	assert.Equal(t, "n", m.Values[0].Name)
	assert.Equal(t, float64(500), m.Values[0].Default)
	assert.Equal(t, "sigma", m.Values[1].Name)
	assert.Equal(t, 1.0, m.Values[1].Default)
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		wantErr  string
	}{
		{
			name:     "empty",
			manifest: Manifest{},
			wantErr:  "no value cells",
		},
		{
			name: "missing name",
			manifest: Manifest{Values: []SliderSpec{
				{Min: 0, Max: 1, Step: 0.1, Default: 0.5},
			}},
			wantErr: "name is required",
		},
		{
			name: "duplicate name",
			manifest: Manifest{Values: []SliderSpec{
				{Name: "n", Min: 0, Max: 1, Step: 0.1, Default: 0.5},
				{Name: "n", Min: 0, Max: 1, Step: 0.1, Default: 0.5},
			}},
			wantErr: "duplicate",
		},
		{
			name: "inverted range",
			manifest: Manifest{Values: []SliderSpec{
				{Name: "n", Min: 5, Max: 1, Step: 0.1, Default: 3},
			}},
			wantErr: "below max",
		},
		{
			name: "non-positive step",
			manifest: Manifest{Values: []SliderSpec{
				{Name: "n", Min: 0, Max: 1, Step: 0, Default: 0.5},
			}},
			wantErr: "step must be positive",
		},
		{
			name: "default out of range",
			manifest: Manifest{Values: []SliderSpec{
				{Name: "n", Min: 0, Max: 1, Step: 0.1, Default: 2},
			}},
			wantErr: "outside",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notebook.yaml")
	content := `values:
  - name: n
    label: Sample size
    min: 10
    max: 100
    step: 10
    default: 50
  - name: sigma
    label: Noise
    min: 0.1
    max: 2.0
    step: 0.1
    default: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Values, 2)
	assert.Equal(t, "Sample size", m.Values[0].Label)
	assert.Equal(t, 0.5, m.Values[1].Default)
}

func TestLoadManifestErrors(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("values: {not: a list}"), 0o644))
	_, err = LoadManifest(path)
	assert.Error(t, err)

	path = filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("values:\n  - name: n\n    min: 5\n    max: 1\n    step: 1\n    default: 3\n"), 0o644))
	_, err = LoadManifest(path)
	assert.Error(t, err)
}
