package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validManifest() *Manifest {
	return &Manifest{
		ID:          "FixedOovPlugin",
		Name:        "Fixed OOV",
		Version:     "1.0.0",
		APIVersion:  "1.0.0",
		Type:        "oov_provider",
		Library:     "fixedoov.so",
		Description: "A test plugin",
		Author:      "Test Author",
		License:     "Apache-2.0",
		Metadata:    map[string]string{"key": "value"},
	}
}

// TestLoadManifest tests loading a valid manifest from a file
func TestLoadManifest(t *testing.T) {
	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, ManifestFile)

	err := SaveManifest(validManifest(), manifestPath)
	require.NoError(t, err)

	loaded, err := LoadManifest(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, "FixedOovPlugin", loaded.ID)
	assert.Equal(t, "Fixed OOV", loaded.Name)
	assert.Equal(t, "1.0.0", loaded.Version)
	assert.Equal(t, "oov_provider", loaded.Type)
	assert.Equal(t, "fixedoov.so", loaded.Library)
	assert.Equal(t, "value", loaded.Metadata["key"])

	fromDir, err := LoadManifestFromDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, loaded, fromDir)
}

// TestLoadManifest_Errors tests unreadable and malformed manifests
func TestLoadManifest_Errors(t *testing.T) {
	_, err := LoadManifest("/nonexistent/path/plugin.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest")

	path := filepath.Join(t.TempDir(), ManifestFile)
	require.NoError(t, os.WriteFile(path, []byte("id: [unclosed"), 0644))

	_, err = LoadManifest(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse manifest")
}

func TestValidateManifest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Manifest)
		fields []string
	}{
		{"valid", func(m *Manifest) {}, nil},
		{"missing id", func(m *Manifest) { m.ID = "" }, []string{"id"}},
		{"missing library", func(m *Manifest) { m.Library = "" }, []string{"library"}},
		{"bad version", func(m *Manifest) { m.Version = "one" }, []string{"version"}},
		{"bad api version", func(m *Manifest) { m.APIVersion = "1.x" }, []string{"api_version"}},
		{"wrong type", func(m *Manifest) { m.Type = "input_text" }, []string{"type"}},
		{"absolute library", func(m *Manifest) { m.Library = "/usr/lib/x.so" }, []string{"library"}},
		{"prerelease version", func(m *Manifest) { m.Version = "v1.2.3-beta.1" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validManifest()
			tt.mutate(m)

			errs := ValidateManifest(m, "oov_provider")

			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestIsCompatibleAPIVersion(t *testing.T) {
	assert.True(t, IsCompatibleAPIVersion("1.0.0", "1.4.2"))
	assert.True(t, IsCompatibleAPIVersion("v1.9.0", CurrentAPIVersion))
	assert.False(t, IsCompatibleAPIVersion("2.0.0", CurrentAPIVersion))
	assert.False(t, IsCompatibleAPIVersion("garbage", CurrentAPIVersion))
}

func TestValidationError_String(t *testing.T) {
	assert.Equal(t, "id: is required", ValidationError{Field: "id", Message: "is required"}.String())
}
