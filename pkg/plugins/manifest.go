package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// CurrentAPIVersion is the plugin API version implemented by this module
	CurrentAPIVersion = "1.0.0"

	// ManifestFile is the manifest name looked up in plugin directories
	ManifestFile = "plugin.yaml"
)

var semverRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// Manifest describes a dynamically loaded plugin shipped as a directory
type Manifest struct {
	ID          string            `yaml:"id"`          // Must match the configured class
	Name        string            `yaml:"name"`        // Display name
	Version     string            `yaml:"version"`     // Semver
	APIVersion  string            `yaml:"api_version"` // Plugin API version
	Type        string            `yaml:"type"`        // Category name, e.g. "oov_provider"
	Library     string            `yaml:"library"`     // Shared object, relative to the manifest
	Description string            `yaml:"description"`
	Author      string            `yaml:"author"`
	License     string            `yaml:"license"`
	Metadata    map[string]string `yaml:"metadata"`
}

// ValidationError represents a manifest validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) String() string {
	return v.Field + ": " + v.Message
}

// LoadManifest loads and parses a plugin manifest from a file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &manifest, nil
}

// LoadManifestFromDir loads the plugin.yaml of a plugin directory
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, ManifestFile))
}

// SaveManifest writes a plugin manifest to a file
func SaveManifest(manifest *Manifest, path string) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ValidateManifest checks the fields required to load a plugin of the given category
func ValidateManifest(manifest *Manifest, category string) []ValidationError {
	var errors []ValidationError

	required := []struct {
		field, value string
	}{
		{"id", manifest.ID},
		{"version", manifest.Version},
		{"api_version", manifest.APIVersion},
		{"type", manifest.Type},
		{"library", manifest.Library},
	}
	for _, r := range required {
		if r.value == "" {
			errors = append(errors, ValidationError{Field: r.field, Message: "is required"})
		}
	}

	if manifest.Version != "" && !isValidSemver(manifest.Version) {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("invalid semver format: %s", manifest.Version),
		})
	}

	if manifest.APIVersion != "" && !isValidSemver(manifest.APIVersion) {
		errors = append(errors, ValidationError{
			Field:   "api_version",
			Message: fmt.Sprintf("invalid semver format: %s", manifest.APIVersion),
		})
	}

	if manifest.Type != "" && manifest.Type != category {
		errors = append(errors, ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("plugin type %s does not match category %s", manifest.Type, category),
		})
	}

	if filepath.IsAbs(manifest.Library) || strings.HasPrefix(filepath.Clean(manifest.Library), "..") {
		errors = append(errors, ValidationError{
			Field:   "library",
			Message: "must be a path inside the plugin directory",
		})
	}

	return errors
}

// isValidSemver checks if a version string follows semantic versioning
func isValidSemver(version string) bool {
	return semverRegex.MatchString(version)
}

// IsCompatibleAPIVersion reports whether two API versions share a major version
func IsCompatibleAPIVersion(pluginAPIVersion, hostAPIVersion string) bool {
	return extractMajorVersion(pluginAPIVersion) == extractMajorVersion(hostAPIVersion)
}

func extractMajorVersion(version string) string {
	matches := semverRegex.FindStringSubmatch(version)
	if len(matches) > 1 {
		return matches[1]
	}
	return "0"
}

// libraryFromManifest validates the manifest at path and returns the shared object it names
func libraryFromManifest(path, category, name string) (string, error) {
	manifest, err := LoadManifest(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}

	if errs := ValidateManifest(manifest, category); len(errs) > 0 {
		return "", fmt.Errorf("%w: %v", ErrManifestInvalid, errs)
	}

	if manifest.ID != name {
		return "", fmt.Errorf("%w: manifest id %s does not match %s", ErrManifestInvalid, manifest.ID, name)
	}

	if !IsCompatibleAPIVersion(manifest.APIVersion, CurrentAPIVersion) {
		return "", fmt.Errorf("%w: plugin requires %s, host is %s", ErrIncompatibleAPI, manifest.APIVersion, CurrentAPIVersion)
	}

	return filepath.Join(filepath.Dir(path), manifest.Library), nil
}
