package plugins

import (
	"errors"
	"fmt"
)

var (
	// ErrPluginNotFound is returned when a plugin is neither bundled nor found on disk
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrModuleOpen is returned when a shared object cannot be opened
	ErrModuleOpen = errors.New("failed to open plugin module")

	// ErrEntryPointMissing is returned when a module does not export the entry point symbol
	ErrEntryPointMissing = errors.New("plugin entry point not found")

	// ErrEntryPointSignature is returned when the entry point symbol has the wrong type
	ErrEntryPointSignature = errors.New("plugin entry point has an incompatible signature")

	// ErrEntryPointFailed is returned when the entry point fails, panics or returns no plugin
	ErrEntryPointFailed = errors.New("plugin entry point failed")

	// ErrManifestInvalid is returned for unreadable or invalid plugin manifests
	ErrManifestInvalid = errors.New("invalid plugin manifest")

	// ErrIncompatibleAPI is returned when a manifest targets another plugin API major version
	ErrIncompatibleAPI = errors.New("incompatible plugin API version")

	// ErrAlreadyRegistered is returned when a bundled name is registered twice
	ErrAlreadyRegistered = errors.New("plugin already registered")
)

// SetupError is returned when a plugin rejects its settings. It aborts analyzer construction.
type SetupError struct {
	Category string
	Plugin   string
	Index    int
	Err      error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s plugin %s (entry %d): setup failed: %v", e.Category, e.Plugin, e.Index, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// LoadError is returned when a plugin is not bundled and cannot be loaded
// dynamically. It aborts analyzer construction.
type LoadError struct {
	Category string
	Plugin   string
	Path     string
	Err      error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s plugin %s: %v", e.Category, e.Plugin, e.Err)
	}
	return fmt.Sprintf("%s plugin %s (%s): %v", e.Category, e.Plugin, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// GenerationError is returned when one plugin fails at one offset
type GenerationError struct {
	Plugin string
	Offset int
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("plugin %s at offset %d: %v", e.Plugin, e.Offset, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsSetupError checks if the error is or wraps a *SetupError
func IsSetupError(err error) bool {
	var target *SetupError
	return errors.As(err, &target)
}

// IsLoadError checks if the error is or wraps a *LoadError
func IsLoadError(err error) bool {
	var target *LoadError
	return errors.As(err, &target)
}

// IsGenerationError checks if the error is or wraps a *GenerationError
func IsGenerationError(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}
