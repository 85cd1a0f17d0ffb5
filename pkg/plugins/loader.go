package plugins

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"plugin"
	"reflect"
	"strings"
)

// Symbols is the part of *plugin.Plugin the loader depends on
type Symbols interface {
	Lookup(name string) (plugin.Symbol, error)
}

// Opener opens a shared object
type Opener func(path string) (Symbols, error)

// OpenPlugin opens a Go plugin built with -buildmode=plugin. Opened modules
// stay loaded for the life of the process.
func OpenPlugin(path string) (Symbols, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// loadDynamic is the only place where external code is opened and called.
// The entry point symbol must be a func() (T, error) or a pointer to one.
func loadDynamic[T any](open Opener, path, entryPoint string) (T, error) {
	var zero T

	module, err := open(path)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrModuleOpen, err)
	}

	sym, err := module.Lookup(entryPoint)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %v", ErrEntryPointMissing, entryPoint, err)
	}

	var entry func() (T, error)
	switch fn := sym.(type) {
	case func() (T, error):
		entry = fn
	case *func() (T, error):
		if fn != nil {
			entry = *fn
		}
	default:
		return zero, fmt.Errorf("%w: %s is %T, want %T", ErrEntryPointSignature, entryPoint, sym, entry)
	}
	if entry == nil {
		return zero, fmt.Errorf("%w: %s is nil", ErrEntryPointSignature, entryPoint)
	}

	return callEntryPoint(entry)
}

func callEntryPoint[T any](entry func() (T, error)) (instance T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			instance = zero
			err = fmt.Errorf("%w: panic: %v", ErrEntryPointFailed, r)
		}
	}()

	instance, err = entry()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrEntryPointFailed, err)
	}
	if isNil(instance) {
		return instance, fmt.Errorf("%w: returned a nil plugin", ErrEntryPointFailed)
	}
	return instance, nil
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// moduleCandidates lists where a plugin may live. An explicit path wins;
// otherwise <dir>/<name>.so and <dir>/<name>/plugin.yaml are tried in every
// search directory.
func moduleCandidates(name, explicit string, searchDirs []string) []string {
	if explicit != "" {
		if filepath.IsAbs(explicit) {
			return []string{explicit}
		}
		candidates := make([]string, 0, len(searchDirs))
		for _, dir := range searchDirs {
			candidates = append(candidates, filepath.Join(dir, explicit))
		}
		return candidates
	}

	candidates := make([]string, 0, 2*len(searchDirs))
	for _, dir := range searchDirs {
		candidates = append(candidates,
			filepath.Join(dir, name+".so"),
			filepath.Join(dir, name, ManifestFile),
		)
	}
	return candidates
}

// locateModule returns the shared object to open for a plugin. The first
// existing candidate is used; a broken candidate is an error, not a reason
// to keep searching.
func locateModule(category, name string, candidates []string) (string, error) {
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return candidate, fmt.Errorf("%w: %v", ErrModuleOpen, err)
		}

		if info.IsDir() {
			candidate = filepath.Join(candidate, ManifestFile)
		}
		if isManifestPath(candidate) {
			library, err := libraryFromManifest(candidate, category, name)
			if err != nil {
				return candidate, err
			}
			return library, nil
		}
		return candidate, nil
	}

	return "", fmt.Errorf("%w: tried %s", ErrPluginNotFound, strings.Join(candidates, ", "))
}

func isManifestPath(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}
