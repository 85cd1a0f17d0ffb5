package plugins

import (
	"fmt"
	"sync"
)

// Factory creates a fresh, default-initialized plugin instance
type Factory[T any] func() T

// Registry maps bundled plugin names to factories. Every lookup returns a
// new instance, so two configuration entries naming the same plugin never
// share state.
type Registry[T any] struct {
	factories map[string]Factory[T]
	names     []string
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		factories: make(map[string]Factory[T]),
	}
}

// Register adds a factory under name
func (r *Registry[T]) Register(name string, factory Factory[T]) error {
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}

	r.factories[name] = factory
	r.names = append(r.names, name)
	return nil
}

// MustRegister is like Register but panics on error
func (r *Registry[T]) MustRegister(name string, factory Factory[T]) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// New returns a fresh instance for name
func (r *Registry[T]) New(name string) (T, bool) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, false
	}
	return factory(), true
}

// Has checks if name is registered
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[name]
	return ok
}

// Names returns the registered names in registration order
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.names...)
}
