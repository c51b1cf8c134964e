package annotation

import (
	"fmt"
	"sort"
	"sync"

	"github.com/annokit/annokit/errors"
)

// Registry holds annotation type definitions for the process lifetime.
// Types are built once and cached by identifier. Population uses
// insert-if-absent semantics: concurrent definitions of the same type perform
// the same deterministic construction, one result is retained and the losers
// discard their work, so no partial state is ever observable.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// Define builds and registers an annotation type. Defining a name that is
// already registered returns the existing type untouched.
func (r *Registry) Define(spec TypeSpec) (*Type, error) {
	r.mu.RLock()
	existing, ok := r.types[spec.Name]
	r.mu.RUnlock()
	if ok {
		return existing, nil
	}

	// Build outside the lock; a concurrent loser simply discards its copy.
	t, err := newType(spec)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if winner, ok := r.types[spec.Name]; ok {
		return winner, nil
	}
	r.types[spec.Name] = t
	return t, nil
}

// MustDefine is Define that panics on a malformed spec. Intended for
// package-level test fixtures and static definitions.
func (r *Registry) MustDefine(spec TypeSpec) *Type {
	t, err := r.Define(spec)
	if err != nil {
		panic(err)
	}
	return t
}

// TypeOf returns the registered type, or nil
func (r *Registry) TypeOf(name string) *Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[name]
}

// Lookup returns the registered type or a G001 configuration error
func (r *Registry) Lookup(name string) (*Type, error) {
	if t := r.TypeOf(name); t != nil {
		return t, nil
	}
	return nil, errors.NewConfigError(errors.ErrTypeNotRegistered, name,
		fmt.Sprintf("annotation type %q is not registered", name))
}

// TypeNames returns the registered type names, sorted
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of registered types
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
