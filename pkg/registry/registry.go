package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
)

// ErrUnknownComponent is wrapped by ConstructionError when a name is not registered.
var ErrUnknownComponent = errors.New("component not registered")

// Factory builds a component from its normalized parameters.
// Nested object references in params are already constructed.
type Factory func(ctx context.Context, params map[string]any) (any, error)

// Component describes a constructible type.
type Component struct {
	Kind        string
	Name        string
	Description string
	Params      schema.Schema
	// Check validates constraints spanning several parameters. It runs during
	// resolution on already normalized params. Optional.
	Check func(params map[string]any) error
	New   Factory
}

// Registry maps (kind, name) pairs to component factories.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	components map[string]map[string]Component
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]map[string]Component),
	}
}

// Register adds a component to the registry.
// If a component with the same kind and name exists, it is overwritten.
func (r *Registry) Register(c Component) {
	if c.Params == nil {
		c.Params = schema.Schema{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	byName, ok := r.components[c.Kind]
	if !ok {
		byName = make(map[string]Component)
		r.components[c.Kind] = byName
	}
	byName[c.Name] = c
}

// Lookup returns the component registered under kind and name.
func (r *Registry) Lookup(kind, name string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[kind][name]
	return c, ok
}

// Schema implements schema.Lookup.
func (r *Registry) Schema(kind, name string) (schema.Schema, bool) {
	c, ok := r.Lookup(kind, name)
	if !ok {
		return nil, false
	}
	return c.Params, true
}

// Check implements schema.Checker.
func (r *Registry) Check(kind, name string, params map[string]any) error {
	c, ok := r.Lookup(kind, name)
	if !ok || c.Check == nil {
		return nil
	}
	return c.Check(params)
}

// Names returns the sorted component names registered for kind.
func (r *Registry) Names(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components[kind]))
	for name := range r.components[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Kinds returns the sorted list of kinds with at least one component.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.components))
	for kind, byName := range r.components {
		if len(byName) > 0 {
			kinds = append(kinds, kind)
		}
	}
	sort.Strings(kinds)
	return kinds
}

// Build looks up a component and invokes its factory.
// Returns a *ConstructionError if the component is unknown or the factory fails.
func (r *Registry) Build(ctx context.Context, kind, name string, params map[string]any) (any, error) {
	c, ok := r.Lookup(kind, name)
	if !ok {
		return nil, &ConstructionError{Kind: kind, Name: name, Err: ErrUnknownComponent}
	}

	obj, err := c.New(ctx, params)
	if err != nil {
		return nil, &ConstructionError{Kind: kind, Name: name, Err: err}
	}
	if obj == nil {
		return nil, &ConstructionError{Kind: kind, Name: name, Err: fmt.Errorf("factory returned nil")}
	}
	return obj, nil
}
