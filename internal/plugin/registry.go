package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds loadable plugins indexed by name. Activation creates a
// fresh instance from the registered factory; the registry itself never
// holds live instances.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a named plugin factory. Names must be unique.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("plugin name is empty")
	}
	if f == nil {
		return fmt.Errorf("plugin %q: factory is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("duplicate plugin name: %q", name)
	}
	r.factories[name] = f
	return nil
}

// New instantiates the named plugin.
func (r *Registry) New(name string) (Plugin, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("plugin %q not found in registry", name)
	}
	return f(), nil
}

// Names returns all registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
