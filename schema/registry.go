package schema

import (
	"fmt"
	"sync"
)

// Registry manages the definitions of all resource types in the application.
// It is written once at setup and read concurrently thereafter.
type Registry struct {
	definitions map[string]*Definition
	mu          sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]*Definition),
	}
}

// Register adds a resource definition after structural validation. Attribute
// and relationship configs get their Name filled from their map key.
func (r *Registry) Register(def *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def == nil {
		return fmt.Errorf("cannot register a nil definition")
	}
	if def.Type == "" {
		return fmt.Errorf("resource definition has no type")
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("resource %s is already registered", def.Type)
	}
	if def.Adapter == nil {
		return fmt.Errorf("resource %s has no adapter", def.Type)
	}

	for name, attr := range def.Attributes {
		if attr == nil {
			return fmt.Errorf("resource %s: attribute %s is nil", def.Type, name)
		}
		if attr.Name == "" {
			attr.Name = name
		}
	}
	for name, rel := range def.Relationships {
		if rel == nil {
			return fmt.Errorf("resource %s: relationship %s is nil", def.Type, name)
		}
		if rel.Name == "" {
			rel.Name = name
		}
	}

	r.definitions[def.Type] = def
	return nil
}

// Get retrieves a definition by resource type.
func (r *Registry) Get(resourceType string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.definitions[resourceType]
	return def, exists
}

// All returns a copy of the registered definition map.
func (r *Registry) All() map[string]*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Definition, len(r.definitions))
	for k, v := range r.definitions {
		result[k] = v
	}
	return result
}

// List returns the names of all registered resource types.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered resources.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.definitions)
}

// Exists checks whether a resource type is registered.
func (r *Registry) Exists(resourceType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.definitions[resourceType]
	return exists
}

// Clear removes all registered definitions (useful for testing).
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.definitions = make(map[string]*Definition)
}

// ValidateAll performs cross-resource validation once every definition is
// registered: each non-polymorphic relationship must target a registered
// resource. Registration order is free, so forward references are only
// checked here.
func (r *Registry) ValidateAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, def := range r.definitions {
		for relName, rel := range def.Relationships {
			if rel.Target == "" {
				continue
			}
			if _, ok := r.definitions[rel.Target]; !ok {
				return fmt.Errorf("resource %s: relationship %s targets unregistered resource %s",
					name, relName, rel.Target)
			}
		}
	}
	return nil
}
