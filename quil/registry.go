package quil

import (
	"sort"
	"sync"
)

// DefinitionRegistry resolves custom gate names during synthesis.
type DefinitionRegistry interface {
	Definition(name string) (GateDefinition, bool)
}

// Registry is an in-memory DefinitionRegistry safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]GateDefinition
}

// NewRegistry returns an empty registry. Fill it with Add or Replace.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]GateDefinition)}
}

// Add registers def. It fails if the name is taken or names a built-in gate.
func (r *Registry) Add(def GateDefinition) error {
	if IsStandardGate(def.Name) {
		return gateErrorf(def.Name, ErrDuplicateDefinition, "shadows a standard gate")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		return gateErrorf(def.Name, ErrDuplicateDefinition, "already defined")
	}
	r.defs[def.Name] = def
	return nil
}

// Replace registers def, overwriting any definition with the same name.
func (r *Registry) Replace(def GateDefinition) error {
	if IsStandardGate(def.Name) {
		return gateErrorf(def.Name, ErrDuplicateDefinition, "shadows a standard gate")
	}
	r.mu.Lock()
	r.defs[def.Name] = def
	r.mu.Unlock()
	return nil
}

func (r *Registry) Definition(name string) (GateDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	return d, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Definitions returns every registered definition ordered by name.
func (r *Registry) Definitions() []GateDefinition {
	names := r.Names()
	out := make([]GateDefinition, 0, len(names))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		if d, ok := r.defs[name]; ok {
			out = append(out, d)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
