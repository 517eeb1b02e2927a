package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps phase idents to their implementations. Phases are
// registered during wiring, before any run starts; lookups afterwards are
// read-only and safe for concurrent runs.
type Registry struct {
	mu     sync.RWMutex
	phases map[Ident]Phase
}

// NewRegistry creates an empty phase registry.
func NewRegistry() *Registry {
	return &Registry{phases: make(map[Ident]Phase)}
}

// Register registers a phase under ident. Panics on an empty ident, a nil
// phase, or a duplicate registration; all three are wiring mistakes.
func (r *Registry) Register(id Ident, p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		panic("phase ident cannot be empty")
	}
	if p == nil {
		panic(fmt.Sprintf("phase %q cannot be nil", id))
	}
	if _, exists := r.phases[id]; exists {
		panic(fmt.Sprintf("phase %q already registered", id))
	}
	r.phases[id] = p
}

// Get returns the phase registered under ident, if any.
func (r *Registry) Get(id Ident) (Phase, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.phases[id]
	return p, ok
}

// List returns all registered idents sorted by name.
func (r *Registry) List() []Ident {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]Ident, 0, len(r.phases))
	for id := range r.phases {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
