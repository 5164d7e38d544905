package pipeline

import (
	"sync"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// Registry accumulates structures by name. Folding a newly inferred tree
// into an existing one goes through the type unifier, so every document of a
// kind contributes fields and the types only ever widen.
type Registry struct {
	mu         sync.RWMutex
	structures map[string]*structtree.Tree
}

func NewRegistry() *Registry {
	return &Registry{structures: make(map[string]*structtree.Tree)}
}

// Fold merges the incoming tree into the accumulated structure under name
// and returns a deep copy of the result. The copy is what leaves the
// registry; the accumulated tree itself is never handed out.
func (r *Registry) Fold(name string, incoming *structtree.Tree, prio structtree.Priorities) *structtree.Tree {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.structures[name]
	if !ok {
		existing = structtree.New()
		r.structures[name] = existing
	}
	existing.Merge(incoming, prio)
	return existing.Clone()
}

// Get returns a deep copy of the accumulated structure, or nil.
func (r *Registry) Get(name string) *structtree.Tree {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tree, ok := r.structures[name]
	if !ok {
		return nil
	}
	return tree.Clone()
}

// Names lists the registered structure names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.structures))
	for name := range r.structures {
		names = append(names, name)
	}
	return names
}
