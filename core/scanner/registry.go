// Package scanner - Registry for resource listers
package scanner

import (
	"fmt"
	"sync"

	"aws-cost/core/types"
)

// Registry manages lister registration and lookup by resource type
type Registry struct {
	mu      sync.RWMutex
	listers map[types.ResourceType]Lister
	order   []types.ResourceType // maintains registration order for ScanAll
}

// NewRegistry creates a new lister registry
func NewRegistry() *Registry {
	return &Registry{
		listers: make(map[types.ResourceType]Lister),
		order:   make([]types.ResourceType, 0),
	}
}

// Register adds a lister to the registry
func (r *Registry) Register(lister Lister) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt := lister.Type()
	if !rt.IsValid() {
		return fmt.Errorf("unknown resource type: %s", rt)
	}
	if _, exists := r.listers[rt]; exists {
		return fmt.Errorf("lister already registered: %s", rt)
	}

	r.listers[rt] = lister
	r.order = append(r.order, rt)
	return nil
}

// Get returns the lister for a resource type
func (r *Registry) Get(rt types.ResourceType) (Lister, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lister, ok := r.listers[rt]
	return lister, ok
}

// Types returns all registered resource types in registration order
func (r *Registry) Types() []types.ResourceType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.ResourceType, len(r.order))
	copy(out, r.order)
	return out
}
