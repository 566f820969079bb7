package roster

import (
	"sync"

	"go.uber.org/zap"
)

// Registry hands out one orchestrator per operator session, so every
// session's working set and selection are independently owned.
type Registry struct {
	mu      sync.Mutex
	gateway Lister
	logger  *zap.Logger
	byOwner map[string]*Orchestrator
}

// NewRegistry builds an empty registry.
func NewRegistry(gateway Lister, logger *zap.Logger) *Registry {
	return &Registry{
		gateway: gateway,
		logger:  logger,
		byOwner: make(map[string]*Orchestrator),
	}
}

// For returns the orchestrator owned by the given session subject,
// creating it on first use.
func (r *Registry) For(owner string) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byOwner[owner]
	if !ok {
		o = NewOrchestrator(r.gateway, r.logger)
		r.byOwner[owner] = o
	}
	return o
}

// Drop forgets the orchestrator for a signed-out session.
func (r *Registry) Drop(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byOwner, owner)
}
