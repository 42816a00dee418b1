package machine

import "sync"

// ValidatedKind is the type-erased handle a Registry keeps for a validated
// Kind[F, M], used solely to confirm at validation time that a referenced
// invokes_machine name resolves to something that passed validation itself.
type ValidatedKind interface {
	Name() string
}

// Registry tracks validated machine kinds by name so that a node's
// InvokesMachine reference can be checked for well-formedness without
// coupling the Kind type to every state-record type it might nest.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]ValidatedKind
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]ValidatedKind)}
}

// Register records k under k.Name(). Call this immediately after a Kind
// passes NewKind, before constructing any outer Kind that invokes it.
func (r *Registry) Register(k ValidatedKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[k.Name()] = k
}

// Lookup returns the registered kind named name, if any.
func (r *Registry) Lookup(name string) (ValidatedKind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}
