package machine

import "sync"

// Dependencies is the per-machine-instance dependency container: a
// structured record mapping symbolic operation names to capability
// functions. The key is conventionally the node name that uses the
// capability, which is what lets tests substitute behavior at the
// granularity of a single call site even when several keys point at the
// same underlying capability.
//
// Dependencies receives the run's Logger at construction; any capability
// resolved through Get that implements LoggerAware has the logger attached
// transparently before it is returned, so node bodies never see the
// wiring.
type Dependencies struct {
	mu     sync.RWMutex
	fns    map[string]any
	logger Logger
}

// NewDependencies creates a Dependencies container bound to logger.
func NewDependencies(logger Logger) *Dependencies {
	return &Dependencies{fns: make(map[string]any), logger: logger}
}

// Set binds key to fn, a capability function or capability object. Tests
// call Set to substitute a double for a single call site, e.g.
// deps.Set("create_pg_dump_directory", failingMkdir) without touching any
// other key bound to the same real capability.
func (d *Dependencies) Set(key string, fn any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fns[key] = fn
}

// Has reports whether key is bound.
func (d *Dependencies) Has(key string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.fns[key]
	return ok
}

// Get resolves key, attaching the container's Logger if the bound value
// implements LoggerAware, and asserts it to T. It returns a *RuntimeError
// if key is unbound or bound to a value of the wrong type — always a
// programming error in how the machine was wired, never a node's domain
// failure.
func Get[T any](d *Dependencies, machineName, nodeName, key string) (T, error) {
	var zero T
	d.mu.RLock()
	v, ok := d.fns[key]
	d.mu.RUnlock()
	if !ok {
		return zero, &RuntimeError{
			Machine: machineName,
			Node:    nodeName,
			Message: "no dependency bound for key \"" + key + "\"",
		}
	}
	if aware, ok := v.(LoggerAware); ok {
		aware.SetLogger(d.logger)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &RuntimeError{
			Machine: machineName,
			Node:    nodeName,
			Message: "dependency \"" + key + "\" is bound to the wrong type",
		}
	}
	return typed, nil
}
