package emit

import "context"

// Emitter receives observability events from a machine run.
//
// Implementations must not block execution for long and must not panic;
// a slow or failing observability backend should never take down an
// archival run.
type Emitter interface {
	// Emit sends a single event to the configured backend.
	Emit(event Event)

	// EmitBatch sends multiple events, preserving order.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events are delivered.
	Flush(ctx context.Context) error
}

// MultiEmitter fans an event out to several backends, e.g. a LogEmitter for
// the console and a BufferedEmitter for test assertions.
type MultiEmitter struct {
	Emitters []Emitter
}

// Emit forwards the event to every configured emitter.
func (m *MultiEmitter) Emit(event Event) {
	for _, e := range m.Emitters {
		e.Emit(event)
	}
}

// EmitBatch forwards the batch to every configured emitter, returning the
// first error encountered (after attempting all of them).
func (m *MultiEmitter) EmitBatch(ctx context.Context, events []Event) error {
	var firstErr error
	for _, e := range m.Emitters {
		if err := e.EmitBatch(ctx, events); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Flush flushes every configured emitter, returning the first error.
func (m *MultiEmitter) Flush(ctx context.Context) error {
	var firstErr error
	for _, e := range m.Emitters {
		if err := e.Flush(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
