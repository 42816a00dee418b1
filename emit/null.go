package emit

import "context"

// NullEmitter discards every event. Useful for CLI invocations that only
// care about the process exit code.
type NullEmitter struct{}

// NewNullEmitter returns an Emitter that discards all events.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

// Emit discards event.
func (n *NullEmitter) Emit(Event) {}

// EmitBatch discards events and always succeeds.
func (n *NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

// Flush is a no-op.
func (n *NullEmitter) Flush(context.Context) error { return nil }
