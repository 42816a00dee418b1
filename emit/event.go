// Package emit provides event emission and observability for machine execution.
package emit

// Event represents an observability event emitted during a machine run.
//
// Events give operators insight into execution without exposing secrets:
//   - node start/complete/error brackets, with elapsed time in Meta
//   - the result kind ("success" / "failure") a node produced
//   - debug traces emitted by capabilities via an attached Logger
//
// Meta must never carry a Reveal()-ed secret fragment; only display-safe
// strings belong here (see command.Fragment).
type Event struct {
	// RunID identifies the machine run that emitted this event.
	RunID string

	// Step is the 1-indexed position of this event's node in execution order.
	Step int

	// NodeID is the fully-qualified node identity ("<Machine>.<step>").
	// Empty for run-level events.
	NodeID string

	// Msg names the event kind: "node_start", "node_complete", "node_error",
	// or "debug" / "debug_error" for capability trace lines.
	Msg string

	// Meta carries additional structured, display-safe data.
	// Common keys: "duration_ms", "result", "message", "text".
	Meta map[string]any
}
