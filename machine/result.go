// Package machine implements the directed-graph state-machine engine that
// drives an archival run: graph metadata, load-time validation, the
// result/transition model, and the single-threaded runtime that executes a
// machine from its entry node to a terminal node.
package machine

// ResultKind is the sum-type discriminator of a Result: whether a node
// succeeded or failed.
type ResultKind int

const (
	// SuccessKind marks a Result produced by a node that completed normally.
	SuccessKind ResultKind = iota
	// FailureKind marks a Result produced by a node that could not complete,
	// whether from a domain-level failure or a converted exceptional condition.
	FailureKind
)

// String renders the ResultKind the way it appears in logs and test assertions.
func (k ResultKind) String() string {
	if k == FailureKind {
		return "failure"
	}
	return "success"
}

// Result is the outcome emitted by a single node execution: a Success
// carrying a payload, or a Failure carrying a message and an optional cause.
// Every Result carries the fully-qualified identity of the node that
// produced it, so a nested machine's results remain attributable once
// spliced into an outer stream.
type Result struct {
	Kind    ResultKind
	Node    string
	Payload any
	Message string
	Cause   error
}

// NewSuccess builds a Success result for node carrying payload.
func NewSuccess(node string, payload any) Result {
	return Result{Kind: SuccessKind, Node: node, Payload: payload}
}

// NewFailure builds a Failure result for node with message, optionally
// wrapping cause.
func NewFailure(node, message string, cause error) Result {
	return Result{Kind: FailureKind, Node: node, Message: message, Cause: cause}
}

// IsSuccess reports whether r is a Success.
func (r Result) IsSuccess() bool { return r.Kind == SuccessKind }

// IsFailure reports whether r is a Failure.
func (r Result) IsFailure() bool { return r.Kind == FailureKind }

// Stream is the ordered, finite sequence of Results produced by one machine
// run, one entry per node that executed, in execution order. It lives only
// in memory for the duration of the run (or its consumer's inspection of it)
// — there is no persistence layer for the stream itself.
type Stream []Result

// Failures returns the subset of s that are Failure results, preserving
// order. The process-level exit code convention is len(s.Failures()).
func (s Stream) Failures() []Result {
	var out []Result
	for _, r := range s {
		if r.IsFailure() {
			out = append(out, r)
		}
	}
	return out
}
