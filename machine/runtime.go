package machine

import (
	"context"
	"fmt"
	"time"

	"github.com/nightvault/archivist/emit"
)

// Run executes kind from its entry node to a terminal node, single-threaded
// and cooperative: no operation yields, each node runs to
// completion before the next, and there is no internal task queue beyond
// this loop.
//
// frozen is the machine's read-only input section and mutable a pointer to
// its scratch section; deps is the per-instance
// Dependencies container; em receives node_start/node_complete/node_error
// events bracketing each node with its elapsed time, or emit.NewNullEmitter()
// if the caller doesn't care; metrics may be nil.
//
// Run always returns the Stream accumulated up to the point execution
// stopped, even on error: a validator-era defect surfacing at runtime
// (IllegalTransitionError, NoTransitionError) or a cannot-throw node's
// exceptional condition is itself appended to the stream as a Failure
// before Run returns it alongside the error.
func Run[F any, M any](ctx context.Context, kind *Kind[F, M], runID string, frozen F, mutable *M, deps *Dependencies, em emit.Emitter, metrics *Metrics) (Stream, error) {
	if em == nil {
		em = emit.NewNullEmitter()
	}

	current := kind.Entry()
	var stream Stream
	step := 0

	for {
		n, ok := kind.Node(current)
		if !ok {
			return stream, &RuntimeError{Machine: kind.name, Message: "current node \"" + current + "\" is not registered"}
		}

		step++
		qualified := kind.qualify(current)
		rc := &RunContext[F, M]{
			ctx:           ctx,
			runID:         runID,
			machineName:   kind.name,
			failurePrefix: kind.failurePrefix,
			node:          qualified,
			frozen:        frozen,
			mutable:       mutable,
			deps:          deps,
			logger:        newEmitLogger(em, runID, qualified),
		}

		start := time.Now()
		em.Emit(emit.Event{RunID: runID, Step: step, NodeID: qualified, Msg: "node_start"})

		t, aborted := runNode(kind, n, rc)
		elapsed := time.Since(start)

		if aborted != nil {
			em.Emit(emit.Event{RunID: runID, Step: step, NodeID: qualified, Msg: "node_error",
				Meta: map[string]any{"duration_ms": elapsed.Milliseconds(), "message": aborted.Message}})
			stream = append(stream, NewFailure(qualified, aborted.Message, aborted))
			metrics.observe(kind.name, qualified, FailureKind, elapsed)
			return stream, aborted
		}

		if err := checkEdge(kind, n, qualified, t); err != nil {
			em.Emit(emit.Event{RunID: runID, Step: step, NodeID: qualified, Msg: "node_error",
				Meta: map[string]any{"duration_ms": elapsed.Milliseconds(), "message": err.Error()}})
			stream = append(stream, NewFailure(qualified, err.Error(), err))
			metrics.observe(kind.name, qualified, FailureKind, elapsed)
			return stream, err
		}

		msg := "node_complete"
		if t.Result.IsFailure() {
			msg = "node_error"
		}
		em.Emit(emit.Event{RunID: runID, Step: step, NodeID: qualified, Msg: msg,
			Meta: map[string]any{"duration_ms": elapsed.Milliseconds(), "result": t.Result.Kind.String()}})

		if len(t.Spliced) > 0 {
			stream = append(stream, t.Spliced...)
		}
		stream = append(stream, t.Result)
		metrics.observe(kind.name, qualified, t.Result.Kind, elapsed)

		if n.IsTerminal && t.To == "" {
			return stream, nil
		}

		if t.To == current {
			err := &TransitionError{Machine: kind.name, Node: qualified, Target: t.To, Kind: NoTransition,
				Message: "node transitioned to itself without being terminal"}
			stream = append(stream, NewFailure(qualified, err.Error(), err))
			return stream, err
		}

		current = t.To
	}
}

// runNode invokes n.Run, recovering any panic as the exceptional condition
// a node annotated "may throw" converts into a Failure transition. A panic from a node declared "cannot throw" is a
// programming error: runNode reports it via the named return aborted
// instead, which halts the whole machine.
func runNode[F any, M any](kind *Kind[F, M], n *NodeDescriptor[F, M], rc *RunContext[F, M]) (t Transition, aborted *RuntimeError) {
	defer func() {
		if r := recover(); r != nil {
			if n.Exception.MayThrow {
				msg := fmt.Sprintf("%s unrecognized exception: %v", kind.failurePrefix, r)
				t = Transition{To: n.Exception.OnException, Result: NewFailure(rc.node, msg, nil)}
				return
			}
			aborted = &RuntimeError{
				Machine: kind.name,
				Node:    rc.node,
				Message: fmt.Sprintf("node declared cannot-throw raised an exceptional condition: %v", r),
			}
		}
	}()
	t = n.Run(rc)
	return t, nil
}

// checkEdge enforces the runtime edge rule: a Success may only target a node in
// the producing node's declared happy set; a Failure only in its unhappy
// set (or its on_exception target). A terminal node reporting no successor
// (to == "") always passes.
func checkEdge[F any, M any](kind *Kind[F, M], n *NodeDescriptor[F, M], qualified string, t Transition) error {
	if n.IsTerminal && t.To == "" {
		return nil
	}

	if t.Result.IsSuccess() {
		if contains(n.HappyPaths, t.To) {
			return nil
		}
		return &TransitionError{Machine: kind.name, Node: qualified, Target: t.To, Kind: IllegalTransition,
			Message: "success result targets a node outside the declared happy set"}
	}

	if contains(n.UnhappyPaths, t.To) || (n.Exception.MayThrow && t.To == n.Exception.OnException) {
		return nil
	}
	return &TransitionError{Machine: kind.name, Node: qualified, Target: t.To, Kind: IllegalTransition,
		Message: "failure result targets a node outside the declared unhappy set"}
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
