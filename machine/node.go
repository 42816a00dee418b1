package machine

import "context"

// ExceptionPolicy declares whether a node may raise an exceptional
// condition. MayThrow nodes name the node to hand control to when one
// occurs; nodes that assert no exceptions are possible leave OnException
// empty and MayThrow false.
type ExceptionPolicy struct {
	MayThrow    bool
	OnException string
}

// NoExceptions is the policy for a node that asserts it cannot raise an
// exceptional condition.
func NoExceptions() ExceptionPolicy { return ExceptionPolicy{} }

// MayThrowTo is the policy for a node that may raise an exceptional
// condition, handled by routing to onException.
func MayThrowTo(onException string) ExceptionPolicy {
	return ExceptionPolicy{MayThrow: true, OnException: onException}
}

// RunContext is what a node body receives in place of direct struct access
// to the state record: Frozen returns the read-only input section by
// value (so a node cannot mutate it through the accessor), Mutable returns
// a pointer to the scratch section nodes may write, and Dependencies gives
// access to the per-node-keyed capability container.
//
// This is what makes the frozen/mutable split structural rather than a
// convention: by handing out Frozen only by value, there is no path back
// to the machine's authoritative copy, so a node cannot reassign a frozen
// field for another node. The copy is shallow: a frozen field of slice,
// map or pointer type still shares its backing data with that copy.
type RunContext[F any, M any] struct {
	ctx           context.Context
	runID         string
	machineName   string
	failurePrefix string
	node          string
	frozen        F
	mutable       *M
	deps          *Dependencies
	logger        Logger
}

// Context returns the run's context.Context, for capabilities that accept one.
func (rc *RunContext[F, M]) Context() context.Context { return rc.ctx }

// Frozen returns a copy of the read-only input section of the state record.
func (rc *RunContext[F, M]) Frozen() F { return rc.frozen }

// Mutable returns a pointer to the scratch section of the state record.
func (rc *RunContext[F, M]) Mutable() *M { return rc.mutable }

// Dependencies returns the machine instance's dependency container.
func (rc *RunContext[F, M]) Dependencies() *Dependencies { return rc.deps }

// Logger returns the run-scoped Logger, for nodes that want to emit a debug
// trace directly rather than through a capability.
func (rc *RunContext[F, M]) Logger() Logger { return rc.logger }

// Node returns this node's fully-qualified identity ("<Machine>.<step>").
func (rc *RunContext[F, M]) Node() string { return rc.node }

// Success builds a Transition reporting Success for this node, continuing
// at to (empty for a terminal node with no successor).
func (rc *RunContext[F, M]) Success(to string, payload any) Transition {
	return Transition{To: to, Result: NewSuccess(rc.node, payload)}
}

// Failure builds a Transition reporting Failure for this node, continuing
// at to. message is automatically prefixed with the machine's
// failure_prefix.
func (rc *RunContext[F, M]) Failure(to, message string) Transition {
	return Transition{To: to, Result: NewFailure(rc.node, rc.failurePrefix+" "+message, nil)}
}

// SuccessWithSpliced builds a Success Transition like Success, additionally
// splicing a nested machine invocation's Stream ahead of this node's own
// Result. Use this from the Run body of a node whose descriptor names
// InvokesMachine, after calling Run on the sub-machine's Kind directly.
func (rc *RunContext[F, M]) SuccessWithSpliced(to string, payload any, spliced Stream) Transition {
	return Transition{To: to, Result: NewSuccess(rc.node, payload), Spliced: spliced}
}

// FailureWithSpliced builds a Failure Transition like Failure, additionally
// splicing a nested machine invocation's Stream ahead of this node's own
// Result.
func (rc *RunContext[F, M]) FailureWithSpliced(to, message string, spliced Stream) Transition {
	return Transition{To: to, Result: NewFailure(rc.node, rc.failurePrefix+" "+message, nil), Spliced: spliced}
}

// NodeDescriptor declares one node of a machine: its overview, role,
// declared successors, exception policy, and body. Descriptors are
// registered with NewKind and immutable once validation passes.
type NodeDescriptor[F any, M any] struct {
	// Name is the node's local identifier within its machine (not
	// qualified with the machine name; Kind does that at registration).
	Name string

	// Overview is required, non-empty prose describing the node's purpose.
	Overview string

	IsEntry    bool
	IsTerminal bool

	// HappyPaths and UnhappyPaths are the node's declared successor sets.
	// A Success transition may only target a name in HappyPaths; a
	// Failure transition only a name in UnhappyPaths (or the node's
	// OnException target).
	HappyPaths   []string
	UnhappyPaths []string

	// InvokesMachine names a qualified machine kind this node invokes as a
	// single step, splicing the sub-run's stream into the parent's.
	InvokesMachine string

	Exception ExceptionPolicy

	// Run is the node body. It performs exactly one meaningful operation —
	// typically one Dependencies lookup and capability call — then
	// returns rc.Success(...) or rc.Failure(...). A panic raised from Run
	// is an exceptional condition: the runtime recovers it and converts it
	// per Exception.
	Run func(rc *RunContext[F, M]) Transition
}
