package machine

import (
	"fmt"

	"github.com/nightvault/archivist/emit"
)

// Logger is what the Dependencies container attaches to a capability before
// handing it to a node, so capabilities can emit their own debug traces
// without the node that called them knowing a logger was ever attached.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// LoggerAware is implemented by capabilities that want a Logger attached on
// every Dependencies lookup. Capabilities that don't need to log need not
// implement it.
type LoggerAware interface {
	SetLogger(Logger)
}

// emitLogger adapts an emit.Emitter into a Logger scoped to one run and node.
type emitLogger struct {
	emitter emit.Emitter
	runID   string
	node    string
}

func newEmitLogger(emitter emit.Emitter, runID, node string) *emitLogger {
	return &emitLogger{emitter: emitter, runID: runID, node: node}
}

func (l *emitLogger) Debugf(format string, args ...any) {
	l.emitter.Emit(emit.Event{
		RunID:  l.runID,
		NodeID: l.node,
		Msg:    "debug",
		Meta:   map[string]any{"text": fmt.Sprintf(format, args...)},
	})
}

func (l *emitLogger) Errorf(format string, args ...any) {
	l.emitter.Emit(emit.Event{
		RunID:  l.runID,
		NodeID: l.node,
		Msg:    "debug_error",
		Meta:   map[string]any{"text": fmt.Sprintf(format, args...)},
	})
}
