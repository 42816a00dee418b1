// Package repository implements the side-effecting capabilities an
// archival machine's nodes dispatch through the dependency container:
// filesystem staging, pg_dump invocation, tar/encrypt, long-term storage
// placement, database discovery, and retention pruning.
//
// Every capability here is the only class of code a node is permitted to
// let raise an exceptional condition — node bodies themselves perform
// exactly one dispatch through Dependencies and return.
package repository

import "github.com/nightvault/archivist/machine"

// loggable is embedded by every capability so the dependency container can
// attach the run's Logger transparently on lookup, without the
// capability's caller ever naming the logger explicitly.
type loggable struct {
	logger machine.Logger
}

// SetLogger satisfies machine.LoggerAware.
func (l *loggable) SetLogger(logger machine.Logger) { l.logger = logger }

func (l *loggable) debugf(format string, args ...any) {
	if l.logger != nil {
		l.logger.Debugf(format, args...)
	}
}

func (l *loggable) errorf(format string, args ...any) {
	if l.logger != nil {
		l.logger.Errorf(format, args...)
	}
}
