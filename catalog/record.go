// Package catalog persists the business record of archived artifacts: one
// row per database archive, written once by move_backup when the encrypted
// artifact has been placed in long-term storage. This is deliberately not
// machine-execution checkpointing — there is no intra-run state
// persistence, no resumption, no replay. The engine's in-memory Stream
// (package machine) is the only execution-time record; the engine itself
// carries no checkpoint store.
package catalog

import "time"

// Status is the terminal disposition of a cataloged run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record is one completed archival run, ready to be queried by an operator
// auditing backup history or computing retention decisions.
type Record struct {
	// RunID is the machine run's identifier, matching emit.Event.RunID.
	RunID string

	// Machine is the qualified machine kind that ran ("Backup", "Restore",
	// "BackupFleet").
	Machine string

	// FailurePrefix identifies which client/host/database this run concerned.
	FailurePrefix string

	// Database is the name of the database this run archived or restored,
	// empty for a fleet-level run.
	Database string

	// ArtifactPath is the long-term storage location of the encrypted
	// archive this run produced, empty if the run never reached
	// move_backup.
	ArtifactPath string

	// ByteSize is the size in bytes of the artifact at ArtifactPath.
	ByteSize int64

	StartedAt  time.Time
	FinishedAt time.Time

	Status Status

	// FailureCount is len(stream.Failures()) at the point the run stopped.
	FailureCount int

	// Detail is a short human-readable summary of the terminal node's
	// result, suitable for a CLI listing.
	Detail string
}

// Duration returns how long the run took.
func (r Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
