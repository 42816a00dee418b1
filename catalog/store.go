package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run ID has no catalog record.
var ErrNotFound = errors.New("catalog: not found")

// Store persists and queries completed archival run records. Implementations
// back onto memory (tests), SQLite (single-host operation), or MySQL
// (fleet-wide reporting).
type Store interface {
	// Put inserts or replaces the record for rec.RunID.
	Put(ctx context.Context, rec Record) error

	// Get retrieves the record for runID, or ErrNotFound.
	Get(ctx context.Context, runID string) (Record, error)

	// ListByPrefix returns every record whose FailurePrefix equals prefix,
	// most recent first, used by end_of_month_retention to decide which
	// archives are eligible for pruning.
	ListByPrefix(ctx context.Context, prefix string, limit int) ([]Record, error)

	// Delete removes the record for runID, used once end_of_month_retention
	// has removed the underlying artifact. Deleting an already-absent
	// record is a successful no-op.
	Delete(ctx context.Context, runID string) error

	// Close releases any resources held by the store.
	Close() error
}
