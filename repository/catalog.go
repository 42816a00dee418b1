package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nightvault/archivist/catalog"
)

// Catalog wraps a catalog.Store as a node-facing capability: recording a
// completed artifact placement and deciding, then enforcing, retention.
// This is the archival system's own business record, not machine-execution
// checkpointing: the only write is one record per artifact, made once
// move_backup has placed it in long-term storage.
type Catalog struct {
	loggable
	Store catalog.Store
}

// NewCatalog returns a Catalog capability backed by store.
func NewCatalog(store catalog.Store) *Catalog {
	return &Catalog{Store: store}
}

// RecordPlacement persists rec after move_backup has placed the encrypted
// artifact in long-term storage.
func (c *Catalog) RecordPlacement(ctx context.Context, rec catalog.Record) error {
	c.debugf("catalog: recording run %s (%s, %d bytes)", rec.RunID, rec.ArtifactPath, rec.ByteSize)
	if err := c.Store.Put(ctx, rec); err != nil {
		c.errorf("catalog: failed recording run %s: %v", rec.RunID, err)
		return fmt.Errorf("repository: recording catalog entry: %w", err)
	}
	return nil
}

// Lookup retrieves the catalog record for runID, used by the restore
// machine's fetch_archive step to locate the artifact to pull back.
func (c *Catalog) Lookup(ctx context.Context, runID string) (catalog.Record, error) {
	c.debugf("catalog: looking up run %s", runID)
	rec, err := c.Store.Get(ctx, runID)
	if err != nil {
		return catalog.Record{}, fmt.Errorf("repository: looking up catalog entry %q: %w", runID, err)
	}
	return rec, nil
}

// PruneOlderThan deletes every cataloged artifact for prefix whose
// FinishedAt predates cutoff: removes the artifact file first, then the
// catalog row, so a crash between the two leaves an orphaned row (safely
// re-prunable) rather than a catalog entry pointing at a deleted file.
// Returns the number of artifacts pruned.
func (c *Catalog) PruneOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	recs, err := c.Store.ListByPrefix(ctx, prefix, 0)
	if err != nil {
		return 0, fmt.Errorf("repository: listing catalog entries for %q: %w", prefix, err)
	}

	pruned := 0
	for _, rec := range recs {
		if !rec.FinishedAt.Before(cutoff) {
			continue
		}
		c.debugf("catalog: pruning %s (finished %s)", rec.RunID, rec.FinishedAt)
		if rec.ArtifactPath != "" {
			if err := os.Remove(rec.ArtifactPath); err != nil && !os.IsNotExist(err) {
				c.errorf("catalog: failed removing artifact %s: %v", rec.ArtifactPath, err)
				return pruned, fmt.Errorf("repository: removing artifact %q: %w", rec.ArtifactPath, err)
			}
		}
		if err := c.Store.Delete(ctx, rec.RunID); err != nil {
			c.errorf("catalog: failed deleting run %s: %v", rec.RunID, err)
			return pruned, fmt.Errorf("repository: deleting catalog entry %q: %w", rec.RunID, err)
		}
		pruned++
	}
	return pruned, nil
}
