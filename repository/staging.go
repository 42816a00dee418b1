package repository

import (
	"fmt"
	"os"
	"path/filepath"
)

// Staging manages scratch directories used while a run assembles its
// artifacts: the intermediate work directory and, nested under it, the
// pg_dump output directory. Both create and remove operations are
// idempotent: each release checks existence first.
type Staging struct {
	loggable
	Root string
}

// NewStaging returns a Staging capability rooted at root (e.g.
// "/var/lib/archivist/work").
func NewStaging(root string) *Staging {
	return &Staging{Root: root}
}

// CreateDirectory creates dir under Root if it does not already exist
// ("make_if_not_exists").
func (s *Staging) CreateDirectory(runID, dir string) (string, error) {
	path := filepath.Join(s.Root, runID, dir)
	s.debugf("staging: creating %s", path)
	if err := os.MkdirAll(path, 0o750); err != nil {
		s.errorf("staging: failed to create %s: %v", path, err)
		return "", fmt.Errorf("repository: creating directory %q: %w", path, err)
	}
	return path, nil
}

// RemoveDirectory removes path if it exists ("remove_if_exists"); removing
// an already-absent directory is a successful no-op, which is what makes
// this capability safe to call twice in a row.
func (s *Staging) RemoveDirectory(path string) error {
	s.debugf("staging: removing %s", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		s.errorf("staging: failed to remove %s: %v", path, err)
		return fmt.Errorf("repository: removing directory %q: %w", path, err)
	}
	return nil
}

// RemoveFile removes path if it exists.
func (s *Staging) RemoveFile(path string) error {
	s.debugf("staging: removing file %s", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(path); err != nil {
		s.errorf("staging: failed to remove file %s: %v", path, err)
		return fmt.Errorf("repository: removing file %q: %w", path, err)
	}
	return nil
}
