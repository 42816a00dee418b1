package repository

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Mover places a finished artifact into long-term storage (the happy
// path's "create_storage_directory" / "move_backup" pair) or pulls one back
// out for restore ("move_to_restore_directory"). Like
// Staging, directory creation is idempotent.
type Mover struct {
	loggable
	Root string
}

// NewMover returns a Mover rooted at root (e.g. "/mnt/longterm/archives").
func NewMover(root string) *Mover {
	return &Mover{Root: root}
}

// CreateDirectory creates dir under Root if it does not already exist.
func (m *Mover) CreateDirectory(runID, dir string) (string, error) {
	path := filepath.Join(m.Root, runID, dir)
	m.debugf("mover: creating %s", path)
	if err := os.MkdirAll(path, 0o750); err != nil {
		m.errorf("mover: failed to create %s: %v", path, err)
		return "", fmt.Errorf("repository: creating directory %q: %w", path, err)
	}
	return path, nil
}

// Move relocates srcPath to destPath, falling back to a copy-then-remove
// when the two paths live on different filesystems (os.Rename's EXDEV).
func (m *Mover) Move(srcPath, destPath string) (int64, error) {
	m.debugf("mover: moving %s -> %s", srcPath, destPath)
	if err := os.Rename(srcPath, destPath); err == nil {
		info, statErr := os.Stat(destPath)
		if statErr != nil {
			return 0, fmt.Errorf("repository: statting %q: %w", destPath, statErr)
		}
		return info.Size(), nil
	}

	size, err := copyFile(srcPath, destPath)
	if err != nil {
		m.errorf("mover: failed moving %s: %v", srcPath, err)
		return 0, err
	}
	if err := os.Remove(srcPath); err != nil {
		m.errorf("mover: failed removing source %s after copy: %v", srcPath, err)
		return 0, fmt.Errorf("repository: removing %q after copy: %w", srcPath, err)
	}
	return size, nil
}

// Copy duplicates srcPath to destPath, leaving the source in place: the
// restore machine pulls an archive out of long-term storage without
// consuming it.
func (m *Mover) Copy(srcPath, destPath string) (int64, error) {
	m.debugf("mover: copying %s -> %s", srcPath, destPath)
	size, err := copyFile(srcPath, destPath)
	if err != nil {
		m.errorf("mover: failed copying %s: %v", srcPath, err)
		return 0, err
	}
	return size, nil
}

func copyFile(srcPath, destPath string) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("repository: opening %q: %w", srcPath, err)
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("repository: creating %q: %w", destPath, err)
	}
	defer dest.Close()

	n, err := io.Copy(dest, src)
	if err != nil {
		return 0, fmt.Errorf("repository: copying %q to %q: %w", srcPath, destPath, err)
	}
	return n, nil
}
