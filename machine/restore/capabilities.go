package restore

import (
	"context"

	"github.com/nightvault/archivist/catalog"
)

// Capability interfaces the node bodies resolve through the dependency
// container, mirroring package backup: tests substitute a single call site
// with a double without touching any real backend.

type archiveFetcher interface {
	Lookup(ctx context.Context, runID string) (catalog.Record, error)
}

type directoryCreator interface {
	CreateDirectory(runID, dir string) (string, error)
}

type directoryRemover interface {
	RemoveDirectory(path string) error
}

type copier interface {
	Copy(srcPath, destPath string) (int64, error)
}

type decryptor interface {
	Decrypt(srcPath, destPath string) error
}

type decompressor interface {
	Decompress(srcPath, destDir string) error
}

type restorer interface {
	RestoreSchema(ctx context.Context, database, srcPath string) error
	RestoreData(ctx context.Context, database, srcPath string) error
}
