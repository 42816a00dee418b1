package backup

import (
	"context"
	"time"

	"github.com/nightvault/archivist/catalog"
)

// These interfaces are what BackupArchive and Backup's node bodies depend
// on, rather than repository's concrete capability types, so tests can
// substitute a single call site with a double without needing the real
// filesystem, subprocess, or database backends the repository package's
// structs wrap.

type directoryCreator interface {
	CreateDirectory(runID, dir string) (string, error)
}

type fileRemover interface {
	RemoveFile(path string) error
}

type directoryRemover interface {
	RemoveDirectory(path string) error
}

type dumper interface {
	DumpSchema(ctx context.Context, database, destPath string) error
	DumpData(ctx context.Context, database, destPath string) error
}

type archiver interface {
	Compress(srcDir, destPath string) error
}

type encryptor interface {
	Encrypt(srcPath, destPath string) error
}

type mover interface {
	CreateDirectory(runID, dir string) (string, error)
	Move(srcPath, destPath string) (int64, error)
}

type catalogRecorder interface {
	RecordPlacement(ctx context.Context, rec catalog.Record) error
}

type pruner interface {
	PruneOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error)
}

type discoverer interface {
	Databases(ctx context.Context) ([]string, error)
}
