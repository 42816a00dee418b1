// Package restore implements the symmetric counterpart of the backup
// workflow: pull a cataloged archive out of long-term storage, decrypt and
// unpack it, and apply the recovered schema and data dumps to the target
// database.
package restore

// Frozen is Restore's read-only input section: which cataloged run to
// restore and where to apply it.
type Frozen struct {
	ClientID string

	// ArchiveRunID is the catalog RunID of the archive to restore.
	ArchiveRunID string

	// Database is the database the recovered dumps are applied to.
	Database string
}

// Mutable is Restore's scratch section: locations discovered or created by
// one node and consumed by a later one.
type Mutable struct {
	ArtifactPath  string
	RestoreDir    string
	LocalArtifact string
	TarballPath   string
	DumpDir       string
	SchemaPath    string
	DataPath      string
}
