// Package backup implements the two-tier archival workflow: "Backup", a
// per-client machine that discovers databases and prunes stale archives,
// and "BackupArchive", the single-database happy/unhappy path it invokes
// once per discovered database.
package backup

// ArchiveFrozen is BackupArchive's read-only input section: which client
// and database this run concerns. Every node receives a copy through
// RunContext.Frozen; none can mutate it.
type ArchiveFrozen struct {
	ClientID string
	Database string
}

// ArchiveMutable is BackupArchive's scratch section: paths discovered or
// created by one node and consumed by a later one.
type ArchiveMutable struct {
	IntermediateDir string
	PgDumpDir       string
	SchemaPath      string
	DataPath        string
	TarballPath     string
	EncryptedPath   string
	StorageDir      string
	ArtifactPath    string
	ArtifactSize    int64
}

// ClientFrozen is Backup's read-only input section.
type ClientFrozen struct {
	ClientID      string
	RetentionDays int
}

// ClientMutable is Backup's scratch section: the database list
// fetch_databases discovers and hands to backup_each_database.
type ClientMutable struct {
	Databases []string
	Pruned    int
}
