package backup

import (
	"github.com/nightvault/archivist/catalog"
	"github.com/nightvault/archivist/command"
	"github.com/nightvault/archivist/machine"
	"github.com/nightvault/archivist/repository"
)

// ArchiveConnection names every connection/path parameter the BackupArchive
// machine's capabilities need. It is not part of the state record, which
// carries business data only; it is what NewArchiveDependencies consumes to
// build real, non-test capabilities.
type ArchiveConnection struct {
	PgDumpBinary string
	Host         string
	Port         string
	User         string
	Password     command.Secret

	StagingRoot string
	StorageRoot string
	EncryptKey  []byte
	Store       catalog.Store
}

// NewArchiveDependencies wires every BackupArchive node to its real
// capability, keyed by node name. Tests replace individual
// keys with doubles after calling this, e.g.
// deps.Set("compress", failingArchiver) to simulate S3's mid-path failure.
func NewArchiveDependencies(logger machine.Logger, conn ArchiveConnection) *machine.Dependencies {
	deps := machine.NewDependencies(logger)

	staging := repository.NewStaging(conn.StagingRoot)
	dumper := repository.NewDumper(conn.PgDumpBinary, conn.Host, conn.Port, conn.User, conn.Password)
	archiver := repository.NewArchiver()
	encryptor := repository.NewEncryptor(conn.EncryptKey)
	mover := repository.NewMover(conn.StorageRoot)
	cat := repository.NewCatalog(conn.Store)

	deps.Set("create_intermediate_directory", staging)
	deps.Set("create_pg_dump_directory", staging)
	deps.Set("backup_schema", dumper)
	deps.Set("backup_data", dumper)
	deps.Set("compress", archiver)
	deps.Set("encrypt", encryptor)
	deps.Set("create_storage_directory", mover)
	deps.Set("move_backup", mover)
	deps.Set("move_backup.catalog", cat)
	deps.Set("remove_encrypted_backup", staging)
	deps.Set("remove_tarball", staging)
	deps.Set("remove_data_file", staging)
	deps.Set("remove_schema_file", staging)
	deps.Set("remove_pg_dump_directory", staging)
	deps.Set("remove_intermediate_directory", staging)

	return deps
}

// NewClientDependencies wires the per-client Backup machine. archiveKind and
// subDeps construct the nested BackupArchive run backup_each_database
// invokes once per discovered database; subDeps is called fresh for every
// database so each nested run gets its own Dependencies instance; the
// container is scoped to one machine instance.
func NewClientDependencies(logger machine.Logger, discovery *repository.Discovery, cat *repository.Catalog,
	archiveKind *machine.Kind[ArchiveFrozen, ArchiveMutable], subDeps func() *machine.Dependencies) *machine.Dependencies {
	deps := machine.NewDependencies(logger)
	deps.Set("fetch_databases", discovery)
	deps.Set("end_of_month_retention", cat)
	deps.Set("backup_each_database.kind", archiveKind)
	deps.Set("backup_each_database.deps_factory", subDeps)
	return deps
}
