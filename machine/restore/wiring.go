package restore

import (
	"github.com/nightvault/archivist/catalog"
	"github.com/nightvault/archivist/command"
	"github.com/nightvault/archivist/machine"
	"github.com/nightvault/archivist/repository"
)

// Connection names every connection/path parameter the Restore machine's
// capabilities need, mirroring backup.ArchiveConnection.
type Connection struct {
	PsqlBinary string
	Host       string
	Port       string
	User       string
	Password   command.Secret

	StagingRoot string
	DecryptKey  []byte
	Store       catalog.Store
}

// NewDependencies wires every Restore node to its real capability, keyed by
// node name so tests can substitute one call site at a time.
func NewDependencies(logger machine.Logger, conn Connection) *machine.Dependencies {
	deps := machine.NewDependencies(logger)

	cat := repository.NewCatalog(conn.Store)
	staging := repository.NewStaging(conn.StagingRoot)
	mover := repository.NewMover(conn.StagingRoot)
	encryptor := repository.NewEncryptor(conn.DecryptKey)
	archiver := repository.NewArchiver()
	restorer := repository.NewRestorer(conn.PsqlBinary, conn.Host, conn.Port, conn.User, conn.Password)

	deps.Set("fetch_archive", cat)
	deps.Set("create_restore_directory", staging)
	deps.Set("move_to_restore_directory", mover)
	deps.Set("decrypt", encryptor)
	deps.Set("decompress", archiver)
	deps.Set("restore_schema", restorer)
	deps.Set("restore_data", restorer)
	deps.Set("remove_restore_directory", staging)

	return deps
}
