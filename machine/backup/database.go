package backup

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/nightvault/archivist/catalog"
	"github.com/nightvault/archivist/machine"
)

// ArchiveKindName is the qualified name BackupArchive registers under, and
// what BackupFleet/Backup's InvokesMachine reference names.
const ArchiveKindName = "BackupArchive"

// NewArchiveKind builds and validates the single-database machine: the
// fifteen-node happy path from create_intermediate_directory through
// report_results, with the symmetric idempotent cleanup chain taken on any
// failure.
func NewArchiveKind(failurePrefix string, reg *machine.Registry) (*machine.Kind[ArchiveFrozen, ArchiveMutable], error) {
	nodes := []*machine.NodeDescriptor[ArchiveFrozen, ArchiveMutable]{
		{
			Name:         "create_intermediate_directory",
			Overview:     "Creates the per-run scratch directory under the staging root.",
			IsEntry:      true,
			HappyPaths:   []string{"create_pg_dump_directory"},
			UnhappyPaths: []string{"remove_intermediate_directory"},
			Exception:    machine.MayThrowTo("remove_intermediate_directory"),
			Run: func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) machine.Transition {
				staging := dep[directoryCreator](rc, "create_intermediate_directory")
				dir, err := staging.CreateDirectory(runID(rc), "intermediate")
				if err != nil {
					panic(err)
				}
				rc.Mutable().IntermediateDir = dir
				return rc.Success("create_pg_dump_directory", dir)
			},
		},
		{
			Name:         "create_pg_dump_directory",
			Overview:     "Creates the pg_dump output subdirectory inside the intermediate directory.",
			HappyPaths:   []string{"backup_schema"},
			UnhappyPaths: []string{"remove_pg_dump_directory"},
			Exception:    machine.MayThrowTo("remove_pg_dump_directory"),
			Run: func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) machine.Transition {
				staging := dep[directoryCreator](rc, "create_pg_dump_directory")
				dir, err := staging.CreateDirectory(runID(rc), filepath.Join("intermediate", "pgdump"))
				if err != nil {
					panic(err)
				}
				rc.Mutable().PgDumpDir = dir
				return rc.Success("backup_schema", dir)
			},
		},
		{
			Name:         "backup_schema",
			Overview:     "Runs pg_dump --schema-only for the target database.",
			HappyPaths:   []string{"backup_data"},
			UnhappyPaths: []string{"remove_schema_file"},
			Exception:    machine.MayThrowTo("remove_schema_file"),
			Run: func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) machine.Transition {
				dump := dep[dumper](rc, "backup_schema")
				dest := filepath.Join(rc.Mutable().PgDumpDir, "schema.sql")
				if err := dump.DumpSchema(rc.Context(), rc.Frozen().Database, dest); err != nil {
					panic(err)
				}
				rc.Mutable().SchemaPath = dest
				return rc.Success("backup_data", dest)
			},
		},
		{
			Name:         "backup_data",
			Overview:     "Runs pg_dump --data-only for the target database.",
			HappyPaths:   []string{"compress"},
			UnhappyPaths: []string{"remove_data_file"},
			Exception:    machine.MayThrowTo("remove_data_file"),
			Run: func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) machine.Transition {
				dump := dep[dumper](rc, "backup_data")
				dest := filepath.Join(rc.Mutable().PgDumpDir, "data.sql")
				if err := dump.DumpData(rc.Context(), rc.Frozen().Database, dest); err != nil {
					panic(err)
				}
				rc.Mutable().DataPath = dest
				return rc.Success("compress", dest)
			},
		},
		{
			Name:         "compress",
			Overview:     "Tars and gzips the pg_dump directory into a single artifact.",
			HappyPaths:   []string{"encrypt"},
			UnhappyPaths: []string{"remove_tarball"},
			Exception:    machine.MayThrowTo("remove_tarball"),
			Run: func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) machine.Transition {
				arc := dep[archiver](rc, "compress")
				dest := filepath.Join(rc.Mutable().IntermediateDir, "dump.tar.gz")
				if err := arc.Compress(rc.Mutable().PgDumpDir, dest); err != nil {
					panic(err)
				}
				rc.Mutable().TarballPath = dest
				return rc.Success("encrypt", dest)
			},
		},
		{
			Name:         "encrypt",
			Overview:     "Symmetrically encrypts the tarball.",
			HappyPaths:   []string{"create_storage_directory"},
			UnhappyPaths: []string{"remove_encrypted_backup"},
			Exception:    machine.MayThrowTo("remove_encrypted_backup"),
			Run: func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) machine.Transition {
				enc := dep[encryptor](rc, "encrypt")
				dest := rc.Mutable().TarballPath + ".enc"
				if err := enc.Encrypt(rc.Mutable().TarballPath, dest); err != nil {
					panic(err)
				}
				rc.Mutable().EncryptedPath = dest
				return rc.Success("create_storage_directory", dest)
			},
		},
		{
			Name:         "create_storage_directory",
			Overview:     "Creates the destination directory in long-term storage.",
			HappyPaths:   []string{"move_backup"},
			UnhappyPaths: []string{"remove_encrypted_backup"},
			Exception:    machine.MayThrowTo("remove_encrypted_backup"),
			Run: func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) machine.Transition {
				storage := dep[directoryCreator](rc, "create_storage_directory")
				dir, err := storage.CreateDirectory(runID(rc), "storage")
				if err != nil {
					panic(err)
				}
				rc.Mutable().StorageDir = dir
				return rc.Success("move_backup", dir)
			},
		},
		{
			Name:         "move_backup",
			Overview:     "Moves the encrypted artifact into long-term storage and records it in the catalog.",
			HappyPaths:   []string{"remove_encrypted_backup"},
			UnhappyPaths: []string{"remove_encrypted_backup"},
			Exception:    machine.MayThrowTo("remove_encrypted_backup"),
			Run: func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) machine.Transition {
				mv := dep[mover](rc, "move_backup")
				dest := filepath.Join(rc.Mutable().StorageDir, filepath.Base(rc.Mutable().EncryptedPath))
				size, err := mv.Move(rc.Mutable().EncryptedPath, dest)
				if err != nil {
					panic(err)
				}
				rc.Mutable().ArtifactPath = dest
				rc.Mutable().ArtifactSize = size

				cat := dep[catalogRecorder](rc, "move_backup.catalog")
				rec := catalog.Record{
					RunID:         runID(rc),
					Machine:       ArchiveKindName,
					FailurePrefix: failurePrefixOf(rc),
					Database:      rc.Frozen().Database,
					ArtifactPath:  dest,
					ByteSize:      size,
					FinishedAt:    time.Now(),
					Status:        catalog.StatusSucceeded,
				}
				if err := cat.RecordPlacement(rc.Context(), rec); err != nil {
					panic(err)
				}
				return rc.Success("remove_encrypted_backup", dest)
			},
		},
		release("remove_encrypted_backup", "remove_tarball", func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) string {
			return rc.Mutable().EncryptedPath
		}),
		release("remove_tarball", "remove_data_file", func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) string {
			return rc.Mutable().TarballPath
		}),
		release("remove_data_file", "remove_schema_file", func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) string {
			return rc.Mutable().DataPath
		}),
		release("remove_schema_file", "remove_pg_dump_directory", func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) string {
			return rc.Mutable().SchemaPath
		}),
		releaseDir("remove_pg_dump_directory", "remove_intermediate_directory", func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) string {
			return rc.Mutable().PgDumpDir
		}),
		releaseDir("remove_intermediate_directory", "report_results", func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) string {
			return rc.Mutable().IntermediateDir
		}),
		{
			Name:       "report_results",
			Overview:   "Terminal node: the accumulated stream is returned to the caller of Run.",
			IsTerminal: true,
			Run: func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) machine.Transition {
				return rc.Success("", nil)
			},
		},
	}

	return machine.NewKind(ArchiveKindName, "Archives one database: dump, compress, encrypt, move to long-term storage.", failurePrefix, nodes, reg)
}

// release builds a node that removes a file if it exists, then continues
// unconditionally to next. Every release node's happy and unhappy
// successors are the same: cleanup is idempotent and best-effort, so there
// is nothing meaningfully different to do on failure. Each release checks
// existence first, which is what makes the chain safe to traverse from any
// point.
func release(name, next string, pathOf func(*machine.RunContext[ArchiveFrozen, ArchiveMutable]) string) *machine.NodeDescriptor[ArchiveFrozen, ArchiveMutable] {
	return &machine.NodeDescriptor[ArchiveFrozen, ArchiveMutable]{
		Name:         name,
		Overview:     fmt.Sprintf("Removes the artifact produced earlier in the run, if it exists, and continues to %s.", next),
		HappyPaths:   []string{next},
		UnhappyPaths: []string{next},
		Exception:    machine.MayThrowTo(next),
		Run: func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) machine.Transition {
			remover := dep[fileRemover](rc, name)
			path := pathOf(rc)
			if path != "" {
				if err := remover.RemoveFile(path); err != nil {
					panic(err)
				}
			}
			return rc.Success(next, path)
		},
	}
}

// releaseDir is release's directory-removing counterpart.
func releaseDir(name, next string, pathOf func(*machine.RunContext[ArchiveFrozen, ArchiveMutable]) string) *machine.NodeDescriptor[ArchiveFrozen, ArchiveMutable] {
	return &machine.NodeDescriptor[ArchiveFrozen, ArchiveMutable]{
		Name:         name,
		Overview:     fmt.Sprintf("Removes the scratch directory created earlier in the run, if it exists, and continues to %s.", next),
		HappyPaths:   []string{next},
		UnhappyPaths: []string{next},
		Exception:    machine.MayThrowTo(next),
		Run: func(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) machine.Transition {
			remover := dep[directoryRemover](rc, name)
			path := pathOf(rc)
			if path != "" {
				if err := remover.RemoveDirectory(path); err != nil {
					panic(err)
				}
			}
			return rc.Success(next, path)
		},
	}
}

// dep resolves a typed capability bound under key, panicking (a programming
// error, not a domain failure) if the wiring is missing or mistyped.
func dep[T any](rc *machine.RunContext[ArchiveFrozen, ArchiveMutable], key string) T {
	v, err := machine.Get[T](rc.Dependencies(), ArchiveKindName, rc.Node(), key)
	if err != nil {
		panic(err)
	}
	return v
}

func runID(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) string {
	return rc.Frozen().ClientID + "." + rc.Frozen().Database
}

// failurePrefixOf is the catalog FailurePrefix for this run: the client ID,
// the key end_of_month_retention prunes by.
func failurePrefixOf(rc *machine.RunContext[ArchiveFrozen, ArchiveMutable]) string {
	return rc.Frozen().ClientID
}
