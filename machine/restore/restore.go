package restore

import (
	"path/filepath"

	"github.com/nightvault/archivist/machine"
)

// KindName is the qualified name the Restore machine registers under.
const KindName = "Restore"

// NewKind builds and validates the restore path: locate the cataloged
// archive, stage it locally, decrypt, unpack, apply schema then data, and
// remove the staging directory whichever way the run went. The single
// acquired resource is the restore directory, so one idempotent release
// node serves every unhappy path.
func NewKind(failurePrefix string, reg *machine.Registry) (*machine.Kind[Frozen, Mutable], error) {
	nodes := []*machine.NodeDescriptor[Frozen, Mutable]{
		{
			Name:         "fetch_archive",
			Overview:     "Looks up the archive to restore in the run catalog.",
			IsEntry:      true,
			HappyPaths:   []string{"create_restore_directory"},
			UnhappyPaths: []string{"report_results"},
			Exception:    machine.MayThrowTo("report_results"),
			Run: func(rc *machine.RunContext[Frozen, Mutable]) machine.Transition {
				fetcher := dep[archiveFetcher](rc, "fetch_archive")
				rec, err := fetcher.Lookup(rc.Context(), rc.Frozen().ArchiveRunID)
				if err != nil {
					panic(err)
				}
				if rec.ArtifactPath == "" {
					return rc.Failure("report_results", "archive "+rc.Frozen().ArchiveRunID+" has no stored artifact")
				}
				rc.Mutable().ArtifactPath = rec.ArtifactPath
				return rc.Success("create_restore_directory", rec.ArtifactPath)
			},
		},
		{
			Name:         "create_restore_directory",
			Overview:     "Creates the per-run staging directory the recovered artifacts unpack into.",
			HappyPaths:   []string{"move_to_restore_directory"},
			UnhappyPaths: []string{"remove_restore_directory"},
			Exception:    machine.MayThrowTo("remove_restore_directory"),
			Run: func(rc *machine.RunContext[Frozen, Mutable]) machine.Transition {
				staging := dep[directoryCreator](rc, "create_restore_directory")
				dir, err := staging.CreateDirectory(runID(rc), "restore")
				if err != nil {
					panic(err)
				}
				rc.Mutable().RestoreDir = dir
				return rc.Success("move_to_restore_directory", dir)
			},
		},
		{
			Name:         "move_to_restore_directory",
			Overview:     "Copies the encrypted archive out of long-term storage into the staging directory.",
			HappyPaths:   []string{"decrypt"},
			UnhappyPaths: []string{"remove_restore_directory"},
			Exception:    machine.MayThrowTo("remove_restore_directory"),
			Run: func(rc *machine.RunContext[Frozen, Mutable]) machine.Transition {
				cp := dep[copier](rc, "move_to_restore_directory")
				dest := filepath.Join(rc.Mutable().RestoreDir, filepath.Base(rc.Mutable().ArtifactPath))
				if _, err := cp.Copy(rc.Mutable().ArtifactPath, dest); err != nil {
					panic(err)
				}
				rc.Mutable().LocalArtifact = dest
				return rc.Success("decrypt", dest)
			},
		},
		{
			Name:         "decrypt",
			Overview:     "Decrypts the staged archive back into a tarball.",
			HappyPaths:   []string{"decompress"},
			UnhappyPaths: []string{"remove_restore_directory"},
			Exception:    machine.MayThrowTo("remove_restore_directory"),
			Run: func(rc *machine.RunContext[Frozen, Mutable]) machine.Transition {
				dec := dep[decryptor](rc, "decrypt")
				dest := rc.Mutable().LocalArtifact + ".tar.gz"
				if err := dec.Decrypt(rc.Mutable().LocalArtifact, dest); err != nil {
					panic(err)
				}
				rc.Mutable().TarballPath = dest
				return rc.Success("decompress", dest)
			},
		},
		{
			Name:         "decompress",
			Overview:     "Unpacks the tarball into the schema and data dump files.",
			HappyPaths:   []string{"restore_schema"},
			UnhappyPaths: []string{"remove_restore_directory"},
			Exception:    machine.MayThrowTo("remove_restore_directory"),
			Run: func(rc *machine.RunContext[Frozen, Mutable]) machine.Transition {
				unpack := dep[decompressor](rc, "decompress")
				dumpDir := filepath.Join(rc.Mutable().RestoreDir, "pgdump")
				if err := unpack.Decompress(rc.Mutable().TarballPath, dumpDir); err != nil {
					panic(err)
				}
				rc.Mutable().DumpDir = dumpDir
				rc.Mutable().SchemaPath = filepath.Join(dumpDir, "schema.sql")
				rc.Mutable().DataPath = filepath.Join(dumpDir, "data.sql")
				return rc.Success("restore_schema", dumpDir)
			},
		},
		{
			Name:         "restore_schema",
			Overview:     "Applies the schema-only dump to the target database.",
			HappyPaths:   []string{"restore_data"},
			UnhappyPaths: []string{"remove_restore_directory"},
			Exception:    machine.MayThrowTo("remove_restore_directory"),
			Run: func(rc *machine.RunContext[Frozen, Mutable]) machine.Transition {
				rest := dep[restorer](rc, "restore_schema")
				if err := rest.RestoreSchema(rc.Context(), rc.Frozen().Database, rc.Mutable().SchemaPath); err != nil {
					panic(err)
				}
				return rc.Success("restore_data", rc.Mutable().SchemaPath)
			},
		},
		{
			Name:         "restore_data",
			Overview:     "Applies the data-only dump to the target database.",
			HappyPaths:   []string{"remove_restore_directory"},
			UnhappyPaths: []string{"remove_restore_directory"},
			Exception:    machine.MayThrowTo("remove_restore_directory"),
			Run: func(rc *machine.RunContext[Frozen, Mutable]) machine.Transition {
				rest := dep[restorer](rc, "restore_data")
				if err := rest.RestoreData(rc.Context(), rc.Frozen().Database, rc.Mutable().DataPath); err != nil {
					panic(err)
				}
				return rc.Success("remove_restore_directory", rc.Mutable().DataPath)
			},
		},
		{
			Name:         "remove_restore_directory",
			Overview:     "Removes the staging directory and everything unpacked into it, if it exists.",
			HappyPaths:   []string{"report_results"},
			UnhappyPaths: []string{"report_results"},
			Exception:    machine.MayThrowTo("report_results"),
			Run: func(rc *machine.RunContext[Frozen, Mutable]) machine.Transition {
				remover := dep[directoryRemover](rc, "remove_restore_directory")
				if rc.Mutable().RestoreDir != "" {
					if err := remover.RemoveDirectory(rc.Mutable().RestoreDir); err != nil {
						panic(err)
					}
				}
				return rc.Success("report_results", rc.Mutable().RestoreDir)
			},
		},
		{
			Name:       "report_results",
			Overview:   "Terminal node: the accumulated stream is returned to the caller of Run.",
			IsTerminal: true,
			Run: func(rc *machine.RunContext[Frozen, Mutable]) machine.Transition {
				return rc.Success("", nil)
			},
		},
	}

	return machine.NewKind(KindName, "Restores one archived database: fetch, decrypt, unpack, apply schema and data.", failurePrefix, nodes, reg)
}

func dep[T any](rc *machine.RunContext[Frozen, Mutable], key string) T {
	v, err := machine.Get[T](rc.Dependencies(), KindName, rc.Node(), key)
	if err != nil {
		panic(err)
	}
	return v
}

func runID(rc *machine.RunContext[Frozen, Mutable]) string {
	return rc.Frozen().ClientID + "." + rc.Frozen().Database + ".restore"
}
