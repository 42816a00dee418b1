package backup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightvault/archivist/catalog"
	"github.com/nightvault/archivist/machine"
	"github.com/nightvault/archivist/machine/backup"
)

// The doubles below satisfy the capability interfaces the node bodies
// resolve through the dependency container, so every scenario runs without
// a filesystem, subprocess, or database. Each failure scenario substitutes
// exactly one key and leaves the rest of the wiring untouched.

type stubStaging struct{}

func (stubStaging) CreateDirectory(runID, dir string) (string, error) { return "/tmp/" + dir, nil }
func (stubStaging) RemoveFile(path string) error                      { return nil }
func (stubStaging) RemoveDirectory(path string) error                 { return nil }

type failingStaging struct{}

func (failingStaging) CreateDirectory(runID, dir string) (string, error) {
	return "", errors.New("unit test failure")
}

type stubDumper struct{}

func (stubDumper) DumpSchema(ctx context.Context, database, destPath string) error { return nil }
func (stubDumper) DumpData(ctx context.Context, database, destPath string) error   { return nil }

type stubArchiver struct{}

func (stubArchiver) Compress(srcDir, destPath string) error { return nil }

type failingArchiver struct{}

func (failingArchiver) Compress(srcDir, destPath string) error {
	return errors.New("unit test failure")
}

type stubEncryptor struct{}

func (stubEncryptor) Encrypt(srcPath, destPath string) error { return nil }

type stubMover struct{}

func (stubMover) CreateDirectory(runID, dir string) (string, error) { return "/srv/" + dir, nil }
func (stubMover) Move(srcPath, destPath string) (int64, error)      { return 4096, nil }

type stubRecorder struct {
	records []catalog.Record
}

func (r *stubRecorder) RecordPlacement(ctx context.Context, rec catalog.Record) error {
	r.records = append(r.records, rec)
	return nil
}

const testPrefix = "[acme/db-host/orders]"

func archiveDeps() *machine.Dependencies {
	deps := machine.NewDependencies(nil)
	staging := stubStaging{}
	dump := stubDumper{}
	mv := stubMover{}

	deps.Set("create_intermediate_directory", staging)
	deps.Set("create_pg_dump_directory", staging)
	deps.Set("backup_schema", dump)
	deps.Set("backup_data", dump)
	deps.Set("compress", stubArchiver{})
	deps.Set("encrypt", stubEncryptor{})
	deps.Set("create_storage_directory", mv)
	deps.Set("move_backup", mv)
	deps.Set("move_backup.catalog", &stubRecorder{})
	deps.Set("remove_encrypted_backup", staging)
	deps.Set("remove_tarball", staging)
	deps.Set("remove_data_file", staging)
	deps.Set("remove_schema_file", staging)
	deps.Set("remove_pg_dump_directory", staging)
	deps.Set("remove_intermediate_directory", staging)
	return deps
}

func runArchive(t *testing.T, deps *machine.Dependencies) machine.Stream {
	t.Helper()
	kind, err := backup.NewArchiveKind(testPrefix, nil)
	require.NoError(t, err)

	frozen := backup.ArchiveFrozen{ClientID: "acme", Database: "orders"}
	var mutable backup.ArchiveMutable
	stream, err := machine.Run(context.Background(), kind, "acme.orders", frozen, &mutable, deps, nil, nil)
	require.NoError(t, err)
	return stream
}

func nodeNames(stream machine.Stream) []string {
	names := make([]string, len(stream))
	for i, r := range stream {
		names[i] = r.Node
	}
	return names
}

func TestHappyPathRunsAllFifteenNodes(t *testing.T) {
	stream := runArchive(t, archiveDeps())

	want := []string{
		"BackupArchive.create_intermediate_directory",
		"BackupArchive.create_pg_dump_directory",
		"BackupArchive.backup_schema",
		"BackupArchive.backup_data",
		"BackupArchive.compress",
		"BackupArchive.encrypt",
		"BackupArchive.create_storage_directory",
		"BackupArchive.move_backup",
		"BackupArchive.remove_encrypted_backup",
		"BackupArchive.remove_tarball",
		"BackupArchive.remove_data_file",
		"BackupArchive.remove_schema_file",
		"BackupArchive.remove_pg_dump_directory",
		"BackupArchive.remove_intermediate_directory",
		"BackupArchive.report_results",
	}
	assert.Equal(t, want, nodeNames(stream))

	for _, r := range stream {
		assert.True(t, r.IsSuccess(), "expected success at %s", r.Node)
	}
	assert.Empty(t, stream.Failures())
}

func TestHappyPathRecordsArtifactInCatalog(t *testing.T) {
	deps := archiveDeps()
	recorder := &stubRecorder{}
	deps.Set("move_backup.catalog", recorder)

	runArchive(t, deps)

	require.Len(t, recorder.records, 1)
	rec := recorder.records[0]
	assert.Equal(t, "acme.orders", rec.RunID)
	assert.Equal(t, "orders", rec.Database)
	assert.Equal(t, int64(4096), rec.ByteSize)
	assert.Equal(t, catalog.StatusSucceeded, rec.Status)
}

func TestEarlyFailureRunsOnlyItsCleanup(t *testing.T) {
	deps := archiveDeps()
	deps.Set("create_intermediate_directory", failingStaging{})

	stream := runArchive(t, deps)

	require.Len(t, stream, 3)
	assert.True(t, stream[0].IsFailure())
	assert.Equal(t, "BackupArchive.create_intermediate_directory", stream[0].Node)
	assert.Equal(t, testPrefix+" unrecognized exception: unit test failure", stream[0].Message)

	assert.Equal(t, "BackupArchive.remove_intermediate_directory", stream[1].Node)
	assert.True(t, stream[1].IsSuccess())
	assert.Equal(t, "BackupArchive.report_results", stream[2].Node)
	assert.True(t, stream[2].IsSuccess())
}

func TestMidPathFailureTraversesFullCleanupChain(t *testing.T) {
	deps := archiveDeps()
	deps.Set("compress", failingArchiver{})

	stream := runArchive(t, deps)

	require.Len(t, stream, 11)
	for i := 0; i < 4; i++ {
		assert.True(t, stream[i].IsSuccess(), "expected success at index %d", i)
	}
	assert.True(t, stream[4].IsFailure())
	assert.Equal(t, "BackupArchive.compress", stream[4].Node)
	assert.Equal(t, testPrefix+" unrecognized exception: unit test failure", stream[4].Message)

	want := []string{
		"BackupArchive.remove_tarball",
		"BackupArchive.remove_data_file",
		"BackupArchive.remove_schema_file",
		"BackupArchive.remove_pg_dump_directory",
		"BackupArchive.remove_intermediate_directory",
		"BackupArchive.report_results",
	}
	assert.Equal(t, want, nodeNames(stream[5:]))
	for _, r := range stream[5:] {
		assert.True(t, r.IsSuccess(), "cleanup must succeed at %s", r.Node)
	}
}

func TestCleanupFailureStillReachesReportResults(t *testing.T) {
	deps := archiveDeps()
	deps.Set("encrypt", failingEncryptor{})
	deps.Set("remove_tarball", brokenRemover{})

	stream := runArchive(t, deps)

	// remove_tarball's own exception routes to remove_data_file, so the
	// chain continues and the run still terminates at report_results with
	// two failures in the stream: the encrypt failure and the cleanup one.
	assert.Equal(t, "BackupArchive.report_results", stream[len(stream)-1].Node)
	require.Len(t, stream.Failures(), 2)
	assert.Equal(t, "BackupArchive.encrypt", stream.Failures()[0].Node)
	assert.Equal(t, "BackupArchive.remove_tarball", stream.Failures()[1].Node)
}

type failingEncryptor struct{}

func (failingEncryptor) Encrypt(srcPath, destPath string) error {
	return errors.New("unit test failure")
}

type brokenRemover struct{}

func (brokenRemover) RemoveFile(path string) error { return errors.New("device busy") }
