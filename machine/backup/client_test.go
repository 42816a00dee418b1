package backup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightvault/archivist/machine"
	"github.com/nightvault/archivist/machine/backup"
)

type stubDiscovery struct {
	names []string
	err   error
}

func (d stubDiscovery) Databases(ctx context.Context) ([]string, error) { return d.names, d.err }

type stubPruner struct {
	pruned int
	calls  int
}

func (p *stubPruner) PruneOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	p.calls++
	return p.pruned, nil
}

const clientPrefix = "[acme/db-host]"

func clientDeps(t *testing.T, discovery stubDiscovery, pruner *stubPruner) *machine.Dependencies {
	t.Helper()
	archiveKind, err := backup.NewArchiveKind(testPrefix, nil)
	require.NoError(t, err)

	deps := machine.NewDependencies(nil)
	deps.Set("fetch_databases", discovery)
	deps.Set("end_of_month_retention", pruner)
	deps.Set("backup_each_database.kind", archiveKind)
	deps.Set("backup_each_database.deps_factory", func() *machine.Dependencies { return archiveDeps() })
	return deps
}

func runClient(t *testing.T, deps *machine.Dependencies) machine.Stream {
	t.Helper()
	reg := machine.NewRegistry()
	archiveKind, err := backup.NewArchiveKind(testPrefix, nil)
	require.NoError(t, err)
	reg.Register(archiveKind)

	kind, err := backup.NewClientKind(clientPrefix, reg)
	require.NoError(t, err)

	frozen := backup.ClientFrozen{ClientID: "acme", RetentionDays: 30}
	var mutable backup.ClientMutable
	stream, err := machine.Run(context.Background(), kind, "acme", frozen, &mutable, deps, nil, nil)
	require.NoError(t, err)
	return stream
}

func TestEmptyDatabaseListIsDomainFailureRoutedToRetention(t *testing.T) {
	pruner := &stubPruner{pruned: 2}
	stream := runClient(t, clientDeps(t, stubDiscovery{}, pruner))

	require.Len(t, stream, 3)
	assert.True(t, stream[0].IsFailure())
	assert.Equal(t, "Backup.fetch_databases", stream[0].Node)
	assert.Equal(t, clientPrefix+" no databases to backup", stream[0].Message)

	assert.Equal(t, "Backup.end_of_month_retention", stream[1].Node)
	assert.True(t, stream[1].IsSuccess())
	assert.Equal(t, 1, pruner.calls)

	assert.Equal(t, "Backup.report_results", stream[2].Node)
	assert.Len(t, stream.Failures(), 1)
}

func TestDiscoveryExceptionAlsoRoutesToRetention(t *testing.T) {
	pruner := &stubPruner{}
	stream := runClient(t, clientDeps(t, stubDiscovery{err: errors.New("connection refused")}, pruner))

	require.Len(t, stream, 3)
	assert.True(t, stream[0].IsFailure())
	assert.Contains(t, stream[0].Message, "unrecognized exception: connection refused")
	assert.Equal(t, 1, pruner.calls)
}

func TestNestedArchiveStreamsSpliceIntoClientStream(t *testing.T) {
	discovery := stubDiscovery{names: []string{"orders", "billing"}}
	stream := runClient(t, clientDeps(t, discovery, &stubPruner{}))

	// fetch_databases, then two complete fifteen-node archive sub-streams
	// spliced contiguously, then backup_each_database's own Success, then
	// report_results.
	require.Len(t, stream, 1+15+15+1+1)

	assert.Equal(t, "Backup.fetch_databases", stream[0].Node)
	assert.Equal(t, "BackupArchive.create_intermediate_directory", stream[1].Node)
	assert.Equal(t, "BackupArchive.report_results", stream[15].Node)
	assert.Equal(t, "BackupArchive.create_intermediate_directory", stream[16].Node)
	assert.Equal(t, "BackupArchive.report_results", stream[30].Node)
	assert.Equal(t, "Backup.backup_each_database", stream[31].Node)
	assert.True(t, stream[31].IsSuccess())
	assert.Equal(t, "Backup.report_results", stream[32].Node)
	assert.Empty(t, stream.Failures())
}

func TestNestedPartialFailureLeavesOuterMachineOnHappyPath(t *testing.T) {
	archiveKind, err := backup.NewArchiveKind(testPrefix, nil)
	require.NoError(t, err)

	deps := machine.NewDependencies(nil)
	deps.Set("fetch_databases", stubDiscovery{names: []string{"orders"}})
	deps.Set("end_of_month_retention", &stubPruner{})
	deps.Set("backup_each_database.kind", archiveKind)
	deps.Set("backup_each_database.deps_factory", func() *machine.Dependencies {
		sub := archiveDeps()
		sub.Set("compress", failingArchiver{})
		return sub
	})

	stream := runClient(t, deps)

	// The sub-run's eleven results splice in ahead of the invoking node's
	// own Success: partial failure below never pushes the outer machine
	// onto its unhappy paths.
	require.Len(t, stream, 1+11+1+1)
	assert.Equal(t, "BackupArchive.compress", stream[5].Node)
	assert.True(t, stream[5].IsFailure())
	assert.Equal(t, "Backup.backup_each_database", stream[12].Node)
	assert.True(t, stream[12].IsSuccess())
	assert.Equal(t, "Backup.report_results", stream[13].Node)
	assert.Len(t, stream.Failures(), 1)
}
