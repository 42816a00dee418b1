package fleet_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightvault/archivist/machine"
	"github.com/nightvault/archivist/machine/backup"
	"github.com/nightvault/archivist/machine/fleet"
)

func registryWithBackup(t *testing.T) *machine.Registry {
	t.Helper()
	reg := machine.NewRegistry()

	archiveKind, err := backup.NewArchiveKind("[archive]", nil)
	require.NoError(t, err)
	reg.Register(archiveKind)

	clientKind, err := backup.NewClientKind("[client]", reg)
	require.NoError(t, err)
	reg.Register(clientKind)

	return reg
}

func runFleet(t *testing.T, clients []string, runner fleet.ClientRunner) machine.Stream {
	t.Helper()
	kind, err := fleet.NewKind("[fleet]", registryWithBackup(t))
	require.NoError(t, err)

	deps := machine.NewDependencies(nil)
	deps.Set("backup_each_client", runner)

	var mutable fleet.Mutable
	stream, err := machine.Run(context.Background(), kind, "nightly", fleet.Frozen{Clients: clients}, &mutable, deps, nil, nil)
	require.NoError(t, err)
	return stream
}

func TestFleetSplicesEachClientStreamInOrder(t *testing.T) {
	runner := func(rc *machine.RunContext[fleet.Frozen, fleet.Mutable], clientID string) (machine.Stream, error) {
		return machine.Stream{
			machine.NewSuccess("Backup.fetch_databases", nil),
			machine.NewSuccess("Backup.report_results", nil),
		}, nil
	}

	stream := runFleet(t, []string{"acme", "globex"}, runner)

	// Two two-entry client streams, then backup_each_client's own Success,
	// then report_results.
	require.Len(t, stream, 6)
	assert.Equal(t, "Backup.fetch_databases", stream[0].Node)
	assert.Equal(t, "Backup.report_results", stream[1].Node)
	assert.Equal(t, "Backup.fetch_databases", stream[2].Node)
	assert.Equal(t, "BackupFleet.backup_each_client", stream[4].Node)
	assert.True(t, stream[4].IsSuccess())
	assert.Equal(t, 2, stream[4].Payload)
	assert.Equal(t, "BackupFleet.report_results", stream[5].Node)
}

func TestFleetProceedsPastPartialClientFailure(t *testing.T) {
	runner := func(rc *machine.RunContext[fleet.Frozen, fleet.Mutable], clientID string) (machine.Stream, error) {
		if clientID == "globex" {
			return machine.Stream{
				machine.NewSuccess("Backup.fetch_databases", nil),
				machine.NewFailure("BackupArchive.compress", "[globex] unrecognized exception: disk full", nil),
				machine.NewSuccess("Backup.report_results", nil),
			}, nil
		}
		return machine.Stream{machine.NewSuccess("Backup.report_results", nil)}, nil
	}

	stream := runFleet(t, []string{"acme", "globex", "initech"}, runner)

	// The one failing sub-result propagates into the fleet stream, but
	// every fleet-level node still reports Success: exit code convention is
	// the count of Failure entries, here exactly one.
	require.Len(t, stream.Failures(), 1)
	assert.Equal(t, "BackupArchive.compress", stream.Failures()[0].Node)

	last := stream[len(stream)-1]
	assert.Equal(t, "BackupFleet.report_results", last.Node)
	assert.True(t, last.IsSuccess())
}

func TestFleetRecordsAbortedClientRunAsFailure(t *testing.T) {
	runner := func(rc *machine.RunContext[fleet.Frozen, fleet.Mutable], clientID string) (machine.Stream, error) {
		return nil, errors.New("client machine aborted")
	}

	stream := runFleet(t, []string{"acme"}, runner)

	require.Len(t, stream.Failures(), 1)
	assert.Contains(t, stream.Failures()[0].Message, "nested Backup run for acme aborted")
}
