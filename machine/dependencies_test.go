package machine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightvault/archivist/machine"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Debugf(format string, args ...any) { l.lines = append(l.lines, format) }
func (l *recordingLogger) Errorf(format string, args ...any) { l.lines = append(l.lines, format) }

// fakeCapability is a LoggerAware capability double.
type fakeCapability struct {
	logger machine.Logger
	calls  int
}

func (f *fakeCapability) SetLogger(logger machine.Logger) { f.logger = logger }
func (f *fakeCapability) Execute() error                  { f.calls++; return nil }

func TestGetResolvesTypedCapability(t *testing.T) {
	deps := machine.NewDependencies(nil)
	cap := &fakeCapability{}
	deps.Set("create_pg_dump_directory", cap)

	got, err := machine.Get[*fakeCapability](deps, "Backup", "Backup.create_pg_dump_directory", "create_pg_dump_directory")
	require.NoError(t, err)
	assert.Same(t, cap, got)
}

func TestGetAttachesLoggerToLoggerAwareCapability(t *testing.T) {
	logger := &recordingLogger{}
	deps := machine.NewDependencies(logger)
	cap := &fakeCapability{}
	deps.Set("encrypt", cap)

	_, err := machine.Get[*fakeCapability](deps, "Backup", "Backup.encrypt", "encrypt")
	require.NoError(t, err)
	assert.Same(t, machine.Logger(logger), cap.logger)
}

func TestGetUnboundKeyIsRuntimeError(t *testing.T) {
	deps := machine.NewDependencies(nil)

	_, err := machine.Get[*fakeCapability](deps, "Backup", "Backup.encrypt", "encrypt")
	var runtimeErr *machine.RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	assert.Contains(t, runtimeErr.Message, "encrypt")
}

func TestGetWrongTypeIsRuntimeError(t *testing.T) {
	deps := machine.NewDependencies(nil)
	deps.Set("encrypt", "not a capability")

	_, err := machine.Get[*fakeCapability](deps, "Backup", "Backup.encrypt", "encrypt")
	var runtimeErr *machine.RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
}

// Two keys bound to one capability can be substituted independently: the
// per-site granularity the container exists to provide.
func TestPerSiteSubstitutionLeavesOtherKeysUntouched(t *testing.T) {
	shared := &fakeCapability{}
	deps := machine.NewDependencies(nil)
	deps.Set("create_pg_dump_directory", shared)
	deps.Set("create_intermediate_directory", shared)

	failing := &fakeCapability{}
	deps.Set("create_pg_dump_directory", failing)

	a, err := machine.Get[*fakeCapability](deps, "Backup", "n", "create_pg_dump_directory")
	require.NoError(t, err)
	b, err := machine.Get[*fakeCapability](deps, "Backup", "n", "create_intermediate_directory")
	require.NoError(t, err)

	assert.Same(t, failing, a)
	assert.Same(t, shared, b)
}

func TestHasReportsBoundKeys(t *testing.T) {
	deps := machine.NewDependencies(nil)
	assert.False(t, deps.Has("compress"))
	deps.Set("compress", &fakeCapability{})
	assert.True(t, deps.Has("compress"))
}
