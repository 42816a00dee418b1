// Package fleet implements BackupFleet, the outermost machine of a batch
// window: one node that invokes the per-client Backup machine once per
// configured client, splicing every sub-run's result stream into its own.
// Partial failure below never pushes the fleet onto an unhappy path; the
// process-level caller reads the failure count out of the final stream.
package fleet

import (
	"github.com/nightvault/archivist/machine"
	"github.com/nightvault/archivist/machine/backup"
)

// KindName is the qualified name the BackupFleet machine registers under.
const KindName = "BackupFleet"

// Frozen is BackupFleet's read-only input section: the clients this batch
// window covers, in the order their machines run.
type Frozen struct {
	Clients []string
}

// Mutable is BackupFleet's scratch section.
type Mutable struct {
	// ClientsRun counts how many per-client machines completed, aborted
	// or not.
	ClientsRun int
}

// ClientRunner constructs and runs one per-client Backup machine, returning
// its result stream. The fleet node stays ignorant of the Backup machine's
// state and dependency types; the entry point (or a test) closes over them
// here.
type ClientRunner func(rc *machine.RunContext[Frozen, Mutable], clientID string) (machine.Stream, error)

// NewKind builds and validates the fleet machine. reg must already hold the
// per-client Backup kind, since backup_each_client names it as
// invokes_machine.
func NewKind(failurePrefix string, reg *machine.Registry) (*machine.Kind[Frozen, Mutable], error) {
	nodes := []*machine.NodeDescriptor[Frozen, Mutable]{
		{
			Name:           "backup_each_client",
			Overview:       "Runs the Backup machine once per configured client, sequentially, splicing each sub-run's stream into this one.",
			IsEntry:        true,
			HappyPaths:     []string{"report_results"},
			InvokesMachine: backup.ClientKindName,
			Run: func(rc *machine.RunContext[Frozen, Mutable]) machine.Transition {
				runner, err := machine.Get[ClientRunner](rc.Dependencies(), KindName, rc.Node(), "backup_each_client")
				if err != nil {
					panic(err)
				}

				var spliced machine.Stream
				for _, clientID := range rc.Frozen().Clients {
					sub, runErr := runner(rc, clientID)
					spliced = append(spliced, sub...)
					if runErr != nil {
						spliced = append(spliced, machine.NewFailure(KindName+".backup_each_client",
							"nested Backup run for "+clientID+" aborted: "+runErr.Error(), runErr))
					}
					rc.Mutable().ClientsRun++
				}
				return rc.SuccessWithSpliced("report_results", rc.Mutable().ClientsRun, spliced)
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

	return machine.NewKind(KindName, "Archives every database of every configured client in one batch window.", failurePrefix, nodes, reg)
}
