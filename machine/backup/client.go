package backup

import (
	"time"

	"github.com/nightvault/archivist/machine"
)

// ClientKindName is the qualified name the per-client Backup machine
// registers under; BackupFleet's backup_each_client node names this as its
// InvokesMachine reference.
const ClientKindName = "Backup"

// NewClientKind builds and validates the per-client machine: discover which
// databases need archiving, invoke BackupArchive once per database
// (splicing each sub-run's stream), and fall back to pruning stale
// archives when there is nothing new to back up.
func NewClientKind(failurePrefix string, reg *machine.Registry) (*machine.Kind[ClientFrozen, ClientMutable], error) {
	nodes := []*machine.NodeDescriptor[ClientFrozen, ClientMutable]{
		{
			Name:         "fetch_databases",
			Overview:     "Discovers the databases on the client's server that need archiving.",
			IsEntry:      true,
			HappyPaths:   []string{"backup_each_database"},
			UnhappyPaths: []string{"end_of_month_retention"},
			Exception:    machine.MayThrowTo("end_of_month_retention"),
			Run: func(rc *machine.RunContext[ClientFrozen, ClientMutable]) machine.Transition {
				discovery, err := machine.Get[discoverer](rc.Dependencies(), ClientKindName, rc.Node(), "fetch_databases")
				if err != nil {
					panic(err)
				}
				names, err := discovery.Databases(rc.Context())
				if err != nil {
					panic(err)
				}
				if len(names) == 0 {
					return rc.Failure("end_of_month_retention", "no databases to backup")
				}
				rc.Mutable().Databases = names
				return rc.Success("backup_each_database", names)
			},
		},
		{
			Name:           "backup_each_database",
			Overview:       "Runs BackupArchive once per discovered database, sequentially, splicing each sub-run's stream into this one.",
			HappyPaths:     []string{"report_results"},
			InvokesMachine: ArchiveKindName,
			Run: func(rc *machine.RunContext[ClientFrozen, ClientMutable]) machine.Transition {
				archiveKind, err := machine.Get[*machine.Kind[ArchiveFrozen, ArchiveMutable]](
					rc.Dependencies(), ClientKindName, rc.Node(), "backup_each_database.kind")
				if err != nil {
					panic(err)
				}
				depsFactory, err := machine.Get[func() *machine.Dependencies](
					rc.Dependencies(), ClientKindName, rc.Node(), "backup_each_database.deps_factory")
				if err != nil {
					panic(err)
				}

				var spliced machine.Stream
				for _, db := range rc.Mutable().Databases {
					frozen := ArchiveFrozen{ClientID: rc.Frozen().ClientID, Database: db}
					var mutable ArchiveMutable
					sub, runErr := machine.Run(rc.Context(), archiveKind, rc.Frozen().ClientID+"."+db,
						frozen, &mutable, depsFactory(), nil, nil)
					spliced = append(spliced, sub...)
					if runErr != nil {
						spliced = append(spliced, machine.NewFailure(ClientKindName+".backup_each_database",
							"nested BackupArchive run for "+db+" aborted: "+runErr.Error(), runErr))
					}
				}
				return rc.SuccessWithSpliced("report_results", len(rc.Mutable().Databases), spliced)
			},
		},
		{
			Name:       "end_of_month_retention",
			Overview:   "Prunes cataloged archives past the configured retention window.",
			HappyPaths: []string{"report_results"},
			Exception:  machine.MayThrowTo("report_results"),
			Run: func(rc *machine.RunContext[ClientFrozen, ClientMutable]) machine.Transition {
				cat, err := machine.Get[pruner](rc.Dependencies(), ClientKindName, rc.Node(), "end_of_month_retention")
				if err != nil {
					panic(err)
				}
				days := rc.Frozen().RetentionDays
				if days <= 0 {
					days = 30
				}
				cutoff := time.Now().AddDate(0, 0, -days)
				pruned, err := cat.PruneOlderThan(rc.Context(), rc.Frozen().ClientID, cutoff)
				if err != nil {
					panic(err)
				}
				rc.Mutable().Pruned = pruned
				return rc.Success("report_results", pruned)
			},
		},
		{
			Name:       "report_results",
			Overview:   "Terminal node: the accumulated stream is returned to the caller of Run.",
			IsTerminal: true,
			Run: func(rc *machine.RunContext[ClientFrozen, ClientMutable]) machine.Transition {
				return rc.Success("", nil)
			},
		},
	}

	return machine.NewKind(ClientKindName, "Archives every database for one client and prunes stale archives.", failurePrefix, nodes, reg)
}
