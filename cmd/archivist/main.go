// Command archivist runs the nightly archival workflow: one Backup machine
// per named client, or the BackupFleet machine when more than one client is
// given. The process exit code is the number of Failure entries in the
// final result stream — 0 means every node of every machine succeeded.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nightvault/archivist/catalog"
	"github.com/nightvault/archivist/command"
	"github.com/nightvault/archivist/config"
	"github.com/nightvault/archivist/emit"
	"github.com/nightvault/archivist/machine"
	"github.com/nightvault/archivist/machine/backup"
	"github.com/nightvault/archivist/machine/fleet"
	"github.com/nightvault/archivist/repository"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "/etc/archivist.yaml", "path to the archivist configuration file")
	keyfilePath := flag.String("keyfile", "/etc/fernet.key", "path to the symmetric keyfile")
	tenant := flag.String("tenant", "", "tenant identifier, prepended to every failure prefix")
	authority := flag.String("authority", "", "authority host override for database connections")
	catalogPath := flag.String("catalog", "/var/lib/archivist/catalog.db", "path to the sqlite run catalog")
	retentionDays := flag.Int("retention-days", 30, "days to keep archives before end-of-month pruning")
	jsonLogs := flag.Bool("json", false, "emit JSON-lines events instead of text")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address while running")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <client> [<client>...]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	clients := flag.Args()
	if len(clients) == 0 {
		flag.Usage()
		return 1
	}

	key, err := config.LoadKey(*keyfilePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := config.Load(*configPath, key)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	store, err := catalog.NewSQLiteStore(*catalogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer store.Close()

	emitter := emit.NewLogEmitter(os.Stderr, *jsonLogs)
	metrics := machine.NewMetrics(prometheus.DefaultRegisterer)
	if *metricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				fmt.Fprintln(os.Stderr, "metrics server:", err)
			}
		}()
	}

	stream, err := runClients(cfg, key, store, clients, *tenant, *authority, *retentionDays, emitter, metrics)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	failures := stream.Failures()
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "FAILED %s: %s\n", f.Node, f.Message)
	}
	return len(failures)
}

func runClients(cfg *config.Config, key []byte, store catalog.Store, clients []string,
	tenant, authority string, retentionDays int, emitter emit.Emitter, metrics *machine.Metrics) (machine.Stream, error) {
	ctx := context.Background()
	reg := machine.NewRegistry()

	prefixFor := func(clientID string) string {
		if tenant != "" {
			return "[" + tenant + "/" + clientID + "]"
		}
		return "[" + clientID + "]"
	}

	runOneClient := func(clientID string) (machine.Stream, error) {
		conn, err := connectionFor(cfg, key, store, authority)
		if err != nil {
			return nil, err
		}

		archiveKind, err := backup.NewArchiveKind(prefixFor(clientID), nil)
		if err != nil {
			return nil, err
		}
		reg.Register(archiveKind)

		clientKind, err := backup.NewClientKind(prefixFor(clientID), reg)
		if err != nil {
			return nil, err
		}

		discovery := repository.NewDiscovery("psql", conn.Host, conn.Port, conn.User, conn.Password)
		cat := repository.NewCatalog(store)
		deps := backup.NewClientDependencies(nil, discovery, cat, archiveKind, func() *machine.Dependencies {
			return backup.NewArchiveDependencies(nil, conn)
		})

		frozen := backup.ClientFrozen{ClientID: clientID, RetentionDays: retentionDays}
		var mutable backup.ClientMutable
		return machine.Run(ctx, clientKind, "backup-"+clientID, frozen, &mutable, deps, emitter, metrics)
	}

	if len(clients) == 1 {
		return runOneClient(clients[0])
	}

	// Several clients: wrap each per-client run in the fleet machine so the
	// final stream is one contiguous record of the whole batch window.
	archiveKind, err := backup.NewArchiveKind("[fleet]", nil)
	if err != nil {
		return nil, err
	}
	reg.Register(archiveKind)
	clientKind, err := backup.NewClientKind("[fleet]", reg)
	if err != nil {
		return nil, err
	}
	reg.Register(clientKind)

	fleetKind, err := fleet.NewKind("[fleet]", reg)
	if err != nil {
		return nil, err
	}

	deps := machine.NewDependencies(nil)
	deps.Set("backup_each_client", fleet.ClientRunner(
		func(rc *machine.RunContext[fleet.Frozen, fleet.Mutable], clientID string) (machine.Stream, error) {
			return runOneClient(clientID)
		}))

	var mutable fleet.Mutable
	return machine.Run(ctx, fleetKind, "fleet-nightly", fleet.Frozen{Clients: clients}, &mutable, deps, emitter, metrics)
}

// connectionFor assembles the capability wiring parameters from the loaded
// configuration; the database password stays a command.Secret end to end.
func connectionFor(cfg *config.Config, key []byte, store catalog.Store, authority string) (backup.ArchiveConnection, error) {
	host, err := cfg.GetString("cleartext.database.host")
	if err != nil {
		return backup.ArchiveConnection{}, err
	}
	if authority != "" {
		host = authority
	}
	port, err := cfg.GetString("cleartext.database.port")
	if err != nil {
		return backup.ArchiveConnection{}, err
	}
	user, err := cfg.GetString("cleartext.database.user")
	if err != nil {
		return backup.ArchiveConnection{}, err
	}
	password, err := cfg.Get("secrets.database.password")
	if err != nil {
		return backup.ArchiveConnection{}, err
	}
	secret, ok := password.(command.Secret)
	if !ok {
		return backup.ArchiveConnection{}, fmt.Errorf("secrets.database.password is not a secret value")
	}
	stagingRoot, err := cfg.GetString("cleartext.paths.staging_root")
	if err != nil {
		return backup.ArchiveConnection{}, err
	}
	storageRoot, err := cfg.GetString("cleartext.paths.storage_root")
	if err != nil {
		return backup.ArchiveConnection{}, err
	}

	return backup.ArchiveConnection{
		PgDumpBinary: "pg_dump",
		Host:         host,
		Port:         port,
		User:         user,
		Password:     secret,
		StagingRoot:  stagingRoot,
		StorageRoot:  storageRoot,
		EncryptKey:   key,
		Store:        store,
	}, nil
}
