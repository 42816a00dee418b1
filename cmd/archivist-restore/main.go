// Command archivist-restore runs the Restore machine for one cataloged
// archive: fetch, decrypt, unpack, and apply the recovered schema and data
// dumps. The process exit code is the number of Failure entries in the
// result stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nightvault/archivist/catalog"
	"github.com/nightvault/archivist/command"
	"github.com/nightvault/archivist/config"
	"github.com/nightvault/archivist/emit"
	"github.com/nightvault/archivist/machine"
	"github.com/nightvault/archivist/machine/restore"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "/etc/archivist.yaml", "path to the archivist configuration file")
	keyfilePath := flag.String("keyfile", "/etc/fernet.key", "path to the symmetric keyfile")
	tenant := flag.String("tenant", "", "tenant identifier, prepended to the failure prefix")
	authority := flag.String("authority", "", "authority host override for database connections")
	catalogPath := flag.String("catalog", "/var/lib/archivist/catalog.db", "path to the sqlite run catalog")
	jsonLogs := flag.Bool("json", false, "emit JSON-lines events instead of text")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <client> <archive-run-id> <database>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 3 {
		flag.Usage()
		return 1
	}
	clientID, archiveRunID, database := flag.Arg(0), flag.Arg(1), flag.Arg(2)

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

	conn, err := connectionFor(cfg, key, store, *authority)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	prefix := "[" + clientID + "/" + database + "]"
	if *tenant != "" {
		prefix = "[" + *tenant + "/" + clientID + "/" + database + "]"
	}

	kind, err := restore.NewKind(prefix, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	frozen := restore.Frozen{ClientID: clientID, ArchiveRunID: archiveRunID, Database: database}
	var mutable restore.Mutable
	stream, err := machine.Run(context.Background(), kind, "restore-"+archiveRunID, frozen, &mutable,
		restore.NewDependencies(nil, conn), emit.NewLogEmitter(os.Stderr, *jsonLogs), nil)
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

func connectionFor(cfg *config.Config, key []byte, store catalog.Store, authority string) (restore.Connection, error) {
	host, err := cfg.GetString("cleartext.database.host")
	if err != nil {
		return restore.Connection{}, err
	}
	if authority != "" {
		host = authority
	}
	port, err := cfg.GetString("cleartext.database.port")
	if err != nil {
		return restore.Connection{}, err
	}
	user, err := cfg.GetString("cleartext.database.user")
	if err != nil {
		return restore.Connection{}, err
	}
	password, err := cfg.Get("secrets.database.password")
	if err != nil {
		return restore.Connection{}, err
	}
	secret, ok := password.(command.Secret)
	if !ok {
		return restore.Connection{}, fmt.Errorf("secrets.database.password is not a secret value")
	}
	stagingRoot, err := cfg.GetString("cleartext.paths.staging_root")
	if err != nil {
		return restore.Connection{}, err
	}

	return restore.Connection{
		PsqlBinary:  "psql",
		Host:        host,
		Port:        port,
		User:        user,
		Password:    secret,
		StagingRoot: stagingRoot,
		DecryptKey:  key,
		Store:       store,
	}, nil
}
