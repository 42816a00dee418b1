package repository

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/nightvault/archivist/command"
)

// Restorer runs BinaryPath (psql) with a recovered plain-SQL dump on its
// standard input, the symmetric counterpart of Dumper used by the restore
// machine's
// "restore_schema" / "restore_data" steps.
type Restorer struct {
	loggable
	BinaryPath string
	Host       string
	Port       string
	User       string
	Password   command.Secret
}

// NewRestorer returns a Restorer invoking binaryPath (conventionally
// "psql") against the given connection parameters.
func NewRestorer(binaryPath, host, port, user string, password command.Secret) *Restorer {
	return &Restorer{BinaryPath: binaryPath, Host: host, Port: port, User: user, Password: password}
}

// RestoreSchema applies the schema-only dump at srcPath to database.
func (r *Restorer) RestoreSchema(ctx context.Context, database, srcPath string) error {
	return r.run(ctx, database, srcPath)
}

// RestoreData applies the data-only dump at srcPath to database.
func (r *Restorer) RestoreData(ctx context.Context, database, srcPath string) error {
	return r.run(ctx, database, srcPath)
}

func (r *Restorer) run(ctx context.Context, database, srcPath string) error {
	args := command.NewSpaceDelimited([]command.Atom{
		command.Plain("--host=" + r.Host),
		command.Plain("--port=" + r.Port),
		command.NewEqualDelimited("--username", command.Plain(r.User)),
		command.NewEqualDelimited("--dbname", command.Plain(database)),
	})
	r.debugf("restorer: %s %s < %s", r.BinaryPath, args.Display(), srcPath)

	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("repository: opening %q: %w", srcPath, err)
	}
	defer in.Close()

	cmd := exec.CommandContext(ctx, r.BinaryPath, args.RevealArgs()...)
	cmd.Stdin = in
	cmd.Env = append(os.Environ(), "PGPASSWORD="+r.Password.Reveal())

	if err := cmd.Run(); err != nil {
		r.errorf("restorer: %s failed: %v", r.BinaryPath, err)
		return fmt.Errorf("repository: %s: %w", r.BinaryPath, err)
	}
	return nil
}
