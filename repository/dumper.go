package repository

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/nightvault/archivist/command"
)

// Dumper invokes pg_dump to produce schema-only and data-only artifacts,
// composing its argument vector through the secret-aware command builder so
// the database password never reaches a log line in clear.
type Dumper struct {
	loggable
	BinaryPath string
	Host       string
	Port       string
	User       string
	Password   command.Secret
}

// NewDumper returns a Dumper invoking binaryPath (conventionally "pg_dump")
// against the given connection parameters.
func NewDumper(binaryPath, host, port, user string, password command.Secret) *Dumper {
	return &Dumper{BinaryPath: binaryPath, Host: host, Port: port, User: user, Password: password}
}

func (d *Dumper) connectionArgs(database string) command.SpaceDelimited {
	return command.NewSpaceDelimited([]command.Atom{
		command.Plain("--host=" + d.Host),
		command.Plain("--port=" + d.Port),
		command.NewEqualDelimited("--username", command.Plain(d.User)),
		command.NewEqualDelimited("--dbname", command.Plain(database)),
	})
}

// DumpSchema runs "pg_dump --schema-only" for database, writing to
// destPath.
func (d *Dumper) DumpSchema(ctx context.Context, database, destPath string) error {
	return d.run(ctx, database, "--schema-only", destPath)
}

// DumpData runs "pg_dump --data-only" for database, writing to destPath.
func (d *Dumper) DumpData(ctx context.Context, database, destPath string) error {
	return d.run(ctx, database, "--data-only", destPath)
}

func (d *Dumper) run(ctx context.Context, database, mode, destPath string) error {
	args := command.NewSpaceDelimited(append(
		[]command.Atom{command.Plain(mode)},
		d.connectionArgs(database).Items...,
	))
	d.debugf("dumper: %s %s", d.BinaryPath, args.Display())

	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return fmt.Errorf("repository: preparing dump destination %q: %w", destPath, err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("repository: creating dump file %q: %w", destPath, err)
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, d.BinaryPath, args.RevealArgs()...)
	cmd.Stdout = out
	cmd.Env = append(os.Environ(), "PGPASSWORD="+d.Password.Reveal())

	if err := cmd.Run(); err != nil {
		d.errorf("dumper: %s failed: %v", d.BinaryPath, err)
		return fmt.Errorf("repository: %s: %w", d.BinaryPath, err)
	}
	return nil
}
