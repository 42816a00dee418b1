package repository

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/nightvault/archivist/command"
)

// Discovery enumerates the databases a backup run should cover, the
// "fetch_databases" capability; an empty result is the caller's domain
// failure to report, not an exceptional condition. It shells out to psql
// the same way Dumper shells out to pg_dump, listing every non-template
// database on the configured server.
type Discovery struct {
	loggable
	BinaryPath string
	Host       string
	Port       string
	User       string
	Password   command.Secret
}

// NewDiscovery returns a Discovery capability invoking binaryPath
// (conventionally "psql") against the given connection parameters.
func NewDiscovery(binaryPath, host, port, user string, password command.Secret) *Discovery {
	return &Discovery{BinaryPath: binaryPath, Host: host, Port: port, User: user, Password: password}
}

// Databases lists every database name on the configured server, excluding
// the built-in template/administrative databases.
func (d *Discovery) Databases(ctx context.Context) ([]string, error) {
	args := command.NewSpaceDelimited([]command.Atom{
		command.Plain("--host=" + d.Host),
		command.Plain("--port=" + d.Port),
		command.NewEqualDelimited("--username", command.Plain(d.User)),
		command.Plain("--tuples-only"),
		command.Plain("--no-align"),
		command.NewEqualDelimited("--command", command.Plain(
			"SELECT datname FROM pg_database WHERE datistemplate = false AND datname != 'postgres'")),
	})
	d.debugf("discovery: %s %s", d.BinaryPath, args.Display())

	cmd := exec.CommandContext(ctx, d.BinaryPath, args.RevealArgs()...)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+d.Password.Reveal())

	out, err := cmd.Output()
	if err != nil {
		d.errorf("discovery: %s failed: %v", d.BinaryPath, err)
		return nil, fmt.Errorf("repository: %s: %w", d.BinaryPath, err)
	}

	var names []string
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}
