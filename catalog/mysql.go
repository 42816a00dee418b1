package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL-backed Store, for fleet-wide operation: one
// database shared by every client's archival runs, queryable for
// cross-client reporting.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a MySQL-backed catalog using dsn (driver-name
// "mysql", e.g. "user:pass@tcp(host:3306)/archivist?parseTime=true" — the
// caller is responsible for including parseTime=true so TIMESTAMP columns
// scan directly into time.Time).
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening mysql connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: pinging mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS archive_runs (
			run_id         VARCHAR(191) PRIMARY KEY,
			machine        VARCHAR(191) NOT NULL,
			failure_prefix VARCHAR(191) NOT NULL,
			database_name  VARCHAR(191) NOT NULL DEFAULT '',
			artifact_path  VARCHAR(1024) NOT NULL DEFAULT '',
			byte_size      BIGINT NOT NULL DEFAULT 0,
			started_at     TIMESTAMP NOT NULL,
			finished_at    TIMESTAMP NOT NULL,
			status         VARCHAR(32) NOT NULL,
			failure_count  INT NOT NULL,
			detail         TEXT NOT NULL,
			INDEX idx_archive_runs_prefix (failure_prefix, started_at)
		) ENGINE=InnoDB
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("catalog: creating archive_runs table: %w", err)
	}
	return nil
}

func (s *MySQLStore) Put(ctx context.Context, rec Record) error {
	const stmt = `
		INSERT INTO archive_runs (run_id, machine, failure_prefix, database_name, artifact_path, byte_size, started_at, finished_at, status, failure_count, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			machine = VALUES(machine),
			failure_prefix = VALUES(failure_prefix),
			database_name = VALUES(database_name),
			artifact_path = VALUES(artifact_path),
			byte_size = VALUES(byte_size),
			started_at = VALUES(started_at),
			finished_at = VALUES(finished_at),
			status = VALUES(status),
			failure_count = VALUES(failure_count),
			detail = VALUES(detail)
	`
	_, err := s.db.ExecContext(ctx, stmt, rec.RunID, rec.Machine, rec.FailurePrefix, rec.Database, rec.ArtifactPath, rec.ByteSize,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(), string(rec.Status), rec.FailureCount, rec.Detail)
	if err != nil {
		return fmt.Errorf("catalog: inserting run %q: %w", rec.RunID, err)
	}
	return nil
}

func (s *MySQLStore) Get(ctx context.Context, runID string) (Record, error) {
	const q = `
		SELECT run_id, machine, failure_prefix, database_name, artifact_path, byte_size, started_at, finished_at, status, failure_count, detail
		FROM archive_runs WHERE run_id = ?
	`
	row := s.db.QueryRowContext(ctx, q, runID)
	return scanRecord(row)
}

func (s *MySQLStore) Delete(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM archive_runs WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("catalog: deleting run %q: %w", runID, err)
	}
	return nil
}

func (s *MySQLStore) ListByPrefix(ctx context.Context, prefix string, limit int) ([]Record, error) {
	q := `
		SELECT run_id, machine, failure_prefix, database_name, artifact_path, byte_size, started_at, finished_at, status, failure_count, detail
		FROM archive_runs WHERE failure_prefix = ? ORDER BY started_at DESC
	`
	args := []any{prefix}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: listing runs for %q: %w", prefix, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecordRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *MySQLStore) Close() error { return s.db.Close() }
