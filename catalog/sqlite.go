package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed Store, for single-host operation with zero
// external setup: one file holding the full archive-run catalog.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) a SQLite-backed catalog at
// path. Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening sqlite connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: enabling WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: setting busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS archive_runs (
			run_id         TEXT PRIMARY KEY,
			machine        TEXT NOT NULL,
			failure_prefix TEXT NOT NULL,
			database       TEXT NOT NULL DEFAULT '',
			artifact_path  TEXT NOT NULL DEFAULT '',
			byte_size      INTEGER NOT NULL DEFAULT 0,
			started_at     TIMESTAMP NOT NULL,
			finished_at    TIMESTAMP NOT NULL,
			status         TEXT NOT NULL,
			failure_count  INTEGER NOT NULL,
			detail         TEXT NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("catalog: creating archive_runs table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_archive_runs_prefix ON archive_runs(failure_prefix, started_at)"); err != nil {
		return fmt.Errorf("catalog: creating prefix index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec Record) error {
	const stmt = `
		INSERT INTO archive_runs (run_id, machine, failure_prefix, database, artifact_path, byte_size, started_at, finished_at, status, failure_count, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			machine = excluded.machine,
			failure_prefix = excluded.failure_prefix,
			database = excluded.database,
			artifact_path = excluded.artifact_path,
			byte_size = excluded.byte_size,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			status = excluded.status,
			failure_count = excluded.failure_count,
			detail = excluded.detail
	`
	_, err := s.db.ExecContext(ctx, stmt, rec.RunID, rec.Machine, rec.FailurePrefix, rec.Database, rec.ArtifactPath, rec.ByteSize,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(), string(rec.Status), rec.FailureCount, rec.Detail)
	if err != nil {
		return fmt.Errorf("catalog: inserting run %q: %w", rec.RunID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, runID string) (Record, error) {
	const q = `
		SELECT run_id, machine, failure_prefix, database, artifact_path, byte_size, started_at, finished_at, status, failure_count, detail
		FROM archive_runs WHERE run_id = ?
	`
	row := s.db.QueryRowContext(ctx, q, runID)
	return scanRecord(row)
}

func (s *SQLiteStore) Delete(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM archive_runs WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("catalog: deleting run %q: %w", runID, err)
	}
	return nil
}

func (s *SQLiteStore) ListByPrefix(ctx context.Context, prefix string, limit int) ([]Record, error) {
	q := `
		SELECT run_id, machine, failure_prefix, database, artifact_path, byte_size, started_at, finished_at, status, failure_count, detail
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

func (s *SQLiteStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var status string
	var started, finished time.Time
	err := row.Scan(&rec.RunID, &rec.Machine, &rec.FailurePrefix, &rec.Database, &rec.ArtifactPath, &rec.ByteSize,
		&started, &finished, &status, &rec.FailureCount, &rec.Detail)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("catalog: scanning record: %w", err)
	}
	rec.StartedAt, rec.FinishedAt, rec.Status = started, finished, Status(status)
	return rec, nil
}

func scanRecordRows(rows *sql.Rows) (Record, error) {
	return scanRecord(rows)
}
