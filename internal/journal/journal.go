// Package journal keeps a local SQLite record of import runs and of the
// Baserow row created for every Airtable record.
//
// Imports are not idempotent: running one twice creates every row twice.
// The journal does not change that, but it tells an operator which rows a
// given run created so they can be found and removed.
//
// Schema:
//   - runs: one row per import, with status and counters
//   - row_map: (run, base, source record) -> Baserow table and row id
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrRunNotFound is returned when a run id is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// Journal wraps the SQLite connection.
type Journal struct {
	conn *sql.DB
	path string
}

// Run is one import as recorded in the journal.
type Run struct {
	ID             string     `json:"id"`
	FieldMap       string     `json:"field_map"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Status         string     `json:"status"`
	Error          string     `json:"error,omitempty"`
	RecordsCreated int        `json:"records_created"`
	LinksPatched   int        `json:"links_patched"`
	FilesUploaded  int        `json:"files_uploaded"`
}

// Counts are the totals stored when a run finishes.
type Counts struct {
	RecordsCreated int
	LinksPatched   int
	FilesUploaded  int
}

// Row is one created record.
type Row struct {
	BaseID      string `json:"base_id"`
	SourceTable string `json:"source_table"`
	SourceID    string `json:"source_id"`
	TableID     int    `json:"table_id"`
	RowID       int    `json:"row_id"`
}

// Open opens or creates the journal at path. The caller must call Close.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	// One writer; the importer is sequential.
	conn.SetMaxOpenConns(1)

	j := &Journal{conn: conn, path: path}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = j.Close()
			return nil, fmt.Errorf("failed to run %q: %w", pragma, err)
		}
	}
	return j, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Close checkpoints the WAL and closes the connection.
func (j *Journal) Close() error {
	if j.conn == nil {
		return nil
	}
	if _, err := j.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint journal: %v\n", err)
	}
	if err := j.conn.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}
	j.conn = nil
	return nil
}

// InitSchema creates the tables if they do not exist. Safe to call on
// every open.
func (j *Journal) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		field_map TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		records_created INTEGER NOT NULL DEFAULT 0,
		links_patched INTEGER NOT NULL DEFAULT 0,
		files_uploaded INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS row_map (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		base_id TEXT NOT NULL,
		source_table TEXT NOT NULL,
		source_id TEXT NOT NULL,
		table_id INTEGER NOT NULL,
		row_id INTEGER NOT NULL,
		PRIMARY KEY (run_id, base_id, source_id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_row_map_table ON row_map(run_id, table_id);
	`
	if _, err := j.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// StartRun records the start of a run.
func (j *Journal) StartRun(ctx context.Context, runID, fieldMap string) error {
	_, err := j.conn.ExecContext(ctx,
		`INSERT INTO runs (id, field_map, started_at, status) VALUES (?, ?, ?, ?)`,
		runID, fieldMap, formatTime(time.Now()), StatusRunning)
	if err != nil {
		return fmt.Errorf("failed to start run %s: %w", runID, err)
	}
	return nil
}

// FinishRun stores the outcome of a run. A nil runErr marks it succeeded.
func (j *Journal) FinishRun(ctx context.Context, runID string, counts Counts, runErr error) error {
	status, msg := StatusSucceeded, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}

	res, err := j.conn.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, status = ?, error = ?,
		    records_created = ?, links_patched = ?, files_uploaded = ?
		WHERE id = ?`,
		formatTime(time.Now()), status, msg,
		counts.RecordsCreated, counts.LinksPatched, counts.FilesUploaded, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// RecordRows stores the rows created by one batch. sourceIDs and rowIDs
// are index-aligned.
func (j *Journal) RecordRows(ctx context.Context, runID, baseID, sourceTable string, tableID int, sourceIDs []string, rowIDs []int) error {
	if len(sourceIDs) != len(rowIDs) {
		return fmt.Errorf("failed to record rows: %d source ids for %d rows", len(sourceIDs), len(rowIDs))
	}

	tx, err := j.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO row_map (run_id, base_id, source_table, source_id, table_id, row_id)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, sourceID := range sourceIDs {
		if _, err := stmt.ExecContext(ctx, runID, baseID, sourceTable, sourceID, tableID, rowIDs[i]); err != nil {
			return fmt.Errorf("failed to record %s -> row %d: %w", sourceID, rowIDs[i], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}

// Runs lists the most recent runs first. limit <= 0 means all.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, field_map, started_at, finished_at, status, error,
		       records_created, links_patched, files_uploaded
		FROM runs
		ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run.
func (j *Journal) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.conn.QueryRowContext(ctx, `
		SELECT id, field_map, started_at, finished_at, status, error,
		       records_created, links_patched, files_uploaded
		FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// Rows lists the rows a run created, in creation order.
func (j *Journal) Rows(ctx context.Context, runID string) ([]Row, error) {
	rows, err := j.conn.QueryContext(ctx, `
		SELECT base_id, source_table, source_id, table_id, row_id
		FROM row_map WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.BaseID, &r.SourceTable, &r.SourceID, &r.TableID, &r.RowID); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
	)
	err := s.Scan(&run.ID, &run.FieldMap, &started, &finished, &run.Status, &run.Error,
		&run.RecordsCreated, &run.LinksPatched, &run.FilesUploaded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("failed to parse started_at %q: %w", started, err)
	}
	if finished.Valid {
		t, err := time.Parse(time.RFC3339Nano, finished.String)
		if err != nil {
			return Run{}, fmt.Errorf("failed to parse finished_at %q: %w", finished.String, err)
		}
		run.FinishedAt = &t
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
