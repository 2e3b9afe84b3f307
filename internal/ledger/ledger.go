// Package ledger keeps a local SQLite history of indexing runs.
// It is informational only; runs never consult it.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	item_name     TEXT NOT NULL,
	source_bucket TEXT NOT NULL,
	source_prefix TEXT NOT NULL,
	target_bucket TEXT NOT NULL,
	target_key    TEXT NOT NULL,
	rows          INTEGER NOT NULL,
	bytes         INTEGER NOT NULL,
	started_at    INTEGER NOT NULL,
	elapsed_ms    INTEGER NOT NULL,
	status        TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
`

// Run statuses.
const (
	StatusSuccess = "success"
	StatusDryRun  = "dry-run"
	StatusFailed  = "failed"
)

// Entry is one recorded run.
type Entry struct {
	RunID        string
	ItemName     string
	SourceBucket string
	SourcePrefix string
	TargetBucket string
	TargetKey    string
	Rows         int64
	Bytes        int64
	StartedAt    time.Time
	Elapsed      time.Duration
	Status       string
	Error        string
}

type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing ledger %s: %w", path, err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores a run. Recording the same run ID twice replaces the earlier row.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(run_id, item_name, source_bucket, source_prefix, target_bucket, target_key,
			 rows, bytes, started_at, elapsed_ms, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.ItemName, e.SourceBucket, e.SourcePrefix, e.TargetBucket, e.TargetKey,
		e.Rows, e.Bytes, e.StartedAt.UnixMilli(), e.Elapsed.Milliseconds(), e.Status, e.Error,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", e.RunID, err)
	}
	return nil
}

// List returns up to limit runs, newest first. A limit of 0 or less returns all runs.
func (l *Ledger) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, item_name, source_bucket, source_prefix, target_bucket, target_key,
		       rows, bytes, started_at, elapsed_ms, status, error
		FROM runs
		ORDER BY started_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			startedMs int64
			elapsedMs int64
		)
		if err := rows.Scan(&e.RunID, &e.ItemName, &e.SourceBucket, &e.SourcePrefix, &e.TargetBucket, &e.TargetKey,
			&e.Rows, &e.Bytes, &startedMs, &elapsedMs, &e.Status, &e.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		e.StartedAt = time.UnixMilli(startedMs).UTC()
		e.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return entries, nil
}
