// Package history persists build session records in a local SQLite
// database so `galley status` can report recent builds across watcher
// restarts.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    trigger_path TEXT NOT NULL,
    outcome      TEXT NOT NULL,
    fallback     INTEGER NOT NULL DEFAULT 0,
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    log_tail     TEXT NOT NULL DEFAULT '',
    started_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Session is one recorded build session.
type Session struct {
	ID         int64
	Trigger    string
	Outcome    string
	Fallback   bool
	DurationMs int64
	LogTail    string
	StartedAt  time.Time
}

// Store wraps the sessions database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at dbPath, enables WAL
// mode and a busy timeout, and creates the schema if needed.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("history: create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	// One connection: SQLite has a single writer, and a lone connection
	// avoids SQLITE_BUSY contention between pooled connections that each
	// need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record inserts one session row.
func (s *Store) Record(ctx context.Context, sess Session) error {
	const q = `
		INSERT INTO sessions (trigger_path, outcome, fallback, duration_ms, log_tail)
		VALUES (?, ?, ?, ?, ?)`
	fallback := 0
	if sess.Fallback {
		fallback = 1
	}
	if _, err := s.db.ExecContext(ctx, q, sess.Trigger, sess.Outcome, fallback, sess.DurationMs, sess.LogTail); err != nil {
		return fmt.Errorf("history: record session: %w", err)
	}
	return nil
}

// Recent returns up to limit sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Session, error) {
	const q = `
		SELECT id, trigger_path, outcome, fallback, duration_ms, log_tail, started_at
		FROM sessions ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var fallback int
		var ts string
		if err := rows.Scan(&sess.ID, &sess.Trigger, &sess.Outcome, &fallback, &sess.DurationMs, &sess.LogTail, &ts); err != nil {
			return nil, fmt.Errorf("history: scan session: %w", err)
		}
		sess.Fallback = fallback != 0
		if started, err := parseTimestamp(ts); err == nil {
			sess.StartedAt = started
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate sessions: %w", err)
	}
	return sessions, nil
}

// timestampFormats covers SQLite's CURRENT_TIMESTAMP output and RFC3339
// values written by external tooling.
var timestampFormats = []string{
	time.RFC3339,
	time.DateTime,
}

// parseTimestamp attempts to parse a SQLite timestamp string using known formats.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
