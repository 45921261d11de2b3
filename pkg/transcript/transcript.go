// Package transcript appends chatbot turns to a SQLite log for later review.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	user_message TEXT NOT NULL,
	reply TEXT NOT NULL DEFAULT '',
	error_kind TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
`

// Turn is one user message and the outcome of answering it.
type Turn struct {
	ID          int64
	SessionID   string
	Provider    string
	Model       string
	UserMessage string
	Reply       string
	ErrorKind   string
	Error       string
	Duration    time.Duration
	CreatedAt   time.Time
}

// Log is a SQLite backed transcript. It is safe for concurrent use.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the transcript database at path, creating the
// parent directory when needed.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("transcript: create dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("transcript: open %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("transcript: init schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Record appends t. ID and a zero CreatedAt are filled in.
func (l *Log) Record(ctx context.Context, t *Turn) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, provider, model, user_message, reply, error_kind, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.Provider, t.Model, t.UserMessage, t.Reply,
		t.ErrorKind, t.Error, t.Duration.Milliseconds(), t.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("transcript: record: %w", err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("transcript: record: %w", err)
	}

	return nil
}

// Session returns the turns of one session in insertion order.
func (l *Log) Session(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, session_id, provider, model, user_message, reply, error_kind, error, duration_ms, created_at
		 FROM turns WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("transcript: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var turns []Turn
	for rows.Next() {
		var (
			t          Turn
			durationMS int64
			createdMS  int64
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Provider, &t.Model, &t.UserMessage,
			&t.Reply, &t.ErrorKind, &t.Error, &durationMS, &createdMS); err != nil {
			return nil, fmt.Errorf("transcript: scan: %w", err)
		}
		t.Duration = time.Duration(durationMS) * time.Millisecond
		t.CreatedAt = time.UnixMilli(createdMS)
		turns = append(turns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transcript: query: %w", err)
	}

	return turns, nil
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}
