// ABOUTME: SQLite-backed event log mirroring the in-memory history buffer.
// ABOUTME: Persists inbound frames so a fresh process can resume from the last event id.

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a conversation has no recorded events.
var ErrNotFound = errors.New("no events recorded")

// Record is one persisted inbound frame.
type Record struct {
	Seq            int64
	ConversationID string
	EventID        int64
	Kind           string // "action", "observation", "status", "token"
	Payload        []byte
	ReceivedAt     time.Time
}

// Log persists inbound frames per conversation. The log is append-only;
// there is no eviction.
type Log struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the event log at the given path. Parent directories
// are created if needed.
func Open(path string) (*Log, error) {
	logger := slog.Default().With("component", "history")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	// WAL keeps reads cheap while the read loop appends.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	l := &Log{db: db, logger: logger}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) createSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS events (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	event_id INTEGER NOT NULL DEFAULT 0,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	received_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_conversation ON events(conversation_id, seq);
CREATE INDEX IF NOT EXISTS idx_events_event_id ON events(conversation_id, event_id);
`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("creating history schema: %w", err)
	}
	return nil
}

// Append records one inbound frame. eventID is 0 for frames without an id
// (status, token).
func (l *Log) Append(ctx context.Context, conversationID string, eventID int64, kind string, payload []byte) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO events (conversation_id, event_id, kind, payload, received_at) VALUES (?, ?, ?, ?, ?)`,
		conversationID, eventID, kind, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// LatestEventID returns the highest event id recorded for a conversation,
// for seeding the resume cursor across process restarts. ErrNotFound when
// nothing was recorded.
func (l *Log) LatestEventID(ctx context.Context, conversationID string) (int64, error) {
	var id sql.NullInt64
	err := l.db.QueryRowContext(ctx,
		`SELECT MAX(event_id) FROM events WHERE conversation_id = ?`,
		conversationID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("querying latest event id: %w", err)
	}
	if !id.Valid {
		return 0, ErrNotFound
	}
	return id.Int64, nil
}

// List returns events for a conversation after sinceEventID, in arrival
// order, up to limit (0 means no limit).
func (l *Log) List(ctx context.Context, conversationID string, sinceEventID int64, limit int) ([]Record, error) {
	query := `SELECT seq, conversation_id, event_id, kind, payload, received_at
		FROM events WHERE conversation_id = ? AND event_id > ? ORDER BY seq`
	args := []any{conversationID, sinceEventID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var payload, receivedAt string
		if err := rows.Scan(&r.Seq, &r.ConversationID, &r.EventID, &r.Kind, &payload, &receivedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		r.Payload = []byte(payload)
		if ts, err := time.Parse(time.RFC3339Nano, receivedAt); err == nil {
			r.ReceivedAt = ts
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}
