package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS action_log (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	target_id  TEXT NOT NULL DEFAULT '',
	actor      TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	outcome    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_action_log_created_at ON action_log(created_at DESC);
`

// SQLiteLog implements Recorder using a local SQLite database.
type SQLiteLog struct {
	db *sql.DB
}

var _ Recorder = (*SQLiteLog)(nil)

// OpenSQLite opens (or creates) the trail database at path and applies the
// schema. The connection is instrumented through otelsql.
func OpenSQLite(path string) (*SQLiteLog, error) {
	db, err := otelsql.Open("sqlite", path,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply audit schema: %w", err)
	}

	return &SQLiteLog{db: db}, nil
}

// Close closes the underlying database.
func (l *SQLiteLog) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Append writes one entry. A zero ID gets a fresh uuid and a zero
// timestamp gets the current time.
func (l *SQLiteLog) Append(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO action_log (id, action, target_id, actor, detail, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, string(e.Action), e.TargetID, e.Actor, e.Detail, string(e.Outcome), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (l *SQLiteLog) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, action, target_id, actor, detail, outcome, created_at
		FROM action_log ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var action, outcome, createdAt string
		if err := rows.Scan(&e.ID, &action, &e.TargetID, &e.Actor, &e.Detail, &outcome, &createdAt); err != nil {
			log.Warn().Err(err).Msg("audit: skipping malformed entry")
			continue
		}
		e.Action = Action(action)
		e.Outcome = Outcome(outcome)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
