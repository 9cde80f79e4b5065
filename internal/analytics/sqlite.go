package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS tutor_events (
	id         TEXT PRIMARY KEY,
	variant    TEXT NOT NULL,
	event_type TEXT NOT NULL,
	model_used TEXT NOT NULL,
	fallback   INTEGER NOT NULL DEFAULT 0,
	data       TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
)`

// SQLiteEventLogger inserts events into a local SQLite database.
type SQLiteEventLogger struct {
	db *sql.DB
}

// NewSQLiteEventLogger creates the tutor_events table in db if needed.
func NewSQLiteEventLogger(ctx context.Context, db *sql.DB) (*SQLiteEventLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite db is nil")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create tutor_events: %w", err)
	}
	return &SQLiteEventLogger{db: db}, nil
}

func (l *SQLiteEventLogger) LogEvent(ctx context.Context, event Event) error {
	event, err := prepare(event)
	if err != nil {
		return err
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO tutor_events (id, variant, event_type, model_used, fallback, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Variant,
		event.EventType,
		event.ModelUsed,
		event.Fallback,
		string(data),
		event.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged", "type", event.EventType, "variant", event.Variant)
	return nil
}

// Count returns the number of recorded events of eventType, or of all types
// when eventType is empty.
func (l *SQLiteEventLogger) Count(ctx context.Context, eventType string) (int, error) {
	query := `SELECT COUNT(*) FROM tutor_events`
	var args []any
	if eventType != "" {
		query += ` WHERE event_type = ?`
		args = append(args, eventType)
	}

	var n int
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
