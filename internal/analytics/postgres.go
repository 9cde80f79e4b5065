package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS tutor_events (
	id         UUID PRIMARY KEY,
	variant    TEXT NOT NULL,
	event_type TEXT NOT NULL,
	model_used TEXT NOT NULL,
	fallback   BOOLEAN NOT NULL DEFAULT FALSE,
	data       JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresEventLogger inserts events into the tutor_events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogger(pool *pgxpool.Pool) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool}
}

// EnsureSchema creates the tutor_events table if it does not exist.
func (l *PostgresEventLogger) EnsureSchema(ctx context.Context) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if _, err := l.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create tutor_events: %w", err)
	}
	return nil
}

func (l *PostgresEventLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
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

	_, err = l.pool.Exec(ctx,
		`INSERT INTO tutor_events (id, variant, event_type, model_used, fallback, data, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6::jsonb, $7)`,
		event.ID,
		event.Variant,
		event.EventType,
		event.ModelUsed,
		event.Fallback,
		string(data),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.EventType,
		"variant", event.Variant,
		"fallback", event.Fallback,
	)
	return nil
}
