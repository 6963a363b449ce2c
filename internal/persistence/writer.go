package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"EscrowDesk/internal/event"
)

// EventLogWriter writes emitted notifications to Postgres using multi-row
// INSERT. The event log is the off-engine source of truth for indexers; the
// NATS stream is best-effort on top of it.
type EventLogWriter struct {
	db *sql.DB
}

// EventRow represents a row in escrow.events
type EventRow struct {
	Sequence  uint64
	EventType string
	Payload   []byte // JSON-encoded notification payload
	EmittedAt time.Time
}

func NewEventLogWriter(db *sql.DB) *EventLogWriter {
	return &EventLogWriter{db: db}
}

// EnsureSchema creates the event-log schema and table if missing.
func (w *EventLogWriter) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS escrow`,
		`CREATE TABLE IF NOT EXISTS escrow.events (
			sequence   BIGINT PRIMARY KEY,
			event_type TEXT NOT NULL,
			payload    JSONB NOT NULL,
			emitted_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS events_type_idx ON escrow.events (event_type)`,
	}
	for _, stmt := range stmts {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// WriteBatch writes a batch of rows to escrow.events using multi-row INSERT.
// Idempotent on sequence so a replayed batch never duplicates.
func (w *EventLogWriter) WriteBatch(ctx context.Context, rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO escrow.events (sequence, event_type, payload, emitted_at) VALUES `

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*4)

	for i, r := range rows {
		base := i * 4
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4,
		))
		args = append(args, r.Sequence, r.EventType, r.Payload, r.EmittedAt)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING"

	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

// RowFromEnvelope converts an engine notification into a writable row.
func RowFromEnvelope(env event.Envelope) (EventRow, error) {
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return EventRow{}, fmt.Errorf("marshal payload: %w", err)
	}
	return EventRow{
		Sequence:  env.Sequence,
		EventType: env.Type.String(),
		Payload:   payload,
		EmittedAt: env.Timestamp,
	}, nil
}
