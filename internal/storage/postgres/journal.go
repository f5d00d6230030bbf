package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // registers the "postgres" driver

	interfaces "github.com/sheikh-saqib/subscription-billing-bot/internal/interfaces"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/models/events"
)

const schema = `CREATE TABLE IF NOT EXISTS ledger_events (
	id          UUID PRIMARY KEY,
	topic       TEXT        NOT NULL,
	event_type  TEXT        NOT NULL,
	sheet       TEXT        NOT NULL,
	payload     JSONB       NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
)`

// PostgresJournal keeps an append-only audit trail of ledger events.
type PostgresJournal struct {
	db *sql.DB
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewPostgresJournal(db *sql.DB) *PostgresJournal {
	return &PostgresJournal{
		db: db,
	}
}

// EnsureSchema creates the journal table if it is missing.
func (p *PostgresJournal) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *PostgresJournal) Publish(ctx context.Context, topic string, event any) error {
	row, err := journalRow(topic, event)
	if err != nil {
		return err
	}

	const query = `INSERT INTO ledger_events (id, topic, event_type, sheet, payload, created_at)
	VALUES ($1,$2,$3,$4,$5,$6)`

	_, err = p.db.ExecContext(ctx, query, row.id, row.topic, row.eventType, row.sheet, row.payload, row.createdAt)
	return err
}

type record struct {
	id        string
	topic     string
	eventType string
	sheet     string
	payload   []byte
	createdAt time.Time
}

func journalRow(topic string, event any) (record, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return record{}, fmt.Errorf("encode event: %w", err)
	}

	r := record{topic: topic, payload: payload}
	switch e := event.(type) {
	case events.EntryRecorded:
		r.id, r.eventType, r.sheet, r.createdAt = e.EventID, e.Type, e.Sheet, e.OccurredAt
	case events.LedgerReset:
		r.id, r.eventType, r.sheet, r.createdAt = e.EventID, e.Type, e.Sheet, e.OccurredAt
	default:
		return record{}, fmt.Errorf("unsupported event %T", event)
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	if r.createdAt.IsZero() {
		r.createdAt = time.Now().UTC()
	}
	return r, nil
}

var _ interfaces.EventPublisher = (*PostgresJournal)(nil)
