package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeEntryRecorded = "entry_recorded"
	TypeLedgerReset   = "ledger_reset"
)

type EntryRecorded struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	Sheet      string          `json:"sheet"`
	Row        int             `json:"row"`
	Column     string          `json:"column"`
	Date       string          `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	RecordedBy string          `json:"recorded_by,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type LedgerReset struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	Sheet      string    `json:"sheet"`
	Ranges     []string  `json:"ranges"`
	ResetBy    string    `json:"reset_by,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e EntryRecorded) PartitionKey() string { return e.Sheet }

func (e LedgerReset) PartitionKey() string { return e.Sheet }
