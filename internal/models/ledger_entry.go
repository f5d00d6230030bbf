package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one row recorded inside a ledger's write window.
type LedgerEntry struct {
	ID         string
	Sheet      string
	Row        int             // absolute 1-based row number
	Column     string          // key column the row was allocated in
	Date       string          // MM/DD/YYYY
	Amount     decimal.Decimal // zero for confirmation stamps
	RecordedBy string
	CreatedAt  time.Time
}

// DateLayout is the date format written into the sheet.
const DateLayout = "01/02/2006"
