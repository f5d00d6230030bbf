package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/sheikh-saqib/subscription-billing-bot/internal/failure"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/models"
)

// Layout names the columns one kind of entry occupies. The first column is
// the key column scanned for free rows.
type Layout struct {
	Name    string
	Columns []string
}

// BillLayout stores a date in B and an amount in C.
var BillLayout = Layout{Name: "billing", Columns: []string{"B", "C"}}

// PaymentLayout stores a confirmation date in a single column.
func PaymentLayout(column string) Layout {
	return Layout{Name: "payment", Columns: []string{column}}
}

// getSheetLock returns the mutex guarding sheet, creating it on first use.
func (l *Ledger) getSheetLock(sheet string) *sync.Mutex {

	// mapMu only guards the map itself; it is released before the caller
	// takes the sheet lock, so a slow store call never blocks other sheets.
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	// Lazily create one mutex per sheet name
	if _, exists := l.muMap[sheet]; !exists {
		l.muMap[sheet] = &sync.Mutex{}
	}
	return l.muMap[sheet]
}

// Append writes values into the first free row of sheet's window and
// returns the absolute row number. values line up with layout.Columns.
//
// Writes to the same sheet are serialized so concurrent appends land on
// distinct rows. A failure part way through leaves the cells already
// written in place.
func (l *Ledger) Append(ctx context.Context, sheet string, layout Layout, values ...string) (int, error) {
	if len(values) != len(layout.Columns) || len(values) == 0 {
		return 0, failure.New(failure.ValidationFailed, "allocate",
			fmt.Sprintf("%s layout takes %d values, got %d", layout.Name, len(layout.Columns), len(values)))
	}

	// Hold the sheet lock across scan and write; otherwise two appends can
	// read the same free row before either writes it.
	mu := l.getSheetLock(sheet)
	mu.Lock()
	defer mu.Unlock()

	// Only the key column decides whether a row is taken
	key := layout.Columns[0]
	span := models.Span(key, l.window.Start, key, l.window.End())

	rows, err := l.store.Read(ctx, models.A1(sheet, span))
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", span, err)
	}

	offset, ok := l.window.firstFree(rows)
	if !ok {
		return 0, failure.New(failure.CapacityExceeded, "allocate",
			fmt.Sprintf("All %s rows (%s) are full. Cannot add more entries.", layout.Name, span))
	}
	row := l.window.Start + offset

	// Key first, then the rest left to right. Cells already written stay put
	// if a later write fails.
	for i, col := range layout.Columns {
		cell := models.Cell(col, row)
		if err := l.store.WriteCell(ctx, models.A1(sheet, cell), values[i]); err != nil {
			return 0, fmt.Errorf("write %s: %w", cell, err)
		}
	}
	return row, nil
}
