package interfaces

import "context"

// SheetStore is range-based access to a remote spreadsheet. Ranges are
// sheet-qualified A1 strings, e.g. "VPS!B3:B14".
//
// Implementations return *failure.Error values tagged AccessDenied or
// RangeNotFound when the store reports those conditions.
type SheetStore interface {
	// Read returns the rows of rng; an empty range yields an empty slice.
	Read(ctx context.Context, rng string) ([][]string, error)
	// WriteCell writes value into the single cell rng.
	WriteCell(ctx context.Context, rng string, value string) error
	// ClearRange blanks every cell of rng. Clearing an empty range succeeds.
	ClearRange(ctx context.Context, rng string) error
}
