package memory

import (
	"context"
	"sync"

	"github.com/sheikh-saqib/subscription-billing-bot/internal/failure"
	interfaces "github.com/sheikh-saqib/subscription-billing-bot/internal/interfaces"
)

type cellKey struct{ row, col int }

// MemorySheetStore is an in-memory spreadsheet implementing
// interfaces.SheetStore. It mirrors the Sheets API behaviour the ledger
// relies on: unknown sheets fail with RangeNotFound, reads drop trailing
// blank cells and rows.
type MemorySheetStore struct {
	mu     sync.Mutex
	sheets map[string]map[cellKey]string
	writes int
	clears int
	err    error // returned by every call when set
}

// NewMemorySheetStore creates a store holding the given empty sheets.
func NewMemorySheetStore(sheetNames ...string) *MemorySheetStore {
	m := &MemorySheetStore{sheets: make(map[string]map[cellKey]string)}
	for _, name := range sheetNames {
		m.sheets[name] = make(map[cellKey]string)
	}
	return m
}

// AddSheet creates an empty sheet if it does not exist yet.
func (m *MemorySheetStore) AddSheet(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sheets[name]; !ok {
		m.sheets[name] = make(map[cellKey]string)
	}
}

// FailWith makes every following call return err. Pass nil to recover.
func (m *MemorySheetStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Writes reports how many WriteCell calls succeeded.
func (m *MemorySheetStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Clears reports how many ClearRange calls succeeded.
func (m *MemorySheetStore) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

func (m *MemorySheetStore) Read(ctx context.Context, rng string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, cells, err := m.locate("read", rng)
	if err != nil {
		return nil, err
	}

	lastRow := a.toRow
	if lastRow == 0 {
		for k := range cells {
			if k.row > lastRow {
				lastRow = k.row
			}
		}
	}

	rows := make([][]string, 0)
	for r := a.fromRow; r <= lastRow; r++ {
		row := make([]string, 0)
		for c := a.fromCol; c <= a.toCol; c++ {
			row = append(row, cells[cellKey{r, c}])
		}
		rows = append(rows, trimRow(row))
	}
	// trailing empty rows are not part of the API response
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

func (m *MemorySheetStore) WriteCell(ctx context.Context, rng string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, cells, err := m.locate("write", rng)
	if err != nil {
		return err
	}
	if a.fromCol != a.toCol || a.toRow != a.fromRow {
		return failure.New(failure.ValidationFailed, "write", "range must be a single cell: "+rng)
	}
	k := cellKey{a.fromRow, a.fromCol}
	if value == "" {
		delete(cells, k)
	} else {
		cells[k] = value
	}
	m.writes++
	return nil
}

func (m *MemorySheetStore) ClearRange(ctx context.Context, rng string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, cells, err := m.locate("clear", rng)
	if err != nil {
		return err
	}
	for k := range cells {
		if k.col >= a.fromCol && k.col <= a.toCol && k.row >= a.fromRow && (a.toRow == 0 || k.row <= a.toRow) {
			delete(cells, k)
		}
	}
	m.clears++
	return nil
}

// locate parses rng and returns the backing cells of its sheet. Callers hold m.mu.
func (m *MemorySheetStore) locate(op, rng string) (area, map[cellKey]string, error) {
	if m.err != nil {
		return area{}, nil, m.err
	}
	a, err := parseRange(rng)
	if err != nil {
		return area{}, nil, failure.New(failure.RangeNotFound, op, err.Error())
	}
	cells, ok := m.sheets[a.sheet]
	if !ok {
		return area{}, nil, failure.New(failure.RangeNotFound, op, "Unable to parse range: "+rng)
	}
	return a, cells, nil
}

func trimRow(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	return row[:n]
}

// Compile-time check: ensure MemorySheetStore implements SheetStore interface
var _ interfaces.SheetStore = (*MemorySheetStore)(nil)
