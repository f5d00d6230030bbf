package ledger

// Window is the fixed block of rows a ledger appends entries into.
type Window struct {
	Start int // first row, 1-based
	Size  int
}

// DefaultWindow covers rows 3 to 14.
var DefaultWindow = Window{Start: 3, Size: 12}

// End returns the last row of the window.
func (w Window) End() int { return w.Start + w.Size - 1 }

// firstFree returns the offset of the first row whose key cell is blank.
// rows is the key column as read from the store, which omits trailing
// blank rows. ok is false when every row is occupied.
//
// Only the key cell is inspected: a row with a blank key but other cells
// filled counts as free.
func (w Window) firstFree(rows [][]string) (offset int, ok bool) {
	for i := 0; i < w.Size; i++ {
		if i >= len(rows) || len(rows[i]) == 0 || rows[i][0] == "" {
			return i, true
		}
	}
	return 0, false
}
