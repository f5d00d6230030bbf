package memory

import (
	"fmt"
	"strconv"
	"strings"
)

// area is a parsed A1 range. Column and row indices are 1-based; a zero
// end row means the range is open ended ("A:E").
type area struct {
	sheet          string
	fromCol, toCol int
	fromRow, toRow int
}

func parseRange(rng string) (area, error) {
	i := strings.LastIndex(rng, "!")
	if i <= 0 {
		return area{}, fmt.Errorf("Unable to parse range: %s", rng)
	}
	sheet := rng[:i]
	if strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") && len(sheet) >= 2 {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	ref := rng[i+1:]

	from, to, isSpan := strings.Cut(ref, ":")
	if !isSpan {
		to = from
	}
	fc, fr, err := parseCell(from)
	if err != nil {
		return area{}, fmt.Errorf("Unable to parse range: %s", rng)
	}
	tc, tr, err := parseCell(to)
	if err != nil {
		return area{}, fmt.Errorf("Unable to parse range: %s", rng)
	}
	if fr == 0 {
		fr = 1
	}
	if tc < fc || (tr != 0 && tr < fr) {
		return area{}, fmt.Errorf("Unable to parse range: %s", rng)
	}
	return area{sheet: sheet, fromCol: fc, toCol: tc, fromRow: fr, toRow: tr}, nil
}

// parseCell splits "BC12" into column 55 and row 12. The row part is optional.
func parseCell(ref string) (col, row int, err error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	n := 0
	for n < len(ref) && ref[n] >= 'A' && ref[n] <= 'Z' {
		col = col*26 + int(ref[n]-'A'+1)
		n++
	}
	if n == 0 {
		return 0, 0, fmt.Errorf("missing column in %q", ref)
	}
	if n == len(ref) {
		return col, 0, nil
	}
	row, err = strconv.Atoi(ref[n:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("bad row in %q", ref)
	}
	return col, row, nil
}
