package bot

import (
	"strings"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	tableColumns  = 7
	maxCellWidth  = 12
	maxTableChars = 1900

	maxFractionDigits = 3
)

// formatRupiah renders an amount the way Indonesian locales do:
// "Rp 1.500.000", or "Rp 1.500,125" with at most three fraction digits and
// trailing zeros dropped.
func formatRupiah(amount decimal.Decimal) string {
	cur := money.GetCurrency(money.IDR)
	amount = amount.Round(maxFractionDigits)
	fraction := 0
	if _, frac, ok := strings.Cut(amount.String(), "."); ok {
		fraction = len(frac)
	}
	f := money.NewFormatter(fraction, cur.Decimal, cur.Thousand, cur.Grapheme, "$ 1")
	return f.Format(amount.Shift(int32(fraction)).Round(0).IntPart())
}

// renderTable lays rows out as a fixed-width text table inside a code block.
// Columns are capped at maxCellWidth and a rule follows the header row.
func renderTable(rows [][]string) string {
	widths := make([]int, tableColumns)
	for col := range widths {
		for _, row := range rows {
			widths[col] = max(widths[col], utf8.RuneCountInString(cellAt(row, col)))
		}
		widths[col] = min(widths[col], maxCellWidth)
	}

	var b strings.Builder
	b.WriteString("```\n")
	for i, row := range rows {
		var line strings.Builder
		for col, w := range widths {
			cell := truncate(cellAt(row, col), maxCellWidth)
			line.WriteString(cell)
			line.WriteString(strings.Repeat(" ", w+1-utf8.RuneCountInString(cell)))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")

		if i == 0 {
			var rule strings.Builder
			for _, w := range widths {
				rule.WriteString(strings.Repeat("-", w))
				rule.WriteString(" ")
			}
			b.WriteString(strings.TrimRight(rule.String(), " "))
			b.WriteString("\n")
		}
	}
	b.WriteString("```")

	table := b.String()
	if len(table) > maxTableChars {
		table = truncateBytes(table, maxTableChars) + "...\n```"
	}
	return table
}

func cellAt(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
