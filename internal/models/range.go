package models

import (
	"fmt"
	"strings"
)

// A1 returns a sheet-qualified range such as "VPS!B3:C14".
func A1(sheet, ref string) string {
	if strings.ContainsAny(sheet, " '!") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + ref
}

// Cell returns a single cell reference such as "B7".
func Cell(column string, row int) string {
	return fmt.Sprintf("%s%d", column, row)
}

// Span returns a rectangular reference such as "B3:C14".
func Span(fromCol string, fromRow int, toCol string, toRow int) string {
	return Cell(fromCol, fromRow) + ":" + Cell(toCol, toRow)
}
