package storage

import "strings"

// NormalizeTableName trims surrounding whitespace; table names are otherwise case-sensitive.
func NormalizeTableName(s string) string {
	return strings.TrimSpace(s)
}

// trimTrailing drops trailing blank rows and columns, like a spreadsheet data range.
func trimTrailing(rows [][]string) [][]string {
	lastRow, lastCol := -1, -1
	for r, row := range rows {
		for c, v := range row {
			if v != "" {
				if r > lastRow {
					lastRow = r
				}
				if c > lastCol {
					lastCol = c
				}
			}
		}
	}
	out := make([][]string, lastRow+1)
	for r := 0; r <= lastRow; r++ {
		row := make([]string, lastCol+1)
		copy(row, rows[r])
		out[r] = row
	}
	return out
}
