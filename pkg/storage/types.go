package storage

import "time"

// Table is a named grid of text cells. Row 0 is the header row.
// Rows are kept rectangular: every row has Width() cells.
type Table struct {
	Name string
	Rows [][]string
}

// NewTable builds a rectangular table, padding short rows with blank cells.
func NewTable(name string, rows [][]string) *Table {
	t := &Table{Name: name}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	t.Rows = make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, width)
		copy(row, r)
		t.Rows[i] = row
	}
	return t
}

// Width returns the number of columns.
func (t *Table) Width() int {
	if t == nil || len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// Cell returns the raw value at (row, col), or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if t == nil || row < 0 || col < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Set writes a cell, growing the table as needed.
func (t *Table) Set(row, col int, value string) {
	for len(t.Rows) <= row {
		t.Rows = append(t.Rows, make([]string, t.Width()))
	}
	if col >= t.Width() {
		width := col + 1
		for i := range t.Rows {
			grown := make([]string, width)
			copy(grown, t.Rows[i])
			t.Rows[i] = grown
		}
	}
	t.Rows[row][col] = value
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	return NewTable(t.Name, t.Rows)
}

// LogRecord is one persisted entry of the sync log.
type LogRecord struct {
	RunID      string    `json:"run_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
}

// TableStats describes one stored table.
type TableStats struct {
	Name      string    `json:"name"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	Cells     int       `json:"cells"`
	UpdatedAt time.Time `json:"updated_at"`
}
