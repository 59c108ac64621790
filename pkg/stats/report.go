package stats

import (
	"github.com/songrank/songrank/pkg/storage"
)

// Highlight classifies a report row for presentation.
type Highlight string

const (
	HighlightNone   Highlight = ""
	HighlightMild   Highlight = "mild"
	HighlightStrong Highlight = "strong"
	HighlightSevere Highlight = "severe"
	HighlightGood   Highlight = "good"
	HighlightBad    Highlight = "bad"
	HighlightCool   Highlight = "cool"
)

// Report is a titled table ready for a presentation sink.
type Report struct {
	Key         string      `json:"key" yaml:"key"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Headers     []string    `json:"headers" yaml:"headers"`
	Rows        [][]string  `json:"rows" yaml:"rows"`
	Highlights  []Highlight `json:"highlights,omitempty" yaml:"highlights,omitempty"`
}

func (r *Report) add(h Highlight, cells ...string) {
	r.Rows = append(r.Rows, cells)
	r.Highlights = append(r.Highlights, h)
}

// Width is the number of columns the report occupies.
func (r Report) Width() int {
	w := len(r.Headers)
	for _, row := range r.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	if w == 0 {
		w = 1
	}
	return w
}

func (r Report) height() int {
	h := 2 + len(r.Rows)
	if r.Description != "" {
		h++
	}
	return h
}

// Layout places reports on a grid, perRow side by side, and returns the
// resulting table. Every column of the grid is as wide as its widest report
// plus a gap of gap blank columns; bands are separated by two blank rows.
func Layout(name string, reports []Report, perRow, gap int) *storage.Table {
	t := storage.NewTable(name, nil)
	if len(reports) == 0 {
		return t
	}
	if perRow < 1 {
		perRow = 1
	}
	offsets := make([]int, perRow)
	for slot := 1; slot < perRow; slot++ {
		widest := 0
		for i := slot - 1; i < len(reports); i += perRow {
			if w := reports[i].Width(); w > widest {
				widest = w
			}
		}
		offsets[slot] = offsets[slot-1] + widest + gap
	}

	row := 0
	for start := 0; start < len(reports); start += perRow {
		tallest := 0
		for slot := 0; slot < perRow && start+slot < len(reports); slot++ {
			r := reports[start+slot]
			place(t, r, row, offsets[slot])
			if h := r.height(); h > tallest {
				tallest = h
			}
		}
		row += tallest + 2
	}
	return t
}

func place(t *storage.Table, r Report, row, col int) {
	t.Set(row, col, r.Title)
	row++
	if r.Description != "" {
		t.Set(row, col, r.Description)
		row++
	}
	for i, h := range r.Headers {
		t.Set(row, col+i, h)
	}
	row++
	for _, cells := range r.Rows {
		for i, c := range cells {
			t.Set(row, col+i, c)
		}
		row++
	}
}
