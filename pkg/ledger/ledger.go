// Package ledger holds the per-group score matrix: one row per item, one
// column per user, plus the derived Points and Average columns.
package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/storage"
)

// System column positions. User columns start at FirstUserColumn.
const (
	ColRank = iota
	ColItem
	ColPoints
	ColAverage
	FirstUserColumn
)

// SystemColumns is the header written for the fixed columns.
var SystemColumns = []string{"Rank", "Song", "Points", "Average"}

// systemNames are header labels that never denote a user, compared case-insensitively.
var systemNames = map[string]bool{"rank": true, "song": true, "item": true, "points": true, "average": true}

// IsSystemName reports whether a header label belongs to a system column.
func IsSystemName(name string) bool {
	return systemNames[strings.ToLower(strings.TrimSpace(name))]
}

// Row is one item of the ledger. Cells are raw user cells aligned with Ledger.Slots.
type Row struct {
	Rank  int
	Item  string
	Cells []string
}

// Scores returns the numeric user scores of the row; blank and text cells are absent.
func (r Row) Scores() []float64 {
	var out []float64
	for _, c := range r.Cells {
		if v, ok := utils.ParseNumber(c); ok {
			out = append(out, v)
		}
	}
	return out
}

// Points is the sum of the numeric user scores.
func (r Row) Points() float64 {
	sum := 0.0
	for _, v := range r.Scores() {
		sum += v
	}
	return sum
}

// Average is the mean of the numeric user scores, or 0 when there are none.
func (r Row) Average() float64 {
	s := r.Scores()
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// Ledger is the in-memory form of one group table.
type Ledger struct {
	Group string
	// Slots are the header labels of the user columns. A blank label is a free slot.
	Slots []string
	Rows  []Row
}

// New returns an empty ledger.
func New(group string) *Ledger {
	return &Ledger{Group: group}
}

// FromTable decodes a group table. A nil or empty table gives an empty ledger.
// Rows without an item name are dropped.
func FromTable(t *storage.Table) *Ledger {
	if t == nil {
		return New("")
	}
	l := New(t.Name)
	if len(t.Rows) == 0 {
		return l
	}
	for col := FirstUserColumn; col < t.Width(); col++ {
		l.Slots = append(l.Slots, strings.TrimSpace(t.Cell(0, col)))
	}
	for r := 1; r < len(t.Rows); r++ {
		item := strings.TrimSpace(t.Cell(r, ColItem))
		if item == "" {
			continue
		}
		rank, _ := strconv.Atoi(strings.TrimSpace(t.Cell(r, ColRank)))
		row := Row{Rank: rank, Item: item, Cells: make([]string, len(l.Slots))}
		for i := range l.Slots {
			row.Cells[i] = strings.TrimSpace(t.Cell(r, FirstUserColumn+i))
		}
		l.Rows = append(l.Rows, row)
	}
	return l
}

// ToTable encodes the ledger, recomputing Points and Average.
func (l *Ledger) ToTable() *storage.Table {
	header := append(append([]string(nil), SystemColumns...), l.Slots...)
	rows := [][]string{header}
	for _, r := range l.Rows {
		line := []string{strconv.Itoa(r.Rank), r.Item, utils.FormatNumber(r.Points()), fmt.Sprintf("%.2f", r.Average())}
		line = append(line, r.Cells...)
		rows = append(rows, line)
	}
	return storage.NewTable(l.Group, rows)
}

// ItemNames returns the item names in row order.
func (l *Ledger) ItemNames() []string {
	out := make([]string, 0, len(l.Rows))
	for _, r := range l.Rows {
		out = append(out, r.Item)
	}
	return out
}

// Users returns the labels of user columns, skipping free slots and system labels.
func (l *Ledger) Users() []string {
	var out []string
	for _, s := range l.Slots {
		if s != "" && !IsSystemName(s) {
			out = append(out, s)
		}
	}
	return out
}

// UserSlot returns the slot index of a user column (exact label match) or -1.
func (l *Ledger) UserSlot(user string) int {
	for i, s := range l.Slots {
		if s == user && !IsSystemName(s) {
			return i
		}
	}
	return -1
}

// Column converts a slot index to a 0-based table column.
func Column(slot int) int { return FirstUserColumn + slot }

// Sort orders rows by ascending Points, keeping the previous order for
// equal points, and renumbers ranks 1..k.
func (l *Ledger) Sort() {
	sort.SliceStable(l.Rows, func(i, j int) bool { return l.Rows[i].Points() < l.Rows[j].Points() })
	for i := range l.Rows {
		l.Rows[i].Rank = i + 1
	}
}

// SortByItem orders rows alphabetically by item name. Ranks are reset to 0
// since they no longer reflect points order.
func (l *Ledger) SortByItem() {
	sort.SliceStable(l.Rows, func(i, j int) bool { return l.Rows[i].Item < l.Rows[j].Item })
	for i := range l.Rows {
		l.Rows[i].Rank = 0
	}
}

func (l *Ledger) addSlot(label string) int {
	l.Slots = append(l.Slots, label)
	for i := range l.Rows {
		l.Rows[i].Cells = append(l.Rows[i].Cells, "")
	}
	return len(l.Slots) - 1
}
