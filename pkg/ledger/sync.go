package ledger

import (
	"strconv"
	"strings"
)

// SyncMembership rebuilds the row set from items, in the given order. User
// cells are carried over by exact item name; new items get blank cells and
// items no longer listed are dropped. The result is sorted.
func SyncMembership(existing *Ledger, group string, items []string) *Ledger {
	l := New(group)
	cells := make(map[string][]string)
	if existing != nil {
		l.Slots = append(l.Slots, existing.Slots...)
		for _, r := range existing.Rows {
			cells[r.Item] = r.Cells
		}
	}
	for _, name := range items {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		row := Row{Item: name, Cells: make([]string, len(l.Slots))}
		copy(row.Cells, cells[name])
		l.Rows = append(l.Rows, row)
	}
	l.Sort()
	return l
}

// Allocate returns the slot for user, creating it if needed. An exact label
// match wins; otherwise a case-insensitive match is reused and relabelled.
// New users take the first free slot, else a new slot is appended.
func (l *Ledger) Allocate(user string) (slot int, created bool) {
	if i := l.UserSlot(user); i >= 0 {
		return i, false
	}
	for i, s := range l.Slots {
		if s != "" && !IsSystemName(s) && strings.EqualFold(s, user) {
			l.Slots[i] = user
			return i, false
		}
	}
	return l.freeSlot(user), true
}

func (l *Ledger) freeSlot(label string) int {
	for i, s := range l.Slots {
		if s == "" {
			l.Slots[i] = label
			return i
		}
	}
	return l.addSlot(label)
}

// ApplyScores writes a user's dense ranks into their column: every row gets
// its rank or a blank. Returns the slot used.
func (l *Ledger) ApplyScores(user string, ranks map[string]int) int {
	slot, _ := l.Allocate(user)
	l.fill(slot, ranks)
	return slot
}

// PasteRanks writes ranks into a brand new column labelled user, always
// taking the first free slot, then re-sorts.
func (l *Ledger) PasteRanks(user string, ranks map[string]int) int {
	slot := l.freeSlot(user)
	l.fill(slot, ranks)
	l.Sort()
	return slot
}

func (l *Ledger) fill(slot int, ranks map[string]int) {
	for i := range l.Rows {
		v := ""
		if r, ok := ranks[l.Rows[i].Item]; ok {
			v = strconv.Itoa(r)
		}
		l.Rows[i].Cells[slot] = v
	}
}

// ClearAbsent blanks the cells of every user column whose label is not in
// keep (case-insensitive). Labels stay in place. Returns the cleared labels.
// Nothing is cleared in a ledger without rows.
func (l *Ledger) ClearAbsent(keep []string) []string {
	if len(l.Rows) == 0 {
		return nil
	}
	want := make(map[string]bool, len(keep))
	for _, k := range keep {
		want[strings.ToLower(strings.TrimSpace(k))] = true
	}
	var cleared []string
	for i, s := range l.Slots {
		if s == "" || IsSystemName(s) || want[strings.ToLower(s)] {
			continue
		}
		for r := range l.Rows {
			l.Rows[r].Cells[i] = ""
		}
		cleared = append(cleared, s)
	}
	return cleared
}
