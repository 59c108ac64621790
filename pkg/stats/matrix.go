// Package stats computes the comparative reports over group ledgers. Every
// function is pure: ledgers in, values and Reports out. Blank or text cells
// are absent and never enter an aggregate.
package stats

import (
	"math"

	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/ledger"
)

// Cell is one user rank. Ok is false for absent cells.
type Cell struct {
	Rank float64
	Ok   bool
}

// Matrix is the items x users rank grid of one group. Only users with at
// least one numeric rank are columns.
type Matrix struct {
	Group string
	Items []string
	Users []string
	Cells [][]Cell
}

// FromLedger builds the rank grid of a ledger.
func FromLedger(l *ledger.Ledger) Matrix {
	m := Matrix{Group: l.Group, Items: l.ItemNames()}
	var slots []int
	for i, s := range l.Slots {
		if s == "" || ledger.IsSystemName(s) {
			continue
		}
		for _, r := range l.Rows {
			if _, ok := utils.ParseNumber(r.Cells[i]); ok {
				slots = append(slots, i)
				m.Users = append(m.Users, s)
				break
			}
		}
	}
	m.Cells = make([][]Cell, len(l.Rows))
	for r, row := range l.Rows {
		m.Cells[r] = make([]Cell, len(slots))
		for u, slot := range slots {
			v, ok := utils.ParseNumber(row.Cells[slot])
			m.Cells[r][u] = Cell{Rank: v, Ok: ok}
		}
	}
	return m
}

// FromLedgers converts every ledger, keeping order.
func FromLedgers(ls []*ledger.Ledger) []Matrix {
	out := make([]Matrix, 0, len(ls))
	for _, l := range ls {
		out = append(out, FromLedger(l))
	}
	return out
}

// FullCoverageRows returns the rows where every user has a rank.
func (m Matrix) FullCoverageRows() []int {
	var out []int
	for r, row := range m.Cells {
		ok := len(row) > 0
		for _, c := range row {
			if !c.Ok {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}

// rowRanks returns the present ranks of a row with their user indexes.
func (m Matrix) rowRanks(r int) (users []int, ranks []float64) {
	for u, c := range m.Cells[r] {
		if c.Ok {
			users = append(users, u)
			ranks = append(ranks, c.Rank)
		}
	}
	return users, ranks
}

// MeanStdDev returns the mean and population standard deviation.
func MeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}

func mean(values []float64) float64 {
	m, _ := MeanStdDev(values)
	return m
}
