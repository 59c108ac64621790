package stats

import (
	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/ledger"
)

// UserCoverage is how many rows a user column has a numeric rank for.
type UserCoverage struct {
	User   string
	Scored int
}

// Coverage describes whether a ledger can feed the divergence matrix. Unlike
// FromLedger it counts every labelled user column, including empty ones.
type Coverage struct {
	Group     string
	Rows      int
	Users     []UserCoverage
	ValidRows int
}

// Ready reports whether the divergence matrix has data to work with.
func (c Coverage) Ready() bool { return len(c.Users) >= 2 && c.ValidRows > 0 }

// LedgerCoverage inspects the user columns of a ledger.
func LedgerCoverage(l *ledger.Ledger) Coverage {
	c := Coverage{Group: l.Group, Rows: len(l.Rows)}
	var slots []int
	for i, s := range l.Slots {
		if s == "" || ledger.IsSystemName(s) {
			continue
		}
		slots = append(slots, i)
		uc := UserCoverage{User: s}
		for _, r := range l.Rows {
			if _, ok := utils.ParseNumber(r.Cells[i]); ok {
				uc.Scored++
			}
		}
		c.Users = append(c.Users, uc)
	}
	if len(slots) == 0 {
		return c
	}
	for _, r := range l.Rows {
		full := true
		for _, i := range slots {
			if _, ok := utils.ParseNumber(r.Cells[i]); !ok {
				full = false
				break
			}
		}
		if full {
			c.ValidRows++
		}
	}
	return c
}
