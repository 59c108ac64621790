package stats

import (
	"math"
	"sort"
)

// SpiceScore is a user's RMS deviation from the other users' average.
type SpiceScore struct {
	User   string
	Global float64
	// HasGlobal is false when the user never shared an item with anyone.
	HasGlobal bool
	// Groups is aligned with the group order passed to ComputeSpice; nil
	// entries mean the user had no comparable item in that group.
	Groups []*float64
}

// ComputeSpice measures, per user, sqrt(mean((rank - avgOfOthers)^2)) over
// items ranked by at least two users, per group and over all groups.
// users fixes the row set; the result is sorted by global spice, highest first.
func ComputeSpice(ms []Matrix, users []string) []SpiceScore {
	perGroup := make(map[string][][]float64, len(users))
	overall := make(map[string][]float64, len(users))
	for _, u := range users {
		perGroup[u] = make([][]float64, len(ms))
	}
	for g, m := range ms {
		for r := range m.Cells {
			idx, ranks := m.rowRanks(r)
			if len(ranks) < 2 {
				continue
			}
			for i, u := range idx {
				user := m.Users[u]
				if _, ok := perGroup[user]; !ok {
					continue
				}
				others := 0.0
				for j, v := range ranks {
					if m.Users[idx[j]] != user {
						others += v
					}
				}
				n := 0
				for _, o := range idx {
					if m.Users[o] != user {
						n++
					}
				}
				if n == 0 {
					continue
				}
				d := ranks[i] - others/float64(n)
				sq := d * d
				perGroup[user][g] = append(perGroup[user][g], sq)
				overall[user] = append(overall[user], sq)
			}
		}
	}

	out := make([]SpiceScore, 0, len(users))
	for _, u := range users {
		s := SpiceScore{User: u, Groups: make([]*float64, len(ms))}
		if len(overall[u]) > 0 {
			s.Global, s.HasGlobal = rms(overall[u]), true
		}
		for g, diffs := range perGroup[u] {
			if len(diffs) > 0 {
				v := rms(diffs)
				s.Groups[g] = &v
			}
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Global > out[j].Global })
	return out
}

func rms(sq []float64) float64 {
	return math.Sqrt(mean(sq))
}

// SpiceReport renders the spice table: one row per user, the global score
// and one column per group ("-" when the user has no score there).
func SpiceReport(ms []Matrix, users []string) Report {
	r := Report{
		Key:         "spice",
		Title:       "THE SPICE METER (Group Breakdown)",
		Description: "Root Mean Squared deviation from others. Higher = More Unique.",
		Headers:     []string{"User", "Global Spice"},
	}
	for _, m := range ms {
		r.Headers = append(r.Headers, m.Group)
	}
	for _, s := range ComputeSpice(ms, users) {
		cells := []string{s.User, f1(s.Global)}
		for _, g := range s.Groups {
			if g == nil {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, f1(*g))
		}
		h := HighlightNone
		switch {
		case s.Global > 35:
			h = HighlightStrong
		case s.Global < 15:
			h = HighlightCool
		}
		r.add(h, cells...)
	}
	return r
}
