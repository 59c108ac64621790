package stats

import (
	"fmt"
	"math"
	"sort"
)

// GroupDivergence is the pairwise divergence of one group.
type GroupDivergence struct {
	Group     string
	Users     []string
	ValidRows int
	// Matrix[u1][u2] is the divergence between two users; Matrix[u][u] is 0.
	Matrix    map[string]map[string]float64
	Consensus float64
	Partners  []Partner
}

// Partner is a user's closest (friend) and furthest (rival) peer in a group.
type Partner struct {
	User        string
	Rival       string
	RivalScore  float64
	Friend      string
	FriendScore float64
}

// Tally counts how often a user was chosen as someone's friend or rival.
type Tally struct {
	Friend int
	Rival  int
}

// Skip explains why a group produced no divergence data.
type Skip struct {
	Group  string
	Reason string
}

// Divergence aggregates the per-group results.
type Divergence struct {
	Groups  []GroupDivergence
	Skipped []Skip
	// Users lists every user seen in any group, sorted, including groups that were skipped.
	Users  []string
	Tally  map[string]*Tally
	global map[string]map[string]*pairTotal
}

type pairTotal struct {
	total float64
	count int
}

// PairDivergence is (sum over rows of |rank_a - rank_b|) / len(rows)^2 * 100.
func PairDivergence(m Matrix, rows []int, a, b int) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rows {
		sum += math.Abs(m.Cells[r][a].Rank - m.Cells[r][b].Rank)
	}
	n := float64(len(rows))
	return sum / (n * n) * 100
}

// ComputeDivergence runs the divergence analysis over every group. A group
// needs at least two users and one fully covered row.
func ComputeDivergence(ms []Matrix) Divergence {
	d := Divergence{Tally: make(map[string]*Tally), global: make(map[string]map[string]*pairTotal)}
	seen := make(map[string]bool)
	for _, m := range ms {
		for _, u := range m.Users {
			if !seen[u] {
				seen[u] = true
				d.Users = append(d.Users, u)
			}
		}
		if len(m.Items) == 0 {
			d.Skipped = append(d.Skipped, Skip{m.Group, "no data rows"})
			continue
		}
		if len(m.Users) < 2 {
			d.Skipped = append(d.Skipped, Skip{m.Group, fmt.Sprintf("not enough users (%d)", len(m.Users))})
			continue
		}
		rows := m.FullCoverageRows()
		if len(rows) == 0 {
			d.Skipped = append(d.Skipped, Skip{m.Group, "0 songs shared by all users"})
			continue
		}
		d.Groups = append(d.Groups, d.group(m, rows))
	}
	sort.Strings(d.Users)
	return d
}

func (d *Divergence) group(m Matrix, rows []int) GroupDivergence {
	g := GroupDivergence{Group: m.Group, ValidRows: len(rows), Matrix: make(map[string]map[string]float64)}
	total, pairs := 0.0, 0
	for a, u1 := range m.Users {
		g.Matrix[u1] = make(map[string]float64)
		if d.global[u1] == nil {
			d.global[u1] = make(map[string]*pairTotal)
		}
		for b, u2 := range m.Users {
			v := PairDivergence(m, rows, a, b)
			g.Matrix[u1][u2] = v
			pt := d.global[u1][u2]
			if pt == nil {
				pt = &pairTotal{}
				d.global[u1][u2] = pt
			}
			pt.total += v
			pt.count++
			if u1 != u2 {
				total += v
				pairs++
			}
		}
	}
	if pairs > 0 {
		g.Consensus = total / float64(pairs)
	}

	g.Users = append([]string(nil), m.Users...)
	sort.Strings(g.Users)
	for _, u := range g.Users {
		p := Partner{User: u}
		first := true
		for _, other := range g.Users {
			if other == u {
				continue
			}
			v := g.Matrix[u][other]
			if first || v < p.FriendScore {
				p.Friend, p.FriendScore = other, v
			}
			if first || v > p.RivalScore {
				p.Rival, p.RivalScore = other, v
			}
			first = false
		}
		if first {
			continue
		}
		g.Partners = append(g.Partners, p)
		d.tally(p.Friend).Friend++
		d.tally(p.Rival).Rival++
	}
	return g
}

func (d *Divergence) tally(user string) *Tally {
	t := d.Tally[user]
	if t == nil {
		t = &Tally{}
		d.Tally[user] = t
	}
	return t
}

// Global returns the mean divergence of a pair over the groups where both
// users were compared. ok is false when they never were.
func (d Divergence) Global(u1, u2 string) (float64, bool) {
	pt := d.global[u1][u2]
	if pt == nil || pt.count == 0 {
		return 0, false
	}
	return pt.total / float64(pt.count), true
}

// OppsReports renders the divergence analysis: the consensus summary, the
// global matrix, each group's matrix with its partners, and the tallies.
func (d Divergence) OppsReports() []Report {
	if len(d.Groups) == 0 {
		return []Report{{
			Key:     "opps",
			Title:   "No divergence data found across any tabs. Check shared song scores.",
			Headers: []string{},
		}}
	}

	consensus := Report{
		Key:     "consensus",
		Title:   "--- GROUP CONSENSUS SUMMARY ---",
		Headers: []string{"Group Name", "Avg. Internal Divergence (Lower = More Unified)", "Songs Analyzed"},
	}
	groups := append([]GroupDivergence(nil), d.Groups...)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Consensus < groups[j].Consensus })
	for _, g := range groups {
		consensus.add(HighlightNone, g.Group, f2(g.Consensus), fmt.Sprintf("%d songs", g.ValidRows))
	}

	global := Report{
		Key:     "global",
		Title:   "--- GLOBAL: User-to-User Divergence Matrix ---",
		Headers: append([]string{"User Name"}, d.Users...),
	}
	for _, u1 := range d.Users {
		cells := []string{u1}
		for _, u2 := range d.Users {
			v, _ := d.Global(u1, u2)
			cells = append(cells, f2(v))
		}
		global.add(HighlightNone, cells...)
	}

	out := []Report{consensus, global}
	for _, g := range d.Groups {
		mx := Report{
			Key:     "group:" + g.Group,
			Title:   fmt.Sprintf("--- TAB: %s (Per-Group Matrix) ---", g.Group),
			Headers: append([]string{"User Name"}, g.Users...),
		}
		for _, u1 := range g.Users {
			cells := []string{u1}
			for _, u2 := range g.Users {
				cells = append(cells, f2(g.Matrix[u1][u2]))
			}
			mx.add(HighlightNone, cells...)
		}
		partners := Report{
			Key:     "partners:" + g.Group,
			Title:   g.Group + " partners",
			Headers: []string{"User", "Rival (Most Diff)", "Score", "Friend (Least Diff)", "Score"},
		}
		for _, p := range g.Partners {
			partners.add(HighlightNone, p.User, p.Rival, f2(p.RivalScore), p.Friend, f2(p.FriendScore))
		}
		out = append(out, mx, partners)
	}

	tally := Report{
		Key:     "tally",
		Title:   "--- FRIEND / RIVAL TALLY ---",
		Headers: []string{"User", "Times Friend", "Times Rival"},
	}
	names := make([]string, 0, len(d.Tally))
	for u := range d.Tally {
		names = append(names, u)
	}
	sort.Strings(names)
	for _, u := range names {
		t := d.Tally[u]
		tally.add(HighlightNone, u, fmt.Sprint(t.Friend), fmt.Sprint(t.Rival))
	}
	return append(out, tally)
}

func f1(v float64) string { return fmt.Sprintf("%.1f", v) }
func f2(v float64) string { return fmt.Sprintf("%.2f", v) }
