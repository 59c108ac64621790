package stats

import (
	"fmt"
	"sort"
)

// Take is one user's deviation from the group mean on one item.
type Take struct {
	Group string
	User  string
	Item  string
	Rank  float64
	Mean  float64
	// Deviation is Rank - Mean: positive means ranked worse than consensus.
	Deviation float64
	// Score is Deviation scaled by the group's item count, in percent.
	Score float64
}

// GroupTakes lists every take of a group. Items need at least two ranks.
func GroupTakes(m Matrix) []Take {
	var out []Take
	n := float64(len(m.Items))
	for r := range m.Cells {
		users, ranks := m.rowRanks(r)
		if len(ranks) < 2 {
			continue
		}
		avg := mean(ranks)
		for i, u := range users {
			dev := ranks[i] - avg
			out = append(out, Take{
				Group:     m.Group,
				User:      m.Users[u],
				Item:      m.Items[r],
				Rank:      ranks[i],
				Mean:      avg,
				Deviation: dev,
				Score:     dev / n * 100,
			})
		}
	}
	return out
}

// SplitTakes separates glazes (score < 0, most negative first) from hot
// takes (score > 0, largest first). Zero scores are neither.
func SplitTakes(takes []Take) (glazes, hot []Take) {
	for _, t := range takes {
		switch {
		case t.Score < 0:
			glazes = append(glazes, t)
		case t.Score > 0:
			hot = append(hot, t)
		}
	}
	sort.SliceStable(glazes, func(i, j int) bool { return glazes[i].Score < glazes[j].Score })
	sort.SliceStable(hot, func(i, j int) bool { return hot[i].Score > hot[j].Score })
	return glazes, hot
}

// TakesReports renders glazes and hot takes for every group that has takes.
func TakesReports(ms []Matrix) []Report {
	var out []Report
	for _, m := range ms {
		takes := GroupTakes(m)
		if len(takes) == 0 {
			continue
		}
		glazes, hot := SplitTakes(takes)
		out = append(out,
			takesReport("glazes:"+m.Group, fmt.Sprintf("--- GROUP: %s --- BIGGEST GLAZES", m.Group), glazes, HighlightCool),
			takesReport("hot:"+m.Group, fmt.Sprintf("--- GROUP: %s --- HOTTEST TAKES", m.Group), hot, HighlightStrong),
		)
	}
	return out
}

func takesReport(key, title string, takes []Take, h Highlight) Report {
	r := Report{Key: key, Title: title, Headers: []string{"%", "User", "Song", "Rank", "Avg"}}
	if len(takes) == 0 {
		r.add(HighlightNone, "(No takes)")
		return r
	}
	for _, t := range takes {
		r.add(h, f1(t.Score), t.User, t.Item, fmt.Sprintf("%.0f", t.Rank), f1(t.Mean))
	}
	return r
}
