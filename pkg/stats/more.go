package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/songrank/songrank/internal/utils"
)

// MoreReports builds every cross-group report in display order. The
// disputes and subunit reports are omitted when they have nothing to show.
func MoreReports(ms []Matrix, idx SongIndex, opts Options) []Report {
	opts = opts.withDefaults()
	out := []Report{
		Controversial(idx, opts),
		Consistent(idx, opts),
		GlobalHotTakes(idx, opts),
	}
	if r, ok := Disputes(ms, opts); ok {
		out = append(out, r)
	}
	out = append(out, TopBottom(idx, opts), Sleepers(idx, opts))
	if r, ok := SubunitPopularity(idx, opts); ok {
		out = append(out, r)
	}
	return append(out, Outliers(ms))
}

func sortedSongs(idx SongIndex, less func(a, b *Song) bool) []*Song {
	songs := append([]*Song(nil), idx.Songs...)
	sort.SliceStable(songs, func(i, j int) bool { return less(songs[i], songs[j]) })
	return songs
}

// Controversial lists the items with the highest rank standard deviation.
func Controversial(idx SongIndex, opts Options) Report {
	opts = opts.withDefaults()
	r := Report{
		Key:     "controversial",
		Title:   "MOST CONTROVERSIAL SONGS (highest std deviation songs (disagreement))",
		Headers: []string{"Rank", "Song", "Disagreement", "Avg Rank", "Range (Min-Max)"},
	}
	songs := sortedSongs(idx, func(a, b *Song) bool { return a.StdDev > b.StdDev })
	for i, s := range limit(songs, opts.TopN) {
		h := HighlightNone
		switch {
		case s.StdDev > 30:
			h = HighlightStrong
		case s.StdDev > 20:
			h = HighlightMild
		}
		r.add(h, fmt.Sprint(i+1), s.Name, f2(s.StdDev), f1(s.Mean), utils.FormatNumber(s.Min)+"-"+utils.FormatNumber(s.Max))
	}
	return r
}

// Consistent lists the items with the lowest rank standard deviation.
func Consistent(idx SongIndex, opts Options) Report {
	opts = opts.withDefaults()
	r := Report{
		Key:     "consistent",
		Title:   "MOST CONSISTENTLY RANKED (lowest std deviation songs)",
		Headers: []string{"Rank", "Song", "Consistency", "Avg Rank"},
	}
	songs := sortedSongs(idx, func(a, b *Song) bool { return a.StdDev < b.StdDev })
	for i, s := range limit(songs, opts.TopN) {
		r.add(HighlightCool, fmt.Sprint(i+1), s.Name, fmt.Sprintf("%.0f%%", s.Consistency()), f1(s.Mean))
	}
	return r
}

// HotTake is a single rank far from the item's cross-group mean.
type HotTake struct {
	Song      string
	User      string
	Rank      float64
	Mean      float64
	Deviation float64
}

// Label is "Overrated!" for positive deviations and "Underrated!" otherwise.
func (h HotTake) Label() string {
	if h.Deviation > 0 {
		return "Overrated!"
	}
	return "Underrated!"
}

// HotTakes returns every rank whose |deviation| exceeds the threshold,
// largest magnitude first.
func HotTakes(idx SongIndex, threshold float64) []HotTake {
	var out []HotTake
	for _, s := range idx.Songs {
		for _, r := range s.Ranks {
			dev := r.Rank - s.Mean
			if math.Abs(dev) > threshold {
				out = append(out, HotTake{Song: s.Name, User: r.User, Rank: r.Rank, Mean: s.Mean, Deviation: dev})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].Deviation) > math.Abs(out[j].Deviation) })
	return out
}

// GlobalHotTakes renders the largest deviations across all groups.
func GlobalHotTakes(idx SongIndex, opts Options) Report {
	opts = opts.withDefaults()
	r := Report{
		Key:     "hottakes",
		Title:   "HOTTEST TAKES (regurgitation of takes tab)",
		Headers: []string{"Rank", "Song", "Hot Take Artist", "Their Rank", "Group Avg", "Deviation"},
	}
	for i, t := range limit(HotTakes(idx, opts.HotTakeThreshold), opts.TopN) {
		h := HighlightNone
		switch abs := math.Abs(t.Deviation); {
		case abs > 50:
			h = HighlightSevere
		case abs > 30:
			h = HighlightStrong
		}
		r.add(h, fmt.Sprint(i+1), t.Song, fmt.Sprintf("%s (%s)", t.User, t.Label()), fmt.Sprintf("%.0f", t.Rank), f1(t.Mean), f1(t.Deviation))
	}
	return r
}

// Dispute is the largest pairwise disagreement on one item.
type Dispute struct {
	Song    string
	Pair    string
	MaxDiff float64
	AvgDiff float64
}

// FindDisputes compares every pair of users on every item of groups with
// at least two users. The first group that yields a dispute for a name wins.
func FindDisputes(ms []Matrix) []Dispute {
	var out []Dispute
	seen := make(map[string]bool)
	for _, m := range ms {
		if len(m.Users) < 2 {
			continue
		}
		for r, item := range m.Items {
			var d Dispute
			total, pairs := 0.0, 0
			row := m.Cells[r]
			for i := 0; i < len(row); i++ {
				for j := i + 1; j < len(row); j++ {
					if !row[i].Ok || !row[j].Ok {
						continue
					}
					diff := math.Abs(row[i].Rank - row[j].Rank)
					total += diff
					pairs++
					if diff > d.MaxDiff {
						d.MaxDiff = diff
						d.Pair = m.Users[i] + " vs " + m.Users[j]
					}
				}
			}
			if pairs == 0 || seen[item] {
				continue
			}
			seen[item] = true
			d.Song = item
			d.AvgDiff = total / float64(pairs)
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MaxDiff > out[j].MaxDiff })
	return out
}

// Disputes renders the most disputed items. ok is false when no item has a pair.
func Disputes(ms []Matrix, opts Options) (Report, bool) {
	opts = opts.withDefaults()
	disputes := limit(FindDisputes(ms), opts.TopN)
	if len(disputes) == 0 {
		return Report{}, false
	}
	r := Report{
		Key:     "disputes",
		Title:   "MOST DISPUTED SONGS (1v1 fight to the death)",
		Headers: []string{"Rank", "Song", "Biggest Fight", "Max Diff", "Avg Diff"},
	}
	for i, d := range disputes {
		h := HighlightNone
		switch {
		case d.MaxDiff > 100:
			h = HighlightSevere
		case d.MaxDiff > 50:
			h = HighlightStrong
		case d.MaxDiff > 20:
			h = HighlightMild
		}
		r.add(h, fmt.Sprint(i+1), d.Song, d.Pair, utils.FormatNumber(d.MaxDiff), f1(d.AvgDiff))
	}
	return r, true
}

// TopBottom lists the best and worst items by mean rank.
func TopBottom(idx SongIndex, opts Options) Report {
	opts = opts.withDefaults()
	r := Report{
		Key:         "topbottom",
		Title:       fmt.Sprintf("UNIVERSALLY TOP/BOTTOM %d", opts.ExtremesN),
		Description: "Best and worst songs with strong consensus",
		Headers:     []string{"Rank", "Song", "Avg Rank", "MRR", "Agreement"},
	}
	top := sortedSongs(idx, func(a, b *Song) bool { return a.Mean < b.Mean })
	bottom := sortedSongs(idx, func(a, b *Song) bool { return a.Mean > b.Mean })
	row := func(h Highlight, i int, s *Song) {
		r.add(h, fmt.Sprint(i+1), s.Name, f1(s.Mean), f2(s.MRR()), fmt.Sprintf("%.0f%%", s.Agreement()))
	}
	for i, s := range limit(top, opts.ExtremesN) {
		row(HighlightGood, i, s)
	}
	for i, s := range limit(bottom, opts.ExtremesN) {
		row(HighlightBad, i, s)
	}
	return r
}

// Sleeper is an item one user loves while the rest do not.
type Sleeper struct {
	Song  string
	Mean  float64
	Lover string
	Best  float64
	Gap   float64
}

// FindSleepers returns items whose best rank is below bestBelow while the
// mean is above meanAbove, largest gap first. The lover is the first user
// holding the best rank.
func FindSleepers(idx SongIndex, bestBelow, meanAbove float64) []Sleeper {
	var out []Sleeper
	for _, s := range idx.Songs {
		if len(s.Ranks) == 0 {
			continue
		}
		best := s.Ranks[0]
		for _, r := range s.Ranks[1:] {
			if r.Rank < best.Rank {
				best = r
			}
		}
		if best.Rank < bestBelow && s.Mean > meanAbove {
			out = append(out, Sleeper{Song: s.Name, Mean: s.Mean, Lover: best.User, Best: best.Rank, Gap: s.Mean - best.Rank})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Gap > out[j].Gap })
	return out
}

// Sleepers renders the sleeper items.
func Sleepers(idx SongIndex, opts Options) Report {
	opts = opts.withDefaults()
	r := Report{
		Key:         "sleepers",
		Title:       "SLEEPER SONGS (songs loved by at least one user but not by many)",
		Description: "Underrated gems loved by at least one user",
		Headers:     []string{"Rank", "Song", "Avg Rank", "Lover", "Their Rank", "Gap"},
	}
	for i, s := range limit(FindSleepers(idx, opts.SleeperBestBelow, opts.SleeperMeanAbove), opts.TopN) {
		h := HighlightGood
		switch {
		case s.Gap > 80:
			h = HighlightStrong
		case s.Gap > 50:
			h = HighlightMild
		}
		r.add(h, fmt.Sprint(i+1), s.Song, f1(s.Mean), s.Lover, utils.FormatNumber(s.Best), fmt.Sprintf("%.0f", s.Gap))
	}
	return r
}

// SubunitStat is the pooled rank distribution of one subunit.
type SubunitStat struct {
	Name   string
	Songs  int
	Mean   float64
	StdDev float64
}

// SubunitStats pools ranks per configured subunit. Subunits without ranks
// are left out; the rest are sorted by mean.
func SubunitStats(idx SongIndex, subunits []Subunit) []SubunitStat {
	pooled := make(map[string][]float64)
	counts := make(map[string]int)
	var order []string
	for _, su := range subunits {
		if _, ok := pooled[su.Name]; !ok {
			pooled[su.Name] = nil
			order = append(order, su.Name)
		}
	}
	for _, s := range idx.Songs {
		for _, su := range subunits {
			if su.Token == "" || !strings.Contains(s.Attribution, su.Token) {
				continue
			}
			pooled[su.Name] = append(pooled[su.Name], s.values()...)
			counts[su.Name]++
		}
	}
	var out []SubunitStat
	for _, name := range order {
		ranks := pooled[name]
		if len(ranks) == 0 {
			continue
		}
		m, sd := MeanStdDev(ranks)
		out = append(out, SubunitStat{Name: name, Songs: counts[name], Mean: m, StdDev: sd})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean < out[j].Mean })
	return out
}

// SubunitPopularity renders the subunit comparison. ok is false when no
// subunit is configured or none has ranks.
func SubunitPopularity(idx SongIndex, opts Options) (Report, bool) {
	stats := SubunitStats(idx, opts.Subunits)
	if len(stats) == 0 {
		return Report{}, false
	}
	names := make([]string, len(stats))
	for i, s := range stats {
		names[i] = s.Name
	}
	r := Report{
		Key:         "subunits",
		Title:       "SUBUNIT POPULARITY",
		Description: "Ranking performance of " + strings.Join(names, ", "),
		Headers:     []string{"Rank", "Subunit", "Avg Rank", "Deviation"},
	}
	for i, s := range stats {
		h := HighlightMild
		switch {
		case i == 0:
			h = HighlightGood
		case i == len(stats)-1:
			h = HighlightBad
		}
		r.add(h, fmt.Sprint(i+1), s.Name, f1(s.Mean), f2(s.StdDev))
	}
	return r, true
}

// OutlierScore is a user's average distance from everyone else.
type OutlierScore struct {
	User     string
	Distance float64
}

// OutlierScores averages, per user, the mean absolute rank difference to
// every other user over the items both ranked, across all groups. Users
// never compared score 0.
func OutlierScores(ms []Matrix) []OutlierScore {
	type acc struct {
		total float64
		count int
	}
	accs := make(map[string]*acc)
	var order []string
	for _, m := range ms {
		for a, u1 := range m.Users {
			if accs[u1] == nil {
				accs[u1] = &acc{}
				order = append(order, u1)
			}
			for b, u2 := range m.Users {
				if u1 == u2 {
					continue
				}
				dist, n := 0.0, 0
				for _, row := range m.Cells {
					if row[a].Ok && row[b].Ok {
						dist += math.Abs(row[a].Rank - row[b].Rank)
						n++
					}
				}
				if n > 0 {
					accs[u1].total += dist / float64(n)
					accs[u1].count++
				}
			}
		}
	}
	out := make([]OutlierScore, 0, len(order))
	for _, u := range order {
		s := OutlierScore{User: u}
		if a := accs[u]; a.count > 0 {
			s.Distance = a.total / float64(a.count)
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance > out[j].Distance })
	return out
}

// Outliers renders users by how far their taste is from everyone else.
func Outliers(ms []Matrix) Report {
	r := Report{
		Key:         "outliers",
		Title:       "OUTLIER RANKING (whos the spiciest)",
		Description: "Users with most unique/different taste from others",
		Headers:     []string{"Rank", "User", "Avg Distance"},
	}
	for i, o := range OutlierScores(ms) {
		h := HighlightGood
		switch {
		case o.Distance > 25:
			h = HighlightSevere
		case o.Distance > 15:
			h = HighlightStrong
		}
		r.add(h, fmt.Sprint(i+1), o.User, f1(o.Distance))
	}
	return r
}
