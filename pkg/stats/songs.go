package stats

import (
	"math"
)

// UserRank is one user's rank of an item.
type UserRank struct {
	User  string
	Rank  float64
	Group string
}

// Song aggregates every rank of one item name across groups.
type Song struct {
	Name        string
	Attribution string
	Ranks       []UserRank
	Mean        float64
	StdDev      float64
	Min         float64
	Max         float64
}

// SongIndex is the cross-group view used by the global reports.
type SongIndex struct {
	// Songs holds items with at least one rank, in first-seen order.
	Songs []*Song
	// Users holds every user with at least one rank, in first-seen order.
	Users []string
}

// CollectSongs merges the ranks of items with the same name across groups.
// attribution maps item names to their catalog attribution; it may be nil.
func CollectSongs(ms []Matrix, attribution map[string]string) SongIndex {
	var idx SongIndex
	byName := make(map[string]*Song)
	seenUser := make(map[string]bool)
	for _, m := range ms {
		for r, item := range m.Items {
			for u, c := range m.Cells[r] {
				if !c.Ok {
					continue
				}
				s := byName[item]
				if s == nil {
					s = &Song{Name: item, Attribution: attribution[item]}
					byName[item] = s
					idx.Songs = append(idx.Songs, s)
				}
				user := m.Users[u]
				s.Ranks = append(s.Ranks, UserRank{User: user, Rank: c.Rank, Group: m.Group})
				if !seenUser[user] {
					seenUser[user] = true
					idx.Users = append(idx.Users, user)
				}
			}
		}
	}
	for _, s := range idx.Songs {
		ranks := s.values()
		s.Mean, s.StdDev = MeanStdDev(ranks)
		s.Min, s.Max = math.Inf(1), math.Inf(-1)
		for _, v := range ranks {
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
	}
	return idx
}

func (s *Song) values() []float64 {
	out := make([]float64, len(s.Ranks))
	for i, r := range s.Ranks {
		out[i] = r.Rank
	}
	return out
}

// MRR is the mean of 1/(1+rank) over the item's ranks.
func (s *Song) MRR() float64 {
	if len(s.Ranks) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range s.Ranks {
		sum += 1 / (1 + r.Rank)
	}
	return sum / float64(len(s.Ranks))
}

// Consistency is 100 - min(stdDev*5, 100).
func (s *Song) Consistency() float64 {
	return 100 - math.Min(s.StdDev*5, 100)
}

// Agreement is 100 - min(stdDev*2, 100).
func (s *Song) Agreement() float64 {
	return 100 - math.Min(s.StdDev*2, 100)
}
