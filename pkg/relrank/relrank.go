// Package relrank converts a user's absolute ranks into dense ranks relative
// to one group's item set.
package relrank

import (
	"sort"

	"github.com/songrank/songrank/pkg/catalog"
	"github.com/songrank/songrank/pkg/rankparse"
)

// Mapping is the dense ranking of one user within one group.
type Mapping struct {
	// Ranks is keyed by the item name as spelled in the group.
	Ranks map[string]int
	// Matched counts submitted entries that were found in the group.
	Matched int
	// Submitted is the total number of entries considered.
	Submitted int
	// Unmatched keeps the submitted spelling of every entry not in the group.
	Unmatched []string
}

// Normalize restricts entries to the given item names (case-insensitive
// exact equality), sorts them stably by original rank and assigns dense
// ranks. Ties share a rank and the counter advances by one per distinct
// original rank, whatever the gap.
func Normalize(entries []rankparse.Entry, itemNames []string) Mapping {
	byKey := make(map[string]string, len(itemNames))
	for _, n := range itemNames {
		byKey[catalog.Key(n)] = n
	}

	type hit struct {
		rank int
		name string
	}
	m := Mapping{Ranks: make(map[string]int), Submitted: len(entries)}
	var hits []hit
	for _, e := range entries {
		name, ok := byKey[catalog.Key(e.Name)]
		if !ok {
			m.Unmatched = append(m.Unmatched, e.Name)
			continue
		}
		hits = append(hits, hit{rank: e.Rank, name: name})
	}
	m.Matched = len(hits)

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })

	current, last := 0, -1
	for _, h := range hits {
		if h.rank > last {
			current++
		}
		m.Ranks[h.name] = current
		last = h.rank
	}
	return m
}
