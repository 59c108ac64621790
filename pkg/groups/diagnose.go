package groups

import (
	"strings"

	"github.com/songrank/songrank/pkg/catalog"
)

// Diagnosis is an advisory report on one definition. It is informational
// only: Missed uses plain containment without the length gate, so it can
// disagree with Matches.
type Diagnosis struct {
	Group      string
	Terms      []string
	MatchCount int
	Missed     []string
}

// Diagnose counts members and lists raw terms not found in any member's fields.
func Diagnose(def Definition, items []catalog.Item) Diagnosis {
	g := Resolve([]Definition{def})[0]
	d := Diagnosis{Group: def.Name, Terms: append([]string(nil), def.Terms...)}
	missed := append([]string(nil), def.Terms...)
	for _, it := range items {
		if !g.Matches(it) {
			continue
		}
		d.MatchCount++
		name := strings.ToLower(it.Name)
		if name == "" {
			name = strings.ToLower(it.AltName)
		}
		alt := strings.ToLower(it.AltName)
		attr := strings.ToLower(it.Attribution)
		kept := missed[:0]
		for _, id := range missed {
			clean := strings.ToLower(id)
			if !strings.Contains(name, clean) && !strings.Contains(attr, clean) && !strings.Contains(alt, clean) {
				kept = append(kept, id)
			}
		}
		missed = kept
	}
	d.Missed = missed
	return d
}
