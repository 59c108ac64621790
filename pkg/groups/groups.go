// Package groups turns the group-definition table into membership predicates
// over catalog items.
package groups

import (
	"regexp"
	"strings"

	"github.com/songrank/songrank/pkg/catalog"
	"github.com/songrank/songrank/pkg/storage"
)

// PlaceholderNames are header labels in the definition table that never name a group.
var PlaceholderNames = []string{"Custom Tab Name", "Artist Reference"}

var (
	placeholderTerm = regexp.MustCompile(`(?i)^(id|song):$`)
	rankPrefix      = regexp.MustCompile(`^\d+\.\s+`)
	artistSeparator = regexp.MustCompile(`\s+-\s+`)
)

// Definition is one column of the definition table: a group name and its raw match terms.
// A term may hold several newline-separated sub-terms.
type Definition struct {
	Name  string
	Terms []string
}

// ParseDefinitions reads one group per column: row 0 is the name, the rest are terms.
// Blank or placeholder names and terms are skipped, as are groups without terms.
// A repeated group name extends the first definition with that name.
func ParseDefinitions(t *storage.Table) []Definition {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}
	var defs []Definition
	index := make(map[string]int)
	for col := 0; col < t.Width(); col++ {
		name := strings.TrimSpace(t.Cell(0, col))
		if name == "" || isPlaceholderName(name) {
			continue
		}
		var terms []string
		for row := 1; row < len(t.Rows); row++ {
			v := strings.TrimSpace(t.Cell(row, col))
			if v == "" || placeholderTerm.MatchString(v) {
				continue
			}
			terms = append(terms, v)
		}
		if len(terms) == 0 {
			continue
		}
		if i, ok := index[name]; ok {
			defs[i].Terms = append(defs[i].Terms, terms...)
			continue
		}
		index[name] = len(defs)
		defs = append(defs, Definition{Name: name, Terms: terms})
	}
	return defs
}

func isPlaceholderName(name string) bool {
	for _, p := range PlaceholderNames {
		if name == p {
			return true
		}
	}
	return false
}

// Term is one normalised sub-term.
type Term struct {
	Raw    string
	Search string
	// Base is the part of Search before a " - " separator ("Song - Artist" pastes).
	Base string
}

// NewTerm normalises a single sub-term. ok is false when nothing searchable is left.
func NewTerm(raw string) (Term, bool) {
	search := strings.TrimSpace(rankPrefix.ReplaceAllString(catalog.Key(raw), ""))
	if search == "" {
		return Term{}, false
	}
	base := strings.TrimSpace(artistSeparator.Split(search, 2)[0])
	return Term{Raw: raw, Search: search, Base: base}, true
}

// SplitTerms splits a raw term cell on newlines only; other separators are part of the term.
func SplitTerms(raw string) []Term {
	var out []Term
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if t, ok := NewTerm(line); ok {
			out = append(out, t)
		}
	}
	return out
}

// Group is a resolved group with its compiled terms.
type Group struct {
	Name  string
	Terms []Term
}

// Resolve compiles every definition. An empty definition set yields no groups.
func Resolve(defs []Definition) []Group {
	out := make([]Group, 0, len(defs))
	for _, d := range defs {
		g := Group{Name: d.Name}
		for _, raw := range d.Terms {
			g.Terms = append(g.Terms, SplitTerms(raw)...)
		}
		out = append(out, g)
	}
	return out
}

// Matches reports whether any term matches any searchable field of the item.
func (g Group) Matches(item catalog.Item) bool {
	_, _, ok := g.Explain(item)
	return ok
}

// Explain returns the first term and rule that matched the item.
func (g Group) Explain(item catalog.Item) (Term, Rule, bool) {
	fields := item.SearchFields()
	for _, t := range g.Terms {
		if r, ok := t.Match(fields); ok {
			return t, r, true
		}
	}
	return Term{}, "", false
}

// Members filters items by the group predicate, keeping catalog order.
func (g Group) Members(items []catalog.Item) []catalog.Item {
	var out []catalog.Item
	for _, it := range items {
		if g.Matches(it) {
			out = append(out, it)
		}
	}
	return out
}
