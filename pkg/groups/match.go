package groups

import (
	"strings"
	"unicode/utf8"

	"github.com/songrank/songrank/pkg/catalog"
)

// minContainLen gates substring checks: the contained string must be longer than this.
const minContainLen = 3

// Rule names a match predicate.
type Rule string

const (
	RuleExact               Rule = "exact"
	RuleExactBase           Rule = "exact-base"
	RuleContains            Rule = "contains"
	RuleContainsBase        Rule = "contains-base"
	RuleReverseContains     Rule = "reverse-contains"
	RuleReverseContainsBase Rule = "reverse-contains-base"
)

type predicate struct {
	rule Rule
	fn   func(field string, t Term) bool
}

// predicates are evaluated in order and short-circuit on the first hit.
var predicates = []predicate{
	{RuleExact, func(f string, t Term) bool { return f == t.Search }},
	{RuleExactBase, func(f string, t Term) bool { return f == t.Base }},
	{RuleContains, func(f string, t Term) bool { return containsGated(f, t.Search) }},
	{RuleContainsBase, func(f string, t Term) bool { return containsGated(f, t.Base) }},
	{RuleReverseContains, func(f string, t Term) bool { return containsGated(t.Search, f) }},
	{RuleReverseContainsBase, func(f string, t Term) bool { return containsGated(t.Base, f) }},
}

// containsGated reports whether haystack contains needle and needle is long
// enough for containment to be meaningful.
func containsGated(haystack, needle string) bool {
	return utf8.RuneCountInString(needle) > minContainLen && strings.Contains(haystack, needle)
}

// Match tests the term against each field in order. Blank fields never match.
func (t Term) Match(fields []string) (Rule, bool) {
	for _, raw := range fields {
		field := catalog.Key(raw)
		if field == "" {
			continue
		}
		for _, p := range predicates {
			if p.fn(field, t) {
				return p.rule, true
			}
		}
	}
	return "", false
}
