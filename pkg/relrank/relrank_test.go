package relrank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/songrank/songrank/pkg/rankparse"
)

func TestNormalizeDenseTies(t *testing.T) {
	entries := []rankparse.Entry{{Rank: 1, Name: "a"}, {Rank: 2, Name: "b"}, {Rank: 2, Name: "c"}, {Rank: 4, Name: "d"}}
	m := Normalize(entries, []string{"a", "b", "c", "d"})
	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 2, "d": 3}, m.Ranks)
	assert.Equal(t, 4, m.Matched)
	assert.Empty(t, m.Unmatched)
}

func TestNormalizeRestrictsAndCompresses(t *testing.T) {
	entries := []rankparse.Entry{
		{Rank: 40, Name: "Song C"},
		{Rank: 3, Name: "song a"},
		{Rank: 17, Name: "Not Here"},
		{Rank: 12, Name: "SONG B"},
	}
	m := Normalize(entries, []string{"Song A", "Song B", "Song C"})
	assert.Equal(t, map[string]int{"Song A": 1, "Song B": 2, "Song C": 3}, m.Ranks)
	assert.Equal(t, 3, m.Matched)
	assert.Equal(t, 4, m.Submitted)
	assert.Equal(t, []string{"Not Here"}, m.Unmatched)
}

func TestNormalizeEmpty(t *testing.T) {
	m := Normalize(nil, []string{"x"})
	assert.Empty(t, m.Ranks)
	assert.Zero(t, m.Matched)
}
