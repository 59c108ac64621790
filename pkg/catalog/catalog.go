// Package catalog reads the canonical song list from the catalog table.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/songrank/songrank/pkg/storage"
)

// Columns holds the fixed 0-based column positions of the catalog table.
type Columns struct {
	Name        int
	AltName     int
	Attribution int
}

// DefaultColumns matches the conventional layout: alternate title in A, song in B, artist info in H.
var DefaultColumns = Columns{Name: 1, AltName: 0, Attribution: 7}

// Item is one canonical song.
type Item struct {
	Name        string
	AltName     string
	Attribution string
}

// SearchFields returns the fields group terms are matched against, in match order.
func (it Item) SearchFields() []string {
	return []string{it.AltName, it.Name, it.Attribution}
}

// Key normalises a name for identity comparisons: trimmed, NFC, lowercased.
func Key(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))
}

// Load converts the catalog table into items. Row 0 is the header and rows
// without a song name are skipped. Duplicate names are kept as-is.
func Load(t *storage.Table, cols Columns) ([]Item, error) {
	if t == nil || len(t.Rows) == 0 {
		return nil, fmt.Errorf("catalog table is empty")
	}
	if cols.Name < 0 || cols.AltName < 0 || cols.Attribution < 0 {
		return nil, fmt.Errorf("invalid catalog column layout %+v", cols)
	}
	var items []Item
	for r := 1; r < len(t.Rows); r++ {
		name := strings.TrimSpace(t.Cell(r, cols.Name))
		if name == "" {
			continue
		}
		items = append(items, Item{
			Name:        name,
			AltName:     strings.TrimSpace(t.Cell(r, cols.AltName)),
			Attribution: strings.TrimSpace(t.Cell(r, cols.Attribution)),
		})
	}
	return items, nil
}

// AttributionIndex maps each song name to its attribution string. Later rows win.
func AttributionIndex(items []Item) map[string]string {
	out := make(map[string]string, len(items))
	for _, it := range items {
		out[it.Name] = it.Attribution
	}
	return out
}

// ArtistReference groups song names by attribution string, sorted by attribution.
func ArtistReference(name string, items []Item) *storage.Table {
	byArtist := make(map[string][]string)
	for _, it := range items {
		artist := it.Attribution
		if artist == "" {
			artist = "Unknown"
		}
		byArtist[artist] = append(byArtist[artist], it.Name)
	}
	artists := make([]string, 0, len(byArtist))
	for a := range byArtist {
		artists = append(artists, a)
	}
	sort.Strings(artists)

	rows := [][]string{{"Attribution", "Matching Songs"}}
	for _, a := range artists {
		rows = append(rows, []string{a, strings.Join(byArtist[a], ", ")})
	}
	return storage.NewTable(name, rows)
}

// HeaderMap describes the catalog header row for diagnostics, e.g. "[Col 1: ID] | [Col 2: Song]".
func HeaderMap(t *storage.Table) string {
	if t == nil || len(t.Rows) == 0 {
		return ""
	}
	parts := make([]string, 0, t.Width())
	for i, h := range t.Rows[0] {
		parts = append(parts, fmt.Sprintf("[Col %d: %s]", i+1, h))
	}
	return strings.Join(parts, " | ")
}
