package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songrank/songrank/pkg/storage"
)

func baseTable() *storage.Table {
	return storage.NewTable("Base", [][]string{
		{"Romaji", "Song", "C", "D", "E", "F", "G", "Artist Info"},
		{"song a", " Song A (TV Size) ", "", "", "", "", "", "ID:96;ID:97"},
		{"", "", "", "", "", "", "", "ID:1"},
		{"b", "Song B", "", "", "", "", "", ""},
	})
}

func TestLoad(t *testing.T) {
	items, err := Load(baseTable(), DefaultColumns)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, Item{Name: "Song A (TV Size)", AltName: "song a", Attribution: "ID:96;ID:97"}, items[0])
	assert.Equal(t, []string{"b", "Song B", ""}, items[1].SearchFields())
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(storage.NewTable("Base", nil), DefaultColumns)
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "song a", Key("  Song A "))
	assert.Equal(t, Key("CAFÉ"), Key("café"))
}

func TestArtistReference(t *testing.T) {
	items, err := Load(baseTable(), DefaultColumns)
	require.NoError(t, err)
	ref := ArtistReference("Artist Reference", items)
	assert.Equal(t, [][]string{
		{"Attribution", "Matching Songs"},
		{"ID:96;ID:97", "Song A (TV Size)"},
		{"Unknown", "Song B"},
	}, ref.Rows)
}

func TestHeaderMap(t *testing.T) {
	tbl := storage.NewTable("Base", [][]string{{"ID", "Song"}})
	assert.Equal(t, "[Col 1: ID] | [Col 2: Song]", HeaderMap(tbl))
}
