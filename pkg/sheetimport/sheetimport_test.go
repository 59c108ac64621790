package sheetimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCSV(t *testing.T) {
	in := "User Name,Alice,Bob\nRanked List,\"1. Song X\n2. Song Y\",1. Song X\n"
	tbl, err := FromCSV("Paste Rankings Here", strings.NewReader(in), 0)
	require.NoError(t, err)
	assert.Equal(t, "Paste Rankings Here", tbl.Name)
	assert.Equal(t, "1. Song X\n2. Song Y", tbl.Cell(1, 1))
	assert.Equal(t, 3, tbl.Width())
}

func TestFromCSVRagged(t *testing.T) {
	tbl, err := FromCSV("Base", strings.NewReader("a;b;c\nd\n"), ';')
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "", ""}}, tbl.Rows)
}

func TestFromJSONValues(t *testing.T) {
	body := `{"range":"Base!A1:C3","majorDimension":"ROWS","values":[["Romaji","Song"],["x","Song X",3],["y",null,true]]}`
	tbl, err := FromJSON("Base", body, "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Romaji", "Song", ""}, {"x", "Song X", "3"}, {"y", "", "true"}}, tbl.Rows)
}

func TestFromJSONObjects(t *testing.T) {
	body := `[{"Song":"Song X","Artist":"ID:1"},{"Artist":"ID:2","Song":"Song Y"}]`
	tbl, err := FromJSON("Base", body, "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Song", "Artist"}, {"Song X", "ID:1"}, {"Song Y", "ID:2"}}, tbl.Rows)
}

func TestFromJSONCustomPath(t *testing.T) {
	tbl, err := FromJSON("G", `{"sheets":[{"data":[["a"],["b"]]}]}`, "sheets.0.data")
	require.NoError(t, err)
	assert.Equal(t, "b", tbl.Cell(1, 0))

	_, err = FromJSON("G", `{"sheets":[]}`, "missing")
	assert.Error(t, err)
	_, err = FromJSON("G", `{oops`, "")
	assert.Error(t, err)
}

func TestFromHTML(t *testing.T) {
	page := `<html><body><table class="waffle">
<tr><th class="row-headers-background"></th><th class="column-headers-background">A</th><th class="column-headers-background">B</th></tr>
<tr><th class="row-headers-background">1</th><td>Custom Tab Name</td><td>Unit A</td></tr>
<tr><th class="row-headers-background">2</th><td></td><td>ID:96<br>ID:97</td></tr>
</table></body></html>`
	tbl, err := FromHTML("Sheet Manager", strings.NewReader(page), "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Custom Tab Name", "Unit A"}, {"", "ID:96\nID:97"}}, tbl.Rows)

	_, err = FromHTML("x", strings.NewReader("<p>no table</p>"), "")
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	f, ok := DetectFormat("application/json; charset=utf-8", "")
	assert.True(t, ok)
	assert.Equal(t, FormatJSON, f)
	f, _ = DetectFormat("", "base.CSV")
	assert.Equal(t, FormatCSV, f)
	f, _ = DetectFormat("text/html", "")
	assert.Equal(t, FormatHTML, f)
	_, ok = DetectFormat("", "notes.txt")
	assert.False(t, ok)
}

func TestParseDispatch(t *testing.T) {
	tbl, err := Parse("Base", FormatJSON, strings.NewReader(`{"values":[["a"]]}`), Options{})
	require.NoError(t, err)
	assert.Equal(t, "a", tbl.Cell(0, 0))
	_, err = Parse("Base", Format("xml"), strings.NewReader(""), Options{})
	assert.Error(t, err)
}
