package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/songrank/songrank/pkg/stats"
	"github.com/songrank/songrank/pkg/storage"
)

func sampleReports() []stats.Report {
	return []stats.Report{{
		Key:        "outliers",
		Title:      "OUTLIER RANKING",
		Headers:    []string{"Rank", "User", "Avg Distance"},
		Rows:       [][]string{{"1", "Carol", "9.0"}, {"2", "Al", "4.5"}},
		Highlights: []stats.Highlight{stats.HighlightSevere, stats.HighlightGood},
	}}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestReportsText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, false).Reports(FormatText, sampleReports()))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"OUTLIER RANKING",
		"Rank  User   Avg Distance",
		"1     Carol  9.0",
		"2     Al     4.5",
	}, lines)
}

func TestReportsJSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, false).Reports(FormatJSON, sampleReports()))
	var decoded []stats.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleReports(), decoded)

	buf.Reset()
	require.NoError(t, New(&buf, false).Reports(FormatYAML, sampleReports()))
	var generic []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &generic))
	require.Len(t, generic, 1)
	assert.Equal(t, "outliers", generic[0]["key"])
}

func TestCellTruncation(t *testing.T) {
	r := New(&bytes.Buffer{}, false)
	r.SetMaxCell(8)
	assert.Equal(t, "Song A …", r.cell("Song A (TV Size)"))
	assert.Equal(t, "a / b", r.cell("a\nb"))
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := storage.NewTable("Sync Log", [][]string{
		{"Time", "User", "Status"},
		{"", "", ""},
		{"10:00:00", "Alice", "Success"},
	})
	require.NoError(t, New(&buf, false).Table(tbl))
	assert.Equal(t, "Time      User   Status\n10:00:00  Alice  Success\n", buf.String())
}
