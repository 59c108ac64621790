// Package sheetimport turns exported spreadsheet data into storage tables:
// CSV files, Sheets API JSON payloads and published-to-web HTML pages.
package sheetimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/songrank/songrank/pkg/storage"
)

// Format identifies an input format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// DefaultJSONPath is where the Sheets API puts cell values.
const DefaultJSONPath = "values"

// DetectFormat guesses the format from a content type or file name.
func DetectFormat(contentType, name string) (Format, bool) {
	ct := strings.ToLower(contentType)
	n := strings.ToLower(name)
	switch {
	case strings.Contains(ct, "json") || strings.HasSuffix(n, ".json"):
		return FormatJSON, true
	case strings.Contains(ct, "html") || strings.HasSuffix(n, ".html") || strings.HasSuffix(n, ".htm"):
		return FormatHTML, true
	case strings.Contains(ct, "csv") || strings.HasSuffix(n, ".csv") || strings.HasSuffix(n, ".tsv"):
		return FormatCSV, true
	}
	return "", false
}

// Options controls parsing.
type Options struct {
	// JSONPath is a gjson path to the row array; empty means DefaultJSONPath.
	JSONPath string
	// Selector picks the HTML table; empty means the first table.
	Selector string
	// Comma overrides the CSV separator.
	Comma rune
}

// Parse dispatches on format.
func Parse(name string, format Format, r io.Reader, opts Options) (*storage.Table, error) {
	switch format {
	case FormatCSV:
		return FromCSV(name, r, opts.Comma)
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return FromJSON(name, string(data), opts.JSONPath)
	case FormatHTML:
		return FromHTML(name, r, opts.Selector)
	}
	return nil, fmt.Errorf("unknown import format %q", format)
}

// FromCSV reads a CSV export. Rows may have different lengths; quoted cells
// may span lines, as pasted rankings do.
func FromCSV(name string, r io.Reader, comma rune) (*storage.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if comma != 0 {
		cr.Comma = comma
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	return storage.NewTable(name, rows), nil
}

// FromJSON reads a JSON payload. The value at path must be an array of row
// arrays (Sheets API "values") or an array of objects, in which case the
// keys of the first object become the header row.
func FromJSON(name, body, path string) (*storage.Table, error) {
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("invalid JSON")
	}
	if path == "" {
		path = DefaultJSONPath
	}
	res := gjson.Get(body, path)
	if !res.Exists() && path == DefaultJSONPath && gjson.Parse(body).IsArray() {
		res = gjson.Parse(body)
	}
	if !res.IsArray() {
		return nil, fmt.Errorf("no row array at %q", path)
	}

	items := res.Array()
	if len(items) > 0 && items[0].IsObject() {
		return objectsToTable(name, items), nil
	}

	var rows [][]string
	for _, row := range items {
		var cells []string
		row.ForEach(func(_, v gjson.Result) bool {
			cells = append(cells, cellString(v))
			return true
		})
		rows = append(rows, cells)
	}
	return storage.NewTable(name, rows), nil
}

func objectsToTable(name string, items []gjson.Result) *storage.Table {
	var header []string
	items[0].ForEach(func(k, _ gjson.Result) bool {
		header = append(header, k.String())
		return true
	})
	rows := [][]string{header}
	for _, it := range items {
		vals := make(map[string]string)
		it.ForEach(func(k, v gjson.Result) bool {
			vals[k.String()] = cellString(v)
			return true
		})
		row := make([]string, len(header))
		for i, k := range header {
			row[i] = vals[k]
		}
		rows = append(rows, row)
	}
	return storage.NewTable(name, rows)
}

func cellString(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	}
	return v.Raw
}

// FromHTML reads the first table matching selector (default "table") of a
// published sheet. Cells are taken from th and td in document order;
// <br> inside a cell becomes a newline.
func FromHTML(name string, r io.Reader, selector string) (*storage.Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	if selector == "" {
		selector = "table"
	}
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table matches %q", selector)
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, rowhtml *goquery.Selection) {
		var cells []string
		rowhtml.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			// Published sheets add row-number and column-letter header cells.
			if cell.HasClass("row-headers-background") || cell.HasClass("column-headers-background") {
				return
			}
			cell.Find("br").ReplaceWithHtml("\n")
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return storage.NewTable(name, rows), nil
}
