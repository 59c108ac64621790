// Package render prints reports and tables for the terminal or as JSON/YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/songrank/songrank/pkg/stats"
	"github.com/songrank/songrank/pkg/storage"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// DefaultMaxCell is the display width long cells are cut to in text output.
const DefaultMaxCell = 40

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	highlightStyles = map[stats.Highlight]lipgloss.Style{
		stats.HighlightMild:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		stats.HighlightStrong: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		stats.HighlightSevere: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		stats.HighlightGood:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		stats.HighlightBad:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		stats.HighlightCool:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	}
)

// Renderer writes to one destination.
type Renderer struct {
	w       io.Writer
	color   bool
	maxCell int
}

// New returns a renderer. color enables lipgloss styling in text output.
func New(w io.Writer, color bool) *Renderer {
	return &Renderer{w: w, color: color, maxCell: DefaultMaxCell}
}

// SetMaxCell changes the text-mode cell width limit; 0 disables truncation.
func (r *Renderer) SetMaxCell(n int) { r.maxCell = n }

// Reports writes reports in the given format.
func (r *Renderer) Reports(format Format, reports []stats.Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	}
	for i, rep := range reports {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		r.report(rep)
	}
	return nil
}

func (r *Renderer) report(rep stats.Report) {
	fmt.Fprintln(r.w, r.style(titleStyle, rep.Title))
	if rep.Description != "" {
		fmt.Fprintln(r.w, rep.Description)
	}
	widths := make([]int, rep.Width())
	measure := func(cells []string) {
		for i, c := range cells {
			if w := runewidth.StringWidth(r.cell(c)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(rep.Headers)
	for _, row := range rep.Rows {
		measure(row)
	}
	if len(rep.Headers) > 0 {
		fmt.Fprintln(r.w, r.style(headerStyle, r.line(rep.Headers, widths)))
	}
	for i, row := range rep.Rows {
		line := r.line(row, widths)
		if i < len(rep.Highlights) {
			if st, ok := highlightStyles[rep.Highlights[i]]; ok {
				line = r.style(st, line)
			}
		}
		fmt.Fprintln(r.w, line)
	}
}

func (r *Renderer) line(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		c = r.cell(c)
		if i < len(cells)-1 {
			c = runewidth.FillRight(c, widths[i])
		}
		parts[i] = c
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

// cell flattens multi-line cells and cuts them to the width limit.
func (r *Renderer) cell(c string) string {
	c = strings.ReplaceAll(c, "\n", " / ")
	if r.maxCell > 0 {
		c = runewidth.Truncate(c, r.maxCell, "…")
	}
	return c
}

func (r *Renderer) style(st lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return st.Render(s)
}

// Table prints a stored table with tab-aligned columns, skipping fully blank rows.
func (r *Renderer) Table(t *storage.Table) error {
	w := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	for _, row := range t.Rows {
		blank := true
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = r.cell(c)
			if c != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}
