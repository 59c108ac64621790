package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/songrank/songrank/pkg/catalog"
	"github.com/songrank/songrank/pkg/groups"
	"github.com/songrank/songrank/pkg/stats"
	"github.com/songrank/songrank/pkg/storage"
)

var songHeader = regexp.MustCompile(`(?i)song`)

// DiagnosticHeaders is the header row of the debug table.
var DiagnosticHeaders = []string{"Type", "Category", "Details"}

type diagnostics struct {
	rows [][]string
}

func (d *diagnostics) add(kind, category, format string, args ...interface{}) {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	d.rows = append(d.rows, []string{kind, category, detail})
}

// Diagnose inspects the catalog, every group definition and every ledger and
// writes the findings to the debug table, replacing its previous contents.
func (e *Engine) Diagnose(ctx context.Context) (*storage.Table, error) {
	d := &diagnostics{rows: [][]string{DiagnosticHeaders}}

	items, base, err := e.LoadCatalog(ctx)
	switch {
	case base == nil:
		d.add("Error", "Infrastructure", "%s sheet not found!", e.tables.Catalog)
	case len(base.Rows) == 0:
		d.add("Error", "Infrastructure", "%s sheet is empty!", e.tables.Catalog)
	default:
		d.add("Info", "Base Header Map", "%s", catalog.HeaderMap(base))
		idx := -1
		for i, h := range base.Rows[0] {
			if songHeader.MatchString(h) {
				idx = i
				break
			}
		}
		d.add("Info", "Base Sheet", "Found \"Song\" at index %d (Col %d)", idx, idx+1)
		if err != nil {
			d.add("Error", "Infrastructure", "%v", err)
		}
	}

	defs, err := e.LoadDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", e.tables.Groups, err)
	}
	d.add("Info", "Configuration", "%d Tabs detected in %s", len(defs), e.tables.Groups)

	for _, def := range defs {
		if err := e.diagnoseGroup(ctx, d, def, items); err != nil {
			return nil, err
		}
	}

	t := storage.NewTable(e.tables.Debug, d.rows)
	if err := e.store.WriteTable(ctx, t); err != nil {
		return nil, fmt.Errorf("writing %s: %w", e.tables.Debug, err)
	}
	return t, nil
}

func (e *Engine) diagnoseGroup(ctx context.Context, d *diagnostics, def groups.Definition, items []catalog.Item) error {
	name := def.Name
	d.add("Section", "Processing Tab", ">>> %s <<<", name)
	if e.reserved(name) {
		d.add("Critical", name, "Group name collides with a system table and is ignored.")
		return nil
	}

	l, err := e.readLedger(ctx, name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if l == nil {
		d.add("Warning", name, "Sheet does not exist yet. Run Membership Sync.")
	} else {
		d.add("Info", name, "Sheet found. Rows: %d, Raw Headers: %s", len(l.Rows)+1, jsonList(l.ToTable().Rows[0]))
		users := l.Users()
		d.add("Analysis", name, "User Columns detected for Matrix: %s", jsonList(users))
		if len(users) < 2 {
			d.add("Critical", name, "DIVERGENCE MATRIX WILL FAIL: Need at least 2 users with ranking columns.")
		}
	}

	if items != nil {
		d.add("Info", name, "Looking for these items: %s", jsonList(def.Terms))
		diag := groups.Diagnose(def, items)
		d.add("Result", name, "Total matches in Base: %d", diag.MatchCount)
		if len(diag.Missed) > 0 {
			d.add("FAIL", name, "FAILED TO FIND: %s", jsonList(diag.Missed))
		}
	}

	if l == nil || len(l.Rows) == 0 {
		return nil
	}
	cov := stats.LedgerCoverage(l)
	if len(cov.Users) < 2 {
		return nil
	}
	status := "FAILED"
	if cov.Ready() {
		status = "READY"
	}
	d.add("Opps Check", name, "Matrix Status: %s. Details: %d users found, and found %d songs have scores from EVERY user.", status, len(cov.Users), cov.ValidRows)
	if cov.ValidRows == 0 {
		for _, u := range cov.Users {
			d.add("Opps Hint", name, "User %q has scores for %d/%d songs.", u.User, u.Scored, cov.Rows)
		}
	}
	return nil
}

// jsonList renders a string list the way it is shown in the debug table.
func jsonList(values []string) string {
	if values == nil {
		values = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return "[" + strings.Join(values, ", ") + "]"
	}
	return strings.TrimSpace(buf.String())
}
