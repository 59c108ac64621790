package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/songrank/songrank/pkg/catalog"
	"github.com/songrank/songrank/pkg/ledger"
	"github.com/songrank/songrank/pkg/stats"
	"github.com/songrank/songrank/pkg/synclog"
)

// Kind selects one analysis.
type Kind string

const (
	KindOpps  Kind = "opps"
	KindTakes Kind = "takes"
	KindMore  Kind = "more"
	KindSpice Kind = "spice"
)

// AllKinds lists every analysis in the order SyncAll runs them.
var AllKinds = []Kind{KindOpps, KindTakes, KindMore, KindSpice}

// ParseKinds maps names to kinds; "all" or no names selects every kind.
func ParseKinds(names []string) ([]Kind, error) {
	if len(names) == 0 {
		return AllKinds, nil
	}
	var out []Kind
	seen := make(map[Kind]bool)
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "all" {
			return AllKinds, nil
		}
		k := Kind(n)
		switch k {
		case KindOpps, KindTakes, KindMore, KindSpice:
		default:
			return nil, fmt.Errorf("unknown analysis %q (want opps, takes, more, spice or all)", n)
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}

// Analysis holds the reports produced per kind.
type Analysis struct {
	Kinds   []Kind
	Reports map[Kind][]stats.Report
}

// All returns every report in kind order.
func (a *Analysis) All() []stats.Report {
	if a == nil {
		return nil
	}
	var out []stats.Report
	for _, k := range a.Kinds {
		out = append(out, a.Reports[k]...)
	}
	return out
}

type layout struct {
	table  string
	perRow int
	gap    int
}

func (e *Engine) layoutFor(k Kind) layout {
	switch k {
	case KindOpps:
		return layout{e.tables.Opps, 1, 0}
	case KindTakes:
		return layout{e.tables.Takes, 2, 1}
	case KindMore:
		return layout{e.tables.More, 2, 2}
	default:
		return layout{e.tables.Spice, 1, 0}
	}
}

// Analyze reads every group ledger, computes the selected reports and writes
// each kind to its table. A failing kind is logged and does not stop the
// others; the joined errors are returned. sink may be nil.
func (e *Engine) Analyze(ctx context.Context, kinds []Kind, sink *synclog.Sink) (*Analysis, error) {
	return e.analyze(ctx, kinds, sink, true)
}

// Reports computes the selected reports without storing anything.
func (e *Engine) Reports(ctx context.Context, kinds []Kind) (*Analysis, error) {
	return e.analyze(ctx, kinds, nil, false)
}

func (e *Engine) analyze(ctx context.Context, kinds []Kind, sink *synclog.Sink, write bool) (*Analysis, error) {
	if sink == nil {
		sink = e.NewSink()
	}
	trace := func(msg, details string) {
		if write {
			e.trace(ctx, msg, details)
		}
	}
	trace("Start", "Running analysis")

	defs, err := e.LoadDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", e.tables.Groups, err)
	}
	trace("Config Check", fmt.Sprintf("Targeting %d potential group tabs", len(defs)))

	var ledgers []*ledger.Ledger
	for _, def := range defs {
		if e.reserved(def.Name) {
			continue
		}
		l, err := e.readLedger(ctx, def.Name)
		if err != nil {
			sink.Add(synclog.SystemSubject, synclog.StatusError, "Tab %q: %v", def.Name, err)
			continue
		}
		if l == nil {
			trace("Skip Tab", fmt.Sprintf("%s sheet not found", def.Name))
			l = ledger.New(def.Name)
		}
		ledgers = append(ledgers, l)
	}

	var attribution map[string]string
	if items, _, err := e.LoadCatalog(ctx); err == nil {
		attribution = catalog.AttributionIndex(items)
	} else {
		e.log.Debugf("analysis without attributions: %v", err)
	}

	ms := stats.FromLedgers(ledgers)
	a := &Analysis{Reports: make(map[Kind][]stats.Report)}
	var errs []error
	for _, k := range kinds {
		k := k
		err := e.guard(sink, synclog.SystemSubject, func() error {
			reports, ok := e.reportsFor(k, ms, attribution, sink, trace)
			if !ok {
				return nil
			}
			a.Kinds = append(a.Kinds, k)
			a.Reports[k] = reports
			if !write {
				return nil
			}
			lay := e.layoutFor(k)
			if err := e.store.WriteTable(ctx, stats.Layout(lay.table, reports, lay.perRow, lay.gap)); err != nil {
				return fmt.Errorf("writing %s: %w", lay.table, err)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
	}
	trace("End", fmt.Sprintf("%d report sets written", len(a.Kinds)))
	return a, errors.Join(errs...)
}

// reportsFor computes the reports of one kind. ok is false when the kind has
// nothing to show; the reason is logged.
func (e *Engine) reportsFor(k Kind, ms []stats.Matrix, attribution map[string]string, sink *synclog.Sink, trace func(msg, details string)) ([]stats.Report, bool) {
	switch k {
	case KindOpps:
		d := stats.ComputeDivergence(ms)
		for _, s := range d.Skipped {
			trace("Skip Tab", fmt.Sprintf("%s: %s", s.Group, s.Reason))
		}
		return d.OppsReports(), true
	case KindTakes:
		return stats.TakesReports(ms), true
	case KindMore:
		idx := stats.CollectSongs(ms, attribution)
		if len(idx.Songs) == 0 {
			sink.Add(synclog.SystemSubject, synclog.StatusSkip, "More Analysis: no ranked songs yet")
			return nil, false
		}
		return stats.MoreReports(ms, idx, e.opts), true
	default:
		d := stats.ComputeDivergence(ms)
		if len(stats.CollectSongs(ms, nil).Songs) == 0 {
			sink.Add(synclog.SystemSubject, synclog.StatusSkip, "Spice Index: no ranked songs yet")
			return nil, false
		}
		return []stats.Report{stats.SpiceReport(ms, d.Users)}, true
	}
}

// trace appends one line to the debug table.
func (e *Engine) trace(ctx context.Context, msg, details string) {
	if err := e.store.AppendRow(ctx, e.tables.Debug, []string{"Analysis Debug", msg, details}); err != nil {
		e.log.Debugf("could not append to %s: %v", e.tables.Debug, err)
	}
}
