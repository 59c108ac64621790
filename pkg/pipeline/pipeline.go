// Package pipeline wires the store, the matching and ranking packages and the
// statistics engine into the sync, analysis and maintenance passes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/songrank/songrank/pkg/catalog"
	"github.com/songrank/songrank/pkg/groups"
	"github.com/songrank/songrank/pkg/ledger"
	"github.com/songrank/songrank/pkg/stats"
	"github.com/songrank/songrank/pkg/storage"
	"github.com/songrank/songrank/pkg/synclog"
)

var (
	ErrNoCatalog        = errors.New("item catalog not found or empty")
	ErrInboxInitialized = errors.New("submission inbox was set up: put user names in row 1 from column B and paste lists below")
	ErrNoSubmissions    = errors.New("no user columns found starting from column B")
	ErrNoValidRankings  = errors.New("no valid rankings found, ensure lines look like \"1. Song Name\"")
	ErrNotAGroup        = errors.New("not a configured group table")
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Tables names every table the engine reads or writes.
type Tables struct {
	Catalog string
	Groups  string
	Inbox   string
	Log     string
	Debug   string
	Opps    string
	Takes   string
	More    string
	Spice   string
	Artists string
}

// DefaultTables returns the conventional table names.
func DefaultTables() Tables {
	return Tables{
		Catalog: "Base",
		Groups:  "Sheet Manager",
		Inbox:   "Paste Rankings Here",
		Log:     "Sync Log",
		Debug:   "Debug Log",
		Opps:    "Opps",
		Takes:   "Takes",
		More:    "More Analysis",
		Spice:   "Spice Index",
		Artists: "Artist Reference",
	}
}

func (t Tables) withDefaults() Tables {
	d := DefaultTables()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&t.Catalog, d.Catalog)
	fill(&t.Groups, d.Groups)
	fill(&t.Inbox, d.Inbox)
	fill(&t.Log, d.Log)
	fill(&t.Debug, d.Debug)
	fill(&t.Opps, d.Opps)
	fill(&t.Takes, d.Takes)
	fill(&t.More, d.More)
	fill(&t.Spice, d.Spice)
	fill(&t.Artists, d.Artists)
	return t
}

func (t Tables) all() []string {
	return []string{t.Catalog, t.Groups, t.Inbox, t.Log, t.Debug, t.Opps, t.Takes, t.More, t.Spice, t.Artists}
}

// Config holds everything the engine needs.
type Config struct {
	Store   storage.TableStore
	Tables  Tables
	Columns catalog.Columns
	Stats   stats.Options
	Log     Logger // optional; nil = no logging
}

// Engine runs passes against one store. It is not safe for concurrent use;
// callers serialise passes (the CLI holds a file lock).
type Engine struct {
	store   storage.TableStore
	tables  Tables
	columns catalog.Columns
	opts    stats.Options
	log     Logger
}

// New validates the config and fills defaults.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("pipeline: a table store is required")
	}
	e := &Engine{
		store:   cfg.Store,
		tables:  cfg.Tables.withDefaults(),
		columns: cfg.Columns,
		opts:    cfg.Stats,
		log:     cfg.Log,
	}
	if e.columns == (catalog.Columns{}) {
		e.columns = catalog.DefaultColumns
	}
	if e.log == nil {
		e.log = nopLogger{}
	}
	return e, nil
}

// Tables returns the resolved table names.
func (e *Engine) Tables() Tables { return e.tables }

// NewSink creates a log sink that mirrors to the engine logger when it is a logrus logger.
func (e *Engine) NewSink() *synclog.Sink {
	if fl, ok := e.log.(logrus.FieldLogger); ok {
		return synclog.NewSink(fl)
	}
	return synclog.NewSink(nil)
}

// FlushLog writes the entries of a standalone run to the log table. A sink
// with no entries leaves the previous log in place.
func (e *Engine) FlushLog(ctx context.Context, sink *synclog.Sink) error {
	if sink == nil || len(sink.Entries()) == 0 {
		return nil
	}
	return sink.Flush(ctx, e.store, e.tables.Log)
}

// guard runs fn and turns a returned error or a panic into an Error entry.
func (e *Engine) guard(sink *synclog.Sink, subject string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Debugf("recovered panic for %s: %v\n%s", subject, r, debug.Stack())
			err = fmt.Errorf("internal error: %v", r)
		}
		if err != nil {
			sink.Add(subject, synclog.StatusError, "%v", err)
		}
	}()
	return fn()
}

// reserved reports whether a group name collides with a system table.
func (e *Engine) reserved(name string) bool {
	n := storage.NormalizeTableName(name)
	for _, t := range e.tables.all() {
		if n == storage.NormalizeTableName(t) {
			return true
		}
	}
	return false
}

func (e *Engine) readOptional(ctx context.Context, name string) (*storage.Table, error) {
	t, err := e.store.ReadTable(ctx, name)
	if errors.Is(err, storage.ErrTableNotFound) {
		return nil, nil
	}
	return t, err
}

// LoadCatalog reads the item catalog. A missing or empty catalog is ErrNoCatalog.
func (e *Engine) LoadCatalog(ctx context.Context) ([]catalog.Item, *storage.Table, error) {
	t, err := e.readOptional(ctx, e.tables.Catalog)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, fmt.Errorf("%s: %w", e.tables.Catalog, ErrNoCatalog)
	}
	items, err := catalog.Load(t, e.columns)
	if err != nil {
		return nil, t, fmt.Errorf("%s: %v: %w", e.tables.Catalog, err, ErrNoCatalog)
	}
	return items, t, nil
}

// LoadDefinitions reads the group definitions. A missing table means no groups.
func (e *Engine) LoadDefinitions(ctx context.Context) ([]groups.Definition, error) {
	t, err := e.readOptional(ctx, e.tables.Groups)
	if err != nil {
		return nil, err
	}
	return groups.ParseDefinitions(t), nil
}

// readLedger returns the stored ledger of a group, or nil when it does not exist.
func (e *Engine) readLedger(ctx context.Context, group string) (*ledger.Ledger, error) {
	t, err := e.readOptional(ctx, group)
	if err != nil || t == nil {
		return nil, err
	}
	l := ledger.FromTable(t)
	l.Group = group
	return l, nil
}

func (e *Engine) writeLedger(ctx context.Context, l *ledger.Ledger) error {
	if err := e.store.WriteTable(ctx, l.ToTable()); err != nil {
		return fmt.Errorf("writing %s: %w", l.Group, err)
	}
	return nil
}
