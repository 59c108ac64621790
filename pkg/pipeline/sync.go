package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/ledger"
	"github.com/songrank/songrank/pkg/rankparse"
	"github.com/songrank/songrank/pkg/relrank"
	"github.com/songrank/songrank/pkg/storage"
	"github.com/songrank/songrank/pkg/synclog"
)

// Inbox labels in column A.
const (
	InboxUserLabel = "User Name"
	InboxListLabel = "Ranked List"
)

// AnalysisFailedNotice is the summary returned when the analysis phase of a sync fails.
const AnalysisFailedNotice = "Sync finished, but analysis encountered an error."

// SyncOptions controls SyncAll.
type SyncOptions struct {
	SkipAnalysis bool
}

// SyncResult summarises a full sync pass.
type SyncResult struct {
	RunID      string
	Membership *MembershipResult
	Users      []string
	Updates    int
	Cleared    int
	Analysis   *Analysis
	// AnalysisError is set when the analysis phase failed; the sync itself succeeded.
	AnalysisError string
	Entries       []synclog.Entry
}

type groupLedger struct {
	ledger *ledger.Ledger
	names  []string
}

func inboxSkeleton(name string) *storage.Table {
	return storage.NewTable(name, [][]string{{InboxUserLabel}, {InboxListLabel}})
}

func hasUserColumns(t *storage.Table) bool {
	for col := 1; col < t.Width(); col++ {
		if strings.TrimSpace(t.Cell(0, col)) != "" {
			return true
		}
	}
	return false
}

func inboxReady(t *storage.Table) bool {
	return t != nil && strings.TrimSpace(t.Cell(0, 0)) == InboxUserLabel
}

// SyncAll runs membership, distributes every inbox submission to every group
// ledger, clears users that are no longer submitted, re-sorts the ledgers and
// finally runs the analysis. The log stream is flushed to the log table once,
// whatever the outcome, except when the inbox had to be initialised.
func (e *Engine) SyncAll(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	sink := e.NewSink()
	res := &SyncResult{RunID: sink.RunID()}
	finish := func(err error) (*SyncResult, error) {
		if ferr := sink.Flush(ctx, e.store, e.tables.Log); ferr != nil {
			e.log.Warnf("could not write %s: %v", e.tables.Log, ferr)
		}
		res.Updates = sink.Count(synclog.StatusSuccess)
		res.Cleared = sink.Count(synclog.StatusCleanup)
		res.Entries = sink.Entries()
		return res, err
	}

	m, err := e.SyncMembership(ctx, sink)
	if err != nil {
		return finish(err)
	}
	res.Membership = m

	inbox, err := e.readOptional(ctx, e.tables.Inbox)
	if err != nil {
		return finish(fmt.Errorf("reading %s: %w", e.tables.Inbox, err))
	}
	if !inboxReady(inbox) {
		if err := e.store.WriteTable(ctx, inboxSkeleton(e.tables.Inbox)); err != nil {
			return res, fmt.Errorf("initialising %s: %w", e.tables.Inbox, err)
		}
		return res, ErrInboxInitialized
	}
	if !hasUserColumns(inbox) {
		sink.Add(synclog.SystemSubject, synclog.StatusError, "No user columns found starting from Column B")
		return finish(ErrNoSubmissions)
	}

	batch := rankparse.ParseBatch(inbox)
	for _, u := range batch.Empty {
		sink.Add(u, synclog.StatusSkip, "No valid rankings found in column")
	}
	for _, u := range batch.Duplicates {
		sink.Add(u, synclog.StatusInfo, "User appears in more than one column; the last one is used")
	}
	if len(batch.Submissions) == 0 {
		sink.Add(synclog.SystemSubject, synclog.StatusError, "No valid rankings found in columns")
		return finish(ErrNoValidRankings)
	}
	res.Users = batch.Users()

	ledgers, err := e.loadLedgers(ctx, sink)
	if err != nil {
		return finish(err)
	}

	for _, sub := range batch.Submissions {
		sub := sub
		for _, gl := range ledgers {
			gl := gl
			_ = e.guard(sink, sub.User, func() error {
				e.applySubmission(sink, gl, sub)
				return nil
			})
		}
	}

	for _, gl := range ledgers {
		gl := gl
		_ = e.guard(sink, synclog.SystemSubject, func() error {
			for _, u := range gl.ledger.ClearAbsent(res.Users) {
				sink.Add(synclog.SystemSubject, synclog.StatusCleanup, "Cleared user %q from tab %q (not found in master paste list).", u, gl.ledger.Group)
			}
			gl.ledger.Sort()
			if err := e.writeLedger(ctx, gl.ledger); err != nil {
				return fmt.Errorf("Tab %q: %w", gl.ledger.Group, err)
			}
			return nil
		})
	}

	if !opts.SkipAnalysis {
		a, err := e.analyzeGuarded(ctx, AllKinds, sink)
		res.Analysis = a
		if err != nil {
			res.AnalysisError = AnalysisFailedNotice
			sink.Add(synclog.SystemSubject, synclog.StatusError, "Analysis: %v", err)
		}
	}
	return finish(nil)
}

// loadLedgers reads the ledger of every configured group. Missing ledgers and
// reserved names are skipped; a missing group table is not an error.
func (e *Engine) loadLedgers(ctx context.Context, sink *synclog.Sink) ([]*groupLedger, error) {
	defs, err := e.LoadDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", e.tables.Groups, err)
	}
	var out []*groupLedger
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
			e.log.Debugf("tab %q does not exist yet", def.Name)
			continue
		}
		out = append(out, &groupLedger{ledger: l, names: l.ItemNames()})
	}
	return out, nil
}

func (e *Engine) applySubmission(sink *synclog.Sink, gl *groupLedger, sub rankparse.Submission) {
	if len(gl.ledger.Rows) == 0 {
		return
	}
	group := gl.ledger.Group
	m := relrank.Normalize(sub.Entries, gl.names)
	if m.Matched == 0 {
		sink.Add(sub.User, synclog.StatusSkip, "Tab %q: 0 songs matched.", group)
		return
	}
	slot := gl.ledger.ApplyScores(sub.User, m.Ranks)
	col := utils.ColumnLetter(ledger.Column(slot) + 1)
	detail := fmt.Sprintf("Tab %q: matched %d/%d songs. Written to Col %s.", group, m.Matched, m.Submitted, col)
	if len(m.Unmatched) > 0 {
		detail += " Missed: " + strings.Join(m.Unmatched, ", ")
	}
	sink.Add(sub.User, synclog.StatusSuccess, "%s", detail)
}

// analyzeGuarded runs Analyze and turns a panic into an error.
func (e *Engine) analyzeGuarded(ctx context.Context, kinds []Kind, sink *synclog.Sink) (a *Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return e.Analyze(ctx, kinds, sink)
}
