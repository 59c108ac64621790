package pipeline

import (
	"context"
	"fmt"

	"github.com/songrank/songrank/pkg/catalog"
	"github.com/songrank/songrank/pkg/groups"
	"github.com/songrank/songrank/pkg/ledger"
	"github.com/songrank/songrank/pkg/synclog"
)

// GroupMembership summarises one rebuilt ledger.
type GroupMembership struct {
	Group string
	Items int
	Users int
}

// MembershipResult is returned by SyncMembership.
type MembershipResult struct {
	Groups []GroupMembership
	Failed int
}

// SyncMembership rebuilds the row set of every group ledger from the catalog.
// Per-group failures are logged to sink and do not stop the pass. A missing
// catalog aborts it.
func (e *Engine) SyncMembership(ctx context.Context, sink *synclog.Sink) (*MembershipResult, error) {
	items, _, err := e.LoadCatalog(ctx)
	if err != nil {
		sink.Add(synclog.SystemSubject, synclog.StatusError, "%v", err)
		return nil, err
	}
	defs, err := e.LoadDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", e.tables.Groups, err)
	}
	if len(defs) == 0 {
		sink.Add(synclog.SystemSubject, synclog.StatusInfo, "No groups defined in %q", e.tables.Groups)
	}

	res := &MembershipResult{}
	for _, def := range defs {
		def := def
		err := e.guard(sink, synclog.SystemSubject, func() error {
			gm, err := e.syncGroup(ctx, def, items)
			if err != nil {
				return fmt.Errorf("Tab %q: %w", def.Name, err)
			}
			res.Groups = append(res.Groups, gm)
			return nil
		})
		if err != nil {
			res.Failed++
		}
	}
	return res, nil
}

func (e *Engine) syncGroup(ctx context.Context, def groups.Definition, items []catalog.Item) (GroupMembership, error) {
	if e.reserved(def.Name) {
		return GroupMembership{}, fmt.Errorf("group name collides with a system table")
	}
	existing, err := e.readLedger(ctx, def.Name)
	if err != nil {
		return GroupMembership{}, err
	}

	g := groups.Resolve([]groups.Definition{def})[0]
	members := g.Members(items)
	names := make([]string, 0, len(members))
	for _, it := range members {
		names = append(names, it.Name)
	}

	l := ledger.SyncMembership(existing, def.Name, names)
	if err := e.writeLedger(ctx, l); err != nil {
		return GroupMembership{}, err
	}
	e.log.Debugf("membership %q: %d items", def.Name, len(l.Rows))
	return GroupMembership{Group: def.Name, Items: len(l.Rows), Users: len(l.Users())}, nil
}
