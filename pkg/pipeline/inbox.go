package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/catalog"
	"github.com/songrank/songrank/pkg/ledger"
	"github.com/songrank/songrank/pkg/rankparse"
	"github.com/songrank/songrank/pkg/storage"
)

// exampleGroups is written to an empty group table by Init.
var exampleGroups = [][]string{
	{"Global / All Songs", "Specific Group 1"},
	{"ID:", "ID:001"},
	{"", "ID:002"},
}

// Init creates the group table and the inbox when they are missing. It
// returns the names of the tables it wrote.
func (e *Engine) Init(ctx context.Context) ([]string, error) {
	var created []string

	g, err := e.readOptional(ctx, e.tables.Groups)
	if err != nil {
		return nil, err
	}
	if g == nil || len(g.Rows) == 0 {
		if err := e.store.WriteTable(ctx, storage.NewTable(e.tables.Groups, exampleGroups)); err != nil {
			return created, fmt.Errorf("writing %s: %w", e.tables.Groups, err)
		}
		created = append(created, e.tables.Groups)
	}

	inbox, err := e.readOptional(ctx, e.tables.Inbox)
	if err != nil {
		return created, err
	}
	if inbox == nil {
		if err := e.store.WriteTable(ctx, inboxSkeleton(e.tables.Inbox)); err != nil {
			return created, fmt.Errorf("writing %s: %w", e.tables.Inbox, err)
		}
		created = append(created, e.tables.Inbox)
	}
	return created, nil
}

// SubmitterName turns an account id such as "alice@example.com" into the inbox user name.
func SubmitterName(id string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(id), "@")
	return strings.TrimSpace(name)
}

// Submit writes a finished ordering into the inbox column of user as
// "N. Name" lines, one per row. An existing column with the exact user name
// is replaced; otherwise the first blank column after A is used, else a new
// one is appended. It returns the column letter written.
func (e *Engine) Submit(ctx context.Context, user string, names []string) (string, error) {
	user = SubmitterName(user)
	if user == "" {
		return "", fmt.Errorf("a user name is required")
	}
	var kept []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return "", fmt.Errorf("nothing to submit for %q", user)
	}

	inbox, err := e.readOptional(ctx, e.tables.Inbox)
	if err != nil {
		return "", err
	}
	if inbox == nil {
		inbox = inboxSkeleton(e.tables.Inbox)
	}
	inbox.Set(0, 0, InboxUserLabel)
	inbox.Set(1, 0, InboxListLabel)

	col := inboxColumn(inbox, user)
	inbox.Set(0, col, user)
	for r := 1; r < len(inbox.Rows); r++ {
		inbox.Set(r, col, "")
	}
	for i, line := range strings.Split(rankparse.Format(kept), "\n") {
		inbox.Set(i+1, col, line)
	}
	if err := e.store.WriteTable(ctx, inbox); err != nil {
		return "", fmt.Errorf("writing %s: %w", e.tables.Inbox, err)
	}
	e.log.Infof("saved %d songs for %s in column %s", len(kept), user, utils.ColumnLetter(col+1))
	return utils.ColumnLetter(col + 1), nil
}

func inboxColumn(t *storage.Table, user string) int {
	for col := 1; col < t.Width(); col++ {
		if strings.TrimSpace(t.Cell(0, col)) == user {
			return col
		}
	}
	for col := 1; col < t.Width(); col++ {
		if strings.TrimSpace(t.Cell(0, col)) == "" {
			return col
		}
	}
	if w := t.Width(); w > 1 {
		return w
	}
	return 1
}

// Withdraw clears the submitted list of user in the inbox, keeping the
// header. The next sync removes the user from every ledger.
func (e *Engine) Withdraw(ctx context.Context, user string) error {
	user = SubmitterName(user)
	inbox, err := e.store.ReadTable(ctx, e.tables.Inbox)
	if err != nil {
		return err
	}
	for col := 1; col < inbox.Width(); col++ {
		if strings.TrimSpace(inbox.Cell(0, col)) == user {
			return e.store.ClearColumn(ctx, e.tables.Inbox, col, 1)
		}
	}
	return fmt.Errorf("no submission for %q in %s", user, e.tables.Inbox)
}

// PasteResult describes a direct paste into one group.
type PasteResult struct {
	Column  string
	Parsed  int
	Matched int
}

// PasteIntoGroup parses text and writes the original ranks of exactly named
// items into a new column of the group ledger, then re-sorts it. Later lines
// win for repeated names.
func (e *Engine) PasteIntoGroup(ctx context.Context, group, user, text string) (*PasteResult, error) {
	if user = strings.TrimSpace(user); user == "" {
		return nil, fmt.Errorf("a column name is required")
	}
	defs, err := e.LoadDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, d := range defs {
		if d.Name == group {
			found = true
			break
		}
	}
	if !found || e.reserved(group) {
		return nil, fmt.Errorf("%q: %w", group, ErrNotAGroup)
	}

	l, err := e.readLedger(ctx, group)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%s: %w (run membership first)", group, storage.ErrTableNotFound)
	}

	entries := rankparse.ParseText(text)
	ranks := make(map[string]int, len(entries))
	for _, en := range entries {
		ranks[en.Name] = en.Rank
	}
	res := &PasteResult{Parsed: len(entries)}
	for _, name := range l.ItemNames() {
		if _, ok := ranks[name]; ok {
			res.Matched++
		}
	}

	slot := l.PasteRanks(user, ranks)
	res.Column = utils.ColumnLetter(ledger.Column(slot) + 1)
	if err := e.writeLedger(ctx, l); err != nil {
		return nil, err
	}
	return res, nil
}

// ArtistReference rebuilds the attribution reference table from the catalog.
func (e *Engine) ArtistReference(ctx context.Context) (*storage.Table, error) {
	items, _, err := e.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	t := catalog.ArtistReference(e.tables.Artists, items)
	if err := e.store.WriteTable(ctx, t); err != nil {
		return nil, fmt.Errorf("writing %s: %w", e.tables.Artists, err)
	}
	return t, nil
}

// IsNotFound reports whether err means a table does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrTableNotFound)
}
