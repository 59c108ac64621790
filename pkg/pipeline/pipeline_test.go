package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songrank/songrank/pkg/storage"
	"github.com/songrank/songrank/pkg/synclog"
)

func song(id, name, artist string) []string {
	return []string{id, name, "", "", "", "", "", artist}
}

func seed(t *testing.T, inbox [][]string) (*Engine, *storage.MemStore) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemStore()
	require.NoError(t, store.WriteTable(ctx, storage.NewTable("Base", [][]string{
		{"ID", "Song", "", "", "", "", "", "Artist"},
		song("001", "Song X", "Alpha"),
		song("002", "Song Y", "Beta"),
		song("003", "Other Tune", "Alpha"),
	})))
	require.NoError(t, store.WriteTable(ctx, storage.NewTable("Sheet Manager", [][]string{
		{"Solo", "Pair"},
		{"Song X", "Song Y"},
		{"", "Other Tune"},
	})))
	if inbox != nil {
		require.NoError(t, store.WriteTable(ctx, storage.NewTable("Paste Rankings Here", inbox)))
	}
	e, err := New(Config{Store: store})
	require.NoError(t, err)
	return e, store
}

func read(t *testing.T, store storage.TableStore, name string) *storage.Table {
	t.Helper()
	tbl, err := store.ReadTable(context.Background(), name)
	require.NoError(t, err)
	return tbl
}

func details(entries []synclog.Entry, status synclog.Status) []string {
	var out []string
	for _, e := range entries {
		if e.Status == status {
			out = append(out, e.Subject+": "+e.Detail)
		}
	}
	return out
}

var aliceBob = [][]string{
	{"User Name", "Alice", "Bob"},
	{"Ranked List", "1. Song X", "2. Song X"},
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestSyncAllEndToEnd(t *testing.T) {
	e, store := seed(t, aliceBob)
	res, err := e.SyncAll(context.Background(), SyncOptions{})
	require.NoError(t, err)

	solo := read(t, store, "Solo")
	assert.Equal(t, [][]string{
		{"Rank", "Song", "Points", "Average", "Alice", "Bob"},
		{"1", "Song X", "2", "1.00", "1", "1"},
	}, solo.Rows)

	assert.Equal(t, 2, res.Updates)
	assert.Equal(t, 0, res.Cleared)
	assert.Equal(t, []string{"Alice", "Bob"}, res.Users)
	assert.Empty(t, res.AnalysisError)
	assert.Equal(t, []string{
		`Alice: Tab "Solo": matched 1/1 songs. Written to Col E.`,
		`Bob: Tab "Solo": matched 1/1 songs. Written to Col F.`,
	}, details(res.Entries, synclog.StatusSuccess))
	assert.Equal(t, []string{
		`Alice: Tab "Pair": 0 songs matched.`,
		`Bob: Tab "Pair": 0 songs matched.`,
	}, details(res.Entries, synclog.StatusSkip))

	pair := read(t, store, "Pair")
	assert.Equal(t, []string{"Rank", "Song", "Points", "Average"}, pair.Rows[0])
	assert.Len(t, pair.Rows, 3)

	log := read(t, store, "Sync Log")
	assert.Equal(t, []string{"Time", "User", "Status", "Details"}, log.Rows[0])
	assert.Len(t, log.Rows, len(res.Entries)+1)

	for _, name := range []string{"Opps", "Takes", "More Analysis", "Spice Index"} {
		tbl := read(t, store, name)
		assert.NotEmpty(t, tbl.Rows, name)
	}
	require.NotNil(t, res.Analysis)
	assert.Equal(t, AllKinds, res.Analysis.Kinds)
}

func TestSyncAllClearsWithdrawnUsers(t *testing.T) {
	e, store := seed(t, aliceBob)
	ctx := context.Background()
	_, err := e.SyncAll(ctx, SyncOptions{SkipAnalysis: true})
	require.NoError(t, err)

	require.NoError(t, store.WriteTable(ctx, storage.NewTable("Paste Rankings Here", [][]string{
		{"User Name", "Alice"},
		{"Ranked List", "1. Song X"},
	})))
	res, err := e.SyncAll(ctx, SyncOptions{SkipAnalysis: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Cleared)
	assert.Equal(t, []string{
		`System: Cleared user "Bob" from tab "Solo" (not found in master paste list).`,
	}, details(res.Entries, synclog.StatusCleanup))
	assert.Equal(t, []string{"1", "Song X", "1", "1.00", "1", ""}, read(t, store, "Solo").Rows[1])
}

func TestSyncAllIsRepeatable(t *testing.T) {
	e, store := seed(t, aliceBob)
	ctx := context.Background()
	_, err := e.SyncAll(ctx, SyncOptions{SkipAnalysis: true})
	require.NoError(t, err)
	first := read(t, store, "Solo")

	_, err = e.SyncAll(ctx, SyncOptions{SkipAnalysis: true})
	require.NoError(t, err)
	assert.Equal(t, first.Rows, read(t, store, "Solo").Rows)
}

func TestSyncAllInitialisesInbox(t *testing.T) {
	e, store := seed(t, nil)
	_, err := e.SyncAll(context.Background(), SyncOptions{})
	require.ErrorIs(t, err, ErrInboxInitialized)

	assert.Equal(t, [][]string{{"User Name"}, {"Ranked List"}}, read(t, store, "Paste Rankings Here").Rows)
	_, err = store.ReadTable(context.Background(), "Sync Log")
	assert.True(t, IsNotFound(err))
}

func TestSyncAllWithoutUserColumns(t *testing.T) {
	e, store := seed(t, [][]string{{"User Name"}, {"Ranked List"}})
	_, err := e.SyncAll(context.Background(), SyncOptions{})
	require.ErrorIs(t, err, ErrNoSubmissions)

	log := read(t, store, "Sync Log")
	require.Len(t, log.Rows, 2)
	assert.Equal(t, []string{"System", "Error", "No user columns found starting from Column B"}, log.Rows[1][1:])
}

func TestSyncAllWithoutValidRankings(t *testing.T) {
	e, _ := seed(t, [][]string{
		{"User Name", "Alice"},
		{"Ranked List", "my favourite is Song X"},
	})
	res, err := e.SyncAll(context.Background(), SyncOptions{})
	require.ErrorIs(t, err, ErrNoValidRankings)
	assert.Equal(t, []string{"Alice: No valid rankings found in column"}, details(res.Entries, synclog.StatusSkip))
}

func TestSyncAllWithoutCatalog(t *testing.T) {
	store := storage.NewMemStore()
	e, err := New(Config{Store: store})
	require.NoError(t, err)
	_, err = e.SyncAll(context.Background(), SyncOptions{})
	require.ErrorIs(t, err, ErrNoCatalog)
}

func TestReservedGroupNameIsRejected(t *testing.T) {
	e, store := seed(t, aliceBob)
	ctx := context.Background()
	require.NoError(t, store.WriteTable(ctx, storage.NewTable("Sheet Manager", [][]string{
		{"Base", "Solo"},
		{"Song Y", "Song X"},
	})))
	res, err := e.SyncAll(ctx, SyncOptions{SkipAnalysis: true})
	require.NoError(t, err)

	errs := details(res.Entries, synclog.StatusError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "collides with a system table")
	assert.Equal(t, "ID", read(t, store, "Base").Cell(0, 0))
	assert.Equal(t, "2", read(t, store, "Solo").Cell(1, 2))
}

type failingStore struct {
	*storage.MemStore
	table string
}

func (f failingStore) WriteTable(ctx context.Context, t *storage.Table) error {
	if t.Name == f.table {
		return fmt.Errorf("disk full")
	}
	return f.MemStore.WriteTable(ctx, t)
}

func TestAnalysisFailureDoesNotFailSync(t *testing.T) {
	_, mem := seed(t, aliceBob)
	store := failingStore{MemStore: mem, table: "Opps"}
	e, err := New(Config{Store: store})
	require.NoError(t, err)

	res, err := e.SyncAll(context.Background(), SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, AnalysisFailedNotice, res.AnalysisError)
	assert.Equal(t, "2", read(t, mem, "Solo").Cell(1, 2))
	assert.NotEmpty(t, read(t, mem, "Takes").Rows)

	var analysisErr bool
	for _, d := range details(res.Entries, synclog.StatusError) {
		if strings.Contains(d, "Analysis:") && strings.Contains(d, "disk full") {
			analysisErr = true
		}
	}
	assert.True(t, analysisErr)
}

func TestAnalyzeWritesDebugTrace(t *testing.T) {
	e, store := seed(t, aliceBob)
	ctx := context.Background()
	_, err := e.SyncAll(ctx, SyncOptions{SkipAnalysis: true})
	require.NoError(t, err)

	a, err := e.Analyze(ctx, []Kind{KindOpps}, nil)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindOpps}, a.Kinds)
	assert.NotEmpty(t, a.All())

	debug := read(t, store, "Debug Log")
	require.NotEmpty(t, debug.Rows)
	assert.Equal(t, "Analysis Debug", debug.Cell(0, 0))
	assert.Equal(t, "Start", debug.Cell(0, 1))
}

func TestAnalyzeWithoutRanksSkipsGlobalReports(t *testing.T) {
	e, store := seed(t, aliceBob)
	ctx := context.Background()
	_, err := e.SyncMembership(ctx, e.NewSink())
	require.NoError(t, err)

	a, err := e.Analyze(ctx, []Kind{KindMore, KindSpice}, nil)
	require.NoError(t, err)
	assert.Empty(t, a.Kinds)
	_, err = store.ReadTable(ctx, "More Analysis")
	assert.True(t, IsNotFound(err))
}

func TestAnalyzeLogIsFlushed(t *testing.T) {
	e, store := seed(t, aliceBob)
	ctx := context.Background()
	_, err := e.SyncMembership(ctx, e.NewSink())
	require.NoError(t, err)

	require.NoError(t, e.FlushLog(ctx, e.NewSink()))
	_, err = store.ReadTable(ctx, "Sync Log")
	assert.True(t, IsNotFound(err))

	sink := e.NewSink()
	_, err = e.Analyze(ctx, []Kind{KindMore}, sink)
	require.NoError(t, err)
	require.NoError(t, e.FlushLog(ctx, sink))

	log := read(t, store, "Sync Log")
	require.Len(t, log.Rows, 2)
	assert.Equal(t, []string{"System", "Skip", "More Analysis: no ranked songs yet"}, log.Rows[1][1:])
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds(nil)
	require.NoError(t, err)
	assert.Equal(t, AllKinds, kinds)

	kinds, err = ParseKinds([]string{"Takes", "opps", "takes"})
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindTakes, KindOpps}, kinds)

	kinds, err = ParseKinds([]string{"spice", "all"})
	require.NoError(t, err)
	assert.Equal(t, AllKinds, kinds)

	_, err = ParseKinds([]string{"vibes"})
	require.Error(t, err)
}

func TestSyncMembershipIsIdempotent(t *testing.T) {
	e, store := seed(t, nil)
	ctx := context.Background()
	res, err := e.SyncMembership(ctx, e.NewSink())
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, GroupMembership{Group: "Pair", Items: 2}, res.Groups[1])
	first := read(t, store, "Pair")

	_, err = e.SyncMembership(ctx, e.NewSink())
	require.NoError(t, err)
	assert.Equal(t, first.Rows, read(t, store, "Pair").Rows)
}

func TestSubmit(t *testing.T) {
	e, store := seed(t, aliceBob)
	ctx := context.Background()

	col, err := e.Submit(ctx, "carol@example.com", []string{"Song Y", " ", "Other Tune"})
	require.NoError(t, err)
	assert.Equal(t, "D", col)

	inbox := read(t, store, "Paste Rankings Here")
	assert.Equal(t, "carol", inbox.Cell(0, 3))
	assert.Equal(t, "1. Song Y", inbox.Cell(1, 3))
	assert.Equal(t, "2. Other Tune", inbox.Cell(2, 3))

	col, err = e.Submit(ctx, "carol", []string{"Other Tune"})
	require.NoError(t, err)
	assert.Equal(t, "D", col)
	inbox = read(t, store, "Paste Rankings Here")
	assert.Equal(t, "1. Other Tune", inbox.Cell(1, 3))
	assert.Equal(t, "", inbox.Cell(2, 3))

	res, err := e.SyncAll(ctx, SyncOptions{SkipAnalysis: true})
	require.NoError(t, err)
	assert.Contains(t, details(res.Entries, synclog.StatusSuccess), `carol: Tab "Pair": matched 1/1 songs. Written to Col E.`)

	_, err = e.Submit(ctx, "", []string{"x"})
	require.Error(t, err)
	_, err = e.Submit(ctx, "dave", nil)
	require.Error(t, err)
}

func TestSubmitCreatesInbox(t *testing.T) {
	e, store := seed(t, nil)
	col, err := e.Submit(context.Background(), "alice", []string{"Song X"})
	require.NoError(t, err)
	assert.Equal(t, "B", col)
	assert.Equal(t, [][]string{{"User Name", "alice"}, {"Ranked List", "1. Song X"}}, read(t, store, "Paste Rankings Here").Rows)
}

func TestWithdraw(t *testing.T) {
	e, store := seed(t, aliceBob)
	ctx := context.Background()
	_, err := e.SyncAll(ctx, SyncOptions{SkipAnalysis: true})
	require.NoError(t, err)

	require.NoError(t, e.Withdraw(ctx, "Bob"))
	inbox := read(t, store, "Paste Rankings Here")
	assert.Equal(t, "Bob", inbox.Cell(0, 2))
	assert.Equal(t, "", inbox.Cell(1, 2))

	res, err := e.SyncAll(ctx, SyncOptions{SkipAnalysis: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cleared)
	assert.Equal(t, []string{"Bob: No valid rankings found in column"}, details(res.Entries, synclog.StatusSkip)[:1])

	require.Error(t, e.Withdraw(ctx, "zed"))
}

func TestPasteIntoGroup(t *testing.T) {
	e, store := seed(t, nil)
	ctx := context.Background()
	_, err := e.SyncMembership(ctx, e.NewSink())
	require.NoError(t, err)

	_, err = e.PasteIntoGroup(ctx, "Base", "Dana", "1. Song X")
	require.ErrorIs(t, err, ErrNotAGroup)
	_, err = e.PasteIntoGroup(ctx, "Nope", "Dana", "1. Song X")
	require.ErrorIs(t, err, ErrNotAGroup)

	res, err := e.PasteIntoGroup(ctx, "Pair", "Dana", "1. Other Tune - Alpha\n2. Song Y\n3. Song X")
	require.NoError(t, err)
	assert.Equal(t, &PasteResult{Column: "E", Parsed: 3, Matched: 2}, res)

	assert.Equal(t, [][]string{
		{"Rank", "Song", "Points", "Average", "Dana"},
		{"1", "Other Tune", "1", "1.00", "1"},
		{"2", "Song Y", "2", "2.00", "2"},
	}, read(t, store, "Pair").Rows)
}

func TestDiagnose(t *testing.T) {
	e, _ := seed(t, aliceBob)
	ctx := context.Background()

	before, err := e.Diagnose(ctx)
	require.NoError(t, err)
	assert.Contains(t, before.Rows, []string{"Warning", "Solo", "Sheet does not exist yet. Run Membership Sync."})

	_, err = e.SyncAll(ctx, SyncOptions{SkipAnalysis: true})
	require.NoError(t, err)
	tbl, err := e.Diagnose(ctx)
	require.NoError(t, err)

	assert.Equal(t, DiagnosticHeaders, tbl.Rows[0])
	assert.Contains(t, tbl.Rows, []string{"Info", "Base Sheet", `Found "Song" at index 1 (Col 2)`})
	assert.Contains(t, tbl.Rows, []string{"Info", "Configuration", "2 Tabs detected in Sheet Manager"})
	assert.Contains(t, tbl.Rows, []string{"Section", "Processing Tab", ">>> Solo <<<"})
	assert.Contains(t, tbl.Rows, []string{"Analysis", "Solo", `User Columns detected for Matrix: ["Alice","Bob"]`})
	assert.Contains(t, tbl.Rows, []string{"Result", "Solo", "Total matches in Base: 1"})
	assert.Contains(t, tbl.Rows, []string{"Opps Check", "Solo", "Matrix Status: READY. Details: 2 users found, and found 1 songs have scores from EVERY user."})
	assert.Contains(t, tbl.Rows, []string{"Critical", "Pair", "DIVERGENCE MATRIX WILL FAIL: Need at least 2 users with ranking columns."})
}

func TestDiagnoseWithoutCatalog(t *testing.T) {
	store := storage.NewMemStore()
	e, err := New(Config{Store: store})
	require.NoError(t, err)
	tbl, err := e.Diagnose(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Error", "Infrastructure", "Base sheet not found!"}, tbl.Rows[1])
}

func TestDiagnoseWithEmptyCatalog(t *testing.T) {
	store := storage.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.WriteTable(ctx, storage.NewTable("Base", [][]string{{"", ""}})))
	e, err := New(Config{Store: store})
	require.NoError(t, err)

	tbl, err := e.Diagnose(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Error", "Infrastructure", "Base sheet is empty!"}, tbl.Rows[1])
	assert.Contains(t, tbl.Rows, []string{"Info", "Configuration", "0 Tabs detected in Sheet Manager"})
}

func TestInit(t *testing.T) {
	store := storage.NewMemStore()
	e, err := New(Config{Store: store})
	require.NoError(t, err)
	ctx := context.Background()

	created, err := e.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet Manager", "Paste Rankings Here"}, created)
	assert.Equal(t, "Global / All Songs", read(t, store, "Sheet Manager").Cell(0, 0))

	created, err = e.Init(ctx)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestArtistReference(t *testing.T) {
	e, store := seed(t, nil)
	_, err := e.ArtistReference(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Attribution", "Matching Songs"},
		{"Alpha", "Song X, Other Tune"},
		{"Beta", "Song Y"},
	}, read(t, store, "Artist Reference").Rows)
}

func TestCustomTables(t *testing.T) {
	store := storage.NewMemStore()
	e, err := New(Config{Store: store, Tables: Tables{Inbox: "Inbox"}})
	require.NoError(t, err)
	assert.Equal(t, "Inbox", e.Tables().Inbox)
	assert.Equal(t, "Base", e.Tables().Catalog)
	assert.True(t, e.reserved(" Inbox "))
}

func TestReportsDoNotWrite(t *testing.T) {
	e, store := seed(t, aliceBob)
	ctx := context.Background()
	_, err := e.SyncAll(ctx, SyncOptions{SkipAnalysis: true})
	require.NoError(t, err)

	a, err := e.Reports(ctx, AllKinds)
	require.NoError(t, err)
	assert.Equal(t, AllKinds, a.Kinds)
	for _, name := range []string{"Opps", "Takes", "More Analysis", "Spice Index", "Debug Log"} {
		_, err := store.ReadTable(ctx, name)
		assert.True(t, IsNotFound(err), name)
	}
}
