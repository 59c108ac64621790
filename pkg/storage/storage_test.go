package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "songrank.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// Both implementations must behave the same way.
func stores(t *testing.T) map[string]TableStore {
	return map[string]TableStore{
		"sqlite": openTestDB(t),
		"memory": NewMemStore(),
	}
}

func TestTableStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			in := NewTable("Group A", [][]string{
				{"Rank", "Song", "Points", "Average", "alice", "", "bob"},
				{"1", "Song X", "3", "1.50", "1", "", "2"},
				{"2", "Song Y", "0", "0.00"},
			})
			require.NoError(t, store.WriteTable(ctx, in))

			out, err := store.ReadTable(ctx, "Group A")
			require.NoError(t, err)
			assert.Equal(t, in.Rows, out.Rows)
			assert.Equal(t, "", out.Cell(1, 5), "blank slot between users survives")
		})
	}
}

func TestTableStoreMissingTable(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.ReadTable(ctx, "nope")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTableNotFound))
		})
	}
}

func TestTableStoreAppendAndClear(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.AppendRow(ctx, "Log", []string{"Time", "User", "Status", "Details"}))
			require.NoError(t, store.AppendRow(ctx, "Log", []string{"10:00", "alice", "Success", "ok"}))
			require.NoError(t, store.AppendRow(ctx, "Log", []string{"10:01", "bob", "Skip"}))

			tbl, err := store.ReadTable(ctx, "Log")
			require.NoError(t, err)
			require.Len(t, tbl.Rows, 3)
			assert.Equal(t, "bob", tbl.Cell(2, 1))

			require.NoError(t, store.ClearColumn(ctx, "Log", 1, 1))
			tbl, err = store.ReadTable(ctx, "Log")
			require.NoError(t, err)
			assert.Equal(t, "User", tbl.Cell(0, 1), "header is kept")
			assert.Equal(t, "", tbl.Cell(1, 1))
			assert.Equal(t, "", tbl.Cell(2, 1))
			assert.Equal(t, "Success", tbl.Cell(1, 2))
		})
	}
}

func TestReadTableTrimsDataRange(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.WriteTable(ctx, NewTable("T", [][]string{
				{"a", "", ""},
				{"", "b", ""},
				{"", "", ""},
			})))
			tbl, err := store.ReadTable(ctx, "T")
			require.NoError(t, err)
			assert.Equal(t, [][]string{{"a", ""}, {"", "b"}}, tbl.Rows)
		})
	}
}

func TestSyncLogPersistence(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.AppendLog(ctx, []LogRecord{
		{RunID: "r1", OccurredAt: now.Add(-time.Minute), Subject: "System", Status: "Cleanup", Detail: "cleared"},
		{RunID: "r1", OccurredAt: now, Subject: "alice", Status: "Success"},
	}))

	recs, err := db.ListRecentLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "alice", recs[0].Subject)
	assert.Equal(t, "", recs[0].Detail)
	assert.Equal(t, "cleared", recs[1].Detail)
	assert.True(t, recs[0].OccurredAt.Equal(now))
}

func TestListTables(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.WriteTable(ctx, NewTable("B", [][]string{{"x", "y"}, {"z"}})))
	require.NoError(t, db.WriteTable(ctx, NewTable("A", [][]string{{"x"}})))

	stats, err := db.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "A", stats[0].Name)
	assert.Equal(t, 3, stats[1].Cells)
	assert.Equal(t, 2, stats[1].Columns)

	require.NoError(t, db.DeleteTable(ctx, "A"))
	_, err = db.ReadTable(ctx, "A")
	assert.ErrorIs(t, err, ErrTableNotFound)
}
