package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/stats"
	"github.com/songrank/songrank/pkg/storage"
)

type countingLock struct{ locks, unlocks int }

func (c *countingLock) Lock() error   { c.locks++; return nil }
func (c *countingLock) Unlock() error { c.unlocks++; return nil }

func newTestServer(t *testing.T, user, pass string) (*Server, *storage.MemStore) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemStore()
	require.NoError(t, store.WriteTable(ctx, storage.NewTable("Base", [][]string{
		{"ID", "Song"},
		{"001", "Song X"},
		{"002", "Song Y"},
	})))
	require.NoError(t, store.WriteTable(ctx, storage.NewTable("Sheet Manager", [][]string{
		{"Both"},
		{"Song X\nSong Y"},
	})))
	eng, err := pipeline.New(pipeline.Config{Store: store})
	require.NoError(t, err)
	return New(store, eng, user, pass), store
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitSyncAndReports(t *testing.T) {
	s, _ := newTestServer(t, "", "")
	lock := &countingLock{}
	s.Lock = lock
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/submissions", `{"user":"alice@example.com","songs":["Song Y","Song X"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sub SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, "B", sub.Column)

	rec = do(t, h, http.MethodPost, "/api/submissions", `{"user":"bob","songs":["Song X","Song Y"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/sync?skip_analysis=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sync SyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sync))
	assert.Equal(t, []string{"alice", "bob"}, sync.Users)
	assert.Equal(t, 2, sync.Updates)
	assert.Equal(t, 3, lock.locks)
	assert.Equal(t, 3, lock.unlocks)

	rec = do(t, h, http.MethodGet, "/api/tables/Both", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tbl TableResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tbl))
	assert.Equal(t, []string{"Rank", "Song", "Points", "Average", "alice", "bob"}, tbl.Rows[0])

	rec = do(t, h, http.MethodGet, "/api/reports?kinds=opps", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reports []stats.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	require.NotEmpty(t, reports)

	rec = do(t, h, http.MethodGet, "/api/tables/Opps", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrors(t *testing.T) {
	s, _ := newTestServer(t, "", "")
	h := s.Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/tables/Nope", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/reports?kinds=vibes", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/submissions", `{"user":""}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/submissions", `{"user":"a","songs":["Song X"],"group":"Base"}`).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/sync", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/log", "").Code)
}

func TestBasicAuth(t *testing.T) {
	s, _ := newTestServer(t, "admin", "secret")
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/tables", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var tables []storage.TableStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tables))
	assert.Len(t, tables, 2)
}
