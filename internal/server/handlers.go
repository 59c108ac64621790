package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/storage"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Debugf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrTableNotFound), errors.Is(err, pipeline.ErrNotAGroup):
		status = http.StatusNotFound
	case errors.Is(err, pipeline.ErrInboxInitialized), errors.Is(err, pipeline.ErrNoSubmissions),
		errors.Is(err, pipeline.ErrNoValidRankings), errors.Is(err, pipeline.ErrNoCatalog):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.Store.ListTables(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

type TableResponse struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.Store.ReadTable(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TableResponse{Name: t.Name, Rows: t.Rows})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	var names []string
	if k := r.URL.Query().Get("kinds"); k != "" {
		names = strings.Split(k, ",")
	}
	kinds, err := pipeline.ParseKinds(names)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := s.Engine.Reports(r.Context(), kinds)
	if a == nil {
		writeError(w, err)
		return
	}
	if err != nil {
		utils.Log.Warnf("reports: %v", err)
	}
	writeJSON(w, http.StatusOK, a.All())
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	ll, ok := s.Store.(LogLister)
	if !ok {
		http.Error(w, "this store keeps no log history", http.StatusNotFound)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := ll.ListRecentLog(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type SubmitRequest struct {
	User  string   `json:"user"`
	Songs []string `json:"songs"`
	// Group pastes straight into one group instead of the inbox.
	Group string `json:"group,omitempty"`
}

type SubmitResponse struct {
	Column  string `json:"column"`
	Matched int    `json:"matched,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.User) == "" || len(req.Songs) == 0 {
		http.Error(w, "user and songs are required", http.StatusBadRequest)
		return
	}

	var resp SubmitResponse
	err := s.exclusive(func() error {
		if req.Group != "" {
			lines := make([]string, len(req.Songs))
			for i, song := range req.Songs {
				lines[i] = strconv.Itoa(i+1) + ". " + song
			}
			res, err := s.Engine.PasteIntoGroup(r.Context(), req.Group, req.User, strings.Join(lines, "\n"))
			if err != nil {
				return err
			}
			resp = SubmitResponse{Column: res.Column, Matched: res.Matched}
			return nil
		}
		col, err := s.Engine.Submit(r.Context(), req.User, req.Songs)
		resp.Column = col
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

type SyncResponse struct {
	RunID         string   `json:"run_id"`
	Users         []string `json:"users"`
	Updates       int      `json:"updates"`
	Cleared       int      `json:"cleared"`
	AnalysisError string   `json:"analysis_error,omitempty"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	skip := r.URL.Query().Get("skip_analysis") == "true"
	var res *pipeline.SyncResult
	err := s.exclusive(func() error {
		var err error
		res, err = s.Engine.SyncAll(r.Context(), pipeline.SyncOptions{SkipAnalysis: skip})
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SyncResponse{
		RunID:         res.RunID,
		Users:         res.Users,
		Updates:       res.Updates,
		Cleared:       res.Cleared,
		AnalysisError: res.AnalysisError,
	})
}
