package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/storage"
)

// Store is the read side the API needs.
type Store interface {
	ReadTable(ctx context.Context, name string) (*storage.Table, error)
	ListTables(ctx context.Context) ([]storage.TableStats, error)
}

// LogLister is implemented by stores that keep the sync history (storage.DB).
type LogLister interface {
	ListRecentLog(ctx context.Context, limit int) ([]storage.LogRecord, error)
}

// Locker serialises mutating requests with other processes. utils.DBLock satisfies it.
type Locker interface {
	Lock() error
	Unlock() error
}

type Server struct {
	Store    Store
	Engine   *pipeline.Engine
	Lock     Locker // optional
	Username string
	Password string

	mu sync.Mutex
}

func New(store Store, eng *pipeline.Engine, user, pass string) *Server {
	return &Server{
		Store:    store,
		Engine:   eng,
		Username: user,
		Password: pass,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API Group
	mux.HandleFunc("GET /api/tables", s.basicAuth(s.handleTables))
	mux.HandleFunc("GET /api/tables/{name}", s.basicAuth(s.handleTable))
	mux.HandleFunc("GET /api/reports", s.basicAuth(s.handleReports))
	mux.HandleFunc("GET /api/log", s.basicAuth(s.handleLog))
	mux.HandleFunc("POST /api/submissions", s.basicAuth(s.handleSubmit))
	mux.HandleFunc("POST /api/sync", s.basicAuth(s.handleSync))
	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// exclusive runs fn while holding the in-process mutex and, when set, the database lock.
func (s *Server) exclusive(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Lock != nil {
		if err := s.Lock.Lock(); err != nil {
			return err
		}
		defer s.Lock.Unlock()
	}
	return fn()
}
