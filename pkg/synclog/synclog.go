// Package synclog collects the diagnostic entries of one sync pass.
// Components append to a Sink; the orchestrator flushes it once at the end.
package synclog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/songrank/songrank/pkg/storage"
)

// Status classifies an entry.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusSkip    Status = "Skip"
	StatusError   Status = "Error"
	StatusCleanup Status = "Cleanup"
	StatusInfo    Status = "Info"
)

// SystemSubject is used for entries that are not about a specific user.
const SystemSubject = "System"

// Entry is one line of the log stream.
type Entry struct {
	Time    time.Time
	Subject string
	Status  Status
	Detail  string
}

// Sink accumulates entries for a single run and mirrors them to logrus.
type Sink struct {
	mu      sync.Mutex
	runID   string
	entries []Entry
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewSink creates a sink with a fresh run id. logger may be nil.
func NewSink(logger logrus.FieldLogger) *Sink {
	return &Sink{
		runID:  uuid.NewString(),
		logger: logger,
		now:    time.Now,
	}
}

// RunID identifies the pass this sink belongs to.
func (s *Sink) RunID() string { return s.runID }

// Add appends an entry.
func (s *Sink) Add(subject string, status Status, format string, args ...interface{}) {
	if s == nil {
		return
	}
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	e := Entry{Time: s.now(), Subject: subject, Status: status, Detail: detail}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()

	if s.logger == nil {
		return
	}
	l := s.logger.WithFields(logrus.Fields{"subject": subject, "status": string(status), "run": s.runID})
	switch status {
	case StatusError:
		l.Error(detail)
	case StatusSkip, StatusCleanup:
		l.Warn(detail)
	default:
		l.Info(detail)
	}
}

// Entries returns a copy of everything logged so far.
func (s *Sink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Count returns how many entries carry the given status.
func (s *Sink) Count(status Status) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// Table renders the entries in the layout of the sync log table.
func (s *Sink) Table(name string) *storage.Table {
	rows := [][]string{{"Time", "User", "Status", "Details"}}
	for _, e := range s.Entries() {
		rows = append(rows, []string{e.Time.Format("15:04:05"), e.Subject, string(e.Status), e.Detail})
	}
	return storage.NewTable(name, rows)
}

// Records converts the entries for persistence in the history log.
func (s *Sink) Records() []storage.LogRecord {
	entries := s.Entries()
	out := make([]storage.LogRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, storage.LogRecord{RunID: s.runID, OccurredAt: e.Time, Subject: e.Subject, Status: string(e.Status), Detail: e.Detail})
	}
	return out
}

// HistoryWriter is implemented by stores that keep a log history (storage.DB).
type HistoryWriter interface {
	AppendLog(ctx context.Context, records []storage.LogRecord) error
}

// Flush writes the log table and, when the store supports it, the history.
func (s *Sink) Flush(ctx context.Context, store storage.TableStore, tableName string) error {
	if err := store.WriteTable(ctx, s.Table(tableName)); err != nil {
		return fmt.Errorf("writing %s: %w", tableName, err)
	}
	if hw, ok := store.(HistoryWriter); ok {
		if err := hw.AppendLog(ctx, s.Records()); err != nil {
			return fmt.Errorf("appending log history: %w", err)
		}
	}
	return nil
}
