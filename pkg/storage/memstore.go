package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory TableStore used by tests and dry runs.
type MemStore struct {
	mu      sync.RWMutex
	tables  map[string]*Table
	updated map[string]time.Time
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		tables:  make(map[string]*Table),
		updated: make(map[string]time.Time),
	}
}

func (m *MemStore) ReadTable(_ context.Context, name string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[NormalizeTableName(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrTableNotFound)
	}
	return NewTable(t.Name, trimTrailing(t.Rows)), nil
}

func (m *MemStore) WriteTable(_ context.Context, t *Table) error {
	if t == nil {
		return fmt.Errorf("nil table")
	}
	name := NormalizeTableName(t.Name)
	if name == "" {
		return fmt.Errorf("table name is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = NewTable(name, t.Rows)
	m.updated[name] = time.Now().UTC()
	return nil
}

func (m *MemStore) AppendRow(_ context.Context, name string, row []string) error {
	name = NormalizeTableName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		t = &Table{Name: name}
		m.tables[name] = t
	}
	rows := append(t.Rows, append([]string(nil), row...))
	m.tables[name] = NewTable(name, rows)
	m.updated[name] = time.Now().UTC()
	return nil
}

func (m *MemStore) ClearColumn(_ context.Context, name string, col, fromRow int) error {
	name = NormalizeTableName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrTableNotFound)
	}
	for r := fromRow; r < len(t.Rows); r++ {
		if col < len(t.Rows[r]) {
			t.Rows[r][col] = ""
		}
	}
	m.updated[name] = time.Now().UTC()
	return nil
}

// ListTables returns a summary of every stored table, sorted by name.
func (m *MemStore) ListTables(_ context.Context) ([]TableStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []TableStats
	for name, t := range m.tables {
		s := TableStats{Name: name, Rows: len(t.Rows), Columns: t.Width(), UpdatedAt: m.updated[name]}
		for _, r := range t.Rows {
			for _, v := range r {
				if v != "" {
					s.Cells++
				}
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
