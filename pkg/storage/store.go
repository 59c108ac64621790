package storage

import (
	"context"
	"errors"
)

// ErrTableNotFound is returned when a named table does not exist in the store.
var ErrTableNotFound = errors.New("table not found")

// TableStore is the tabular repository the sync core reads from and writes to.
// Writes are last-writer-wins; callers serialise whole passes themselves.
type TableStore interface {
	ReadTable(ctx context.Context, name string) (*Table, error)
	WriteTable(ctx context.Context, t *Table) error
	AppendRow(ctx context.Context, name string, row []string) error
	ClearColumn(ctx context.Context, name string, col, fromRow int) error
}
