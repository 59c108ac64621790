package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB is a SQLite-backed TableStore. Each table is stored sparsely as
// non-empty cells plus its dimensions, so blank slots survive a round trip.
type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sheets (
  name        TEXT PRIMARY KEY,
  n_rows      INTEGER NOT NULL DEFAULT 0,
  n_cols      INTEGER NOT NULL DEFAULT 0,
  updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS sheet_cells (
  sheet  TEXT NOT NULL,
  row    INTEGER NOT NULL,
  col    INTEGER NOT NULL,
  value  TEXT NOT NULL,
  PRIMARY KEY(sheet, row, col)
);
CREATE INDEX IF NOT EXISTS idx_cells_col ON sheet_cells(sheet, col);
CREATE TABLE IF NOT EXISTS sync_log (
  id           INTEGER PRIMARY KEY,
  run_id       TEXT NOT NULL,
  occurred_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  subject      TEXT NOT NULL,
  status       TEXT NOT NULL,
  detail       TEXT
);
CREATE INDEX IF NOT EXISTS idx_log_time ON sync_log(occurred_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// ReadTable loads a table, trimmed to its data range.
func (d *DB) ReadTable(ctx context.Context, name string) (*Table, error) {
	name = NormalizeTableName(name)
	var nRows, nCols int
	err := d.sql.QueryRowContext(ctx, "SELECT n_rows, n_cols FROM sheets WHERE name = ?", name).Scan(&nRows, &nCols)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", name, ErrTableNotFound)
	}
	if err != nil {
		return nil, err
	}

	grid := make([][]string, nRows)
	for i := range grid {
		grid[i] = make([]string, nCols)
	}

	rows, err := d.sql.QueryContext(ctx, "SELECT row, col, value FROM sheet_cells WHERE sheet = ?", name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r, c int
		var v string
		if err := rows.Scan(&r, &c, &v); err != nil {
			return nil, err
		}
		if r < nRows && c < nCols {
			grid[r][c] = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewTable(name, trimTrailing(grid)), nil
}

// WriteTable replaces the whole table in one transaction.
func (d *DB) WriteTable(ctx context.Context, t *Table) (err error) {
	if t == nil {
		return fmt.Errorf("nil table")
	}
	name := NormalizeTableName(t.Name)
	if name == "" {
		return fmt.Errorf("table name is required")
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM sheet_cells WHERE sheet = ?", name); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO sheet_cells(sheet, row, col, value) VALUES(?,?,?,?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for r, row := range t.Rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			if _, err = stmt.ExecContext(ctx, name, r, c, v); err != nil {
				return err
			}
		}
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO sheets(name, n_rows, n_cols, updated_at) VALUES(?,?,?,CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET n_rows = excluded.n_rows, n_cols = excluded.n_cols, updated_at = CURRENT_TIMESTAMP`, name, len(t.Rows), t.Width()); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendRow adds a row after the last one, creating the table if needed.
func (d *DB) AppendRow(ctx context.Context, name string, row []string) (err error) {
	name = NormalizeTableName(name)
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var nRows, nCols int
	err = tx.QueryRowContext(ctx, "SELECT n_rows, n_cols FROM sheets WHERE name = ?", name).Scan(&nRows, &nCols)
	if err == sql.ErrNoRows {
		err = nil
	}
	if err != nil {
		return err
	}
	for c, v := range row {
		if v == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, "INSERT INTO sheet_cells(sheet, row, col, value) VALUES(?,?,?,?)", name, nRows, c, v); err != nil {
			return err
		}
	}
	if len(row) > nCols {
		nCols = len(row)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO sheets(name, n_rows, n_cols, updated_at) VALUES(?,?,?,CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET n_rows = excluded.n_rows, n_cols = excluded.n_cols, updated_at = CURRENT_TIMESTAMP`, name, nRows+1, nCols); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearColumn blanks every cell of col from fromRow downwards. The column itself stays.
func (d *DB) ClearColumn(ctx context.Context, name string, col, fromRow int) error {
	name = NormalizeTableName(name)
	res, err := d.sql.ExecContext(ctx, "UPDATE sheets SET updated_at = CURRENT_TIMESTAMP WHERE name = ?", name)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", name, ErrTableNotFound)
	}
	_, err = d.sql.ExecContext(ctx, "DELETE FROM sheet_cells WHERE sheet = ? AND col = ? AND row >= ?", name, col, fromRow)
	return err
}

// DeleteTable removes a table and its cells.
func (d *DB) DeleteTable(ctx context.Context, name string) error {
	name = NormalizeTableName(name)
	if _, err := d.sql.ExecContext(ctx, "DELETE FROM sheet_cells WHERE sheet = ?", name); err != nil {
		return err
	}
	_, err := d.sql.ExecContext(ctx, "DELETE FROM sheets WHERE name = ?", name)
	return err
}

// ListTables returns a summary of every stored table, sorted by name.
func (d *DB) ListTables(ctx context.Context) ([]TableStats, error) {
	query := `
		SELECT
			s.name,
			s.n_rows,
			s.n_cols,
			(SELECT COUNT(*) FROM sheet_cells c WHERE c.sheet = s.name),
			s.updated_at
		FROM
			sheets s
		ORDER BY
			s.name;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []TableStats
	for rows.Next() {
		var s TableStats
		var updated string
		if err := rows.Scan(&s.Name, &s.Rows, &s.Columns, &s.Cells, &updated); err != nil {
			return nil, err
		}
		s.UpdatedAt = parseTimestamp(updated)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// AppendLog persists a batch of log records in one transaction.
func (d *DB) AppendLog(ctx context.Context, records []LogRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, r := range records {
		if _, err = tx.ExecContext(ctx, `INSERT INTO sync_log(run_id, occurred_at, subject, status, detail) VALUES(?,?,?,?,?)`,
			r.RunID, r.OccurredAt.UTC().Format(time.RFC3339), r.Subject, r.Status, nullIfEmpty(r.Detail)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRecentLog returns the most recent N log records, newest first.
func (d *DB) ListRecentLog(ctx context.Context, limit int) ([]LogRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT run_id, occurred_at, subject, status, detail FROM sync_log ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []LogRecord{}
	for rows.Next() {
		var r LogRecord
		var occurredAtStr string
		var detail sql.NullString
		if err := rows.Scan(&r.RunID, &occurredAtStr, &r.Subject, &r.Status, &detail); err != nil {
			return nil, err
		}
		r.OccurredAt = parseTimestamp(occurredAtStr)
		r.Detail = detail.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// parseTimestamp accepts SQLite CURRENT_TIMESTAMP and RFC3339 values.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
