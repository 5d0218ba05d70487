// Package ledger records every published document in a SQL table.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrClosed is returned by operations on a closed ledger.
var ErrClosed = errors.New("ledger: closed")

// Entry is one publication record.
type Entry struct {
	ID          int64
	Key         string
	Name        string
	Layout      string
	Size        int64
	ContentType string
	Description string
	RecordedAt  time.Time
}

// Ledger is the recording contract used by the publisher.
type Ledger interface {
	Record(ctx context.Context, e Entry) (int64, error)
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Dialect captures the SQL differences between supported databases.
type Dialect struct {
	Name        string
	Placeholder func(n int) string
	Schema      string
}

var (
	// SQLite uses ? placeholders.
	SQLite = Dialect{
		Name:        "sqlite",
		Placeholder: func(int) string { return "?" },
		Schema: `CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			blob_key TEXT NOT NULL,
			name TEXT NOT NULL,
			layout TEXT NOT NULL,
			size INTEGER NOT NULL,
			content_type TEXT NOT NULL,
			description TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		)`,
	}
	// Postgres uses $n placeholders.
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		Schema: `CREATE TABLE IF NOT EXISTS entries (
			id BIGSERIAL PRIMARY KEY,
			blob_key TEXT NOT NULL,
			name TEXT NOT NULL,
			layout TEXT NOT NULL,
			size BIGINT NOT NULL,
			content_type TEXT NOT NULL,
			description TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		)`,
	}
)

const columns = "blob_key, name, layout, size, content_type, description, recorded_at"

// SQLLedger stores entries through database/sql.
type SQLLedger struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time

	insertSQL string
	listSQL   string
}

var _ Ledger = (*SQLLedger)(nil)

// NewSQL wraps db. Call EnsureSchema before first use on a fresh database.
func NewSQL(db *sql.DB, dialect Dialect) *SQLLedger {
	marks := make([]string, 7)
	for i := range marks {
		marks[i] = dialect.Placeholder(i + 1)
	}
	return &SQLLedger{
		db:        db,
		dialect:   dialect,
		now:       func() time.Time { return time.Now().UTC() },
		insertSQL: fmt.Sprintf("INSERT INTO entries (%s) VALUES (%s) RETURNING id", columns, strings.Join(marks, ", ")),
		listSQL:   fmt.Sprintf("SELECT id, %s FROM entries ORDER BY id DESC LIMIT %s", columns, dialect.Placeholder(1)),
	}
}

// EnsureSchema creates the entries table if it does not exist.
func (l *SQLLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, l.dialect.Schema); err != nil {
		return fmt.Errorf("create entries table: %w", err)
	}
	return nil
}

// Dialect returns the SQL dialect in use.
func (l *SQLLedger) Dialect() Dialect { return l.dialect }

// Record inserts e and returns its id. A zero RecordedAt is set to now.
func (l *SQLLedger) Record(ctx context.Context, e Entry) (int64, error) {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = l.now()
	}
	var id int64
	err := l.db.QueryRowContext(ctx, l.insertSQL,
		e.Key, e.Name, e.Layout, e.Size, e.ContentType, e.Description,
		e.RecordedAt.UTC().Format(time.RFC3339Nano),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	return id, nil
}

// List returns up to limit entries, newest first. limit <= 0 means 100.
func (l *SQLLedger) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, l.listSQL, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var e Entry
		var recorded string
		if err := rows.Scan(&e.ID, &e.Key, &e.Name, &e.Layout, &e.Size, &e.ContentType, &e.Description, &recorded); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recorded); err != nil {
			return nil, fmt.Errorf("entry %d: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (l *SQLLedger) Close() error { return l.db.Close() }
