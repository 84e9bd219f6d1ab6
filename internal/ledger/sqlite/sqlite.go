// Package sqlite stores ledger records in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	_ "modernc.org/sqlite"

	"trustgame/internal/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_header (
    position INTEGER PRIMARY KEY,
    name     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ledger_records (
    row_id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    sona_id                TEXT    NOT NULL,
    amount_sent_a_to_b     INTEGER NOT NULL,
    amount_received_b      INTEGER NOT NULL,
    amount_returned_b_to_a INTEGER NOT NULL,
    amount_sent_b_to_a     INTEGER NOT NULL,
    amount_received_a      INTEGER NOT NULL,
    final_earnings_a       INTEGER NOT NULL,
    final_earnings_b       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_records_sona_id ON ledger_records (sona_id);
`

var recordColumns = []string{
	"sona_id",
	"amount_sent_a_to_b",
	"amount_received_b",
	"amount_returned_b_to_a",
	"amount_sent_b_to_a",
	"amount_received_a",
	"final_earnings_a",
	"final_earnings_b",
}

var (
	insertSQL = fmt.Sprintf("INSERT INTO ledger_records (%s) VALUES (%s)",
		strings.Join(recordColumns, ", "), placeholders(len(recordColumns)))
	insertUniqueSQL = fmt.Sprintf(
		"INSERT INTO ledger_records (%s) SELECT %s WHERE NOT EXISTS (SELECT 1 FROM ledger_records WHERE sona_id = ?)",
		strings.Join(recordColumns, ", "), placeholders(len(recordColumns)))
)

// Store is a ledger.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

var (
	_ ledger.Store          = (*Store)(nil)
	_ ledger.AtomicAppender = (*Store)(nil)
)

// Open opens or creates the database at path and prepares its tables.
// Failures wrap ledger.ErrConnection.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", ledger.ErrConnection)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ledger.ErrConnection, path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ledger.ErrConnection, path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ensure schema: %w", ledger.ErrConnection, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) EnsureHeader(ctx context.Context, columns []string) error {
	current, err := s.header(ctx)
	if err != nil {
		return err
	}
	if slices.Equal(current, columns) {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin header tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ledger_header"); err != nil {
		return fmt.Errorf("clear header: %w", err)
	}
	for i, name := range columns {
		if _, err := tx.ExecContext(ctx, "INSERT INTO ledger_header (position, name) VALUES (?, ?)", i, name); err != nil {
			return fmt.Errorf("write header column %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit header: %w", err)
	}
	return nil
}

func (s *Store) header(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM ledger_header ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan header: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Header returns the stored header row.
func (s *Store) Header(ctx context.Context) ([]string, error) {
	return s.header(ctx)
}

func (s *Store) ListIdentifiers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT sona_id FROM ledger_records ORDER BY row_id")
	if err != nil {
		return nil, fmt.Errorf("list identifiers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) AppendRecord(ctx context.Context, fields []any) error {
	if len(fields) != len(recordColumns) {
		return fmt.Errorf("%w: expected %d fields, got %d", ledger.ErrWrite, len(recordColumns), len(fields))
	}
	if _, err := s.db.ExecContext(ctx, insertSQL, fields...); err != nil {
		return fmt.Errorf("%w: %w", ledger.ErrWrite, err)
	}
	return nil
}

// CheckAndAppend inserts the row only if identifier is not yet recorded.
// SQLite runs the statement atomically.
func (s *Store) CheckAndAppend(ctx context.Context, identifier string, fields []any) error {
	if len(fields) != len(recordColumns) {
		return fmt.Errorf("%w: expected %d fields, got %d", ledger.ErrWrite, len(recordColumns), len(fields))
	}
	args := append(slices.Clone(fields), identifier)
	res, err := s.db.ExecContext(ctx, insertUniqueSQL, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ledger.ErrWrite, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ledger.ErrWrite, err)
	}
	if n == 0 {
		return ledger.ErrDuplicateIdentifier
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
