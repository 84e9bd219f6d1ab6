// Package supabase stores ledger records in a Supabase (PostgREST) table.
//
// The table has a fixed schema, one snake_case column per ledger header:
//
//	create table trust_game (
//	  id                     bigint generated always as identity primary key,
//	  sona_id                text    not null,
//	  amount_sent_a_to_b     integer not null,
//	  amount_received_b      integer not null,
//	  amount_returned_b_to_a integer not null,
//	  amount_sent_b_to_a     integer not null,
//	  amount_received_a      integer not null,
//	  final_earnings_a       integer not null,
//	  final_earnings_b       integer not null
//	);
package supabase

import (
	"context"
	"fmt"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"trustgame/internal/ledger"
)

// columns maps ledger.Header positions to table columns.
var columns = []string{
	"sona_id",
	"amount_sent_a_to_b",
	"amount_received_b",
	"amount_returned_b_to_a",
	"amount_sent_b_to_a",
	"amount_received_a",
	"final_earnings_a",
	"final_earnings_b",
}

// pageSize matches the default PostgREST max_rows of a Supabase project.
const pageSize = 1000

// Store is a ledger.Store over one Supabase table.
type Store struct {
	client *supa.Client
	table  string
}

var _ ledger.Store = (*Store)(nil)

type identifierRow struct {
	SonaID string `json:"sona_id"`
}

// Open connects to the project at url and reads one row of the table. Every
// failure wraps ledger.ErrConnection.
func Open(url, key, table string) (*Store, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("%w: supabase url and key are required", ledger.ErrConnection)
	}
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrConnection, err)
	}
	s := &Store{client: client, table: table}

	var first []identifierRow
	if _, err := client.From(table).Select("sona_id", "", false).Limit(1, "").ExecuteTo(&first); err != nil {
		return nil, fmt.Errorf("%w: read table %s: %w", ledger.ErrConnection, table, err)
	}
	return s, nil
}

// EnsureHeader checks columns against the table mapping. The table schema
// carries the header, so there is nothing to write.
func (s *Store) EnsureHeader(_ context.Context, want []string) error {
	if len(want) != len(ledger.Header) {
		return fmt.Errorf("table %s maps %d columns, header has %d", s.table, len(ledger.Header), len(want))
	}
	for i, c := range want {
		if c != ledger.Header[i] {
			return fmt.Errorf("table %s has no column for header %q", s.table, c)
		}
	}
	return nil
}

// ListIdentifiers reads the table page by page. PostgREST truncates each
// response at max_rows, which may be below pageSize, so only an empty page
// ends the scan.
func (s *Store) ListIdentifiers(context.Context) ([]string, error) {
	var ids []string
	for from := 0; ; {
		var rows []identifierRow
		_, err := s.client.From(s.table).
			Select("sona_id", "", false).
			Order("id", &postgrest.OrderOpts{Ascending: true}).
			Range(from, from+pageSize-1, "").
			ExecuteTo(&rows)
		if err != nil {
			return nil, fmt.Errorf("list identifiers from row %d: %w", from, err)
		}
		if len(rows) == 0 {
			return ids, nil
		}
		for _, r := range rows {
			ids = append(ids, r.SonaID)
		}
		from += len(rows)
	}
}

func (s *Store) AppendRecord(_ context.Context, fields []any) error {
	if len(fields) != len(columns) {
		return fmt.Errorf("%w: expected %d fields, got %d", ledger.ErrWrite, len(columns), len(fields))
	}
	row := make(map[string]any, len(columns))
	for i, c := range columns {
		row[c] = fields[i]
	}

	var inserted []map[string]any
	if _, err := s.client.From(s.table).Insert(row, false, "", "representation", "").ExecuteTo(&inserted); err != nil {
		return fmt.Errorf("%w: insert into %s: %w", ledger.ErrWrite, s.table, err)
	}
	if len(inserted) == 0 {
		return fmt.Errorf("%w: insert into %s returned no row", ledger.ErrWrite, s.table)
	}
	return nil
}
