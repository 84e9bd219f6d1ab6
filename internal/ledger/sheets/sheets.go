// Package sheets stores ledger records in a Google Sheets worksheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"trustgame/internal/ledger"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Options configures how the store reaches its spreadsheet.
type Options struct {
	// CredentialsFile is a service account JSON key.
	CredentialsFile string
	// SpreadsheetID addresses the spreadsheet directly. When empty the
	// spreadsheet is looked up by SpreadsheetName through Drive.
	SpreadsheetID   string
	SpreadsheetName string
	// Tab is the worksheet title. Defaults to "Sheet1".
	Tab string

	// ClientOptions replace the credential options when set.
	ClientOptions []option.ClientOption
}

// Store is a ledger.Store over one worksheet.
type Store struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	tab           string
}

var _ ledger.Store = (*Store)(nil)

// Open authenticates, resolves the spreadsheet and checks that the worksheet
// exists. Every failure wraps ledger.ErrConnection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	clientOpts := opts.ClientOptions
	if len(clientOpts) == 0 {
		if opts.CredentialsFile == "" {
			return nil, fmt.Errorf("%w: google credentials file is required", ledger.ErrConnection)
		}
		clientOpts = []option.ClientOption{
			option.WithCredentialsFile(opts.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope, drive.DriveReadonlyScope),
		}
	}
	tab := opts.Tab
	if tab == "" {
		tab = "Sheet1"
	}

	srv, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create sheets client: %w", ledger.ErrConnection, err)
	}

	id := opts.SpreadsheetID
	if id == "" {
		id, err = lookupSpreadsheet(ctx, opts.SpreadsheetName, clientOpts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ledger.ErrConnection, err)
		}
	}

	doc, err := srv.Spreadsheets.Get(id).Fields("spreadsheetId", "sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: open spreadsheet %s: %w", ledger.ErrConnection, id, err)
	}
	if !hasTab(doc, tab) {
		return nil, fmt.Errorf("%w: spreadsheet %s has no worksheet %q", ledger.ErrConnection, id, tab)
	}

	return &Store{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: id,
		tab:           tab,
	}, nil
}

// lookupSpreadsheet finds a spreadsheet the credentials can see by its title.
func lookupSpreadsheet(ctx context.Context, name string, clientOpts []option.ClientOption) (string, error) {
	if name == "" {
		return "", errors.New("spreadsheet id or name is required")
	}
	drv, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return "", fmt.Errorf("create drive client: %w", err)
	}
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMimeType)
	list, err := drv.Files.List().
		Q(q).
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("find spreadsheet %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("spreadsheet %q not found or not shared with the service account", name)
	}
	return list.Files[0].Id, nil
}

func hasTab(doc *sheets.Spreadsheet, tab string) bool {
	for _, s := range doc.Sheets {
		if s.Properties != nil && s.Properties.Title == tab {
			return true
		}
	}
	return false
}

// SpreadsheetID returns the resolved spreadsheet.
func (s *Store) SpreadsheetID() string {
	return s.spreadsheetID
}

func (s *Store) EnsureHeader(ctx context.Context, columns []string) error {
	resp, err := s.values.Get(s.spreadsheetID, a1(s.tab, "1:1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	var current []any
	if len(resp.Values) > 0 {
		current = resp.Values[0]
	}
	if headerMatches(current, columns) {
		return nil
	}

	// Blank out any trailing cells of a longer stale header.
	row := make([]any, max(len(columns), len(current)))
	for i := range row {
		row[i] = ""
		if i < len(columns) {
			row[i] = columns[i]
		}
	}
	_, err = s.values.Update(s.spreadsheetID, a1(s.tab, "A1"), &sheets.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func (s *Store) ListIdentifiers(ctx context.Context) ([]string, error) {
	resp, err := s.values.Get(s.spreadsheetID, a1(s.tab, "A:A")).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read identifiers: %w", err)
	}
	if len(resp.Values) <= 1 {
		return nil, nil
	}
	ids := make([]string, 0, len(resp.Values)-1)
	for _, row := range resp.Values[1:] {
		if len(row) == 0 {
			ids = append(ids, "")
			continue
		}
		ids = append(ids, fmt.Sprint(row[0]))
	}
	return ids, nil
}

func (s *Store) AppendRecord(ctx context.Context, fields []any) error {
	_, err := s.values.Append(s.spreadsheetID, a1(s.tab, "A1"), &sheets.ValueRange{
		Values: [][]any{fields},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%w: append row: %w", ledger.ErrWrite, err)
	}
	return nil
}

// a1 builds a quoted A1 range on the worksheet.
func a1(tab, ref string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!" + ref
}

func headerMatches(current []any, columns []string) bool {
	if len(current) != len(columns) {
		return false
	}
	for i, c := range columns {
		if fmt.Sprint(current[i]) != c {
			return false
		}
	}
	return true
}
