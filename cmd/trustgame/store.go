package main

import (
	"context"
	"fmt"

	"trustgame/internal/config"
	"trustgame/internal/ledger"
	"trustgame/internal/ledger/sheets"
	"trustgame/internal/ledger/sqlite"
	"trustgame/internal/ledger/supabase"
)

// openStore builds the ledger named by cfg.Backend. The returned func
// releases it.
func openStore(ctx context.Context, cfg config.Config) (ledger.Store, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendSheets:
		s, err := sheets.Open(ctx, sheets.Options{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			SpreadsheetName: cfg.Sheets.SpreadsheetName,
			Tab:             cfg.Sheets.Tab,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case config.BackendSupabase:
		s, err := supabase.Open(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Table)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.BackendMemory:
		return ledger.NewMemory(), noop, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown backend %q", ledger.ErrConnection, cfg.Backend)
	}
}
