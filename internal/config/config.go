// Package config loads the trust game's settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Backends selectable with TRUSTGAME_BACKEND.
const (
	BackendSheets   = "sheets"
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Config holds all runtime settings.
type Config struct {
	Backend      string `env:"TRUSTGAME_BACKEND" envDefault:"sheets"`
	AtomicAppend bool   `env:"TRUSTGAME_ATOMIC_APPEND"`
	LogLevel     string `env:"TRUSTGAME_LOG_LEVEL" envDefault:"info"`

	Sheets   SheetsConfig
	Supabase SupabaseConfig
	SQLite   SQLiteConfig
}

// SheetsConfig addresses the Google Sheets ledger.
type SheetsConfig struct {
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" envDefault:"google_credentials.json"`
	SpreadsheetID   string `env:"TRUSTGAME_SHEET_ID"`
	SpreadsheetName string `env:"TRUSTGAME_SHEET_NAME" envDefault:"Trustgame123"`
	Tab             string `env:"TRUSTGAME_SHEET_TAB" envDefault:"Sheet1"`
}

// SupabaseConfig addresses the Supabase ledger table.
type SupabaseConfig struct {
	URL   string `env:"SUPABASE_URL"`
	Key   string `env:"SUPABASE_KEY"`
	Table string `env:"TRUSTGAME_SUPABASE_TABLE" envDefault:"trust_game"`
}

// SQLiteConfig addresses the local SQLite ledger.
type SQLiteConfig struct {
	Path string `env:"TRUSTGAME_SQLITE_PATH" envDefault:"trustgame.db"`
}

// Load reads envFile (or .env when empty) into the process environment and
// parses the result. A missing .env is fine; a missing explicit file is not.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the settings the selected backend needs.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Backend {
	case BackendSheets:
		if c.Sheets.CredentialsFile == "" {
			return errors.New("GOOGLE_CREDENTIALS_FILE is required for the sheets backend")
		}
		if c.Sheets.SpreadsheetID == "" && c.Sheets.SpreadsheetName == "" {
			return errors.New("TRUSTGAME_SHEET_ID or TRUSTGAME_SHEET_NAME is required for the sheets backend")
		}
	case BackendSupabase:
		if c.Supabase.URL == "" || c.Supabase.Key == "" {
			return errors.New("SUPABASE_URL and SUPABASE_KEY are required for the supabase backend")
		}
		if c.Supabase.Table == "" {
			return errors.New("TRUSTGAME_SUPABASE_TABLE is required for the supabase backend")
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return errors.New("TRUSTGAME_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("TRUSTGAME_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
