package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trustgame/internal/config"
	"trustgame/internal/console"
	"trustgame/internal/ledger"
	"trustgame/internal/session"
)

type options struct {
	envFile      string
	backend      string
	verbose      bool
	atomicAppend bool
}

// app carries what PersistentPreRunE prepares for the subcommands.
type app struct {
	opts   options
	cfg    config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if msg, ok := exitMessage(err); ok {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
}

// exitMessage returns what to print on stderr for a failed run. Errors the
// console already showed the participant are not printed again.
func exitMessage(err error) (string, bool) {
	if errors.Is(err, context.Canceled) {
		return "Session interrupted.", true
	}
	var e *session.Error
	if errors.As(err, &e) && e.Reported {
		return "", false
	}
	return fmt.Sprintf("⚠️ %v", err), true
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "trustgame",
		Short: "Two-round trust game survey",
		Long: `Runs one participant through a two-round trust game and records the
outcome in the study ledger (Google Sheets by default).

Player A sends their full endowment to Player B, who receives it tripled and
chooses how much to return. Player B then sends part of what they kept back to
Player A, again tripled.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGame(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.envFile, "env-file", "", "load settings from this file instead of .env")
	flags.StringVar(&a.opts.backend, "backend", "", "ledger backend: sheets, supabase, sqlite or memory")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&a.opts.atomicAppend, "atomic-append", false, "refuse duplicates at append time when the backend supports it")

	root.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Connect to the ledger and write its header row",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runInit(cmd)
			},
		},
		&cobra.Command{
			Use:   "check [sona-id]",
			Short: "Report whether a SONA ID has already participated",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runCheck(cmd, args[0])
			},
		},
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.envFile)
	if err != nil {
		return session.ConnectionError(err)
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend = a.opts.backend
	}
	if cmd.Flags().Changed("atomic-append") {
		cfg.AtomicAppend = a.opts.atomicAppend
	}
	if err := cfg.Validate(); err != nil {
		return session.ConnectionError(err)
	}
	a.cfg = cfg

	lvl, _ := cfg.Level()
	if a.opts.verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	a.logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// connect opens the ledger and makes sure its header is in place. Any
// failure is a fatal connection error.
func (a *app) connect(ctx context.Context) (ledger.Store, func(), error) {
	store, closeStore, err := openStore(ctx, a.cfg)
	if err != nil {
		a.logger.Error("ledger connection failed", zap.String("backend", a.cfg.Backend), zap.Error(err))
		return nil, nil, session.ConnectionError(err)
	}
	if err := store.EnsureHeader(ctx, ledger.Header); err != nil {
		closeStore()
		a.logger.Error("ledger header check failed", zap.String("backend", a.cfg.Backend), zap.Error(err))
		return nil, nil, session.ConnectionError(err)
	}
	a.logger.Info("connected to ledger", zap.String("backend", a.cfg.Backend))
	return store, closeStore, nil
}

func (a *app) runGame(cmd *cobra.Command) error {
	ctx := cmd.Context()
	store, closeStore, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	warnAtomicUnsupported(a.logger, store, a.cfg.AtomicAppend)

	prompter := console.New(cmd.InOrStdin(), cmd.OutOrStdout())
	prompter.Title()

	out, err := session.New(store, prompter,
		session.WithLogger(a.logger),
		session.WithAtomicAppend(a.cfg.AtomicAppend),
	).Run(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("session finished",
		zap.String("sona_id", out.Record.SonaID),
		zap.Bool("persisted", out.Persisted),
		zap.Int("final_earnings_a", out.RoundTwo.FinalEarningsA),
		zap.Int("final_earnings_b", out.RoundTwo.FinalEarningsB),
	)
	return nil
}

// warnAtomicUnsupported logs when atomic append was asked for but the store
// can only check identifiers before the rounds.
func warnAtomicUnsupported(logger *zap.Logger, store ledger.Store, enabled bool) {
	if !enabled {
		return
	}
	if _, ok := store.(ledger.AtomicAppender); !ok {
		logger.Warn("atomic append not supported by backend; duplicates are only checked before round one",
			zap.String("store", fmt.Sprintf("%T", store)))
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	_, closeStore, err := a.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Ledger ready (%s).\n", a.cfg.Backend)
	return nil
}

func (a *app) runCheck(cmd *cobra.Command, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &session.Error{Kind: session.KindInvalidInput, Code: session.CodeInvalidInput, Message: "identifier is empty"}
	}
	ctx := cmd.Context()
	store, closeStore, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	found, err := ledger.Contains(ctx, store, id)
	if err != nil {
		return session.ConnectionError(err)
	}
	if found {
		fmt.Fprintf(cmd.OutOrStdout(), "❌ SONA ID %s has already participated.\n", id)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ SONA ID %s has not participated yet.\n", id)
	return nil
}
