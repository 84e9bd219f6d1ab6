package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"trustgame/internal/config"
	"trustgame/internal/ledger"
	"trustgame/internal/session"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TRUSTGAME_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGameWithMemoryBackend(t *testing.T) {
	out, err := execute(t, "9001\n600\n800\n", "--backend", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "Two-Round Trust Game")
	assert.Contains(t, out, "Player A's Final Earnings: $3000")
	assert.Contains(t, out, "Player B's Final Earnings: $1600")
}

func TestGameRejectsRepeatParticipant(t *testing.T) {
	t.Setenv("TRUSTGAME_SQLITE_PATH", filepath.Join(t.TempDir(), "ledger.db"))

	_, err := execute(t, "9001\n600\n800\n", "--backend", "sqlite")
	require.NoError(t, err)

	out, err := execute(t, "9001\n", "--backend", "sqlite")
	require.Error(t, err)
	assert.Equal(t, session.KindRejected, session.KindOf(err))
	assert.Contains(t, out, "has already participated")
	assert.NotContains(t, out, "Round 1")

	out, err = execute(t, "", "--backend", "sqlite", "check", "9001")
	require.NoError(t, err)
	assert.Contains(t, out, "SONA ID 9001 has already participated")

	out, err = execute(t, "", "--backend", "sqlite", "check", " 9001 ")
	require.NoError(t, err)
	assert.Contains(t, out, "SONA ID 9001 has already participated")

	_, err = execute(t, "", "--backend", "sqlite", "check", "  ")
	assert.Equal(t, session.KindInvalidInput, session.KindOf(err))

	out, err = execute(t, "", "--backend", "sqlite", "check", "9002")
	require.NoError(t, err)
	assert.Contains(t, out, "has not participated yet")
}

func TestInitWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	t.Setenv("TRUSTGAME_SQLITE_PATH", path)

	out, err := execute(t, "", "--backend", "sqlite", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Ledger ready (sqlite)")

	_, err = execute(t, "", "--backend", "sqlite", "init")
	require.NoError(t, err)
}

func TestUnknownBackendIsFatal(t *testing.T) {
	_, err := execute(t, "", "--backend", "csv")
	require.Error(t, err)
	assert.Equal(t, session.KindFatal, session.KindOf(err))
	assert.ErrorIs(t, err, session.ErrStoreConnection)
}

func TestMissingEnvFileIsFatal(t *testing.T) {
	_, err := execute(t, "", "--env-file", filepath.Join(t.TempDir(), "nope.env"), "--backend", "memory")
	require.Error(t, err)
	assert.Equal(t, session.KindFatal, session.KindOf(err))
}

func TestOpenStoreBackends(t *testing.T) {
	ctx := context.Background()

	s, closeStore, err := openStore(ctx, config.Config{Backend: config.BackendMemory})
	require.NoError(t, err)
	closeStore()
	assert.IsType(t, &ledger.Memory{}, s)

	_, _, err = openStore(ctx, config.Config{Backend: config.BackendSupabase})
	assert.ErrorIs(t, err, ledger.ErrConnection)

	_, _, err = openStore(ctx, config.Config{Backend: "csv"})
	assert.ErrorIs(t, err, ledger.ErrConnection)
}

func TestInterruptStopsBlockedPrompt(t *testing.T) {
	t.Setenv("TRUSTGAME_LOG_LEVEL", "error")
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--backend", "memory"})
	cmd.SetIn(in)
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()
	// Nothing is ever written to stdin, so only the cancel can end the run.
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		msg, ok := exitMessage(err)
		assert.True(t, ok)
		assert.Equal(t, "Session interrupted.", msg)
	case <-time.After(5 * time.Second):
		t.Fatal("game did not stop after the context was cancelled")
	}
}

func TestExitMessageSkipsReportedErrors(t *testing.T) {
	reported := &session.Error{Kind: session.KindFatal, Code: session.CodeStoreConnection, Message: "look up identifiers", Reported: true}
	_, ok := exitMessage(reported)
	assert.False(t, ok)

	rejected := &session.Error{Kind: session.KindRejected, Code: session.CodeDuplicateIdentifier, Message: "SONA ID 1 has already participated", Reported: true}
	_, ok = exitMessage(rejected)
	assert.False(t, ok)

	msg, ok := exitMessage(session.ConnectionError(errors.New("dial tcp: refused")))
	assert.True(t, ok)
	assert.Equal(t, "⚠️ store connection failed: dial tcp: refused", msg)
}

// plainStore has no CheckAndAppend, like the Sheets and Supabase ledgers.
type plainStore struct {
	ledger.Store
}

func TestWarnAtomicUnsupported(t *testing.T) {
	tests := []struct {
		name    string
		store   ledger.Store
		enabled bool
		warned  int
	}{
		{name: "plain store with atomic append", store: plainStore{ledger.NewMemory()}, enabled: true, warned: 1},
		{name: "plain store without atomic append", store: plainStore{ledger.NewMemory()}, enabled: false, warned: 0},
		{name: "atomic store", store: ledger.NewMemory(), enabled: true, warned: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			warnAtomicUnsupported(zap.New(core), tt.store, tt.enabled)
			assert.Equal(t, tt.warned, logs.Len())
		})
	}
}
