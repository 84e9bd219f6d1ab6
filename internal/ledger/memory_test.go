package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEnsureHeaderIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.EnsureHeader(ctx, Header))
	require.NoError(t, m.EnsureHeader(ctx, Header))
	assert.Equal(t, Header, m.Header())
	assert.Empty(t, m.Rows())
}

func TestMemoryEnsureHeaderOverwrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.EnsureHeader(ctx, []string{"stale"}))
	require.NoError(t, m.EnsureHeader(ctx, Header))
	assert.Equal(t, Header, m.Header())
}

func TestMemoryAppendAndList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.AppendRecord(ctx, Record{SonaID: "a1"}.Values()))
	require.NoError(t, m.AppendRecord(ctx, Record{SonaID: "b2"}.Values()))

	ids, err := m.ListIdentifiers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b2"}, ids)

	found, err := Contains(ctx, m, "b2")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryWriteFailure(t *testing.T) {
	m := NewMemory()
	m.WriteErr = errors.New("quota exceeded")

	err := m.AppendRecord(context.Background(), Record{SonaID: "a1"}.Values())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, m.Rows())
}

func TestMemoryCheckAndAppend(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CheckAndAppend(ctx, "a1", Record{SonaID: "a1"}.Values()))
	err := m.CheckAndAppend(ctx, "a1", Record{SonaID: "a1"}.Values())
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
	assert.Len(t, m.Rows(), 1)
}

func TestRecordValuesOrder(t *testing.T) {
	r := Record{
		SonaID:           "s",
		RoundOneSent:     1000,
		RoundOneReceived: 3000,
		RoundOneReturned: 600,
		RoundTwoSent:     800,
		RoundTwoReceived: 2400,
		FinalEarningsA:   3000,
		FinalEarningsB:   1600,
	}
	assert.Equal(t, []any{"s", 1000, 3000, 600, 800, 2400, 3000, 1600}, r.Values())
	assert.Len(t, r.Values(), len(Header))
}
