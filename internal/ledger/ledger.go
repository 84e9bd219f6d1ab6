// Package ledger defines the append-only table that stores one record per
// trust game participant, and the backends that implement it.
package ledger

import (
	"context"
	"errors"
	"slices"
)

var (
	// ErrConnection reports that the backing store could not be reached or
	// the configuration to reach it is invalid.
	ErrConnection = errors.New("ledger: connection failed")
	// ErrWrite reports that the store refused or failed a write.
	ErrWrite = errors.New("ledger: write failed")
	// ErrDuplicateIdentifier is returned by CheckAndAppend when the identifier
	// is already present.
	ErrDuplicateIdentifier = errors.New("ledger: identifier already recorded")
)

// Header is the exact first row of every ledger table.
var Header = []string{
	"SONA ID",
	"Amount Sent (A → B)",
	"Amount Received (B)",
	"Amount Returned (B → A)",
	"Amount Sent (B → A)",
	"Amount Received (A)",
	"Final Earnings (A)",
	"Final Earnings (B)",
}

// Store is the narrow contract the game session consumes.
type Store interface {
	// EnsureHeader makes row 1 equal columns, writing or overwriting it as
	// needed. Calling it again with the same columns is a no-op.
	EnsureHeader(ctx context.Context, columns []string) error
	// ListIdentifiers returns the identifier column in storage order,
	// excluding the header cell.
	ListIdentifiers(ctx context.Context) ([]string, error)
	// AppendRecord appends one row. Failures wrap ErrWrite.
	AppendRecord(ctx context.Context, fields []any) error
}

// AtomicAppender is implemented by stores that can check for an identifier
// and append in one step, closing the gap between ListIdentifiers and
// AppendRecord.
type AtomicAppender interface {
	CheckAndAppend(ctx context.Context, identifier string, fields []any) error
}

// Record is one persisted participant row.
type Record struct {
	SonaID           string `json:"sona_id"`
	RoundOneSent     int    `json:"amount_sent_a_to_b"`
	RoundOneReceived int    `json:"amount_received_b"`
	RoundOneReturned int    `json:"amount_returned_b_to_a"`
	RoundTwoSent     int    `json:"amount_sent_b_to_a"`
	RoundTwoReceived int    `json:"amount_received_a"`
	FinalEarningsA   int    `json:"final_earnings_a"`
	FinalEarningsB   int    `json:"final_earnings_b"`
}

// Values returns the record as an ordered tuple matching Header.
func (r Record) Values() []any {
	return []any{
		r.SonaID,
		r.RoundOneSent,
		r.RoundOneReceived,
		r.RoundOneReturned,
		r.RoundTwoSent,
		r.RoundTwoReceived,
		r.FinalEarningsA,
		r.FinalEarningsB,
	}
}

// Contains reports whether id is among the store's identifiers.
func Contains(ctx context.Context, s Store, id string) (bool, error) {
	ids, err := s.ListIdentifiers(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}
