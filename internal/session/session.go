// Package session runs one participant through the two-round trust game:
// identifier check, round one, round two, persistence and results.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"trustgame/internal/ledger"
	"trustgame/internal/payoff"
)

// State is a step of the session. Transitions only move forward.
type State int

const (
	StateStart State = iota
	StateIdentifierEntered
	StateRoundOneComplete
	StateRoundTwoComplete
	StatePersisted
	StateDisplayed
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateIdentifierEntered:
		return "identifier_entered"
	case StateRoundOneComplete:
		return "round_one_complete"
	case StateRoundTwoComplete:
		return "round_two_complete"
	case StatePersisted:
		return "persisted"
	case StateDisplayed:
		return "displayed"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Presenter collects the participant's input and renders output. Input
// methods block until a value is supplied or ctx is done.
type Presenter interface {
	// Identifier returns the participant's SONA ID.
	Identifier(ctx context.Context) (string, error)
	// RoundOneReturn asks Player B how much of r1.Received to return.
	// r1 carries Sent and Received only.
	RoundOneReturn(ctx context.Context, r1 payoff.RoundOne) (int, error)
	// RoundTwoSend asks Player B how much of r1.EarningsB to send.
	RoundTwoSend(ctx context.Context, r1 payoff.RoundOne) (int, error)
	// RoundTwo shows what Player A receives, before the record is saved.
	RoundTwo(r2 payoff.RoundTwo)
	// Saved confirms the record was stored.
	Saved(rec ledger.Record)
	// Report shows an error of any kind.
	Report(err *Error)
	// Results shows both players' final earnings.
	Results(out Outcome)
}

// Outcome is what a finished session hands back to its caller.
type Outcome struct {
	State     State
	Record    ledger.Record
	RoundOne  payoff.RoundOne
	RoundTwo  payoff.RoundTwo
	Persisted bool
	// Warning is set when results were shown but the record was not saved.
	Warning *Error
}

// Session is one participant's pass through the game.
type Session struct {
	store  ledger.Store
	ui     Presenter
	params payoff.Params
	log    *zap.Logger
	atomic bool

	state     State
	id        string
	r1        payoff.RoundOne
	r2        payoff.RoundTwo
	persisted bool
	warning   *Error
}

// Option configures a Session.
type Option func(*Session)

// WithParams overrides the game's economic parameters.
func WithParams(p payoff.Params) Option {
	return func(s *Session) { s.params = p }
}

// WithLogger sets the operator log.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAtomicAppend makes Persist use ledger.AtomicAppender when the store
// implements it, so a duplicate that raced past Begin is still refused.
func WithAtomicAppend(enabled bool) Option {
	return func(s *Session) { s.atomic = enabled }
}

// New returns a session in StateStart.
func New(store ledger.Store, ui Presenter, opts ...Option) *Session {
	s := &Session{
		store:  store,
		ui:     ui,
		params: payoff.DefaultParams(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Run drives the session through the presenter until Displayed or
// Rejected. A write failure does not make Run fail; it is returned in
// Outcome.Warning.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	id, err := s.ui.Identifier(ctx)
	if err != nil {
		return s.outcome(), s.presenterError("read identifier", err)
	}
	if err := s.Begin(ctx, id); err != nil {
		return s.fail(err)
	}

	returned, err := s.ui.RoundOneReturn(ctx, payoff.RoundOne{Sent: s.params.Sent(), Received: s.params.Received()})
	if err != nil {
		return s.outcome(), s.presenterError("read round one return", err)
	}
	if err := s.SubmitReturn(returned); err != nil {
		return s.fail(err)
	}

	sent, err := s.ui.RoundTwoSend(ctx, s.r1)
	if err != nil {
		return s.outcome(), s.presenterError("read round two send", err)
	}
	if err := s.SubmitSend(sent); err != nil {
		return s.fail(err)
	}
	s.ui.RoundTwo(s.r2)

	if err := s.Persist(ctx); err != nil {
		if KindOf(err) != KindWarning {
			return s.fail(err)
		}
		s.ui.Report(s.warning)
		s.warning.Reported = true
	} else {
		s.ui.Saved(s.Record())
	}

	if err := s.Display(); err != nil {
		return s.fail(err)
	}
	return s.outcome(), nil
}

// Begin checks that id has not participated yet and moves to
// IdentifierEntered. A duplicate moves the session to Rejected.
func (s *Session) Begin(ctx context.Context, id string) error {
	if err := s.expect(StateStart); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return &Error{Kind: KindInvalidInput, Code: CodeInvalidInput, Message: "identifier is empty"}
	}

	found, err := ledger.Contains(ctx, s.store, id)
	if err != nil {
		s.log.Error("identifier lookup failed", zap.Error(err))
		return &Error{Kind: KindFatal, Code: CodeStoreConnection, Message: "look up identifiers", Cause: err}
	}
	if found {
		s.log.Info("duplicate identifier rejected", zap.String("sona_id", id))
		s.transition(StateRejected)
		return &Error{
			Kind:    KindRejected,
			Code:    CodeDuplicateIdentifier,
			Message: fmt.Sprintf("SONA ID %s has already participated", id),
		}
	}

	s.id = id
	s.transition(StateIdentifierEntered)
	return nil
}

// SubmitReturn records how much Player B returns in round one.
func (s *Session) SubmitReturn(returned int) error {
	if err := s.expect(StateIdentifierEntered); err != nil {
		return err
	}
	if err := checkRange("amount returned", returned, s.params.Received()); err != nil {
		return err
	}
	s.r1 = s.params.RoundOne(returned)
	s.transition(StateRoundOneComplete)
	return nil
}

// SubmitSend records how much Player B sends in round two.
func (s *Session) SubmitSend(sent int) error {
	if err := s.expect(StateRoundOneComplete); err != nil {
		return err
	}
	if err := checkRange("amount sent", sent, s.r1.EarningsB); err != nil {
		return err
	}
	s.r2 = s.params.RoundTwo(s.r1, sent)
	s.transition(StateRoundTwoComplete)
	return nil
}

// Persist appends the record once. A write failure is returned as a
// KindWarning error and the session still moves to Persisted; the record
// is not retried.
func (s *Session) Persist(ctx context.Context) error {
	if err := s.expect(StateRoundTwoComplete); err != nil {
		return err
	}
	rec := s.Record()

	var err error
	if appender, ok := s.store.(ledger.AtomicAppender); ok && s.atomic {
		err = appender.CheckAndAppend(ctx, rec.SonaID, rec.Values())
	} else {
		err = s.store.AppendRecord(ctx, rec.Values())
	}

	switch {
	case err == nil:
		s.persisted = true
		s.log.Info("record saved", zap.String("sona_id", rec.SonaID))
	case errors.Is(err, ledger.ErrDuplicateIdentifier):
		s.log.Info("duplicate identifier rejected at append", zap.String("sona_id", rec.SonaID))
		s.transition(StateRejected)
		return &Error{
			Kind:    KindRejected,
			Code:    CodeDuplicateIdentifier,
			Message: fmt.Sprintf("SONA ID %s has already participated", rec.SonaID),
			Cause:   err,
		}
	default:
		s.log.Warn("record not saved", zap.String("sona_id", rec.SonaID), zap.Error(err))
		s.warning = &Error{Kind: KindWarning, Code: CodeStoreWrite, Message: "failed to save your responses", Cause: err}
	}

	s.transition(StatePersisted)
	if s.warning != nil {
		return s.warning
	}
	return nil
}

// Display renders the results and ends the session.
func (s *Session) Display() error {
	if err := s.expect(StatePersisted); err != nil {
		return err
	}
	s.transition(StateDisplayed)
	s.ui.Results(s.outcome())
	return nil
}

// Record returns the ledger row for the session's current values.
func (s *Session) Record() ledger.Record {
	return ledger.Record{
		SonaID:           s.id,
		RoundOneSent:     s.r1.Sent,
		RoundOneReceived: s.r1.Received,
		RoundOneReturned: s.r1.Returned,
		RoundTwoSent:     s.r2.Sent,
		RoundTwoReceived: s.r2.Received,
		FinalEarningsA:   s.r2.FinalEarningsA,
		FinalEarningsB:   s.r2.FinalEarningsB,
	}
}

func (s *Session) outcome() Outcome {
	return Outcome{
		State:     s.state,
		Record:    s.Record(),
		RoundOne:  s.r1,
		RoundTwo:  s.r2,
		Persisted: s.persisted,
		Warning:   s.warning,
	}
}

func (s *Session) fail(err error) (Outcome, error) {
	var e *Error
	if errors.As(err, &e) {
		s.ui.Report(e)
		e.Reported = true
	}
	return s.outcome(), err
}

func (s *Session) presenterError(op string, err error) error {
	e := &Error{Kind: KindFatal, Code: CodePresenter, Message: op, Cause: err}
	s.log.Error("presenter failed", zap.String("op", op), zap.Error(err))
	return e
}

func (s *Session) expect(want State) error {
	if s.state != want {
		return &Error{
			Kind:    KindFatal,
			Code:    CodeInvalidState,
			Message: fmt.Sprintf("session is %s, expected %s", s.state, want),
		}
	}
	return nil
}

func (s *Session) transition(next State) {
	s.log.Debug("session transition", zap.Stringer("from", s.state), zap.Stringer("to", next))
	s.state = next
}

func checkRange(name string, v, limit int) error {
	if v < 0 || v > limit {
		return &Error{
			Kind:    KindInvalidInput,
			Code:    CodeInvalidInput,
			Message: fmt.Sprintf("%s must be between 0 and %d, got %d", name, limit, v),
		}
	}
	return nil
}
