package session

import "errors"

// Kind tells the caller how to react to an error.
type Kind int

const (
	// KindFatal halts the whole run.
	KindFatal Kind = iota + 1
	// KindRejected halts this participant's session; nothing was written.
	KindRejected
	// KindWarning is reported but the session still reaches Displayed.
	KindWarning
	// KindInvalidInput means a presenter supplied a value outside its range.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindRejected:
		return "rejected"
	case KindWarning:
		return "warning"
	case KindInvalidInput:
		return "invalid input"
	default:
		return "unknown"
	}
}

// Code is a machine-readable error code.
type Code string

const (
	CodeStoreConnection     Code = "STORE_CONNECTION"
	CodeDuplicateIdentifier Code = "DUPLICATE_IDENTIFIER"
	CodeStoreWrite          Code = "STORE_WRITE"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeInvalidState        Code = "INVALID_STATE"
	CodePresenter           Code = "PRESENTER"
)

// Error is a session error with its kind and code.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Cause   error

	// Reported is set once a Presenter has shown the error.
	Reported bool
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrStoreConnection     = &Error{Kind: KindFatal, Code: CodeStoreConnection, Message: "store connection failed"}
	ErrDuplicateIdentifier = &Error{Kind: KindRejected, Code: CodeDuplicateIdentifier, Message: "identifier already participated"}
	ErrStoreWrite          = &Error{Kind: KindWarning, Code: CodeStoreWrite, Message: "record not saved"}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput, Code: CodeInvalidInput, Message: "invalid input"}
)

// ConnectionError wraps a startup failure to reach the store.
func ConnectionError(cause error) *Error {
	return &Error{Kind: KindFatal, Code: CodeStoreConnection, Message: "store connection failed", Cause: cause}
}

// KindOf returns the kind of err, or zero when err is not a session error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
