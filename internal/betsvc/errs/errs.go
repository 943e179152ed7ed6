package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a core error so callers can tell retryable store
// failures from permanent rejections and from failures that need a
// human to look at the ledger.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindInsufficient Kind = "insufficient_balance"
	KindNotFound     Kind = "not_found"
	KindTransient    Kind = "transient"
	KindCompensation Kind = "compensation_failed"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind of an error. Unclassified errors are treated
// as transient so callers retry rather than swallow them.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

// Is reports whether the error carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
