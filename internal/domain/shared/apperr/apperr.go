package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can decide messaging and retry policy.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindStorage           Kind = "storage"
)

var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrStorage           = &Error{Kind: KindStorage}
)

// Error carries a Kind next to an optional operation name and cause.
// errors.Is(err, apperr.ErrConflict) matches any Error of the same kind.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality against the bare sentinels and identity otherwise.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	if t.Msg == "" && t.Op == "" && t.Err == nil {
		return t.Kind == e.Kind
	}
	return false
}

// New builds a classified sentinel, e.g. apperr.New(KindValidation, "booking: check-out must be after check-in").
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a driver failure unless it is already classified.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// KindOf returns the kind of the first classified error in the chain, or "".
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}
