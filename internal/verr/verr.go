// Package verr defines the error-kind taxonomy shared by every vetcore
// component (Store, Merkle log, Draft manager, Sync engine). Components wrap
// errors with Wrap/Wrapf instead of returning bare errors so callers can
// branch on Kind rather than parsing strings.
package verr

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories named in the core's error handling
// design. It is a category, not a concrete type: components still use
// fmt.Errorf/%w to keep the call chain, and callers use errors.Is/As or Is()
// below to test for a Kind.
type Kind string

const (
	NotFound        Kind = "not_found"
	UniqueViolation Kind = "unique_violation"
	InvalidInput    Kind = "invalid_input"
	InvalidState    Kind = "invalid_state"
	HashMismatch    Kind = "hash_mismatch"
	Divergent       Kind = "divergent"
	Consistency     Kind = "consistency"
	IO              Kind = "io"
)

// Error pairs an operation label and Kind with the underlying cause,
// generalized across every component rather than just the database.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for op/kind with no further cause.
func New(op string, kind Kind) *Error {
	return &Error{Op: op, Kind: kind}
}

// Wrap builds an *Error for op/kind around err. If err is nil, Wrap returns
// nil so it composes with the `return verr.Wrap(...)` idiom at call sites.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrapf is Wrap with a formatted op label.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Op: fmt.Sprintf(format, args...), Kind: kind, Err: err}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the Kind carried by err, or "" if err isn't a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
