package failure

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can react to it without inspecting
// message text.
type Kind int

const (
	Unclassified Kind = iota
	AccessDenied
	RangeNotFound
	CapacityExceeded
	ValidationFailed
)

func (k Kind) String() string {
	switch k {
	case AccessDenied:
		return "access_denied"
	case RangeNotFound:
		return "range_not_found"
	case CapacityExceeded:
		return "capacity_exceeded"
	case ValidationFailed:
		return "validation_failed"
	default:
		return "unclassified"
	}
}

// Error is an error tagged with a Kind.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "read" or "allocate"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		if e.Op == "" {
			return e.Msg
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind with a message.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap tags err with kind. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind of the first *Error in err's chain,
// or Unclassified if there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unclassified
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the human readable part of the first *Error in the chain,
// falling back to err.Error().
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) && fe.Msg != "" {
		return fe.Msg
	}
	return err.Error()
}
