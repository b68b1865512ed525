package iso2709

import (
	"errors"
	"fmt"
)

// ErrorKind classifies codec failures.
type ErrorKind int

const (
	// InvalidArgument marks a caller-supplied parameter that violates a
	// structural precondition (wrong length, out of range digit).
	InvalidArgument ErrorKind = iota + 1
	// FormatError marks content that violates the record format: reserved
	// or non 7-bit characters, numeric overflow, bad tags, malformed input.
	FormatError
	// IllegalState marks a call the encoder state machine does not allow.
	IllegalState
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case FormatError:
		return "format error"
	case IllegalState:
		return "illegal state"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrInvalidArgument = errors.New("iso2709: invalid argument")
	ErrFormat          = errors.New("iso2709: format error")
	ErrIllegalState    = errors.New("iso2709: illegal state")
)

// Error carries the classification and context of a codec failure.
type Error struct {
	Kind   ErrorKind
	Op     string // operation that failed, e.g. "AppendSubfield"
	Tag    string // field tag, when known
	Detail string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "iso2709: " + e.Kind.String()
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Tag != "" {
		msg += " (field " + e.Tag + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the sentinel for the error kind.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case InvalidArgument:
		return ErrInvalidArgument
	case FormatError:
		return ErrFormat
	case IllegalState:
		return ErrIllegalState
	}
	return nil
}

// KindOf reports the ErrorKind of err, or 0 if err is not a codec error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func invalidArgument(op, format string, args ...any) *Error {
	return &Error{Kind: InvalidArgument, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func formatError(op, format string, args ...any) *Error {
	return &Error{Kind: FormatError, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func illegalState(op, format string, args ...any) *Error {
	return &Error{Kind: IllegalState, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// withTag annotates err with a field tag if it is a codec error without one.
func withTag(err error, tag string) error {
	var e *Error
	if errors.As(err, &e) && e.Tag == "" {
		c := *e
		c.Tag = tag
		return &c
	}
	return err
}
