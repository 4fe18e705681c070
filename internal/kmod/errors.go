package kmod

import (
	"errors"
	"fmt"
)

// Kind classifies framing and validation failures.
type Kind int

const (
	KindNone Kind = iota
	KindTruncatedRead
	KindInvalidMagic
	KindInvalidFormatVersion
	KindInvalidHeader
	KindRuntimeVersionMismatch
	KindInvalidEncoding
	KindStringTooLong
)

var (
	ErrTruncatedRead          = errors.New("kmod: truncated read")
	ErrInvalidMagic           = errors.New("kmod: invalid file magic")
	ErrInvalidFormatVersion   = errors.New("kmod: unsupported file format version")
	ErrInvalidHeader          = errors.New("kmod: invalid file header")
	ErrRuntimeVersionMismatch = errors.New("kmod: runtime version mismatch")
	ErrInvalidEncoding        = errors.New("kmod: invalid string encoding")
	ErrStringTooLong          = errors.New("kmod: string too long")
)

var kindSentinels = map[Kind]error{
	KindTruncatedRead:          ErrTruncatedRead,
	KindInvalidMagic:           ErrInvalidMagic,
	KindInvalidFormatVersion:   ErrInvalidFormatVersion,
	KindInvalidHeader:          ErrInvalidHeader,
	KindRuntimeVersionMismatch: ErrRuntimeVersionMismatch,
	KindInvalidEncoding:        ErrInvalidEncoding,
	KindStringTooLong:          ErrStringTooLong,
}

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTruncatedRead:
		return "truncated_read"
	case KindInvalidMagic:
		return "invalid_magic"
	case KindInvalidFormatVersion:
		return "invalid_format_version"
	case KindInvalidHeader:
		return "invalid_header"
	case KindRuntimeVersionMismatch:
		return "runtime_version_mismatch"
	case KindInvalidEncoding:
		return "invalid_encoding"
	case KindStringTooLong:
		return "string_too_long"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a framing or validation failure. Field names the header field
// being processed when one applies. Err holds an underlying I/O cause.
type Error struct {
	Kind   Kind
	Field  string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := kindSentinels[e.Kind]
	prefix := "kmod: " + e.Kind.String()
	if msg != nil {
		prefix = msg.Error()
	}
	if e.Field != "" {
		prefix += " (" + e.Field + ")"
	}
	if e.Detail != "" {
		prefix += ": " + e.Detail
	}
	if e.Err != nil {
		prefix += ": " + e.Err.Error()
	}
	return prefix
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind carried by err, or KindNone.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

func newError(kind Kind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Detail: fmt.Sprintf(format, args...)}
}
