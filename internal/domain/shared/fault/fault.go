package fault

import (
	"context"
	"errors"
)

// Kind classifies an error for callers that must decide whether to fix input, retry or give up.
type Kind uint8

const (
	Unknown Kind = iota
	InvalidArgument
	NotFound
	ListingInactive
	Forbidden
	Conflict
	AlreadyCancelled
	InvalidTransition
	Unavailable
)

var kindNames = map[Kind]string{
	Unknown:           "UNKNOWN",
	InvalidArgument:   "INVALID_ARGUMENT",
	NotFound:          "NOT_FOUND",
	ListingInactive:   "LISTING_INACTIVE",
	Forbidden:         "FORBIDDEN",
	Conflict:          "CONFLICT",
	AlreadyCancelled:  "ALREADY_CANCELLED",
	InvalidTransition: "INVALID_TRANSITION",
	Unavailable:       "UNAVAILABLE",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Unknown]
}

// ParseKind is the inverse of String; unknown names map to Unknown.
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return Unknown
}

// Retryable reports whether repeating the same request may succeed.
func (k Kind) Retryable() bool {
	return k == Unavailable
}

// Error carries a Kind alongside the message and an optional cause.
type Error struct {
	kind Kind
	msg  string
	err  error
}

// New builds a sentinel-style error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Wrap attaches a kind to err. A nil err yields nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, msg: msg, err: err}
}

func (e *Error) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	default:
		return e.msg + ": " + e.err.Error()
	}
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

// KindOf walks the chain and returns the first kind found. Context deadlines count as Unavailable.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable
	}
	return Unknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
