package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies why an export run failed.
type FailureKind string

const (
	FailureFilterSyntax      FailureKind = "filter_syntax"
	FailureConnectionTimeout FailureKind = "connection_timeout"
	FailureAuthorization     FailureKind = "authorization_failure"
	FailureUnclassified      FailureKind = "unclassified"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind FailureKind
	Op   string // stage that failed: "parse", "connect", "query", "export"
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error.
func NewError(kind FailureKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the failure kind carried by err, or FailureUnclassified
// when err holds no classified error.
func KindOf(err error) FailureKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return FailureUnclassified
}

// Summary is a user-facing headline for the failure kind.
func (k FailureKind) Summary() string {
	switch k {
	case FailureFilterSyntax:
		return "Invalid JSON format in filter criteria."
	case FailureConnectionTimeout:
		return "Connection timeout: could not reach the database host. Check your VPN or host settings."
	case FailureAuthorization:
		return "Authentication or database error."
	default:
		return "An unexpected error occurred."
	}
}
