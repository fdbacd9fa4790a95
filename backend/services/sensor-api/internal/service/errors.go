package service

import (
	"errors"
	"fmt"
)

// Kind classifies service failures. The HTTP layer maps each kind to one status code.
type Kind int

const (
	// KindInternal hides storage and runtime faults behind a generic detail.
	KindInternal Kind = iota
	// KindInvalidInput marks caller mistakes: bad period, malformed payload, missing fields.
	KindInvalidInput
	// KindUnauthenticated covers missing, invalid or expired tokens and bad credentials.
	KindUnauthenticated
	// KindConflict marks uniqueness violations.
	KindConflict
)

// InternalDetail is the only detail ever exposed for internal faults.
const InternalDetail = "Internal server error."

// Error carries a kind, a caller-safe detail and the underlying cause.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Detail
	}
	return fmt.Sprintf("%s: %v", e.Detail, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidInput(detail string, err error) error {
	return &Error{Kind: KindInvalidInput, Detail: detail, Err: err}
}

func unauthenticated(detail string, err error) error {
	return &Error{Kind: KindUnauthenticated, Detail: detail, Err: err}
}

func conflict(detail string, err error) error {
	return &Error{Kind: KindConflict, Detail: detail, Err: err}
}

func internal(err error) error {
	return &Error{Kind: KindInternal, Detail: InternalDetail, Err: err}
}

// KindOf reports the kind of err. Errors not produced by this package are internal.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// DetailOf returns the caller-safe message for err.
func DetailOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) && svcErr.Kind != KindInternal {
		return svcErr.Detail
	}
	return InternalDetail
}
