package model

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotOwner         = errors.New("not owner")
	ErrOutOfScope       = errors.New("out of scope")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidRange     = fmt.Errorf("%w: range start after end", ErrInvalidDate)
	ErrNotFound         = errors.New("not found")
	ErrUserInactive     = errors.New("user inactive")
	ErrConflict         = errors.New("conflict")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsRetryable reports whether the caller may retry the failed operation.
// Only transient persistence failures qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsDenied reports whether err is one of the authorization denials.
func IsDenied(err error) bool {
	for _, target := range []error{ErrUnauthorized, ErrForbidden, ErrNotOwner, ErrOutOfScope, ErrUserInactive} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
