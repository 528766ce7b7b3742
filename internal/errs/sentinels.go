// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist or is not
	// owned by the caller. The two cases are indistinguishable on purpose.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenMalformed indicates a token that cannot be parsed or whose
	// signature does not verify.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrAlreadyExists indicates a unique constraint violation (e.g. email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrCycle indicates a subtask re-parenting that would close a cycle.
	ErrCycle = errors.New("parenting cycle")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient indicates a storage I/O failure that is safe to retry.
	ErrTransient = errors.New("transient storage error")
)

// ValidationError names the offending field of a rejected request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
