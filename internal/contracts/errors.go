package contracts

import (
	"errors"
	"fmt"
)

// ValidationError is a user-facing request error: the request referenced a
// ticker the cached reference data cannot serve. Recoverable at the request
// boundary; cache and other requests are unaffected.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError creates a ValidationError with a formatted message
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ProviderError wraps a failure of the market data provider: listing,
// trading status or quoting. Never retried here; transport owns retries.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a ProviderError for the given operation
func NewProviderError(op string, err error) *ProviderError {
	return &ProviderError{Op: op, Err: err}
}

// IsProvider reports whether err is a ProviderError
func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
