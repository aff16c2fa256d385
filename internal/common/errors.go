// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Enrichment provider errors.
	ErrProviderTimeout   = errors.New("enrichment provider timed out")
	ErrMalformedResponse = errors.New("malformed enrichment response")
	ErrEnrichmentFailed  = errors.New("enrichment failed")
	ErrNoTransactions    = errors.New("no transactions to analyze")
	ErrBankConnection    = errors.New("bank connection failed")
	ErrBankRateLimit     = errors.New("bank provider rate limit exceeded")

	// Ledger contract errors. These indicate caller bugs, not runtime
	// conditions to recover from.
	ErrMissingUserID  = errors.New("missing user id")
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry. Validation
// errors are never retryable; only transient infrastructure failures are.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}

	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrBankRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
