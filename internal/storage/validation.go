package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mossburn/tally/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidBatch    = errors.New("invalid transaction batch")
	ErrInvalidAnalysis = errors.New("invalid vendor analysis")
	ErrInvalidCredit   = errors.New("invalid credit state")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateVendorAnalysis validates a cache entry before it is written.
func validateVendorAnalysis(analysis *model.VendorAnalysis) error {
	if analysis == nil {
		return fmt.Errorf("%w: analysis", ErrNilParameter)
	}
	if strings.TrimSpace(analysis.VendorKey) == "" {
		return fmt.Errorf("%w: missing vendor key", ErrInvalidAnalysis)
	}
	return nil
}

// validateBatch validates a transaction batch before it is written.
func validateBatch(batch *model.TransactionBatch) error {
	if batch == nil {
		return fmt.Errorf("%w: batch", ErrNilParameter)
	}
	if batch.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidBatch)
	}
	if batch.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidBatch)
	}
	return nil
}

// validateCreditState validates a credit record before it is written.
func validateCreditState(state *model.CreditState) error {
	if state == nil {
		return fmt.Errorf("%w: state", ErrNilParameter)
	}
	if state.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidCredit)
	}
	if state.AvailableCredit < 0 || state.AppliedCredit < 0 {
		return fmt.Errorf("%w: credit balances cannot be negative", ErrInvalidCredit)
	}
	return nil
}
