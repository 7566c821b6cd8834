// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotPurchasable   = errors.New("item is not purchasable")
	ErrNoPrice          = errors.New("item has no ask price")
	ErrMissingCustomer  = errors.New("no customer assigned")
	ErrEmptyDraft       = errors.New("invoice draft is empty")
	ErrMarketClosed     = errors.New("market is closed")
	ErrLockExpired      = errors.New("price lock expired")
	ErrLockInFlight     = errors.New("a lock attempt is already in flight")
	ErrLockActive       = errors.New("an active lock session already exists")
	ErrNoActiveLock     = errors.New("no active lock session")
	ErrQuoteExpired     = errors.New("quote expired")
	ErrQuoteNotPending  = errors.New("quote is not pending")
	ErrExecuteUncertain = errors.New("execute outcome uncertain: no definitive response from exchange")
	ErrNetwork          = errors.New("network error")
	ErrNotFound         = errors.New("not found")
	ErrDatabase         = errors.New("database error")
	ErrConfigInvalid    = errors.New("invalid configuration")
)

// ExchangeError represents an error from the exchange API.
type ExchangeError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exchange error [%s] %s: %s: %v", e.Code, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("exchange error [%s] %s: %s", e.Code, e.Op, e.Message)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// NewExchangeError creates a new ExchangeError.
func NewExchangeError(op, code, message string, err error) *ExchangeError {
	return &ExchangeError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ItemUnavailableError indicates a SKU went off sale between add and lock.
// The whole lock attempt is aborted; no partial locks are taken.
type ItemUnavailableError struct {
	SKU string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("item no longer available: %s", e.SKU)
}

// NewItemUnavailableError creates a new ItemUnavailableError.
func NewItemUnavailableError(sku string) *ItemUnavailableError {
	return &ItemUnavailableError{SKU: sku}
}

// IncompleteAddressError lists the shipping address fields that are missing.
type IncompleteAddressError struct {
	Missing []string
}

func (e *IncompleteAddressError) Error() string {
	return fmt.Sprintf("incomplete shipping address: missing %v", e.Missing)
}

// NewIncompleteAddressError creates a new IncompleteAddressError.
func NewIncompleteAddressError(missing []string) *IncompleteAddressError {
	return &IncompleteAddressError{Missing: missing}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
