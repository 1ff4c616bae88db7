package shared

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("not found")

// ErrForbidden indicates the session lacks the required permission.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidCredentials indicates a failed login attempt.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports bad input shape or values. Always recoverable by
// the caller correcting its request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StockError reports a requested quantity exceeding availability.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("stock: product %s: requested %d exceeds available %d", e.ProductID, e.Requested, e.Available)
}

// DiscountExceededError reports a discount above the ceiling for the
// customer tier.
type DiscountExceededError struct {
	Requested float64
	Max       float64
}

func (e *DiscountExceededError) Error() string {
	return fmt.Sprintf("discount: %.2f%% exceeds maximum %.2f%%", e.Requested, e.Max)
}

// InvalidTransitionError reports a workflow ordering violation.
type InvalidTransitionError struct {
	Stage  string
	From   string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("transition: %s", e.Reason)
	}
	return fmt.Sprintf("transition: stage %s (%s): %s", e.Stage, e.From, e.Reason)
}

// ConflictError reports a lost optimistic-concurrency race. The caller should
// refetch and retry rather than overwrite.
type ConflictError struct {
	Entity string
	ID     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s %s changed concurrently", e.Entity, e.ID)
}

// PersistenceError wraps an opaque collaborator failure. The cause is
// retained for logging but callers branch on the type only.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ParseError reports a malformed scanned payload. Soft-fail only; it must
// never propagate as a panic past the codec.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s", e.Reason)
}
