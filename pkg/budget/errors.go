package budget

import (
	"errors"
	"fmt"
)

// Error types for budget violations and system errors.
var (
	// ErrBudgetNotFound is returned when the referenced budget does not exist.
	ErrBudgetNotFound = errors.New("budget not found")

	// ErrBudgetInactive is returned when charging a deactivated budget.
	ErrBudgetInactive = errors.New("budget is not active")

	// ErrBudgetExpired is returned when charging past the budget expiry.
	ErrBudgetExpired = errors.New("budget has expired")

	// ErrInvalidAmount is returned for a non-positive charge amount.
	ErrInvalidAmount = errors.New("charge amount must be positive")

	// ErrAlertNotFound is returned when resolve/read targets a missing alert.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrConflict is returned when a concurrent update invalidated the
	// optimistic version check. The service retries internally; callers see
	// it only after retries are exhausted and may retry the request.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrInvalidBudget is returned when budget parameters fail validation.
	ErrInvalidBudget = errors.New("invalid budget")
)

// BudgetError provides context about a failed budget operation.
// It wraps one of the sentinel errors above.
type BudgetError struct {
	// Op is the operation that failed (e.g. "charge", "reset").
	Op string

	// BudgetID is the affected budget.
	BudgetID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *BudgetError) Error() string {
	return fmt.Sprintf("budget %s failed for %s: %v", e.Op, e.BudgetID, e.Err)
}

// Unwrap returns the underlying error for error wrapping.
func (e *BudgetError) Unwrap() error {
	return e.Err
}
