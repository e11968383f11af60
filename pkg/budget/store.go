package budget

import (
	"context"
	"time"
)

// TimeRange bounds a read-only aggregation. Nil endpoints are unbounded.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// Store is the persistence contract for budgets, charges and alerts.
// Implementations must be safe for concurrent use.
//
// The Store is injected into the Service constructor; implementations live
// in the storage subpackage.
type Store interface {
	// CreateBudget persists a new budget. The budget's Version is set to 1.
	CreateBudget(ctx context.Context, b *Budget) error

	// GetBudget returns a copy of the budget, or ErrBudgetNotFound.
	GetBudget(ctx context.Context, id string) (*Budget, error)

	// ListBudgets returns copies of all budgets.
	ListBudgets(ctx context.Context) ([]*Budget, error)

	// CommitBudget atomically persists a mutated budget together with the
	// optional charge audit record and the optional new alert. The commit
	// succeeds only if the stored budget still has expectedVersion; on
	// success the stored and passed budget Version become expectedVersion+1.
	// Returns ErrConflict when the version check fails and ErrBudgetNotFound
	// when the budget is missing.
	//
	// A concurrent reader never observes the budget update without its
	// accompanying alert, or vice versa.
	CommitBudget(ctx context.Context, b *Budget, expectedVersion int64, charge *Charge, alert *CostAlert) error

	// GetAlert returns a copy of the alert, or ErrAlertNotFound.
	GetAlert(ctx context.Context, id string) (*CostAlert, error)

	// UpdateAlert persists changes to an alert's triage fields.
	// Returns ErrAlertNotFound when missing.
	UpdateAlert(ctx context.Context, a *CostAlert) error

	// LatestUnresolvedAlert returns the most recently created unresolved
	// alert for the budget, or nil when none exists.
	LatestUnresolvedAlert(ctx context.Context, budgetID string) (*CostAlert, error)

	// ListAlerts returns the budget's alerts created inside the range,
	// newest first.
	ListAlerts(ctx context.Context, budgetID string, rng TimeRange) ([]*CostAlert, error)

	// CountAlertsBySeverity counts alerts created inside the range across
	// all budgets, keyed by severity.
	CountAlertsBySeverity(ctx context.Context, rng TimeRange) (map[AlertSeverity]int, error)

	// SumCharges returns the total amount and count of charges committed
	// for the budget inside the range.
	SumCharges(ctx context.Context, budgetID string, rng TimeRange) (float64, int, error)

	// Close releases any resources held by the store.
	Close() error
}
