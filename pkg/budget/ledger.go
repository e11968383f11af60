package budget

import (
	"fmt"
	"time"
)

// Ledger holds the mutation primitives for a budget's numeric state.
// It mutates the passed budget in place and performs no persistence; the
// Service commits the result through the Store.
//
// Ledger is stateless and safe for concurrent use.
type Ledger struct{}

// Charge adds amount to the budget's cumulative consumption.
//
// Preconditions: amount > 0, the budget is active, and the budget has not
// expired. Overage is permitted: a charge may push UsedAmount past MaxLimit,
// the engine tracks and alerts on excess spend rather than blocking it.
func (Ledger) Charge(b *Budget, amount float64, now time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("%w: got %.2f", ErrInvalidAmount, amount)
	}
	if !b.IsActive {
		return ErrBudgetInactive
	}
	if b.Expired(now) {
		return ErrBudgetExpired
	}

	b.UsedAmount += amount
	b.UpdatedAt = now
	return nil
}

// Reset sets the budget's cumulative consumption back to zero.
//
// Reset is an administrative override: it is always allowed, regardless of
// active or expiry state. The Service records a RESET alert alongside.
func (Ledger) Reset(b *Budget, now time.Time) {
	b.UsedAmount = 0
	b.UpdatedAt = now
}
