package storage

import (
	"context"
	"sort"
	"sync"

	"breakapp-hq/tally/pkg/budget"
)

// MemoryStore implements budget.Store with in-memory maps. All returned
// records are deep copies so callers can mutate them freely before
// committing.
//
// MemoryStore is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	budgets map[string]*budget.Budget
	alerts  map[string]*budget.CostAlert
	charges []*budget.Charge
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		budgets: make(map[string]*budget.Budget),
		alerts:  make(map[string]*budget.CostAlert),
	}
}

// CreateBudget persists a new budget with Version 1.
func (m *MemoryStore) CreateBudget(_ context.Context, b *budget.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b.Version = 1
	m.budgets[b.ID] = b.Clone()
	return nil
}

// GetBudget returns a copy of the budget.
func (m *MemoryStore) GetBudget(_ context.Context, id string) (*budget.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.budgets[id]
	if !ok {
		return nil, budget.ErrBudgetNotFound
	}
	return b.Clone(), nil
}

// ListBudgets returns copies of all budgets.
func (m *MemoryStore) ListBudgets(_ context.Context) ([]*budget.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*budget.Budget, 0, len(m.budgets))
	for _, b := range m.budgets {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// CommitBudget applies the mutation under the store lock, so the version
// check, budget write, charge append and alert insert are one critical
// section.
func (m *MemoryStore) CommitBudget(_ context.Context, b *budget.Budget, expectedVersion int64, charge *budget.Charge, alert *budget.CostAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.budgets[b.ID]
	if !ok {
		return budget.ErrBudgetNotFound
	}
	if stored.Version != expectedVersion {
		return budget.ErrConflict
	}

	b.Version = expectedVersion + 1
	m.budgets[b.ID] = b.Clone()

	if charge != nil {
		c := *charge
		m.charges = append(m.charges, &c)
	}
	if alert != nil {
		m.alerts[alert.ID] = alert.Clone()
	}
	return nil
}

// GetAlert returns a copy of the alert.
func (m *MemoryStore) GetAlert(_ context.Context, id string) (*budget.CostAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.alerts[id]
	if !ok {
		return nil, budget.ErrAlertNotFound
	}
	return a.Clone(), nil
}

// UpdateAlert persists changes to an alert's triage fields.
func (m *MemoryStore) UpdateAlert(_ context.Context, a *budget.CostAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.alerts[a.ID]; !ok {
		return budget.ErrAlertNotFound
	}
	m.alerts[a.ID] = a.Clone()
	return nil
}

// LatestUnresolvedAlert returns the newest unresolved alert for the budget,
// or nil when none exists.
func (m *MemoryStore) LatestUnresolvedAlert(_ context.Context, budgetID string) (*budget.CostAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *budget.CostAlert
	for _, a := range m.alerts {
		if a.BudgetID != budgetID || a.IsResolved {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, nil
	}
	return latest.Clone(), nil
}

// ListAlerts returns the budget's alerts inside the range, newest first.
func (m *MemoryStore) ListAlerts(_ context.Context, budgetID string, rng budget.TimeRange) ([]*budget.CostAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*budget.CostAlert
	for _, a := range m.alerts {
		if a.BudgetID != budgetID || !rng.Contains(a.CreatedAt) {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountAlertsBySeverity counts alerts inside the range across all budgets.
func (m *MemoryStore) CountAlertsBySeverity(_ context.Context, rng budget.TimeRange) (map[budget.AlertSeverity]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[budget.AlertSeverity]int)
	for _, a := range m.alerts {
		if rng.Contains(a.CreatedAt) {
			counts[a.Severity]++
		}
	}
	return counts, nil
}

// SumCharges returns the total amount and count of the budget's charges
// inside the range.
func (m *MemoryStore) SumCharges(_ context.Context, budgetID string, rng budget.TimeRange) (float64, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total float64
	var count int
	for _, c := range m.charges {
		if c.BudgetID != budgetID || !rng.Contains(c.CreatedAt) {
			continue
		}
		total += c.Amount
		count++
	}
	return total, count, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
