package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"breakapp-hq/tally/pkg/budget"
)

// runStoreTests exercises the budget.Store contract against a backend.
func runStoreTests(t *testing.T, newStore func(t *testing.T) budget.Store) {
	ctx := context.Background()

	newBudget := func(id string, created time.Time) *budget.Budget {
		return &budget.Budget{
			ID:               id,
			Name:             "Camera rentals",
			Type:             budget.TypeDepartment,
			MaxLimit:         1000,
			WarningThreshold: 0.8,
			IsActive:         true,
			CreatedAt:        created,
			UpdatedAt:        created,
		}
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		now := time.Now()
		expires := now.Add(24 * time.Hour)
		b := newBudget("b-1", now)
		b.TargetUserID = "user-9"
		b.ExpiresAt = &expires

		if err := store.CreateBudget(ctx, b); err != nil {
			t.Fatalf("Failed to create budget: %v", err)
		}
		if b.Version != 1 {
			t.Errorf("Expected version 1 after create, got %d", b.Version)
		}

		got, err := store.GetBudget(ctx, "b-1")
		if err != nil {
			t.Fatalf("Failed to get budget: %v", err)
		}
		if got.Name != b.Name || got.Type != b.Type || got.TargetUserID != "user-9" {
			t.Errorf("Loaded budget differs: %+v", got)
		}
		if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
			t.Errorf("Expected expiry %v, got %v", expires, got.ExpiresAt)
		}

		if _, err := store.GetBudget(ctx, "missing"); !errors.Is(err, budget.ErrBudgetNotFound) {
			t.Errorf("Expected ErrBudgetNotFound, got %v", err)
		}
	})

	t.Run("CommitVersionGuard", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		b := newBudget("b-1", time.Now())
		if err := store.CreateBudget(ctx, b); err != nil {
			t.Fatalf("Failed to create budget: %v", err)
		}

		b.UsedAmount = 100
		if err := store.CommitBudget(ctx, b, 1, nil, nil); err != nil {
			t.Fatalf("Failed to commit: %v", err)
		}
		if b.Version != 2 {
			t.Errorf("Expected version 2 after commit, got %d", b.Version)
		}

		// Stale version is rejected
		stale := b.Clone()
		stale.UsedAmount = 999
		if err := store.CommitBudget(ctx, stale, 1, nil, nil); !errors.Is(err, budget.ErrConflict) {
			t.Errorf("Expected ErrConflict for stale version, got %v", err)
		}

		got, err := store.GetBudget(ctx, "b-1")
		if err != nil {
			t.Fatalf("Failed to get budget: %v", err)
		}
		if got.UsedAmount != 100 {
			t.Errorf("Expected conflicting commit to change nothing, got %.2f", got.UsedAmount)
		}

		missing := newBudget("missing", time.Now())
		if err := store.CommitBudget(ctx, missing, 1, nil, nil); !errors.Is(err, budget.ErrBudgetNotFound) {
			t.Errorf("Expected ErrBudgetNotFound, got %v", err)
		}
	})

	t.Run("CommitAtomicWithChargeAndAlert", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		now := time.Now()
		b := newBudget("b-1", now)
		if err := store.CreateBudget(ctx, b); err != nil {
			t.Fatalf("Failed to create budget: %v", err)
		}

		b.UsedAmount = 850
		charge := &budget.Charge{
			ID: "c-1", BudgetID: "b-1", UserID: "user-1", Amount: 850, CreatedAt: now,
		}
		alert := &budget.CostAlert{
			ID: "a-1", BudgetID: "b-1", UserID: "user-1",
			Type: budget.AlertWarning, Severity: budget.SeverityMedium,
			Title: "Budget warning", Message: "85% used",
			CurrentAmount: 850, BudgetLimit: 1000, Percentage: 85,
			CreatedAt: now,
		}
		if err := store.CommitBudget(ctx, b, 1, charge, alert); err != nil {
			t.Fatalf("Failed to commit: %v", err)
		}

		total, count, err := store.SumCharges(ctx, "b-1", budget.TimeRange{})
		if err != nil {
			t.Fatalf("Failed to sum charges: %v", err)
		}
		if total != 850 || count != 1 {
			t.Errorf("Expected 850/1 charges, got %.2f/%d", total, count)
		}

		got, err := store.GetAlert(ctx, "a-1")
		if err != nil {
			t.Fatalf("Failed to get alert: %v", err)
		}
		if got.Type != budget.AlertWarning || got.Percentage != 85 {
			t.Errorf("Loaded alert differs: %+v", got)
		}
	})

	t.Run("AlertTriageAndLatestUnresolved", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		now := time.Now()
		b := newBudget("b-1", now)
		if err := store.CreateBudget(ctx, b); err != nil {
			t.Fatalf("Failed to create budget: %v", err)
		}

		warn := &budget.CostAlert{
			ID: "a-1", BudgetID: "b-1", Type: budget.AlertWarning,
			Severity: budget.SeverityMedium, CreatedAt: now,
		}
		crit := &budget.CostAlert{
			ID: "a-2", BudgetID: "b-1", Type: budget.AlertCritical,
			Severity: budget.SeverityHigh, CreatedAt: now.Add(time.Second),
		}
		if err := store.CommitBudget(ctx, b, 1, nil, warn); err != nil {
			t.Fatalf("Failed to commit warn: %v", err)
		}
		if err := store.CommitBudget(ctx, b, 2, nil, crit); err != nil {
			t.Fatalf("Failed to commit crit: %v", err)
		}

		latest, err := store.LatestUnresolvedAlert(ctx, "b-1")
		if err != nil {
			t.Fatalf("Failed to load latest: %v", err)
		}
		if latest == nil || latest.ID != "a-2" {
			t.Fatalf("Expected latest unresolved a-2, got %+v", latest)
		}

		// Resolving the critical exposes the older warning
		resolvedAt := now.Add(2 * time.Second)
		latest.IsResolved = true
		latest.ResolvedBy = "admin-1"
		latest.ResolvedAt = &resolvedAt
		if err := store.UpdateAlert(ctx, latest); err != nil {
			t.Fatalf("Failed to update alert: %v", err)
		}

		latest, err = store.LatestUnresolvedAlert(ctx, "b-1")
		if err != nil {
			t.Fatalf("Failed to load latest: %v", err)
		}
		if latest == nil || latest.ID != "a-1" {
			t.Fatalf("Expected latest unresolved a-1 after resolve, got %+v", latest)
		}

		got, err := store.GetAlert(ctx, "a-2")
		if err != nil {
			t.Fatalf("Failed to get alert: %v", err)
		}
		if !got.IsResolved || got.ResolvedBy != "admin-1" || got.ResolvedAt == nil {
			t.Errorf("Expected persisted triage fields, got %+v", got)
		}

		if err := store.UpdateAlert(ctx, &budget.CostAlert{ID: "missing"}); !errors.Is(err, budget.ErrAlertNotFound) {
			t.Errorf("Expected ErrAlertNotFound, got %v", err)
		}
		if _, err := store.GetAlert(ctx, "missing"); !errors.Is(err, budget.ErrAlertNotFound) {
			t.Errorf("Expected ErrAlertNotFound, got %v", err)
		}

		none, err := store.LatestUnresolvedAlert(ctx, "other-budget")
		if err != nil {
			t.Fatalf("Failed to load latest: %v", err)
		}
		if none != nil {
			t.Errorf("Expected nil for budget with no alerts, got %+v", none)
		}
	})

	t.Run("ListAlertsNewestFirstWithRange", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		base := time.Now()
		b := newBudget("b-1", base)
		if err := store.CreateBudget(ctx, b); err != nil {
			t.Fatalf("Failed to create budget: %v", err)
		}

		version := int64(1)
		for i, id := range []string{"a-1", "a-2", "a-3"} {
			a := &budget.CostAlert{
				ID: id, BudgetID: "b-1", Type: budget.AlertWarning,
				Severity:  budget.SeverityMedium,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			if err := store.CommitBudget(ctx, b, version, nil, a); err != nil {
				t.Fatalf("Failed to commit alert %s: %v", id, err)
			}
			version++
		}

		alerts, err := store.ListAlerts(ctx, "b-1", budget.TimeRange{})
		if err != nil {
			t.Fatalf("Failed to list alerts: %v", err)
		}
		if len(alerts) != 3 {
			t.Fatalf("Expected 3 alerts, got %d", len(alerts))
		}
		if alerts[0].ID != "a-3" || alerts[2].ID != "a-1" {
			t.Errorf("Expected newest-first ordering, got %s..%s", alerts[0].ID, alerts[2].ID)
		}

		// Range keeps only the middle alert
		start := base.Add(30 * time.Second)
		end := base.Add(90 * time.Second)
		alerts, err = store.ListAlerts(ctx, "b-1", budget.TimeRange{Start: &start, End: &end})
		if err != nil {
			t.Fatalf("Failed to list alerts: %v", err)
		}
		if len(alerts) != 1 || alerts[0].ID != "a-2" {
			t.Errorf("Expected only a-2 in range, got %+v", alerts)
		}

		counts, err := store.CountAlertsBySeverity(ctx, budget.TimeRange{})
		if err != nil {
			t.Fatalf("Failed to count alerts: %v", err)
		}
		if counts[budget.SeverityMedium] != 3 {
			t.Errorf("Expected 3 MEDIUM alerts, got %d", counts[budget.SeverityMedium])
		}
	})

	t.Run("ListBudgets", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		base := time.Now()
		for i, id := range []string{"b-1", "b-2", "b-3"} {
			b := newBudget(id, base.Add(time.Duration(i)*time.Second))
			if err := store.CreateBudget(ctx, b); err != nil {
				t.Fatalf("Failed to create budget %s: %v", id, err)
			}
		}

		budgets, err := store.ListBudgets(ctx)
		if err != nil {
			t.Fatalf("Failed to list budgets: %v", err)
		}
		if len(budgets) != 3 {
			t.Fatalf("Expected 3 budgets, got %d", len(budgets))
		}
		if budgets[0].ID != "b-1" || budgets[2].ID != "b-3" {
			t.Errorf("Expected creation-time ordering, got %s..%s", budgets[0].ID, budgets[2].ID)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) budget.Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) budget.Store {
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tally.db"))
		if err != nil {
			t.Fatalf("Failed to create sqlite store: %v", err)
		}
		return store
	})
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	b := &budget.Budget{
		ID: "b-1", Name: "orig", Type: budget.TypeVIP,
		MaxLimit: 100, WarningThreshold: 0.8, IsActive: true,
		CreatedAt: time.Now(),
	}
	if err := store.CreateBudget(ctx, b); err != nil {
		t.Fatalf("Failed to create budget: %v", err)
	}

	// Mutating a loaded copy must not leak into the store
	got, _ := store.GetBudget(ctx, "b-1")
	got.Name = "mutated"
	again, _ := store.GetBudget(ctx, "b-1")
	if again.Name != "orig" {
		t.Errorf("Expected stored budget to be isolated from loaded copies, got %q", again.Name)
	}
}

func TestSQLiteStorePersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tally.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Failed to create sqlite store: %v", err)
	}

	b := &budget.Budget{
		ID: "b-1", Name: "Survives restart", Type: budget.TypeProject,
		MaxLimit: 1000, UsedAmount: 400, WarningThreshold: 0.8,
		IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	if err := store.CreateBudget(ctx, b); err != nil {
		t.Fatalf("Failed to create budget: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetBudget(ctx, "b-1")
	if err != nil {
		t.Fatalf("Failed to load budget after reopen: %v", err)
	}
	if got.Name != "Survives restart" || got.UsedAmount != 400 {
		t.Errorf("Expected persisted budget, got %+v", got)
	}

	// Close is idempotent
	if err := reopened.Close(); err != nil {
		t.Errorf("Expected close to succeed, got %v", err)
	}
	if err := reopened.Close(); err != nil {
		t.Errorf("Expected second close to be a no-op, got %v", err)
	}
}
