package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"breakapp-hq/tally/pkg/budget/threshold"
)

// DefaultMaxChargeRetries bounds how often a charge is retried from a fresh
// read after a concurrent-update conflict.
const DefaultMaxChargeRetries = 3

// DefaultWarningThreshold applies to budgets created without an explicit
// warning threshold.
const DefaultWarningThreshold = 0.8

// Service is the single entry point composing ledger, evaluator and
// recorder into atomic persisted operations.
//
// # Example
//
//	svc := budget.NewService(budget.ServiceConfig{Store: store})
//
//	result, err := svc.CheckAndCharge(ctx, budgetID, 42.50, userID)
//	if err != nil {
//	    // typed error, nothing was written
//	}
//	if result.Alert != nil {
//	    // this charge crossed a threshold
//	}
type Service struct {
	store      Store
	ledger     Ledger
	evaluator  *threshold.Evaluator
	recorder   *Recorder
	metrics    *Metrics
	logger     *slog.Logger
	maxRetries int
	now        func() time.Time
}

// ServiceConfig contains the dependencies and tuning for a Service.
type ServiceConfig struct {
	// Store is the persistence backend. Required.
	Store Store

	// Thresholds configures the default evaluator breakpoints.
	// Per-budget multiplier overrides take precedence.
	Thresholds threshold.Config

	// Metrics receives operation metrics. Optional.
	Metrics *Metrics

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// MaxChargeRetries bounds conflict retries. Default: 3.
	MaxChargeRetries int

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewService creates a budget service over the given store.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "budget.service")

	retries := cfg.MaxChargeRetries
	if retries <= 0 {
		retries = DefaultMaxChargeRetries
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		store:      cfg.Store,
		evaluator:  threshold.NewEvaluator(cfg.Thresholds),
		recorder:   NewRecorder(cfg.Store, logger),
		metrics:    cfg.Metrics,
		logger:     logger,
		maxRetries: retries,
		now:        now,
	}
}

// CreateBudgetParams are the caller-supplied fields for a new budget.
type CreateBudgetParams struct {
	Name             string     `json:"name"`
	Type             BudgetType `json:"type"`
	TargetUserID     string     `json:"target_user_id,omitempty"`
	MaxLimit         float64    `json:"max_limit"`
	WarningThreshold float64    `json:"warning_threshold,omitempty"`

	// Optional per-budget breakpoint overrides.
	CriticalMultiplier float64 `json:"critical_multiplier,omitempty"`
	ExceededMultiplier float64 `json:"exceeded_multiplier,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateBudget validates the parameters and persists a new active budget.
func (s *Service) CreateBudget(ctx context.Context, p CreateBudgetParams) (*Budget, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidBudget)
	}
	if !p.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown budget type %q", ErrInvalidBudget, p.Type)
	}
	if p.MaxLimit <= 0 {
		return nil, fmt.Errorf("%w: max limit must be positive, got %.2f", ErrInvalidBudget, p.MaxLimit)
	}

	warning := p.WarningThreshold
	if warning == 0 {
		warning = DefaultWarningThreshold
	}
	if warning <= 0 || warning >= 1 {
		return nil, fmt.Errorf("%w: warning threshold must be in (0,1), got %.2f", ErrInvalidBudget, warning)
	}

	now := s.now()
	b := &Budget{
		ID:                 uuid.NewString(),
		Name:               p.Name,
		Type:               p.Type,
		TargetUserID:       p.TargetUserID,
		MaxLimit:           p.MaxLimit,
		WarningThreshold:   warning,
		CriticalMultiplier: p.CriticalMultiplier,
		ExceededMultiplier: p.ExceededMultiplier,
		IsActive:           true,
		ExpiresAt:          p.ExpiresAt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.CreateBudget(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}

	s.logger.InfoContext(ctx, "budget created",
		"budget_id", b.ID,
		"name", b.Name,
		"type", string(b.Type),
		"max_limit", b.MaxLimit,
	)

	return b, nil
}

// GetBudget returns the budget by id.
func (s *Service) GetBudget(ctx context.Context, budgetID string) (*Budget, error) {
	return s.store.GetBudget(ctx, budgetID)
}

// ListBudgets returns all budgets.
func (s *Service) ListBudgets(ctx context.Context) ([]*Budget, error) {
	return s.store.ListBudgets(ctx)
}

// CheckAndCharge applies a charge to the budget, classifies the post-charge
// utilization, and records an alert when this charge represents an
// escalation. The budget update, the charge audit record, and the alert (if
// any) commit as one atomic unit.
//
// All preconditions are validated before anything is written: on failure
// nothing persists. A concurrent-update conflict is retried from a fresh
// read up to the configured attempt bound, then surfaced as ErrConflict.
func (s *Service) CheckAndCharge(ctx context.Context, budgetID string, amount float64, actingUserID string) (*ChargeResult, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOpDuration("check_and_charge", time.Since(start).Seconds())
		}
	}()

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		b, err := s.store.GetBudget(ctx, budgetID)
		if err != nil {
			return nil, err
		}

		expected := b.Version
		now := s.now()

		if err := s.ledger.Charge(b, amount, now); err != nil {
			if s.metrics != nil {
				s.metrics.RecordCharge(b.Name, "rejected", 0)
			}
			return nil, &BudgetError{Op: "charge", BudgetID: budgetID, Err: err}
		}

		severity := s.classify(b)

		alert, err := s.recorder.MaybeRecord(ctx, b, severity, actingUserID, now)
		if err != nil {
			return nil, err
		}

		charge := &Charge{
			ID:        uuid.NewString(),
			BudgetID:  b.ID,
			UserID:    actingUserID,
			Amount:    amount,
			CreatedAt: now,
		}

		err = s.store.CommitBudget(ctx, b, expected, charge, alert)
		if errors.Is(err, ErrConflict) {
			s.logger.DebugContext(ctx, "charge conflicted, retrying",
				"budget_id", budgetID,
				"attempt", attempt+1,
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to commit charge: %w", err)
		}

		if s.metrics != nil {
			s.metrics.RecordCharge(b.Name, "committed", amount)
			s.metrics.UpdateUtilization(b.Name, b.Utilization())
			if alert != nil {
				s.metrics.RecordAlert(b.Name, alert.Severity)
			}
		}

		s.logger.InfoContext(ctx, "charge committed",
			"budget_id", b.ID,
			"amount", amount,
			"used_amount", b.UsedAmount,
			"utilization", b.Utilization(),
			"alert_created", alert != nil,
		)

		return &ChargeResult{Budget: b, Alert: alert}, nil
	}

	return nil, &BudgetError{
		Op:       "charge",
		BudgetID: budgetID,
		Err:      fmt.Errorf("%w after %d attempts", ErrConflict, s.maxRetries),
	}
}

// ResetBudget zeroes the budget's consumption and records a RESET audit
// alert. Allowed regardless of active or expiry state. Prior alerts remain
// queryable history; the RESET record re-arms the escalation ladder.
func (s *Service) ResetBudget(ctx context.Context, budgetID, actingUserID string) (*Budget, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		b, err := s.store.GetBudget(ctx, budgetID)
		if err != nil {
			return nil, err
		}

		expected := b.Version
		now := s.now()

		s.ledger.Reset(b, now)
		alert := s.recorder.RecordReset(b, actingUserID, now)

		err = s.store.CommitBudget(ctx, b, expected, nil, alert)
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to commit reset: %w", err)
		}

		if s.metrics != nil {
			s.metrics.RecordReset(b.Name)
			s.metrics.UpdateUtilization(b.Name, 0)
		}

		s.logger.InfoContext(ctx, "budget reset",
			"budget_id", b.ID,
			"reset_by", actingUserID,
		)

		return b, nil
	}

	return nil, &BudgetError{
		Op:       "reset",
		BudgetID: budgetID,
		Err:      fmt.Errorf("%w after %d attempts", ErrConflict, s.maxRetries),
	}
}

// DeactivateBudget soft-deletes the budget: it stops accepting charges but
// stays queryable, since alerts reference it.
func (s *Service) DeactivateBudget(ctx context.Context, budgetID string) (*Budget, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		b, err := s.store.GetBudget(ctx, budgetID)
		if err != nil {
			return nil, err
		}

		if !b.IsActive {
			return b, nil
		}

		expected := b.Version
		b.IsActive = false
		b.UpdatedAt = s.now()

		err = s.store.CommitBudget(ctx, b, expected, nil, nil)
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to deactivate budget: %w", err)
		}

		s.logger.InfoContext(ctx, "budget deactivated", "budget_id", b.ID)
		return b, nil
	}

	return nil, &BudgetError{
		Op:       "deactivate",
		BudgetID: budgetID,
		Err:      fmt.Errorf("%w after %d attempts", ErrConflict, s.maxRetries),
	}
}

// ResolveAlert marks the alert resolved. Idempotent.
func (s *Service) ResolveAlert(ctx context.Context, alertID, resolvedBy string) (*CostAlert, error) {
	return s.recorder.Resolve(ctx, alertID, resolvedBy, s.now())
}

// MarkAlertRead marks the alert read. Idempotent.
func (s *Service) MarkAlertRead(ctx context.Context, alertID string) (*CostAlert, error) {
	return s.recorder.MarkRead(ctx, alertID)
}

// ListAlerts returns the budget's alerts inside the range, newest first.
func (s *Service) ListAlerts(ctx context.Context, budgetID string, rng TimeRange) ([]*CostAlert, error) {
	if _, err := s.store.GetBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	return s.store.ListAlerts(ctx, budgetID, rng)
}

// Report aggregates the budget's charges and alerts over the range.
// Read-only; no state change.
func (s *Service) Report(ctx context.Context, budgetID string, rng TimeRange) (*Report, error) {
	if _, err := s.store.GetBudget(ctx, budgetID); err != nil {
		return nil, err
	}

	total, count, err := s.store.SumCharges(ctx, budgetID, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to sum charges: %w", err)
	}

	alerts, err := s.store.ListAlerts(ctx, budgetID, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	return &Report{
		BudgetID:     budgetID,
		Start:        rng.Start,
		End:          rng.End,
		TotalCharged: total,
		ChargeCount:  count,
		AlertCount:   len(alerts),
	}, nil
}

// AnalyticsSummary aggregates across all active budgets: total allocated,
// total spent, overall utilization, and alert counts by severity.
// Pure aggregation over ledger snapshots; no hidden state.
func (s *Service) AnalyticsSummary(ctx context.Context, rng TimeRange) (*Analytics, error) {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	summary := &Analytics{}
	for _, b := range budgets {
		if !b.IsActive {
			continue
		}
		summary.ActiveBudgets++
		summary.TotalAllocated += b.MaxLimit
		summary.TotalSpent += b.UsedAmount
	}
	if summary.TotalAllocated > 0 {
		summary.UtilizationRate = summary.TotalSpent / summary.TotalAllocated
	}

	counts, err := s.store.CountAlertsBySeverity(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	summary.AlertsBySeverity = counts

	return summary, nil
}

// classify runs the evaluator with per-budget multiplier overrides applied.
func (s *Service) classify(b *Budget) threshold.Severity {
	eval := s.evaluator
	if b.CriticalMultiplier > 0 || b.ExceededMultiplier > 0 {
		eval = threshold.NewEvaluator(threshold.Config{
			CriticalMultiplier: b.CriticalMultiplier,
			ExceededMultiplier: b.ExceededMultiplier,
		})
	}
	return eval.Classify(b.UsedAmount, b.MaxLimit, b.WarningThreshold)
}
