package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"breakapp-hq/tally/pkg/budget/threshold"
)

// Recorder decides whether a threshold classification warrants a new
// CostAlert and constructs it. It also owns the alert triage operations
// (resolve, mark read).
//
// The Recorder does not insert charge-path alerts itself: MaybeRecord only
// builds the alert, and the Service commits it atomically with the budget
// update.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder creates an alert recorder over the given store.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  store,
		logger: logger.With("component", "budget.recorder"),
	}
}

// MaybeRecord returns a new alert when the classification represents an
// escalation over the budget's latest unresolved alert, or nil when no
// alert is warranted.
//
// Dedup rule: an unresolved alert of equal or higher severity suppresses
// the new one. This prevents alert storms from repeated small charges near
// the same threshold. A RESET alert ranks below every ladder tier, so the
// first threshold crossing after a reset always records.
func (r *Recorder) MaybeRecord(ctx context.Context, b *Budget, sev threshold.Severity, actingUserID string, now time.Time) (*CostAlert, error) {
	if sev == threshold.None {
		return nil, nil
	}

	latest, err := r.store.LatestUnresolvedAlert(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up latest unresolved alert: %w", err)
	}

	alertType := alertTypeFor(sev)
	if latest != nil && latest.Type.escalationRank() >= alertType.escalationRank() {
		// Already represented by an open alert. No duplicate, no downgrade.
		return nil, nil
	}

	alert := r.newAlert(b, alertType, actingUserID, now)

	r.logger.InfoContext(ctx, "cost alert recorded",
		"budget_id", b.ID,
		"budget_name", b.Name,
		"alert_type", string(alertType),
		"severity", string(alert.Severity),
		"percentage", alert.Percentage,
	)

	return alert, nil
}

// RecordReset builds a RESET audit alert. Reset alerts bypass dedup: every
// reset records.
func (r *Recorder) RecordReset(b *Budget, actingUserID string, now time.Time) *CostAlert {
	return r.newAlert(b, AlertReset, actingUserID, now)
}

// Resolve marks an alert resolved by the given user. Resolving an already
// resolved alert is a no-op that returns the existing state.
func (r *Recorder) Resolve(ctx context.Context, alertID, resolvedBy string, now time.Time) (*CostAlert, error) {
	alert, err := r.store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}

	if alert.IsResolved {
		return alert, nil
	}

	alert.IsResolved = true
	alert.ResolvedBy = resolvedBy
	alert.ResolvedAt = &now

	if err := r.store.UpdateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert resolution: %w", err)
	}

	r.logger.InfoContext(ctx, "cost alert resolved",
		"alert_id", alertID,
		"resolved_by", resolvedBy,
	)

	return alert, nil
}

// MarkRead marks an alert as read. Idempotent.
func (r *Recorder) MarkRead(ctx context.Context, alertID string) (*CostAlert, error) {
	alert, err := r.store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}

	if alert.IsRead {
		return alert, nil
	}

	alert.IsRead = true
	if err := r.store.UpdateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert read state: %w", err)
	}

	return alert, nil
}

// newAlert constructs an alert snapshot from the budget's current state.
func (r *Recorder) newAlert(b *Budget, alertType AlertType, actingUserID string, now time.Time) *CostAlert {
	percentage := threshold.Ratio(b.UsedAmount, b.MaxLimit) * 100

	alert := &CostAlert{
		ID:            uuid.NewString(),
		BudgetID:      b.ID,
		UserID:        actingUserID,
		Type:          alertType,
		Severity:      alertType.Severity(),
		CurrentAmount: b.UsedAmount,
		BudgetLimit:   b.MaxLimit,
		Percentage:    percentage,
		CreatedAt:     now,
	}
	alert.Title, alert.Message = alertText(b, alert)

	return alert
}

// alertText templates the human-readable title and message from the alert
// type and budget name.
func alertText(b *Budget, a *CostAlert) (title, message string) {
	switch a.Type {
	case AlertWarning:
		title = fmt.Sprintf("Budget warning: %s", b.Name)
		message = fmt.Sprintf("Budget %q has used %.0f%% of its %.2f limit (%.2f spent).",
			b.Name, a.DisplayPercentage(), b.MaxLimit, b.UsedAmount)
	case AlertCritical:
		title = fmt.Sprintf("Budget critical: %s", b.Name)
		message = fmt.Sprintf("Budget %q has reached its %.2f limit (%.2f spent).",
			b.Name, b.MaxLimit, b.UsedAmount)
	case AlertExceeded:
		title = fmt.Sprintf("Budget exceeded: %s", b.Name)
		message = fmt.Sprintf("Budget %q has exceeded its %.2f limit (%.2f spent, %.1fx).",
			b.Name, b.MaxLimit, b.UsedAmount, threshold.Ratio(b.UsedAmount, b.MaxLimit))
	case AlertReset:
		title = fmt.Sprintf("Budget reset: %s", b.Name)
		message = fmt.Sprintf("Budget %q was reset to zero.", b.Name)
	}
	return title, message
}
