package budget

import (
	"time"

	"breakapp-hq/tally/pkg/budget/threshold"
)

// BudgetType classifies the ownership scope of a budget.
type BudgetType string

const (
	// TypeVIP is a personal allowance for a VIP crew member.
	TypeVIP BudgetType = "VIP"

	// TypeProducer is a producer's discretionary spend.
	TypeProducer BudgetType = "PRODUCER"

	// TypeDepartment is a department-wide budget with no owning user.
	TypeDepartment BudgetType = "DEPARTMENT"

	// TypeProject is a production-wide budget with no owning user.
	TypeProject BudgetType = "PROJECT"
)

// Valid reports whether the budget type is one of the known scopes.
func (t BudgetType) Valid() bool {
	switch t {
	case TypeVIP, TypeProducer, TypeDepartment, TypeProject:
		return true
	}
	return false
}

// Budget is a named spending ceiling tracked against cumulative usage.
//
// UsedAmount is monotonically non-decreasing between resets and is mutated
// only through the ledger primitives. Version is the optimistic concurrency
// token maintained by the Store.
type Budget struct {
	// ID is the unique budget identifier (UUID).
	ID string `json:"id"`

	// Name is the display label.
	Name string `json:"name"`

	// Type classifies the ownership scope.
	Type BudgetType `json:"type"`

	// TargetUserID is the owning user, empty for department/project budgets.
	TargetUserID string `json:"target_user_id,omitempty"`

	// MaxLimit is the spending ceiling. Always > 0.
	MaxLimit float64 `json:"max_limit"`

	// UsedAmount is cumulative consumption since the last reset.
	UsedAmount float64 `json:"used_amount"`

	// WarningThreshold is the utilization fraction in (0,1) below which no
	// alert fires.
	WarningThreshold float64 `json:"warning_threshold"`

	// CriticalMultiplier and ExceededMultiplier override the evaluator's
	// breakpoints for this budget. Zero means use the service defaults.
	CriticalMultiplier float64 `json:"critical_multiplier,omitempty"`
	ExceededMultiplier float64 `json:"exceeded_multiplier,omitempty"`

	// IsActive reports whether the budget currently accepts charges.
	// Budgets are deactivated, never hard-deleted, once alerts reference them.
	IsActive bool `json:"is_active"`

	// ExpiresAt is the optional expiry instant. Charges after expiry are
	// rejected.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Version is incremented by the Store on every committed mutation.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Utilization returns UsedAmount / MaxLimit.
func (b *Budget) Utilization() float64 {
	return threshold.Ratio(b.UsedAmount, b.MaxLimit)
}

// Remaining returns the budget left before the limit, never negative.
func (b *Budget) Remaining() float64 {
	if r := b.MaxLimit - b.UsedAmount; r > 0 {
		return r
	}
	return 0
}

// Expired reports whether the budget has an expiry in the past.
func (b *Budget) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && !b.ExpiresAt.After(now)
}

// Clone returns a deep copy of the budget.
func (b *Budget) Clone() *Budget {
	c := *b
	if b.ExpiresAt != nil {
		t := *b.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// AlertType identifies what a cost alert records. WARNING, CRITICAL and
// EXCEEDED form a one-way escalation ladder per budget cycle; RESET re-arms
// the ladder and always records.
type AlertType string

const (
	AlertWarning  AlertType = "WARNING"
	AlertCritical AlertType = "CRITICAL"
	AlertExceeded AlertType = "EXCEEDED"
	AlertReset    AlertType = "RESET"
)

// AlertSeverity is the consumer-facing severity derived from the alert type.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "LOW"
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// Severity returns the severity tier for the alert type.
func (t AlertType) Severity() AlertSeverity {
	switch t {
	case AlertWarning:
		return SeverityMedium
	case AlertCritical:
		return SeverityHigh
	case AlertExceeded:
		return SeverityCritical
	default:
		return SeverityLow
	}
}

// escalationRank orders alert types on the escalation ladder. RESET sits
// below every ladder tier so any classification after a reset records a
// fresh alert.
func (t AlertType) escalationRank() int {
	switch t {
	case AlertWarning:
		return 1
	case AlertCritical:
		return 2
	case AlertExceeded:
		return 3
	default:
		return 0
	}
}

// alertTypeFor maps a threshold classification onto the persisted alert type.
// threshold.None has no alert type; callers must not pass it.
func alertTypeFor(sev threshold.Severity) AlertType {
	switch sev {
	case threshold.Critical:
		return AlertCritical
	case threshold.Exceeded:
		return AlertExceeded
	default:
		return AlertWarning
	}
}

// CostAlert is a durable record of a threshold transition (or a reset).
//
// The snapshot fields (CurrentAmount, BudgetLimit, Percentage, Title,
// Message) are immutable once created; only the triage fields (IsRead,
// IsResolved, ResolvedBy, ResolvedAt) change afterward.
type CostAlert struct {
	// ID is the unique alert identifier (UUID).
	ID string `json:"id"`

	// BudgetID references the owning budget.
	BudgetID string `json:"budget_id"`

	// UserID is the user whose charge triggered the alert.
	UserID string `json:"user_id,omitempty"`

	// Type is the alert kind on the escalation ladder (or RESET).
	Type AlertType `json:"alert_type"`

	// Severity is derived from Type at creation time.
	Severity AlertSeverity `json:"severity"`

	// Title and Message are templated from the severity and budget name.
	Title   string `json:"title"`
	Message string `json:"message"`

	// Ledger snapshot at alert-creation time.
	CurrentAmount float64 `json:"current_amount"`
	BudgetLimit   float64 `json:"budget_limit"`

	// Percentage is CurrentAmount/BudgetLimit*100, unclamped. Use
	// DisplayPercentage for rendering.
	Percentage float64 `json:"percentage"`

	// Triage state, mutated only by explicit read/resolve calls.
	IsRead     bool       `json:"is_read"`
	IsResolved bool       `json:"is_resolved"`
	ResolvedBy string     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DisplayPercentage clamps the utilization percentage to [0,100] for
// display. The stored Percentage keeps the true value for logic.
func (a *CostAlert) DisplayPercentage() float64 {
	switch {
	case a.Percentage < 0:
		return 0
	case a.Percentage > 100:
		return 100
	default:
		return a.Percentage
	}
}

// Clone returns a deep copy of the alert.
func (a *CostAlert) Clone() *CostAlert {
	c := *a
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

// Charge is the audit record of a single committed charge. Charges back the
// read-only reporting operations; they are written in the same transaction
// as the budget update.
type Charge struct {
	// ID is the unique charge identifier (UUID).
	ID string `json:"id"`

	// BudgetID references the charged budget.
	BudgetID string `json:"budget_id"`

	// UserID is the acting user.
	UserID string `json:"user_id,omitempty"`

	// Amount is the charged amount, always > 0.
	Amount float64 `json:"amount"`

	CreatedAt time.Time `json:"created_at"`
}

// ChargeResult is the response of a check-and-charge operation: the updated
// budget and, when this charge crossed a threshold, the newly created alert.
type ChargeResult struct {
	Budget *Budget    `json:"budget"`
	Alert  *CostAlert `json:"alert"`
}

// Report is the read-only per-budget aggregation over a time range.
type Report struct {
	BudgetID     string     `json:"budget_id"`
	Start        *time.Time `json:"start,omitempty"`
	End          *time.Time `json:"end,omitempty"`
	TotalCharged float64    `json:"total_charged"`
	ChargeCount  int        `json:"charge_count"`
	AlertCount   int        `json:"alert_count"`
}

// Analytics is the cross-budget aggregation over all active budgets.
type Analytics struct {
	ActiveBudgets    int                   `json:"active_budgets"`
	TotalAllocated   float64               `json:"total_allocated"`
	TotalSpent       float64               `json:"total_spent"`
	UtilizationRate  float64               `json:"utilization_rate"`
	AlertsBySeverity map[AlertSeverity]int `json:"alerts_by_severity"`
}
