// Package budget implements budget tracking and cost alerting for crew
// spending.
//
// # Overview
//
// A Budget is a named spending ceiling (a VIP allowance, a department spend,
// a project envelope) tracked against cumulative consumption. Charges are
// never blocked for overage: the engine records excess spend and escalates
// alerts instead of rejecting the purchase.
//
// The package composes four pieces:
//
//   - Ledger: the sole mutation primitives (Charge, Reset) over a Budget.
//   - threshold.Evaluator: pure classification of post-charge utilization
//     onto the severity ladder (see the threshold subpackage).
//   - Recorder: decides whether a classification warrants a new CostAlert,
//     deduplicating against the latest unresolved alert for the budget.
//   - Service: orchestrates check -> charge -> classify -> record as one
//     atomic persisted operation, and exposes reset, reporting, and
//     analytics.
//
// # Usage
//
//	store := storage.NewMemoryStore()
//	svc := budget.NewService(budget.ServiceConfig{Store: store})
//
//	b, _ := svc.CreateBudget(ctx, budget.CreateBudgetParams{
//	    Name:             "VIP catering",
//	    Type:             budget.TypeVIP,
//	    MaxLimit:         1000,
//	    WarningThreshold: 0.8,
//	})
//
//	result, err := svc.CheckAndCharge(ctx, b.ID, 850, userID)
//	if result.Alert != nil {
//	    // a threshold was crossed by this charge
//	}
//
// # Concurrency
//
// Charges to a single budget are linearized through an optimistic version
// check in the Store: the budget row update and the alert insert commit as
// one atomic unit, and a conflicting concurrent charge is retried from a
// fresh read. Charges to different budgets proceed fully in parallel.
package budget
