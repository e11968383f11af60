// Package threshold classifies budget utilization against alert thresholds.
//
// # Overview
//
// The threshold package is the pure decision core of cost alerting. Given a
// ledger snapshot (used amount, limit, warning threshold) it computes the
// utilization ratio and maps it onto the severity ladder:
//
//	None < Warning < Critical < Exceeded
//
// Severities are ordered integers, so callers compare them directly instead
// of comparing strings.
//
// # Breakpoints
//
// With the default multipliers (critical 1.0, exceeded 1.2) and a warning
// threshold of 0.8:
//
//   - ratio < 0.80          -> None
//   - 0.80 <= ratio < 1.00  -> Warning
//   - 1.00 <= ratio < 1.20  -> Critical (touching the limit is already severe)
//   - ratio >= 1.20         -> Exceeded
//
// The multipliers are configurable so budget sensitivity can be tuned without
// code changes.
//
// # Usage
//
//	eval := threshold.NewEvaluator(threshold.Config{})
//
//	sev := eval.Classify(850, 1000, 0.8) // threshold.Warning
//	if sev >= threshold.Critical {
//	    // escalate
//	}
//
// Classification is applied to the ledger state after a proposed charge: the
// operation that crosses a threshold is itself the trigger.
package threshold
