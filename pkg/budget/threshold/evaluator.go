package threshold

// Severity classifies budget utilization. Values are ordered: a higher
// severity always represents higher utilization, so severities can be
// compared with the usual operators.
type Severity int

const (
	// None means utilization is below the warning threshold. No alert fires.
	None Severity = iota

	// Warning means utilization reached the warning threshold but is still
	// below the critical breakpoint.
	Warning

	// Critical means utilization reached the limit (or the configured
	// critical multiple of it) but not yet the exceeded breakpoint.
	Critical

	// Exceeded means utilization is at or above the exceeded multiple of
	// the limit.
	Exceeded
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case None:
		return "none"
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	case Exceeded:
		return "exceeded"
	default:
		return "unknown"
	}
}

// Default breakpoint multipliers applied to the budget limit.
const (
	// DefaultCriticalMultiplier marks utilization of 100% of the limit as
	// critical. Touching the limit is already severe, not merely at boundary.
	DefaultCriticalMultiplier = 1.0

	// DefaultExceededMultiplier marks utilization of 120% of the limit as
	// exceeded.
	DefaultExceededMultiplier = 1.2
)

// Config contains the breakpoint multipliers for an evaluator.
// Zero values fall back to the defaults.
type Config struct {
	// CriticalMultiplier is the fraction of the limit at which utilization
	// becomes Critical. Default: 1.0.
	CriticalMultiplier float64

	// ExceededMultiplier is the fraction of the limit at which utilization
	// becomes Exceeded. Default: 1.2. Must be >= CriticalMultiplier.
	ExceededMultiplier float64
}

// Evaluator maps ledger state to a severity classification.
// Evaluator is stateless and safe for concurrent use.
type Evaluator struct {
	critical float64
	exceeded float64
}

// NewEvaluator creates an evaluator with the given breakpoint configuration.
// Zero multipliers fall back to the defaults; an exceeded multiplier below
// the critical multiplier is raised to it so the ladder stays ordered.
func NewEvaluator(cfg Config) *Evaluator {
	critical := cfg.CriticalMultiplier
	if critical <= 0 {
		critical = DefaultCriticalMultiplier
	}

	exceeded := cfg.ExceededMultiplier
	if exceeded <= 0 {
		exceeded = DefaultExceededMultiplier
	}
	if exceeded < critical {
		exceeded = critical
	}

	return &Evaluator{
		critical: critical,
		exceeded: exceeded,
	}
}

// Classify returns the severity for the given ledger state.
//
// The warning threshold is a fraction in (0,1) below which no alert fires.
// A non-positive limit classifies as None: such a budget cannot be
// meaningfully utilized and validation rejects it upstream.
//
// Classify is monotonic in usedAmount: for a fixed limit and warning
// threshold, increasing usage never reports a lower severity.
func (e *Evaluator) Classify(usedAmount, maxLimit, warningThreshold float64) Severity {
	if maxLimit <= 0 {
		return None
	}

	ratio := usedAmount / maxLimit

	switch {
	case ratio >= e.exceeded:
		return Exceeded
	case ratio >= e.critical:
		return Critical
	case warningThreshold > 0 && ratio >= warningThreshold:
		return Warning
	default:
		return None
	}
}

// Ratio returns the utilization ratio usedAmount/maxLimit, or 0 for a
// non-positive limit.
func Ratio(usedAmount, maxLimit float64) float64 {
	if maxLimit <= 0 {
		return 0
	}
	return usedAmount / maxLimit
}
