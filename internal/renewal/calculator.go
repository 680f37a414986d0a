package renewal

import "time"

type PlanTier string

const (
	TierSessional PlanTier = "Sessional"
	TierTermly    PlanTier = "Termly"
	TierMinimum   PlanTier = "Minimum"
)

// Payment thresholds in the gateway's major currency unit.
const (
	SessionalAmount = 50000
	TermlyAmount    = 20000
)

// ClassifyTier maps an amount to its plan. Thresholds are checked from the
// highest down; anything below Termly, including NaN, is Minimum.
func ClassifyTier(amountPaid float64) PlanTier {
	switch {
	case amountPaid >= SessionalAmount:
		return TierSessional
	case amountPaid >= TermlyAmount:
		return TierTermly
	default:
		return TierMinimum
	}
}

func (t PlanTier) String() string { return string(t) }

// Extend adds the tier's duration to base. Month and year arithmetic uses
// time.AddDate, so day overflow rolls into the following month
// (Jan 31 + 1 month = Mar 3, or Mar 2 in a leap year).
func (t PlanTier) Extend(base time.Time) time.Time {
	switch t {
	case TierSessional:
		return base.AddDate(1, 0, 0)
	case TierTermly:
		return base.AddDate(0, 4, 0)
	default:
		return base.AddDate(0, 1, 0)
	}
}

// ComputeNewExpiry extends from whichever is later of the current expiry and
// now, so renewing early never shortens remaining coverage.
func ComputeNewExpiry(currentExpiry, now time.Time, amountPaid float64) time.Time {
	base := now.UTC()
	if currentExpiry.After(now) {
		base = currentExpiry.UTC()
	}
	return ClassifyTier(amountPaid).Extend(base)
}
