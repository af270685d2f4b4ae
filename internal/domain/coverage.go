package domain

import "github.com/shopspring/decimal"

// Coverage is the result of evaluating how much of a requested amount is
// secured by the applicant's own savings plus accepted guarantees.
type Coverage struct {
	SelfGuaranteedAmount    decimal.Decimal `json:"self_guaranteed_amount"`
	TotalGuaranteedByOthers decimal.Decimal `json:"total_guaranteed_by_others"`
	EffectiveCoverage       decimal.Decimal `json:"effective_coverage"`
	RemainingToCover        decimal.Decimal `json:"remaining_to_cover"`
	IsFullyCovered          bool            `json:"is_fully_covered"`
}

// ComputeCoverage is a pure function over its inputs: the requested amount,
// the applicant's eligible savings balance and the amounts of the accepted
// guarantee requests. Effective coverage is capped at the requested amount,
// so excess guarantee capacity is truncated rather than rejected.
func ComputeCoverage(requestedAmount, eligibleSavings decimal.Decimal, acceptedAmounts []decimal.Decimal) Coverage {
	totalOthers := decimal.Zero
	for _, amount := range acceptedAmounts {
		totalOthers = totalOthers.Add(amount)
	}

	effective := eligibleSavings.Add(totalOthers)
	if effective.GreaterThan(requestedAmount) {
		effective = requestedAmount
	}

	remaining := requestedAmount.Sub(effective)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return Coverage{
		SelfGuaranteedAmount:    eligibleSavings,
		TotalGuaranteedByOthers: totalOthers,
		EffectiveCoverage:       effective,
		RemainingToCover:        remaining,
		IsFullyCovered:          remaining.IsZero(),
	}
}
