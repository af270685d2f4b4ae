package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewReference generates a short human-facing reference with the given prefix,
// e.g. LA-9F3C21A4 for loan applications or GR-0B77E1D2 for guarantee requests.
func NewReference(prefix string) string {
	id := strings.ToUpper(uuid.New().String())
	return fmt.Sprintf("%s-%s", prefix, id[:8])
}

// MonthlyRate converts an annual percentage rate (e.g. 12.5) to a monthly
// decimal fraction.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(12))
}

// CalculateMonthlyPayment computes the fixed monthly payment for a loan using
// the standard annuity formula: M = P * i * (1+i)^n / ((1+i)^n - 1).
// A zero interest rate degrades to straight-line principal repayment.
func CalculateMonthlyPayment(principal decimal.Decimal, annualRatePercent decimal.Decimal, termMonths int) decimal.Decimal {
	if termMonths <= 0 {
		return decimal.Zero
	}

	i := MonthlyRate(annualRatePercent)
	if i.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(termMonths))).Round(2)
	}

	onePlus := decimal.NewFromInt(1).Add(i)
	compounded := onePlus.Pow(decimal.NewFromInt(int64(termMonths)))

	numerator := principal.Mul(i).Mul(compounded)
	denominator := compounded.Sub(decimal.NewFromInt(1))

	return numerator.Div(denominator).Round(2)
}

// DeriveTermMonths computes how many monthly payments of the given size are
// needed to amortize the principal: n = -ln(1 - i*P/M) / ln(1+i), rounded up.
// Returns an error when the payment does not even cover the monthly interest.
func DeriveTermMonths(principal decimal.Decimal, annualRatePercent decimal.Decimal, monthlyPayment decimal.Decimal) (int, error) {
	if monthlyPayment.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("monthly payment must be positive")
	}

	i := MonthlyRate(annualRatePercent)
	if i.IsZero() {
		n := principal.Div(monthlyPayment).Ceil()
		return int(n.IntPart()), nil
	}

	p, _ := principal.Float64()
	m, _ := monthlyPayment.Float64()
	rate, _ := i.Float64()

	interestShare := rate * p / m
	if interestShare >= 1 {
		return 0, fmt.Errorf("monthly payment %s does not cover the interest on %s", monthlyPayment, principal)
	}

	n := -math.Log(1-interestShare) / math.Log(1+rate)
	return int(math.Ceil(n)), nil
}

// IsDateInPast reports whether the given date is before today (UTC, day
// granularity).
func IsDateInPast(date time.Time) bool {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return date.UTC().Truncate(24 * time.Hour).Before(today)
}

// DecimalFromFloat converts float64 to decimal.Decimal
func DecimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
