package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanProduct is a catalog entry selected on a loan application. Its interest
// rate feeds the repayment projection; its limits inform the admin amendment
// step.
type LoanProduct struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Reference     string          `json:"reference" db:"reference"`
	Name          string          `json:"name" db:"name"`
	InterestRate  decimal.Decimal `json:"interest_rate" db:"interest_rate"` // % p.a.
	MinAmount     decimal.Decimal `json:"min_amount" db:"min_amount"`
	MaxAmount     decimal.Decimal `json:"max_amount" db:"max_amount"`
	MaxTermMonths int             `json:"max_term_months" db:"max_term_months"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

type CreateLoanProductRequest struct {
	Name          string          `json:"name" validate:"required"`
	InterestRate  decimal.Decimal `json:"interest_rate" validate:"required,decimal_gte=0"`
	MinAmount     decimal.Decimal `json:"min_amount" validate:"decimal_gte=0"`
	MaxAmount     decimal.Decimal `json:"max_amount" validate:"required,decimal_gt=0"`
	MaxTermMonths int             `json:"max_term_months" validate:"required,gt=0"`
}

type UpdateLoanProductRequest struct {
	InterestRate  *decimal.Decimal `json:"interest_rate,omitempty"`
	MinAmount     *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount     *decimal.Decimal `json:"max_amount,omitempty"`
	MaxTermMonths *int             `json:"max_term_months,omitempty"`
}
