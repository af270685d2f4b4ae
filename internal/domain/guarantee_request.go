package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Guarantee request statuses. A request is resolved exactly once: the invited
// guarantor accepts with an amount or declines, and the record is never
// re-opened.
const (
	GuaranteeStatusPending  = "Pending"
	GuaranteeStatusAccepted = "Accepted"
	GuaranteeStatusDeclined = "Declined"
)

// GuaranteeRequest invites one member to cover part of a loan application.
type GuaranteeRequest struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	Reference        string          `json:"reference" db:"reference"`
	LoanApplication  string          `json:"loan_application" db:"loan_application"`
	Applicant        string          `json:"applicant" db:"applicant"`
	Guarantor        string          `json:"guarantor" db:"guarantor"`
	Status           string          `json:"status" db:"status"`
	GuaranteedAmount decimal.Decimal `json:"guaranteed_amount" db:"guaranteed_amount"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
}

func (g *GuaranteeRequest) IsResolved() bool {
	return g.Status != GuaranteeStatusPending
}

// DTOs for requests and responses

type CreateGuaranteeRequestRequest struct {
	Guarantor       string `json:"guarantor" validate:"required"`
	LoanApplication string `json:"loan_application" validate:"required"`
}

type RespondGuaranteeRequest struct {
	Status           string          `json:"status" validate:"required,oneof=Accepted Declined"`
	GuaranteedAmount decimal.Decimal `json:"guaranteed_amount"`
}
