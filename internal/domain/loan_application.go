package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status values match what the member and admin UIs display.
const (
	StatusPending            = "Pending"
	StatusReadyForAmendment  = "Ready for Amendment"
	StatusAmended            = "Amended"
	StatusInProgress         = "In Progress"
	StatusReadyForSubmission = "Ready for Submission"
	StatusSubmitted          = "Submitted"
	StatusApproved           = "Approved"
	StatusDeclined           = "Declined"
	StatusCancelled          = "Cancelled"
	StatusDisbursed          = "Disbursed"
)

// Calculation modes. Exactly one of term_months / monthly_payment is set,
// consistent with the mode.
const (
	ModeFixedTerm    = "fixed_term"
	ModeFixedPayment = "fixed_payment"
)

// Action names one state-machine transition attempt.
type Action string

const (
	ActionUpdate             Action = "update"
	ActionSubmitForAmendment Action = "submit_for_amendment"
	ActionAmend              Action = "amend"
	ActionAcceptAmendment    Action = "accept_amendment"
	ActionRejectAmendment    Action = "reject_amendment"
	ActionRequestGuarantee   Action = "request_guarantee"
	ActionSubmit             Action = "submit"
	ActionApprove            Action = "approve"
	ActionDecline            Action = "decline"
	ActionDisburse           Action = "disburse"
)

// transitions is the single source of truth for which status each action may
// be invoked from. Transitions into In Progress / Ready for Submission after
// an amendment is accepted or a guarantee resolves are system-derived from
// coverage, not actor-chosen, so they do not appear here.
var transitions = map[Action]string{
	ActionUpdate:             StatusPending,
	ActionSubmitForAmendment: StatusPending,
	ActionAmend:              StatusReadyForAmendment,
	ActionAcceptAmendment:    StatusAmended,
	ActionRejectAmendment:    StatusAmended,
	ActionRequestGuarantee:   StatusInProgress,
	ActionSubmit:             StatusReadyForSubmission,
	ActionApprove:            StatusSubmitted,
	ActionDecline:            StatusSubmitted,
	ActionDisburse:           StatusApproved,
}

// CanPerform reports whether the action is legal from the given status.
func CanPerform(status string, action Action) bool {
	from, ok := transitions[action]
	return ok && from == status
}

// TerminalStatuses never change again once reached, except Approved which the
// disbursement ledger moves to Disbursed.
func IsTerminal(status string) bool {
	switch status {
	case StatusDeclined, StatusCancelled, StatusDisbursed:
		return true
	}
	return false
}

// LoanApplication is the aggregate root of the workflow.
type LoanApplication struct {
	ID                      uuid.UUID       `json:"id" db:"id"`
	Reference               string          `json:"reference" db:"reference"`
	Member                  string          `json:"member" db:"member"`
	Product                 string          `json:"product" db:"product"`
	RequestedAmount         decimal.Decimal `json:"requested_amount" db:"requested_amount"`
	CalculationMode         string          `json:"calculation_mode" db:"calculation_mode"`
	TermMonths              int             `json:"term_months,omitempty" db:"term_months"`
	MonthlyPayment          decimal.Decimal `json:"monthly_payment,omitempty" db:"monthly_payment"`
	RepaymentFrequency      string          `json:"repayment_frequency" db:"repayment_frequency"`
	StartDate               time.Time       `json:"start_date" db:"start_date"`
	Status                  string          `json:"status" db:"status"`
	AmendmentNote           string          `json:"amendment_note,omitempty" db:"amendment_note"`
	SelfGuaranteedAmount    decimal.Decimal `json:"self_guaranteed_amount" db:"self_guaranteed_amount"`
	TotalGuaranteedByOthers decimal.Decimal `json:"total_guaranteed_by_others" db:"total_guaranteed_by_others"`
	EffectiveCoverage       decimal.Decimal `json:"effective_coverage" db:"effective_coverage"`
	RemainingToCover        decimal.Decimal `json:"remaining_to_cover" db:"remaining_to_cover"`
	IsFullyCovered          bool            `json:"is_fully_covered" db:"is_fully_covered"`
	ProjectedPayment        decimal.Decimal `json:"projected_monthly_payment" db:"projected_payment"`
	ProjectedTermMonths     int             `json:"projected_term_months" db:"projected_term_months"`
	CreatedAt               time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at" db:"updated_at"`
}

// ApplyCoverage writes a coverage evaluation onto the application snapshot
// columns.
func (a *LoanApplication) ApplyCoverage(c Coverage) {
	a.SelfGuaranteedAmount = c.SelfGuaranteedAmount
	a.TotalGuaranteedByOthers = c.TotalGuaranteedByOthers
	a.EffectiveCoverage = c.EffectiveCoverage
	a.RemainingToCover = c.RemainingToCover
	a.IsFullyCovered = c.IsFullyCovered
}

// DTOs for requests and responses

type CreateLoanApplicationRequest struct {
	Product            string          `json:"product" validate:"required"`
	RequestedAmount    decimal.Decimal `json:"requested_amount" validate:"required,decimal_gt=0"`
	CalculationMode    string          `json:"calculation_mode" validate:"omitempty,oneof=fixed_term fixed_payment"`
	TermMonths         int             `json:"term_months" validate:"omitempty,gt=0"`
	MonthlyPayment     decimal.Decimal `json:"monthly_payment"`
	RepaymentFrequency string          `json:"repayment_frequency" validate:"omitempty,oneof=monthly"`
	StartDate          time.Time       `json:"start_date" validate:"required"`
}

type UpdateLoanApplicationRequest struct {
	RequestedAmount *decimal.Decimal `json:"requested_amount,omitempty"`
	TermMonths      *int             `json:"term_months,omitempty"`
	MonthlyPayment  *decimal.Decimal `json:"monthly_payment,omitempty"`
	StartDate       *time.Time       `json:"start_date,omitempty"`
}

type AmendLoanApplicationRequest struct {
	RequestedAmount *decimal.Decimal `json:"requested_amount,omitempty"`
	AmendmentNote   string           `json:"amendment_note" validate:"required"`
}

type StatusChangeRequest struct {
	Status string `json:"status" validate:"required,oneof=Approved Declined"`
}

// LoanApplicationDetail is the application together with its guarantee
// requests, as rendered by the detail pages.
type LoanApplicationDetail struct {
	*LoanApplication
	Guarantors []*GuaranteeRequest `json:"guarantors"`
}
