package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GuarantorProfile tracks how much guarantee capacity a member has left.
// available_amount and active_guarantees_count bound what any single
// guarantee request may be accepted for, and both move atomically with the
// request status.
type GuarantorProfile struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	Reference           string          `json:"reference" db:"reference"`
	Member              string          `json:"member" db:"member"`
	MemberName          string          `json:"member_name" db:"member_name"`
	AvailableAmount     decimal.Decimal `json:"available_amount" db:"available_amount"`
	CommittedAmount     decimal.Decimal `json:"committed_amount" db:"committed_amount"`
	ActiveGuarantees    int             `json:"active_guarantees_count" db:"active_guarantees_count"`
	MaxActiveGuarantees int             `json:"max_active_guarantees" db:"max_active_guarantees"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// CanAccept reports whether the profile has room for one more guarantee of
// the given amount. The reason string feeds the CAPACITY_EXCEEDED error.
func (p *GuarantorProfile) CanAccept(amount decimal.Decimal) (bool, string) {
	if p.ActiveGuarantees >= p.MaxActiveGuarantees {
		return false, "maximum number of active guarantees reached"
	}
	if amount.GreaterThan(p.AvailableAmount) {
		return false, "guaranteed amount exceeds available limit"
	}
	return true, ""
}

// Commit moves capacity from available to committed for one accepted
// guarantee.
func (p *GuarantorProfile) Commit(amount decimal.Decimal) {
	p.AvailableAmount = p.AvailableAmount.Sub(amount)
	p.CommittedAmount = p.CommittedAmount.Add(amount)
	p.ActiveGuarantees++
}

// DTOs for requests and responses

type CreateGuarantorProfileRequest struct {
	Member              string          `json:"member" validate:"required"`
	MemberName          string          `json:"member_name" validate:"required"`
	AvailableAmount     decimal.Decimal `json:"available_amount" validate:"required,decimal_gte=0"`
	MaxActiveGuarantees int             `json:"max_active_guarantees" validate:"omitempty,gt=0"`
}
