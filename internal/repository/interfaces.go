package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hazina/sacco-engine/internal/domain"
)

// LoanApplicationRepository defines the interface for loan application data operations
type LoanApplicationRepository interface {
	// Create persists a new loan application
	Create(ctx context.Context, app *domain.LoanApplication) error

	// GetByReference retrieves a loan application by its reference
	GetByReference(ctx context.Context, reference string) (*domain.LoanApplication, error)

	// GetByReferenceForUpdate retrieves and row-locks a loan application;
	// only meaningful inside a unit-of-work transaction
	GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.LoanApplication, error)

	// Update writes the mutable and derived columns of an application
	Update(ctx context.Context, app *domain.LoanApplication) error

	// ListByMember retrieves all applications owned by a member
	ListByMember(ctx context.Context, member string) ([]*domain.LoanApplication, error)

	// List retrieves all applications (admin view)
	List(ctx context.Context) ([]*domain.LoanApplication, error)

	// ListByStatus retrieves applications in the given status
	ListByStatus(ctx context.Context, status string) ([]*domain.LoanApplication, error)
}

// GuaranteeRequestRepository defines the interface for guarantee request data operations
type GuaranteeRequestRepository interface {
	// Create persists a new guarantee request
	Create(ctx context.Context, req *domain.GuaranteeRequest) error

	// GetByReference retrieves a guarantee request by its reference
	GetByReference(ctx context.Context, reference string) (*domain.GuaranteeRequest, error)

	// GetByReferenceForUpdate retrieves and row-locks a guarantee request
	GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.GuaranteeRequest, error)

	// Update writes status, amount and resolution time
	Update(ctx context.Context, req *domain.GuaranteeRequest) error

	// ListByApplication retrieves all requests attached to an application,
	// oldest first
	ListByApplication(ctx context.Context, applicationRef string) ([]*domain.GuaranteeRequest, error)

	// ListByGuarantor retrieves all requests addressed to a guarantor
	ListByGuarantor(ctx context.Context, guarantor string) ([]*domain.GuaranteeRequest, error)

	// HasPending reports whether a Pending request to the guarantor already
	// exists for the application
	HasPending(ctx context.Context, applicationRef, guarantor string) (bool, error)

	// ListPendingOlderThan retrieves Pending requests created before the cutoff
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.GuaranteeRequest, error)
}

// GuarantorProfileRepository defines the interface for guarantor capacity accounting
type GuarantorProfileRepository interface {
	// Create persists a new guarantor profile
	Create(ctx context.Context, profile *domain.GuarantorProfile) error

	// GetByMember retrieves a profile by member number
	GetByMember(ctx context.Context, member string) (*domain.GuarantorProfile, error)

	// GetByMemberForUpdate retrieves and row-locks a profile
	GetByMemberForUpdate(ctx context.Context, member string) (*domain.GuarantorProfile, error)

	// Update writes the capacity columns
	Update(ctx context.Context, profile *domain.GuarantorProfile) error

	// List retrieves all guarantor profiles
	List(ctx context.Context) ([]*domain.GuarantorProfile, error)
}

// SavingsRepository reads the savings ledger. The engine never writes savings;
// balances feed the self-guaranteed leg of the coverage calculation.
type SavingsRepository interface {
	// GetEligibleBalance returns the member's savings balance eligible as
	// loan security
	GetEligibleBalance(ctx context.Context, member string) (decimal.Decimal, error)
}

// LoanProductRepository defines the interface for the loan product catalog
type LoanProductRepository interface {
	Create(ctx context.Context, product *domain.LoanProduct) error
	GetByReference(ctx context.Context, reference string) (*domain.LoanProduct, error)
	GetByName(ctx context.Context, name string) (*domain.LoanProduct, error)
	Update(ctx context.Context, product *domain.LoanProduct) error
	List(ctx context.Context) ([]*domain.LoanProduct, error)
}

// Repos bundles transaction-scoped repositories handed to unit-of-work
// callbacks.
type Repos struct {
	Applications LoanApplicationRepository
	Guarantees   GuaranteeRequestRepository
	Guarantors   GuarantorProfileRepository
	Savings      SavingsRepository
	Products     LoanProductRepository
}

// UnitOfWork runs a function against transaction-scoped repositories. Either
// every write inside the callback commits, or none does.
type UnitOfWork interface {
	// WithinTx runs fn inside a database transaction
	WithinTx(ctx context.Context, fn func(r Repos) error) error

	// WithinApplicationTx locks the application row up-front, serializing
	// coverage evaluation and status writes per application
	WithinApplicationTx(ctx context.Context, reference string, fn func(r Repos, app *domain.LoanApplication) error) error
}
