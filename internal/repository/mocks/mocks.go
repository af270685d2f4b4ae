package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/hazina/sacco-engine/internal/domain"
	"github.com/hazina/sacco-engine/internal/repository"
)

type MockLoanApplicationRepository struct {
	mock.Mock
}

func (m *MockLoanApplicationRepository) Create(ctx context.Context, app *domain.LoanApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockLoanApplicationRepository) GetByReference(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanApplicationRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanApplicationRepository) Update(ctx context.Context, app *domain.LoanApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockLoanApplicationRepository) ListByMember(ctx context.Context, member string) ([]*domain.LoanApplication, error) {
	args := m.Called(ctx, member)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanApplicationRepository) List(ctx context.Context) ([]*domain.LoanApplication, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanApplicationRepository) ListByStatus(ctx context.Context, status string) ([]*domain.LoanApplication, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanApplication), args.Error(1)
}

type MockGuaranteeRequestRepository struct {
	mock.Mock
}

func (m *MockGuaranteeRequestRepository) Create(ctx context.Context, req *domain.GuaranteeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockGuaranteeRequestRepository) GetByReference(ctx context.Context, reference string) (*domain.GuaranteeRequest, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GuaranteeRequest), args.Error(1)
}

func (m *MockGuaranteeRequestRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.GuaranteeRequest, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GuaranteeRequest), args.Error(1)
}

func (m *MockGuaranteeRequestRepository) Update(ctx context.Context, req *domain.GuaranteeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockGuaranteeRequestRepository) ListByApplication(ctx context.Context, applicationRef string) ([]*domain.GuaranteeRequest, error) {
	args := m.Called(ctx, applicationRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GuaranteeRequest), args.Error(1)
}

func (m *MockGuaranteeRequestRepository) ListByGuarantor(ctx context.Context, guarantor string) ([]*domain.GuaranteeRequest, error) {
	args := m.Called(ctx, guarantor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GuaranteeRequest), args.Error(1)
}

func (m *MockGuaranteeRequestRepository) HasPending(ctx context.Context, applicationRef, guarantor string) (bool, error) {
	args := m.Called(ctx, applicationRef, guarantor)
	return args.Bool(0), args.Error(1)
}

func (m *MockGuaranteeRequestRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.GuaranteeRequest, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GuaranteeRequest), args.Error(1)
}

type MockGuarantorProfileRepository struct {
	mock.Mock
}

func (m *MockGuarantorProfileRepository) Create(ctx context.Context, profile *domain.GuarantorProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockGuarantorProfileRepository) GetByMember(ctx context.Context, member string) (*domain.GuarantorProfile, error) {
	args := m.Called(ctx, member)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GuarantorProfile), args.Error(1)
}

func (m *MockGuarantorProfileRepository) GetByMemberForUpdate(ctx context.Context, member string) (*domain.GuarantorProfile, error) {
	args := m.Called(ctx, member)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GuarantorProfile), args.Error(1)
}

func (m *MockGuarantorProfileRepository) Update(ctx context.Context, profile *domain.GuarantorProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockGuarantorProfileRepository) List(ctx context.Context) ([]*domain.GuarantorProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GuarantorProfile), args.Error(1)
}

type MockSavingsRepository struct {
	mock.Mock
}

func (m *MockSavingsRepository) GetEligibleBalance(ctx context.Context, member string) (decimal.Decimal, error) {
	args := m.Called(ctx, member)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockLoanProductRepository struct {
	mock.Mock
}

func (m *MockLoanProductRepository) Create(ctx context.Context, product *domain.LoanProduct) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockLoanProductRepository) GetByReference(ctx context.Context, reference string) (*domain.LoanProduct, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanProduct), args.Error(1)
}

func (m *MockLoanProductRepository) GetByName(ctx context.Context, name string) (*domain.LoanProduct, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanProduct), args.Error(1)
}

func (m *MockLoanProductRepository) Update(ctx context.Context, product *domain.LoanProduct) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockLoanProductRepository) List(ctx context.Context) ([]*domain.LoanProduct, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanProduct), args.Error(1)
}

// StubUnitOfWork runs callbacks directly against the provided repositories,
// with no transaction. The row "lock" degrades to a plain read.
type StubUnitOfWork struct {
	Repos repository.Repos
}

func (u *StubUnitOfWork) WithinTx(ctx context.Context, fn func(r repository.Repos) error) error {
	return fn(u.Repos)
}

func (u *StubUnitOfWork) WithinApplicationTx(ctx context.Context, reference string, fn func(r repository.Repos, app *domain.LoanApplication) error) error {
	app, err := u.Repos.Applications.GetByReferenceForUpdate(ctx, reference)
	if err != nil {
		return err
	}
	return fn(u.Repos, app)
}
