package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hazina/sacco-engine/internal/config"
	"github.com/hazina/sacco-engine/internal/domain"
	"github.com/hazina/sacco-engine/internal/repository"
	"github.com/hazina/sacco-engine/internal/repository/mocks"
	customError "github.com/hazina/sacco-engine/pkg/errors"
)

var (
	memberActor = domain.Actor{MemberNo: "M-001", Role: domain.RoleMember}
	otherActor  = domain.Actor{MemberNo: "M-002", Role: domain.RoleMember}
	adminActor  = domain.Actor{MemberNo: "A-001", Role: domain.RoleAdmin}
	ledgerActor = domain.Actor{MemberNo: "L-001", Role: domain.RoleLedger}
)

type serviceFixture struct {
	apps       *mocks.MockLoanApplicationRepository
	guarantees *mocks.MockGuaranteeRequestRepository
	guarantors *mocks.MockGuarantorProfileRepository
	products   *mocks.MockLoanProductRepository
	savings    *mocks.MockSavingsRepository

	applications *LoanApplicationService
	guaranteeSvc *GuaranteeService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		apps:       new(mocks.MockLoanApplicationRepository),
		guarantees: new(mocks.MockGuaranteeRequestRepository),
		guarantors: new(mocks.MockGuarantorProfileRepository),
		products:   new(mocks.MockLoanProductRepository),
		savings:    new(mocks.MockSavingsRepository),
	}

	uow := &mocks.StubUnitOfWork{Repos: repository.Repos{
		Applications: f.apps,
		Guarantees:   f.guarantees,
		Guarantors:   f.guarantors,
		Savings:      f.savings,
		Products:     f.products,
	}}

	cfg := &config.Config{
		Business: config.BusinessConfig{
			MaxActiveGuarantees: 5,
			ReminderAge:         "72h",
			CacheTTL:            "5m",
			NotificationChannel: "sacco:notifications",
		},
	}

	f.applications = NewLoanApplicationService(uow, f.apps, f.guarantees, f.products, f.savings, nil, cfg)
	f.guaranteeSvc = NewGuaranteeService(uow, f.guarantees, f.guarantors, nil, cfg)

	return f
}

func (f *serviceFixture) assertExpectations(t *testing.T) {
	f.apps.AssertExpectations(t)
	f.guarantees.AssertExpectations(t)
	f.guarantors.AssertExpectations(t)
	f.products.AssertExpectations(t)
	f.savings.AssertExpectations(t)
}

func developmentLoanProduct() *domain.LoanProduct {
	return &domain.LoanProduct{
		ID:            uuid.New(),
		Reference:     "LP-11111111",
		Name:          "Development Loan",
		InterestRate:  decimal.NewFromInt(12),
		MinAmount:     decimal.NewFromInt(1000),
		MaxAmount:     decimal.NewFromInt(1000000),
		MaxTermMonths: 48,
	}
}

func pendingApplication(member string) *domain.LoanApplication {
	return &domain.LoanApplication{
		ID:              uuid.New(),
		Reference:       "LA-AAAAAAAA",
		Member:          member,
		Product:         "Development Loan",
		RequestedAmount: decimal.NewFromInt(100000),
		CalculationMode: domain.ModeFixedTerm,
		TermMonths:      12,
		Status:          domain.StatusPending,
		StartDate:       time.Now().AddDate(0, 1, 0),
	}
}

func errNoRows() error {
	return sql.ErrNoRows
}

func assertBusinessCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var be *customError.BusinessError
	require.True(t, errors.As(err, &be), "expected business error, got %v", err)
	assert.Equal(t, code, be.Code)
}

func TestLoanApplicationService_Create(t *testing.T) {
	startDate := time.Now().AddDate(0, 1, 0)

	tests := []struct {
		name       string
		actor      domain.Actor
		req        *domain.CreateLoanApplicationRequest
		setupMocks func(f *serviceFixture)
		wantCode   string
		check      func(t *testing.T, app *domain.LoanApplication)
	}{
		{
			name:  "fixed term happy path",
			actor: memberActor,
			req: &domain.CreateLoanApplicationRequest{
				Product:         "Development Loan",
				RequestedAmount: decimal.NewFromInt(100000),
				TermMonths:      12,
				StartDate:       startDate,
			},
			setupMocks: func(f *serviceFixture) {
				f.products.On("GetByName", mock.Anything, "Development Loan").Return(developmentLoanProduct(), nil)
				f.savings.On("GetEligibleBalance", mock.Anything, "M-001").Return(decimal.NewFromInt(30000), nil)
				f.apps.On("Create", mock.Anything, mock.AnythingOfType("*domain.LoanApplication")).Return(nil)
			},
			check: func(t *testing.T, app *domain.LoanApplication) {
				assert.Equal(t, domain.StatusPending, app.Status)
				assert.Equal(t, domain.ModeFixedTerm, app.CalculationMode)
				assert.Equal(t, "monthly", app.RepaymentFrequency)
				assert.Equal(t, 12, app.ProjectedTermMonths)
				assert.True(t, app.ProjectedPayment.Equal(decimal.NewFromFloat(8884.88)))
				assert.True(t, app.RemainingToCover.Equal(decimal.NewFromInt(70000)))
				assert.False(t, app.IsFullyCovered)
			},
		},
		{
			name:  "fixed payment derives term",
			actor: memberActor,
			req: &domain.CreateLoanApplicationRequest{
				Product:         "Development Loan",
				RequestedAmount: decimal.NewFromInt(100000),
				MonthlyPayment:  decimal.NewFromInt(8885),
				StartDate:       startDate,
			},
			setupMocks: func(f *serviceFixture) {
				f.products.On("GetByName", mock.Anything, "Development Loan").Return(developmentLoanProduct(), nil)
				f.savings.On("GetEligibleBalance", mock.Anything, "M-001").Return(decimal.NewFromInt(30000), nil)
				f.apps.On("Create", mock.Anything, mock.AnythingOfType("*domain.LoanApplication")).Return(nil)
			},
			check: func(t *testing.T, app *domain.LoanApplication) {
				assert.Equal(t, domain.ModeFixedPayment, app.CalculationMode)
				assert.Equal(t, 12, app.ProjectedTermMonths)
				assert.Zero(t, app.TermMonths)
			},
		},
		{
			name:  "admins cannot apply",
			actor: adminActor,
			req: &domain.CreateLoanApplicationRequest{
				Product:         "Development Loan",
				RequestedAmount: decimal.NewFromInt(100000),
				TermMonths:      12,
				StartDate:       startDate,
			},
			wantCode: customError.ErrCodeForbidden,
		},
		{
			name:  "term and payment are mutually exclusive",
			actor: memberActor,
			req: &domain.CreateLoanApplicationRequest{
				Product:         "Development Loan",
				RequestedAmount: decimal.NewFromInt(100000),
				TermMonths:      12,
				MonthlyPayment:  decimal.NewFromInt(9000),
				StartDate:       startDate,
			},
			wantCode: customError.ErrCodeValidation,
		},
		{
			name:  "start date in the past",
			actor: memberActor,
			req: &domain.CreateLoanApplicationRequest{
				Product:         "Development Loan",
				RequestedAmount: decimal.NewFromInt(100000),
				TermMonths:      12,
				StartDate:       time.Now().AddDate(0, 0, -2),
			},
			wantCode: customError.ErrCodeValidation,
		},
		{
			name:  "payment below monthly interest",
			actor: memberActor,
			req: &domain.CreateLoanApplicationRequest{
				Product:         "Development Loan",
				RequestedAmount: decimal.NewFromInt(100000),
				MonthlyPayment:  decimal.NewFromInt(500),
				StartDate:       startDate,
			},
			setupMocks: func(f *serviceFixture) {
				f.products.On("GetByName", mock.Anything, "Development Loan").Return(developmentLoanProduct(), nil)
			},
			wantCode: customError.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			if tt.setupMocks != nil {
				tt.setupMocks(f)
			}

			app, err := f.applications.Create(context.Background(), tt.actor, tt.req)

			if tt.wantCode != "" {
				assertBusinessCode(t, err, tt.wantCode)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, app)
			assert.Contains(t, app.Reference, "LA-")
			assert.Equal(t, tt.actor.MemberNo, app.Member)
			tt.check(t, app)
			f.assertExpectations(t)
		})
	}
}

func TestLoanApplicationService_Transitions(t *testing.T) {
	tests := []struct {
		name       string
		fromStatus string
		actor      domain.Actor
		invoke     func(f *serviceFixture, ref string) (*domain.LoanApplication, error)
		setupMocks func(f *serviceFixture)
		wantStatus string
		wantCode   string
	}{
		{
			name:       "submit for amendment from pending",
			fromStatus: domain.StatusPending,
			actor:      memberActor,
			invoke: func(f *serviceFixture, ref string) (*domain.LoanApplication, error) {
				return f.applications.SubmitForAmendment(context.Background(), memberActor, ref)
			},
			wantStatus: domain.StatusReadyForAmendment,
		},
		{
			name:       "submit for amendment by non owner",
			fromStatus: domain.StatusPending,
			invoke: func(f *serviceFixture, ref string) (*domain.LoanApplication, error) {
				return f.applications.SubmitForAmendment(context.Background(), otherActor, ref)
			},
			wantCode: customError.ErrCodeForbidden,
		},
		{
			name:       "reject amendment cancels",
			fromStatus: domain.StatusAmended,
			invoke: func(f *serviceFixture, ref string) (*domain.LoanApplication, error) {
				return f.applications.RejectAmendment(context.Background(), memberActor, ref)
			},
			wantStatus: domain.StatusCancelled,
		},
		{
			name:       "submit requires ready for submission",
			fromStatus: domain.StatusPending,
			invoke: func(f *serviceFixture, ref string) (*domain.LoanApplication, error) {
				return f.applications.Submit(context.Background(), memberActor, ref)
			},
			wantCode: customError.ErrCodeInvalidTransition,
		},
		{
			name:       "submit from ready for submission",
			fromStatus: domain.StatusReadyForSubmission,
			invoke: func(f *serviceFixture, ref string) (*domain.LoanApplication, error) {
				return f.applications.Submit(context.Background(), memberActor, ref)
			},
			wantStatus: domain.StatusSubmitted,
		},
		{
			name:       "approve by admin",
			fromStatus: domain.StatusSubmitted,
			invoke: func(f *serviceFixture, ref string) (*domain.LoanApplication, error) {
				return f.applications.Approve(context.Background(), adminActor, ref)
			},
			wantStatus: domain.StatusApproved,
		},
		{
			name:       "approve by member is forbidden",
			fromStatus: domain.StatusSubmitted,
			invoke: func(f *serviceFixture, ref string) (*domain.LoanApplication, error) {
				return f.applications.Approve(context.Background(), memberActor, ref)
			},
			wantCode: customError.ErrCodeForbidden,
		},
		{
			name:       "decline by admin",
			fromStatus: domain.StatusSubmitted,
			invoke: func(f *serviceFixture, ref string) (*domain.LoanApplication, error) {
				return f.applications.Decline(context.Background(), adminActor, ref)
			},
			wantStatus: domain.StatusDeclined,
		},
		{
			name:       "decline of cancelled application",
			fromStatus: domain.StatusCancelled,
			invoke: func(f *serviceFixture, ref string) (*domain.LoanApplication, error) {
				return f.applications.Decline(context.Background(), adminActor, ref)
			},
			wantCode: customError.ErrCodeInvalidTransition,
		},
		{
			name:       "disburse by ledger",
			fromStatus: domain.StatusApproved,
			invoke: func(f *serviceFixture, ref string) (*domain.LoanApplication, error) {
				return f.applications.Disburse(context.Background(), ledgerActor, ref)
			},
			wantStatus: domain.StatusDisbursed,
		},
		{
			name:       "disburse by admin is forbidden",
			fromStatus: domain.StatusApproved,
			invoke: func(f *serviceFixture, ref string) (*domain.LoanApplication, error) {
				return f.applications.Disburse(context.Background(), adminActor, ref)
			},
			wantCode: customError.ErrCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()

			app := pendingApplication("M-001")
			app.Status = tt.fromStatus
			f.apps.On("GetByReferenceForUpdate", mock.Anything, app.Reference).Return(app, nil)
			if tt.wantCode == "" {
				f.apps.On("Update", mock.Anything, app).Return(nil)
			}
			if tt.setupMocks != nil {
				tt.setupMocks(f)
			}

			result, err := tt.invoke(f, app.Reference)

			if tt.wantCode != "" {
				assertBusinessCode(t, err, tt.wantCode)
				assert.Equal(t, tt.fromStatus, app.Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.Status)
			f.assertExpectations(t)
		})
	}
}

func TestLoanApplicationService_Amend(t *testing.T) {
	t.Run("amendment note is required", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.applications.Amend(context.Background(), adminActor, "LA-AAAAAAAA", &domain.AmendLoanApplicationRequest{})

		assertBusinessCode(t, err, customError.ErrCodeValidation)
	})

	t.Run("approved as-is keeps the amount", func(t *testing.T) {
		f := newServiceFixture()

		app := pendingApplication("M-001")
		app.Status = domain.StatusReadyForAmendment
		f.apps.On("GetByReferenceForUpdate", mock.Anything, app.Reference).Return(app, nil)
		f.apps.On("Update", mock.Anything, app).Return(nil)
		f.savings.On("GetEligibleBalance", mock.Anything, "M-001").Return(decimal.NewFromInt(30000), nil)
		f.guarantees.On("ListByApplication", mock.Anything, app.Reference).Return([]*domain.GuaranteeRequest{}, nil)

		result, err := f.applications.Amend(context.Background(), adminActor, app.Reference,
			&domain.AmendLoanApplicationRequest{AmendmentNote: "approved as-is"})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusAmended, result.Status)
		assert.Equal(t, "approved as-is", result.AmendmentNote)
		assert.True(t, result.RequestedAmount.Equal(decimal.NewFromInt(100000)))
		f.assertExpectations(t)
	})

	t.Run("amended amount reprojects and recomputes coverage", func(t *testing.T) {
		f := newServiceFixture()

		app := pendingApplication("M-001")
		app.Status = domain.StatusReadyForAmendment
		amended := decimal.NewFromInt(80000)
		f.apps.On("GetByReferenceForUpdate", mock.Anything, app.Reference).Return(app, nil)
		f.apps.On("Update", mock.Anything, app).Return(nil)
		f.products.On("GetByName", mock.Anything, "Development Loan").Return(developmentLoanProduct(), nil)
		f.savings.On("GetEligibleBalance", mock.Anything, "M-001").Return(decimal.NewFromInt(30000), nil)
		f.guarantees.On("ListByApplication", mock.Anything, app.Reference).Return([]*domain.GuaranteeRequest{}, nil)

		result, err := f.applications.Amend(context.Background(), adminActor, app.Reference,
			&domain.AmendLoanApplicationRequest{RequestedAmount: &amended, AmendmentNote: "reduced to fit exposure policy"})

		require.NoError(t, err)
		assert.True(t, result.RequestedAmount.Equal(amended))
		assert.True(t, result.RemainingToCover.Equal(decimal.NewFromInt(50000)))
		f.assertExpectations(t)
	})

	t.Run("member may not amend", func(t *testing.T) {
		f := newServiceFixture()

		app := pendingApplication("M-001")
		app.Status = domain.StatusReadyForAmendment
		f.apps.On("GetByReferenceForUpdate", mock.Anything, app.Reference).Return(app, nil)

		_, err := f.applications.Amend(context.Background(), memberActor, app.Reference,
			&domain.AmendLoanApplicationRequest{AmendmentNote: "sneaky"})

		assertBusinessCode(t, err, customError.ErrCodeForbidden)
	})
}

func TestLoanApplicationService_AcceptAmendment(t *testing.T) {
	tests := []struct {
		name       string
		savings    decimal.Decimal
		wantStatus string
	}{
		{"fully covered goes straight to ready for submission", decimal.NewFromInt(150000), domain.StatusReadyForSubmission},
		{"partial coverage needs guarantors", decimal.NewFromInt(30000), domain.StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()

			app := pendingApplication("M-001")
			app.Status = domain.StatusAmended
			f.apps.On("GetByReferenceForUpdate", mock.Anything, app.Reference).Return(app, nil)
			f.apps.On("Update", mock.Anything, app).Return(nil)
			f.savings.On("GetEligibleBalance", mock.Anything, "M-001").Return(tt.savings, nil)
			f.guarantees.On("ListByApplication", mock.Anything, app.Reference).Return([]*domain.GuaranteeRequest{}, nil)

			result, err := f.applications.AcceptAmendment(context.Background(), memberActor, app.Reference)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.Status)
			// Effective coverage never exceeds the requested amount.
			assert.True(t, result.EffectiveCoverage.LessThanOrEqual(result.RequestedAmount))
			f.assertExpectations(t)
		})
	}
}

func TestLoanApplicationService_Update(t *testing.T) {
	t.Run("revise amount while pending", func(t *testing.T) {
		f := newServiceFixture()

		app := pendingApplication("M-001")
		revised := decimal.NewFromInt(50000)
		f.apps.On("GetByReferenceForUpdate", mock.Anything, app.Reference).Return(app, nil)
		f.apps.On("Update", mock.Anything, app).Return(nil)
		f.products.On("GetByName", mock.Anything, "Development Loan").Return(developmentLoanProduct(), nil)
		f.savings.On("GetEligibleBalance", mock.Anything, "M-001").Return(decimal.NewFromInt(30000), nil)
		f.guarantees.On("ListByApplication", mock.Anything, app.Reference).Return([]*domain.GuaranteeRequest{}, nil)

		result, err := f.applications.Update(context.Background(), memberActor, app.Reference,
			&domain.UpdateLoanApplicationRequest{RequestedAmount: &revised})

		require.NoError(t, err)
		assert.True(t, result.RequestedAmount.Equal(revised))
		assert.True(t, result.RemainingToCover.Equal(decimal.NewFromInt(20000)))
		assert.Equal(t, domain.StatusPending, result.Status)
		f.assertExpectations(t)
	})

	t.Run("switching to fixed payment clears the term", func(t *testing.T) {
		f := newServiceFixture()

		app := pendingApplication("M-001")
		payment := decimal.NewFromInt(8885)
		f.apps.On("GetByReferenceForUpdate", mock.Anything, app.Reference).Return(app, nil)
		f.apps.On("Update", mock.Anything, app).Return(nil)
		f.products.On("GetByName", mock.Anything, "Development Loan").Return(developmentLoanProduct(), nil)
		f.savings.On("GetEligibleBalance", mock.Anything, "M-001").Return(decimal.NewFromInt(30000), nil)
		f.guarantees.On("ListByApplication", mock.Anything, app.Reference).Return([]*domain.GuaranteeRequest{}, nil)

		result, err := f.applications.Update(context.Background(), memberActor, app.Reference,
			&domain.UpdateLoanApplicationRequest{MonthlyPayment: &payment})

		require.NoError(t, err)
		assert.Equal(t, domain.ModeFixedPayment, result.CalculationMode)
		assert.Zero(t, result.TermMonths)
		assert.Equal(t, 12, result.ProjectedTermMonths)
		f.assertExpectations(t)
	})

	t.Run("update after submission is rejected", func(t *testing.T) {
		f := newServiceFixture()

		app := pendingApplication("M-001")
		app.Status = domain.StatusSubmitted
		revised := decimal.NewFromInt(50000)
		f.apps.On("GetByReferenceForUpdate", mock.Anything, app.Reference).Return(app, nil)

		_, err := f.applications.Update(context.Background(), memberActor, app.Reference,
			&domain.UpdateLoanApplicationRequest{RequestedAmount: &revised})

		assertBusinessCode(t, err, customError.ErrCodeInvalidTransition)
	})
}

func TestLoanApplicationService_Get(t *testing.T) {
	t.Run("owner sees detail with guarantors", func(t *testing.T) {
		f := newServiceFixture()

		app := pendingApplication("M-001")
		f.apps.On("GetByReference", mock.Anything, app.Reference).Return(app, nil)
		f.guarantees.On("ListByApplication", mock.Anything, app.Reference).Return([]*domain.GuaranteeRequest{}, nil)

		detail, err := f.applications.Get(context.Background(), memberActor, app.Reference)

		require.NoError(t, err)
		assert.Equal(t, app.Reference, detail.Reference)
		assert.Empty(t, detail.Guarantors)
		f.assertExpectations(t)
	})

	t.Run("other members are forbidden", func(t *testing.T) {
		f := newServiceFixture()

		app := pendingApplication("M-001")
		f.apps.On("GetByReference", mock.Anything, app.Reference).Return(app, nil)

		_, err := f.applications.Get(context.Background(), otherActor, app.Reference)

		assertBusinessCode(t, err, customError.ErrCodeForbidden)
	})

	t.Run("unknown reference", func(t *testing.T) {
		f := newServiceFixture()

		f.apps.On("GetByReference", mock.Anything, "LA-MISSING1").Return(nil, errNoRows())

		_, err := f.applications.Get(context.Background(), adminActor, "LA-MISSING1")

		assertBusinessCode(t, err, customError.ErrCodeNotFound)
	})
}

func TestLoanApplicationService_List(t *testing.T) {
	t.Run("members list their own", func(t *testing.T) {
		f := newServiceFixture()

		f.apps.On("ListByMember", mock.Anything, "M-001").Return([]*domain.LoanApplication{pendingApplication("M-001")}, nil)

		apps, err := f.applications.List(context.Background(), memberActor)

		require.NoError(t, err)
		assert.Len(t, apps, 1)
		f.assertExpectations(t)
	})

	t.Run("admins list everything", func(t *testing.T) {
		f := newServiceFixture()

		f.apps.On("List", mock.Anything).Return([]*domain.LoanApplication{
			pendingApplication("M-001"),
			pendingApplication("M-002"),
		}, nil)

		apps, err := f.applications.List(context.Background(), adminActor)

		require.NoError(t, err)
		assert.Len(t, apps, 2)
		f.assertExpectations(t)
	})
}

// TestLoanApplicationWorkflow_GuaranteedToApproval walks one application from
// creation through amendment, a guarantee that completes coverage, submission
// and approval.
func TestLoanApplicationWorkflow_GuaranteedToApproval(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	savings := decimal.NewFromInt(30000)

	f.products.On("GetByName", mock.Anything, "Development Loan").Return(developmentLoanProduct(), nil)
	f.savings.On("GetEligibleBalance", mock.Anything, "M-001").Return(savings, nil)
	f.apps.On("Create", mock.Anything, mock.AnythingOfType("*domain.LoanApplication")).Return(nil)
	f.apps.On("Update", mock.Anything, mock.AnythingOfType("*domain.LoanApplication")).Return(nil)

	app, err := f.applications.Create(ctx, memberActor, &domain.CreateLoanApplicationRequest{
		Product:         "Development Loan",
		RequestedAmount: decimal.NewFromInt(100000),
		TermMonths:      12,
		StartDate:       time.Now().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.True(t, app.RemainingToCover.Equal(decimal.NewFromInt(70000)))

	f.apps.On("GetByReferenceForUpdate", mock.Anything, app.Reference).Return(app, nil)

	app, err = f.applications.SubmitForAmendment(ctx, memberActor, app.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReadyForAmendment, app.Status)

	// No guarantees exist before the invitation goes out.
	f.guarantees.On("ListByApplication", mock.Anything, app.Reference).
		Return([]*domain.GuaranteeRequest{}, nil).Times(3)

	app, err = f.applications.Amend(ctx, adminActor, app.Reference,
		&domain.AmendLoanApplicationRequest{AmendmentNote: "approved as-is"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAmended, app.Status)

	app, err = f.applications.AcceptAmendment(ctx, memberActor, app.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, app.Status)
	assert.True(t, app.RemainingToCover.Equal(decimal.NewFromInt(70000)))

	// The applicant invites M-002 to cover the gap.
	var invite *domain.GuaranteeRequest
	f.guarantors.On("GetByMember", mock.Anything, "M-002").Return(&domain.GuarantorProfile{Member: "M-002"}, nil)
	f.guarantees.On("HasPending", mock.Anything, app.Reference, "M-002").Return(false, nil)
	f.guarantees.On("Create", mock.Anything, mock.AnythingOfType("*domain.GuaranteeRequest")).
		Run(func(args mock.Arguments) { invite = args.Get(1).(*domain.GuaranteeRequest) }).
		Return(nil)

	invite, err = f.guaranteeSvc.Create(ctx, memberActor, &domain.CreateGuaranteeRequestRequest{
		Guarantor:       "M-002",
		LoanApplication: app.Reference,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GuaranteeStatusPending, invite.Status)
	assert.Equal(t, "M-001", invite.Applicant)

	// M-002 accepts 70000, which completes coverage and advances the
	// application without a further member action.
	profile := &domain.GuarantorProfile{
		Member:              "M-002",
		AvailableAmount:     decimal.NewFromInt(80000),
		CommittedAmount:     decimal.Zero,
		MaxActiveGuarantees: 5,
	}
	f.guarantees.On("GetByReference", mock.Anything, invite.Reference).Return(invite, nil)
	f.guarantees.On("GetByReferenceForUpdate", mock.Anything, invite.Reference).Return(invite, nil)
	f.guarantees.On("Update", mock.Anything, invite).Return(nil)
	f.guarantors.On("GetByMemberForUpdate", mock.Anything, "M-002").Return(profile, nil)
	f.guarantors.On("Update", mock.Anything, profile).Return(nil)
	f.guarantees.On("ListByApplication", mock.Anything, app.Reference).
		Return([]*domain.GuaranteeRequest{invite}, nil)

	resolved, err := f.guaranteeSvc.Respond(ctx, otherActor, invite.Reference, &domain.RespondGuaranteeRequest{
		Status:           domain.GuaranteeStatusAccepted,
		GuaranteedAmount: decimal.NewFromInt(70000),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GuaranteeStatusAccepted, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	assert.Equal(t, domain.StatusReadyForSubmission, app.Status)
	assert.True(t, app.IsFullyCovered)
	assert.True(t, app.RemainingToCover.IsZero())

	// Capacity moved from available to committed atomically with the accept.
	assert.True(t, profile.AvailableAmount.Equal(decimal.NewFromInt(10000)))
	assert.True(t, profile.CommittedAmount.Equal(decimal.NewFromInt(70000)))
	assert.Equal(t, 1, profile.ActiveGuarantees)

	app, err = f.applications.Submit(ctx, memberActor, app.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, app.Status)

	app, err = f.applications.Approve(ctx, adminActor, app.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, app.Status)
	f.assertExpectations(t)
}

// TestLoanApplicationWorkflow_DeclinedGuarantee checks that a declined
// guarantee leaves the application In Progress and that the applicant may then
// invite someone else.
func TestLoanApplicationWorkflow_DeclinedGuarantee(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	app := pendingApplication("M-001")
	app.Status = domain.StatusInProgress
	app.ApplyCoverage(domain.ComputeCoverage(app.RequestedAmount, decimal.NewFromInt(30000), nil))

	invite := &domain.GuaranteeRequest{
		ID:              uuid.New(),
		Reference:       "GR-BBBBBBBB",
		LoanApplication: app.Reference,
		Applicant:       "M-001",
		Guarantor:       "M-002",
		Status:          domain.GuaranteeStatusPending,
	}

	f.apps.On("GetByReferenceForUpdate", mock.Anything, app.Reference).Return(app, nil)
	f.apps.On("Update", mock.Anything, app).Return(nil)
	f.savings.On("GetEligibleBalance", mock.Anything, "M-001").Return(decimal.NewFromInt(30000), nil)
	f.guarantees.On("GetByReference", mock.Anything, invite.Reference).Return(invite, nil)
	f.guarantees.On("GetByReferenceForUpdate", mock.Anything, invite.Reference).Return(invite, nil)
	f.guarantees.On("Update", mock.Anything, invite).Return(nil)
	f.guarantees.On("ListByApplication", mock.Anything, app.Reference).
		Return([]*domain.GuaranteeRequest{invite}, nil)

	resolved, err := f.guaranteeSvc.Respond(ctx, otherActor, invite.Reference, &domain.RespondGuaranteeRequest{
		Status: domain.GuaranteeStatusDeclined,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GuaranteeStatusDeclined, resolved.Status)
	assert.True(t, resolved.GuaranteedAmount.IsZero())

	// Declines contribute nothing; the application stays where it was.
	assert.Equal(t, domain.StatusInProgress, app.Status)
	assert.True(t, app.RemainingToCover.Equal(decimal.NewFromInt(70000)))

	// A fresh invitation to another guarantor is allowed.
	f.guarantors.On("GetByMember", mock.Anything, "M-003").Return(&domain.GuarantorProfile{Member: "M-003"}, nil)
	f.guarantees.On("HasPending", mock.Anything, app.Reference, "M-003").Return(false, nil)
	f.guarantees.On("Create", mock.Anything, mock.AnythingOfType("*domain.GuaranteeRequest")).Return(nil)

	second, err := f.guaranteeSvc.Create(ctx, memberActor, &domain.CreateGuaranteeRequestRequest{
		Guarantor:       "M-003",
		LoanApplication: app.Reference,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GuaranteeStatusPending, second.Status)
	assert.Equal(t, "M-003", second.Guarantor)
	f.assertExpectations(t)
}
