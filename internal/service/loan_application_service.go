package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/hazina/sacco-engine/internal/config"
	"github.com/hazina/sacco-engine/internal/domain"
	"github.com/hazina/sacco-engine/internal/repository"
	customError "github.com/hazina/sacco-engine/pkg/errors"
	"github.com/hazina/sacco-engine/pkg/utils"
)

// LoanApplicationService orchestrates the loan application lifecycle. Every
// transition runs inside a unit of work that locks the application row, so
// coverage evaluation and status writes are serialized per application.
type LoanApplicationService struct {
	uow        repository.UnitOfWork
	apps       repository.LoanApplicationRepository
	guarantees repository.GuaranteeRequestRepository
	products   repository.LoanProductRepository
	savings    repository.SavingsRepository
	redis      *redis.Client
	config     *config.Config
}

func NewLoanApplicationService(
	uow repository.UnitOfWork,
	apps repository.LoanApplicationRepository,
	guarantees repository.GuaranteeRequestRepository,
	products repository.LoanProductRepository,
	savings repository.SavingsRepository,
	redisClient *redis.Client,
	cfg *config.Config,
) *LoanApplicationService {
	return &LoanApplicationService{
		uow:        uow,
		apps:       apps,
		guarantees: guarantees,
		products:   products,
		savings:    savings,
		redis:      redisClient,
		config:     cfg,
	}
}

func applicationCacheKey(reference string) string {
	return "loanapp:" + reference
}

// Create validates the request and opens a new application in Pending.
func (s *LoanApplicationService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateLoanApplicationRequest) (*domain.LoanApplication, error) {
	if !actor.IsMember() {
		return nil, customError.WrapForbidden("only members may create loan applications")
	}

	mode, err := resolveCalculationMode(req.CalculationMode, req.TermMonths, req.MonthlyPayment)
	if err != nil {
		return nil, err
	}

	if req.RequestedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, customError.WrapValidation("requested_amount must be positive")
	}

	if utils.IsDateInPast(req.StartDate) {
		return nil, customError.WrapValidation("start_date cannot be in the past")
	}

	frequency := req.RepaymentFrequency
	if frequency == "" {
		frequency = "monthly"
	}

	now := time.Now()
	app := &domain.LoanApplication{
		ID:                 uuid.New(),
		Reference:          utils.NewReference("LA"),
		Member:             actor.MemberNo,
		Product:            req.Product,
		RequestedAmount:    req.RequestedAmount,
		CalculationMode:    mode,
		RepaymentFrequency: frequency,
		StartDate:          req.StartDate,
		Status:             domain.StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	switch mode {
	case domain.ModeFixedTerm:
		app.TermMonths = req.TermMonths
		app.MonthlyPayment = decimal.Zero
	case domain.ModeFixedPayment:
		app.MonthlyPayment = req.MonthlyPayment
		app.TermMonths = 0
	}

	if err := applyProjection(ctx, s.products, app); err != nil {
		return nil, err
	}

	balance, err := s.savings.GetEligibleBalance(ctx, actor.MemberNo)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	app.ApplyCoverage(domain.ComputeCoverage(app.RequestedAmount, balance, nil))

	if err := s.apps.Create(ctx, app); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	publishEvent(ctx, s.redis, s.config.Business.NotificationChannel, Event{
		Type:      "loan_application.created",
		Reference: app.Reference,
		Member:    app.Member,
	})

	return app, nil
}

// Update lets the owner revise amount, term and start date while the
// application is still Pending.
func (s *LoanApplicationService) Update(ctx context.Context, actor domain.Actor, reference string, req *domain.UpdateLoanApplicationRequest) (*domain.LoanApplication, error) {
	return s.transition(ctx, reference, domain.ActionUpdate,
		requireOwner(actor),
		func(r repository.Repos, app *domain.LoanApplication) error {
			if req.RequestedAmount != nil {
				if req.RequestedAmount.LessThanOrEqual(decimal.Zero) {
					return customError.WrapValidation("requested_amount must be positive")
				}
				app.RequestedAmount = *req.RequestedAmount
			}

			if req.TermMonths != nil && req.MonthlyPayment != nil {
				return customError.WrapValidation("term_months and monthly_payment are mutually exclusive")
			}
			if req.TermMonths != nil {
				if *req.TermMonths <= 0 {
					return customError.WrapValidation("term_months must be positive")
				}
				app.CalculationMode = domain.ModeFixedTerm
				app.TermMonths = *req.TermMonths
				app.MonthlyPayment = decimal.Zero
			}
			if req.MonthlyPayment != nil {
				if req.MonthlyPayment.LessThanOrEqual(decimal.Zero) {
					return customError.WrapValidation("monthly_payment must be positive")
				}
				app.CalculationMode = domain.ModeFixedPayment
				app.MonthlyPayment = *req.MonthlyPayment
				app.TermMonths = 0
			}

			if req.StartDate != nil {
				if utils.IsDateInPast(*req.StartDate) {
					return customError.WrapValidation("start_date cannot be in the past")
				}
				app.StartDate = *req.StartDate
			}

			if err := applyProjection(ctx, r.Products, app); err != nil {
				return err
			}
			return recomputeCoverage(ctx, r, app)
		})
}

// SubmitForAmendment hands a Pending application to the admins for review.
func (s *LoanApplicationService) SubmitForAmendment(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error) {
	return s.transition(ctx, reference, domain.ActionSubmitForAmendment,
		requireOwner(actor),
		func(r repository.Repos, app *domain.LoanApplication) error {
			app.Status = domain.StatusReadyForAmendment
			return nil
		})
}

// Amend records the admin decision. The note is mandatory even when the
// requested amount is unchanged, so every decision point carries an auditable
// justification.
func (s *LoanApplicationService) Amend(ctx context.Context, actor domain.Actor, reference string, req *domain.AmendLoanApplicationRequest) (*domain.LoanApplication, error) {
	if req.AmendmentNote == "" {
		return nil, customError.WrapValidation("amendment_note is required")
	}

	return s.transition(ctx, reference, domain.ActionAmend,
		requireAdmin(actor),
		func(r repository.Repos, app *domain.LoanApplication) error {
			if req.RequestedAmount != nil {
				if req.RequestedAmount.LessThanOrEqual(decimal.Zero) {
					return customError.WrapValidation("requested_amount must be positive")
				}
				app.RequestedAmount = *req.RequestedAmount
				if err := applyProjection(ctx, r.Products, app); err != nil {
					return err
				}
			}

			app.AmendmentNote = req.AmendmentNote
			app.Status = domain.StatusAmended
			return recomputeCoverage(ctx, r, app)
		})
}

// AcceptAmendment moves the application forward; the resulting status is
// derived from coverage, not chosen by the member.
func (s *LoanApplicationService) AcceptAmendment(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error) {
	return s.transition(ctx, reference, domain.ActionAcceptAmendment,
		requireOwner(actor),
		func(r repository.Repos, app *domain.LoanApplication) error {
			if err := recomputeCoverage(ctx, r, app); err != nil {
				return err
			}
			if app.IsFullyCovered {
				app.Status = domain.StatusReadyForSubmission
			} else {
				app.Status = domain.StatusInProgress
			}
			return nil
		})
}

// RejectAmendment cancels the application; the workflow ends here.
func (s *LoanApplicationService) RejectAmendment(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error) {
	return s.transition(ctx, reference, domain.ActionRejectAmendment,
		requireOwner(actor),
		func(r repository.Repos, app *domain.LoanApplication) error {
			app.Status = domain.StatusCancelled
			return nil
		})
}

// Submit sends a fully covered application to the admins for approval.
func (s *LoanApplicationService) Submit(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error) {
	return s.transition(ctx, reference, domain.ActionSubmit,
		requireOwner(actor),
		func(r repository.Repos, app *domain.LoanApplication) error {
			app.Status = domain.StatusSubmitted
			return nil
		})
}

// Approve is the admin decision on a Submitted application.
func (s *LoanApplicationService) Approve(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error) {
	return s.transition(ctx, reference, domain.ActionApprove,
		requireAdmin(actor),
		func(r repository.Repos, app *domain.LoanApplication) error {
			app.Status = domain.StatusApproved
			return nil
		})
}

// Decline is the admin decision on a Submitted application.
func (s *LoanApplicationService) Decline(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error) {
	return s.transition(ctx, reference, domain.ActionDecline,
		requireAdmin(actor),
		func(r repository.Repos, app *domain.LoanApplication) error {
			app.Status = domain.StatusDeclined
			return nil
		})
}

// Disburse is invoked by the disbursement ledger once funds have moved.
func (s *LoanApplicationService) Disburse(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplication, error) {
	return s.transition(ctx, reference, domain.ActionDisburse,
		requireLedger(actor),
		func(r repository.Repos, app *domain.LoanApplication) error {
			app.Status = domain.StatusDisbursed
			return nil
		})
}

// Get returns the application with its guarantee requests. Members only see
// their own applications.
func (s *LoanApplicationService) Get(ctx context.Context, actor domain.Actor, reference string) (*domain.LoanApplicationDetail, error) {
	var detail domain.LoanApplicationDetail
	if cacheGet(ctx, s.redis, applicationCacheKey(reference), &detail) {
		if err := authorizeView(actor, detail.LoanApplication); err != nil {
			return nil, err
		}
		return &detail, nil
	}

	app, err := s.apps.GetByReference(ctx, reference)
	if err != nil {
		return nil, asNotFound(err, "loan application", reference)
	}

	if err := authorizeView(actor, app); err != nil {
		return nil, err
	}

	guarantors, err := s.guarantees.ListByApplication(ctx, reference)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	detail = domain.LoanApplicationDetail{LoanApplication: app, Guarantors: guarantors}
	cacheSet(ctx, s.redis, applicationCacheKey(reference), &detail, s.config.GetCacheTTL())

	return &detail, nil
}

// List returns the caller's applications, or all of them for admins.
func (s *LoanApplicationService) List(ctx context.Context, actor domain.Actor) ([]*domain.LoanApplication, error) {
	if actor.IsMember() {
		apps, err := s.apps.ListByMember(ctx, actor.MemberNo)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		return apps, nil
	}

	apps, err := s.apps.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return apps, nil
}

// transition runs one guarded state-machine step inside the per-application
// lock: authorize, check the transition table, mutate, persist.
func (s *LoanApplicationService) transition(
	ctx context.Context,
	reference string,
	action domain.Action,
	authorize func(*domain.LoanApplication) error,
	mutate func(repository.Repos, *domain.LoanApplication) error,
) (*domain.LoanApplication, error) {
	var result *domain.LoanApplication

	err := s.uow.WithinApplicationTx(ctx, reference, func(r repository.Repos, app *domain.LoanApplication) error {
		if err := authorize(app); err != nil {
			return err
		}

		if !domain.CanPerform(app.Status, action) {
			return customError.WrapInvalidTransition(string(action), app.Status)
		}

		if err := mutate(r, app); err != nil {
			return err
		}

		if err := r.Applications.Update(ctx, app); err != nil {
			return customError.WrapDatabaseError(err)
		}

		result = app
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err, "loan application", reference)
	}

	cacheInvalidate(ctx, s.redis, applicationCacheKey(reference))
	publishEvent(ctx, s.redis, s.config.Business.NotificationChannel, Event{
		Type:      "loan_application." + string(action),
		Reference: reference,
		Member:    result.Member,
	})

	return result, nil
}

func resolveCalculationMode(mode string, termMonths int, monthlyPayment decimal.Decimal) (string, error) {
	hasTerm := termMonths > 0
	hasPayment := monthlyPayment.GreaterThan(decimal.Zero)

	switch mode {
	case "":
		switch {
		case hasTerm && !hasPayment:
			return domain.ModeFixedTerm, nil
		case hasPayment && !hasTerm:
			return domain.ModeFixedPayment, nil
		default:
			return "", customError.WrapValidation("exactly one of term_months or monthly_payment must be set")
		}
	case domain.ModeFixedTerm:
		if !hasTerm || hasPayment {
			return "", customError.WrapValidation("fixed_term requires term_months and no monthly_payment")
		}
		return domain.ModeFixedTerm, nil
	case domain.ModeFixedPayment:
		if !hasPayment || hasTerm {
			return "", customError.WrapValidation("fixed_payment requires monthly_payment and no term_months")
		}
		return domain.ModeFixedPayment, nil
	default:
		return "", customError.WrapValidation("calculation_mode must be fixed_term or fixed_payment")
	}
}

// applyProjection recomputes the advisory repayment projection from the
// product's interest rate.
func applyProjection(ctx context.Context, products repository.LoanProductRepository, app *domain.LoanApplication) error {
	product, err := products.GetByName(ctx, app.Product)
	if err != nil {
		return asNotFound(err, "loan product", app.Product)
	}

	switch app.CalculationMode {
	case domain.ModeFixedTerm:
		app.ProjectedPayment = utils.CalculateMonthlyPayment(app.RequestedAmount, product.InterestRate, app.TermMonths)
		app.ProjectedTermMonths = app.TermMonths
	case domain.ModeFixedPayment:
		term, err := utils.DeriveTermMonths(app.RequestedAmount, product.InterestRate, app.MonthlyPayment)
		if err != nil {
			return customError.WrapValidation(err.Error())
		}
		app.ProjectedTermMonths = term
		app.ProjectedPayment = app.MonthlyPayment
	}

	return nil
}

// recomputeCoverage re-evaluates the coverage snapshot from the savings
// ledger and the accepted guarantees. Callers hold the application row lock.
func recomputeCoverage(ctx context.Context, r repository.Repos, app *domain.LoanApplication) error {
	balance, err := r.Savings.GetEligibleBalance(ctx, app.Member)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	requests, err := r.Guarantees.ListByApplication(ctx, app.Reference)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	accepted := make([]decimal.Decimal, 0, len(requests))
	for _, g := range requests {
		if g.Status == domain.GuaranteeStatusAccepted {
			accepted = append(accepted, g.GuaranteedAmount)
		}
	}

	app.ApplyCoverage(domain.ComputeCoverage(app.RequestedAmount, balance, accepted))
	return nil
}

func requireOwner(actor domain.Actor) func(*domain.LoanApplication) error {
	return func(app *domain.LoanApplication) error {
		if !actor.IsMember() || actor.MemberNo != app.Member {
			return customError.WrapForbidden("only the applicant may perform this operation")
		}
		return nil
	}
}

func requireAdmin(actor domain.Actor) func(*domain.LoanApplication) error {
	return func(app *domain.LoanApplication) error {
		if !actor.IsAdmin() {
			return customError.WrapForbidden("only admins may perform this operation")
		}
		return nil
	}
}

func requireLedger(actor domain.Actor) func(*domain.LoanApplication) error {
	return func(app *domain.LoanApplication) error {
		if !actor.IsLedger() {
			return customError.WrapForbidden("only the disbursement ledger may perform this operation")
		}
		return nil
	}
}

func authorizeView(actor domain.Actor, app *domain.LoanApplication) error {
	if actor.IsMember() && actor.MemberNo != app.Member {
		return customError.WrapForbidden("members may only view their own loan applications")
	}
	return nil
}

func asNotFound(err error, kind, reference string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return customError.WrapNotFound(kind, reference)
	}
	return customError.WrapDatabaseError(err)
}

// wrapTxErr keeps business errors intact and maps infrastructure failures.
func wrapTxErr(err error, kind, reference string) error {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return customError.WrapNotFound(kind, reference)
	}
	return customError.WrapDatabaseError(err)
}
