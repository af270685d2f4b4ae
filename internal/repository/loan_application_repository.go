package repository

import (
	"context"
	"time"

	"github.com/hazina/sacco-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

const loanApplicationColumns = `
	id, reference, member, product, requested_amount, calculation_mode,
	term_months, monthly_payment, repayment_frequency, start_date, status,
	amendment_note, self_guaranteed_amount, total_guaranteed_by_others,
	effective_coverage, remaining_to_cover, is_fully_covered,
	projected_payment, projected_term_months, created_at, updated_at
`

type loanApplicationRepository struct {
	db queryer
}

func NewLoanApplicationRepository(db *sqlx.DB) LoanApplicationRepository {
	return &loanApplicationRepository{db: db}
}

func (r *loanApplicationRepository) Create(ctx context.Context, app *domain.LoanApplication) error {
	query := `
		INSERT INTO loan_applications (` + loanApplicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.db.ExecContext(ctx, query,
		app.ID,
		app.Reference,
		app.Member,
		app.Product,
		app.RequestedAmount,
		app.CalculationMode,
		app.TermMonths,
		app.MonthlyPayment,
		app.RepaymentFrequency,
		app.StartDate,
		app.Status,
		app.AmendmentNote,
		app.SelfGuaranteedAmount,
		app.TotalGuaranteedByOthers,
		app.EffectiveCoverage,
		app.RemainingToCover,
		app.IsFullyCovered,
		app.ProjectedPayment,
		app.ProjectedTermMonths,
		app.CreatedAt,
		app.UpdatedAt,
	)

	return err
}

func (r *loanApplicationRepository) GetByReference(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	query := `
		SELECT ` + loanApplicationColumns + `
		FROM loan_applications
		WHERE reference = $1
	`

	var app domain.LoanApplication
	if err := r.db.GetContext(ctx, &app, query, reference); err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *loanApplicationRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	query := `
		SELECT ` + loanApplicationColumns + `
		FROM loan_applications
		WHERE reference = $1
		FOR UPDATE
	`

	var app domain.LoanApplication
	if err := r.db.GetContext(ctx, &app, query, reference); err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *loanApplicationRepository) Update(ctx context.Context, app *domain.LoanApplication) error {
	query := `
		UPDATE loan_applications
		SET requested_amount = $2, calculation_mode = $3, term_months = $4,
			monthly_payment = $5, start_date = $6, status = $7,
			amendment_note = $8, self_guaranteed_amount = $9,
			total_guaranteed_by_others = $10, effective_coverage = $11,
			remaining_to_cover = $12, is_fully_covered = $13,
			projected_payment = $14, projected_term_months = $15, updated_at = $16
		WHERE reference = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		app.Reference,
		app.RequestedAmount,
		app.CalculationMode,
		app.TermMonths,
		app.MonthlyPayment,
		app.StartDate,
		app.Status,
		app.AmendmentNote,
		app.SelfGuaranteedAmount,
		app.TotalGuaranteedByOthers,
		app.EffectiveCoverage,
		app.RemainingToCover,
		app.IsFullyCovered,
		app.ProjectedPayment,
		app.ProjectedTermMonths,
		time.Now(),
	)

	return err
}

func (r *loanApplicationRepository) ListByMember(ctx context.Context, member string) ([]*domain.LoanApplication, error) {
	query := `
		SELECT ` + loanApplicationColumns + `
		FROM loan_applications
		WHERE member = $1
		ORDER BY created_at DESC
	`

	var apps []*domain.LoanApplication
	if err := r.db.SelectContext(ctx, &apps, query, member); err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *loanApplicationRepository) List(ctx context.Context) ([]*domain.LoanApplication, error) {
	query := `
		SELECT ` + loanApplicationColumns + `
		FROM loan_applications
		ORDER BY created_at DESC
	`

	var apps []*domain.LoanApplication
	if err := r.db.SelectContext(ctx, &apps, query); err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *loanApplicationRepository) ListByStatus(ctx context.Context, status string) ([]*domain.LoanApplication, error) {
	query := `
		SELECT ` + loanApplicationColumns + `
		FROM loan_applications
		WHERE status = $1
		ORDER BY created_at DESC
	`

	var apps []*domain.LoanApplication
	if err := r.db.SelectContext(ctx, &apps, query, status); err != nil {
		return nil, err
	}

	return apps, nil
}
