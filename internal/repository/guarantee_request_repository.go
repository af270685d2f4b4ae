package repository

import (
	"context"
	"time"

	"github.com/hazina/sacco-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

const guaranteeRequestColumns = `
	id, reference, loan_application, applicant, guarantor, status,
	guaranteed_amount, created_at, resolved_at
`

type guaranteeRequestRepository struct {
	db queryer
}

func NewGuaranteeRequestRepository(db *sqlx.DB) GuaranteeRequestRepository {
	return &guaranteeRequestRepository{db: db}
}

func (r *guaranteeRequestRepository) Create(ctx context.Context, req *domain.GuaranteeRequest) error {
	query := `
		INSERT INTO guarantee_requests (` + guaranteeRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.Reference,
		req.LoanApplication,
		req.Applicant,
		req.Guarantor,
		req.Status,
		req.GuaranteedAmount,
		req.CreatedAt,
		req.ResolvedAt,
	)

	return err
}

func (r *guaranteeRequestRepository) GetByReference(ctx context.Context, reference string) (*domain.GuaranteeRequest, error) {
	query := `
		SELECT ` + guaranteeRequestColumns + `
		FROM guarantee_requests
		WHERE reference = $1
	`

	var req domain.GuaranteeRequest
	if err := r.db.GetContext(ctx, &req, query, reference); err != nil {
		return nil, err
	}

	return &req, nil
}

func (r *guaranteeRequestRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.GuaranteeRequest, error) {
	query := `
		SELECT ` + guaranteeRequestColumns + `
		FROM guarantee_requests
		WHERE reference = $1
		FOR UPDATE
	`

	var req domain.GuaranteeRequest
	if err := r.db.GetContext(ctx, &req, query, reference); err != nil {
		return nil, err
	}

	return &req, nil
}

func (r *guaranteeRequestRepository) Update(ctx context.Context, req *domain.GuaranteeRequest) error {
	query := `
		UPDATE guarantee_requests
		SET status = $2, guaranteed_amount = $3, resolved_at = $4
		WHERE reference = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		req.Reference,
		req.Status,
		req.GuaranteedAmount,
		req.ResolvedAt,
	)

	return err
}

func (r *guaranteeRequestRepository) ListByApplication(ctx context.Context, applicationRef string) ([]*domain.GuaranteeRequest, error) {
	query := `
		SELECT ` + guaranteeRequestColumns + `
		FROM guarantee_requests
		WHERE loan_application = $1
		ORDER BY created_at
	`

	var reqs []*domain.GuaranteeRequest
	if err := r.db.SelectContext(ctx, &reqs, query, applicationRef); err != nil {
		return nil, err
	}

	return reqs, nil
}

func (r *guaranteeRequestRepository) ListByGuarantor(ctx context.Context, guarantor string) ([]*domain.GuaranteeRequest, error) {
	query := `
		SELECT ` + guaranteeRequestColumns + `
		FROM guarantee_requests
		WHERE guarantor = $1
		ORDER BY created_at DESC
	`

	var reqs []*domain.GuaranteeRequest
	if err := r.db.SelectContext(ctx, &reqs, query, guarantor); err != nil {
		return nil, err
	}

	return reqs, nil
}

func (r *guaranteeRequestRepository) HasPending(ctx context.Context, applicationRef, guarantor string) (bool, error) {
	query := `
		SELECT COUNT(1)
		FROM guarantee_requests
		WHERE loan_application = $1 AND guarantor = $2 AND status = $3
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, applicationRef, guarantor, domain.GuaranteeStatusPending); err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *guaranteeRequestRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.GuaranteeRequest, error) {
	query := `
		SELECT ` + guaranteeRequestColumns + `
		FROM guarantee_requests
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
	`

	var reqs []*domain.GuaranteeRequest
	if err := r.db.SelectContext(ctx, &reqs, query, domain.GuaranteeStatusPending, cutoff); err != nil {
		return nil, err
	}

	return reqs, nil
}
