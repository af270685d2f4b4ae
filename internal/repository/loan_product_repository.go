package repository

import (
	"context"
	"time"

	"github.com/hazina/sacco-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

const loanProductColumns = `
	id, reference, name, interest_rate, min_amount, max_amount,
	max_term_months, created_at, updated_at
`

type loanProductRepository struct {
	db queryer
}

func NewLoanProductRepository(db *sqlx.DB) LoanProductRepository {
	return &loanProductRepository{db: db}
}

func (r *loanProductRepository) Create(ctx context.Context, product *domain.LoanProduct) error {
	query := `
		INSERT INTO loan_products (` + loanProductColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Reference,
		product.Name,
		product.InterestRate,
		product.MinAmount,
		product.MaxAmount,
		product.MaxTermMonths,
		product.CreatedAt,
		product.UpdatedAt,
	)

	return err
}

func (r *loanProductRepository) GetByReference(ctx context.Context, reference string) (*domain.LoanProduct, error) {
	query := `
		SELECT ` + loanProductColumns + `
		FROM loan_products
		WHERE reference = $1
	`

	var product domain.LoanProduct
	if err := r.db.GetContext(ctx, &product, query, reference); err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *loanProductRepository) GetByName(ctx context.Context, name string) (*domain.LoanProduct, error) {
	query := `
		SELECT ` + loanProductColumns + `
		FROM loan_products
		WHERE name = $1
	`

	var product domain.LoanProduct
	if err := r.db.GetContext(ctx, &product, query, name); err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *loanProductRepository) Update(ctx context.Context, product *domain.LoanProduct) error {
	query := `
		UPDATE loan_products
		SET interest_rate = $2, min_amount = $3, max_amount = $4,
			max_term_months = $5, updated_at = $6
		WHERE reference = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		product.Reference,
		product.InterestRate,
		product.MinAmount,
		product.MaxAmount,
		product.MaxTermMonths,
		time.Now(),
	)

	return err
}

func (r *loanProductRepository) List(ctx context.Context) ([]*domain.LoanProduct, error) {
	query := `
		SELECT ` + loanProductColumns + `
		FROM loan_products
		ORDER BY name
	`

	var products []*domain.LoanProduct
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}

	return products, nil
}
