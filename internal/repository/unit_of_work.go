package repository

import (
	"context"

	"github.com/hazina/sacco-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type sqlUnitOfWork struct {
	db *sqlx.DB
}

// NewUnitOfWork wraps the database in a transactional unit of work. Coverage
// evaluation and the resulting status write are serialized per application by
// locking the application row before the callback runs.
func NewUnitOfWork(db *sqlx.DB) UnitOfWork {
	return &sqlUnitOfWork{db: db}
}

func (u *sqlUnitOfWork) WithinTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(txRepos(tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func (u *sqlUnitOfWork) WithinApplicationTx(ctx context.Context, reference string, fn func(r Repos, app *domain.LoanApplication) error) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	r := txRepos(tx)

	// Lock the application row up-front so concurrent guarantee responses
	// cannot race the coverage evaluation.
	app, err := r.Applications.GetByReferenceForUpdate(ctx, reference)
	if err != nil {
		return err
	}

	if err := fn(r, app); err != nil {
		return err
	}

	return tx.Commit()
}

func txRepos(tx *sqlx.Tx) Repos {
	return Repos{
		Applications: &loanApplicationRepository{db: tx},
		Guarantees:   &guaranteeRequestRepository{db: tx},
		Guarantors:   &guarantorProfileRepository{db: tx},
		Savings:      &savingsRepository{db: tx},
		Products:     &loanProductRepository{db: tx},
	}
}
