package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type savingsRepository struct {
	db queryer
}

// NewSavingsRepository reads the replicated savings ledger. Only balances
// flagged eligible as loan security count toward self-guarantee.
func NewSavingsRepository(db *sqlx.DB) SavingsRepository {
	return &savingsRepository{db: db}
}

func (r *savingsRepository) GetEligibleBalance(ctx context.Context, member string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(balance), 0)
		FROM savings_accounts
		WHERE member = $1 AND eligible_as_security = TRUE
	`

	var balance decimal.Decimal
	if err := r.db.GetContext(ctx, &balance, query, member); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	return balance, nil
}
