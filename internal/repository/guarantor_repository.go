package repository

import (
	"context"
	"time"

	"github.com/hazina/sacco-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

const guarantorProfileColumns = `
	id, reference, member, member_name, available_amount, committed_amount,
	active_guarantees_count, max_active_guarantees, created_at, updated_at
`

type guarantorProfileRepository struct {
	db queryer
}

func NewGuarantorProfileRepository(db *sqlx.DB) GuarantorProfileRepository {
	return &guarantorProfileRepository{db: db}
}

func (r *guarantorProfileRepository) Create(ctx context.Context, profile *domain.GuarantorProfile) error {
	query := `
		INSERT INTO guarantor_profiles (` + guarantorProfileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.Reference,
		profile.Member,
		profile.MemberName,
		profile.AvailableAmount,
		profile.CommittedAmount,
		profile.ActiveGuarantees,
		profile.MaxActiveGuarantees,
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	return err
}

func (r *guarantorProfileRepository) GetByMember(ctx context.Context, member string) (*domain.GuarantorProfile, error) {
	query := `
		SELECT ` + guarantorProfileColumns + `
		FROM guarantor_profiles
		WHERE member = $1
	`

	var profile domain.GuarantorProfile
	if err := r.db.GetContext(ctx, &profile, query, member); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *guarantorProfileRepository) GetByMemberForUpdate(ctx context.Context, member string) (*domain.GuarantorProfile, error) {
	query := `
		SELECT ` + guarantorProfileColumns + `
		FROM guarantor_profiles
		WHERE member = $1
		FOR UPDATE
	`

	var profile domain.GuarantorProfile
	if err := r.db.GetContext(ctx, &profile, query, member); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *guarantorProfileRepository) Update(ctx context.Context, profile *domain.GuarantorProfile) error {
	query := `
		UPDATE guarantor_profiles
		SET available_amount = $2, committed_amount = $3,
			active_guarantees_count = $4, max_active_guarantees = $5,
			updated_at = $6
		WHERE member = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.Member,
		profile.AvailableAmount,
		profile.CommittedAmount,
		profile.ActiveGuarantees,
		profile.MaxActiveGuarantees,
		time.Now(),
	)

	return err
}

func (r *guarantorProfileRepository) List(ctx context.Context) ([]*domain.GuarantorProfile, error) {
	query := `
		SELECT ` + guarantorProfileColumns + `
		FROM guarantor_profiles
		ORDER BY member
	`

	var profiles []*domain.GuarantorProfile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, err
	}

	return profiles, nil
}
