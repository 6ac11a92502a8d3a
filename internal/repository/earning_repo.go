package repository

import (
	"context"
	"fmt"

	"github.com/artcry/vpn-service/internal/models"
)

type EarningRepository struct {
	db Querier
}

func NewEarningRepository(db Querier) *EarningRepository {
	return &EarningRepository{db: db}
}

func (r *EarningRepository) Create(ctx context.Context, e *models.ReferralEarning) error {
	query := `
		INSERT INTO referral_earnings (referrer_id, referred_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, e.ReferrerID, e.ReferredID, e.Amount).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert referral earning: %w", err)
	}
	return nil
}

func (r *EarningRepository) ListByReferrer(ctx context.Context, referrerID int64) ([]*models.ReferralEarning, error) {
	query := `
		SELECT id, referrer_id, referred_id, amount, created_at
		FROM referral_earnings
		WHERE referrer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("query referral earnings: %w", err)
	}
	defer rows.Close()

	var earnings []*models.ReferralEarning
	for rows.Next() {
		e := &models.ReferralEarning{}
		if err := rows.Scan(&e.ID, &e.ReferrerID, &e.ReferredID, &e.Amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan referral earning: %w", err)
		}
		earnings = append(earnings, e)
	}
	return earnings, rows.Err()
}
