package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/artcry/vpn-service/internal/models"
)

type SubscriptionRepository struct {
	db Querier
}

func NewSubscriptionRepository(db Querier) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, s *models.Subscription) error {
	query := `
		INSERT INTO vpn_subscriptions (user_id, credential_id, started_at, expires_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		s.UserID, s.CredentialID, s.StartedAt, s.ExpiresAt, s.Status,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// UpdateForCredential moves the subscription attached to a credential to a
// new expiry and status. Used by renewals and the expiry sweep.
func (r *SubscriptionRepository) UpdateForCredential(ctx context.Context, credentialID int64, expiresAt time.Time, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE vpn_subscriptions SET expires_at = $1, status = $2 WHERE credential_id = $3`,
		expiresAt, status, credentialID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatusForCredential changes the subscription status without touching
// the recorded expiry.
func (r *SubscriptionRepository) SetStatusForCredential(ctx context.Context, credentialID int64, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE vpn_subscriptions SET status = $1 WHERE credential_id = $2`,
		status, credentialID,
	)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
