package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/artcry/vpn-service/internal/models"
)

// PaymentRepository stores the dedup records for consumed payload tokens.
// The payload string is the primary key, so a second insert of the same
// token fails with a unique violation and surfaces as ErrDuplicatePayment.
type PaymentRepository struct {
	db Querier
}

func NewPaymentRepository(db Querier) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Get(ctx context.Context, payload string) (*models.ProcessedPayment, error) {
	query := `
		SELECT payload, kind, user_id, credential_id, access_url, expires_at, processed_at
		FROM processed_payments
		WHERE payload = $1
	`

	p := &models.ProcessedPayment{}
	err := r.db.QueryRow(ctx, query, payload).Scan(
		&p.Payload, &p.Kind, &p.UserID, &p.CredentialID, &p.AccessURL, &p.ExpiresAt, &p.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get processed payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.ProcessedPayment) error {
	query := `
		INSERT INTO processed_payments (payload, kind, user_id, credential_id, access_url, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING processed_at
	`

	err := r.db.QueryRow(ctx, query,
		p.Payload, p.Kind, p.UserID, p.CredentialID, p.AccessURL, p.ExpiresAt,
	).Scan(&p.ProcessedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("insert processed payment: %w", err)
	}
	return nil
}
