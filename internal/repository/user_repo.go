package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/artcry/vpn-service/internal/models"
)

type UserRepository struct {
	db Querier
}

func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate resolves the user for a Telegram ID, creating the row on first
// interaction. An existing user is returned unchanged; referrerID only takes
// effect at creation time.
func (r *UserRepository) GetOrCreate(ctx context.Context, tgID int64, referrerID *int64) (*models.User, error) {
	query := `
		INSERT INTO users (tg_id, role, referrer_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (tg_id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query, tgID, models.RoleUser, referrerID)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return r.GetByTgID(ctx, tgID)
}

// GetByTgID retrieves a user by Telegram ID.
func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (*models.User, error) {
	query := `
		SELECT id, tg_id, role, trial_until, referrer_id, created_at
		FROM users
		WHERE tg_id = $1
	`

	return r.scanUser(r.db.QueryRow(ctx, query, tgID))
}

// GetByID retrieves a user by internal ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, tg_id, role, trial_until, referrer_id, created_at
		FROM users
		WHERE id = $1
	`

	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.TgID, &user.Role, &user.TrialUntil, &user.ReferrerID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}
