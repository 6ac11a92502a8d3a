package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/artcry/vpn-service/internal/models"
)

// CredentialRepository is the credential ledger: one row per successful
// provisioning call. Rows are never deleted, only extended or deactivated.
type CredentialRepository struct {
	db Querier
}

func NewCredentialRepository(db Querier) *CredentialRepository {
	return &CredentialRepository{db: db}
}

const credentialColumns = `id, user_id, server_id, provider, provider_key_id, access_url, created_at, expires_at, is_active`

func (r *CredentialRepository) Create(ctx context.Context, c *models.VPNCredential) error {
	query := `
		INSERT INTO vpn_credentials (user_id, server_id, provider, provider_key_id, access_url, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		c.UserID, c.ServerID, c.Provider, c.ProviderKeyID, c.AccessURL, c.ExpiresAt, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) GetByID(ctx context.Context, id int64) (*models.VPNCredential, error) {
	row := r.db.QueryRow(ctx, `SELECT `+credentialColumns+` FROM vpn_credentials WHERE id = $1`, id)
	return r.scanCredential(row)
}

// GetActiveForUser retrieves a credential constrained to its owner and the
// active flag, so one user can never address another user's credential.
func (r *CredentialRepository) GetActiveForUser(ctx context.Context, id, userID int64) (*models.VPNCredential, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM vpn_credentials WHERE id = $1 AND user_id = $2 AND is_active`,
		id, userID,
	)
	return r.scanCredential(row)
}

// UpdateExpiry extends a credential's expiry in place.
func (r *CredentialRepository) UpdateExpiry(ctx context.Context, id int64, expiresAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE vpn_credentials SET expires_at = $1 WHERE id = $2`, expiresAt, id)
	if err != nil {
		return fmt.Errorf("update credential expiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate flips the active flag off.
func (r *CredentialRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE vpn_credentials SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSummariesByUser returns a user's credentials joined with subscription
// status and server display name, newest first.
func (r *CredentialRepository) ListSummariesByUser(ctx context.Context, userID int64) ([]*models.CredentialSummary, error) {
	query := `
		SELECT c.id, c.server_id, s.name, c.access_url, c.expires_at, c.is_active, sub.status
		FROM vpn_credentials c
		JOIN vpn_servers s ON s.id = c.server_id
		JOIN vpn_subscriptions sub ON sub.credential_id = c.id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query user credentials: %w", err)
	}
	defer rows.Close()

	var summaries []*models.CredentialSummary
	for rows.Next() {
		cs := &models.CredentialSummary{}
		err := rows.Scan(&cs.CredentialID, &cs.ServerID, &cs.ServerName, &cs.AccessURL, &cs.ExpiresAt, &cs.IsActive, &cs.Status)
		if err != nil {
			return nil, fmt.Errorf("scan credential summary: %w", err)
		}
		summaries = append(summaries, cs)
	}
	return summaries, rows.Err()
}

// ListExpired returns active credentials past their expiry together with
// the admin endpoint of their server, for the revocation sweep.
func (r *CredentialRepository) ListExpired(ctx context.Context, asOf time.Time) ([]*models.ExpiredCredential, error) {
	query := `
		SELECT c.id, c.user_id, c.server_id, c.provider, c.provider_key_id, c.access_url,
		       c.created_at, c.expires_at, c.is_active, s.api_url, s.api_token
		FROM vpn_credentials c
		JOIN vpn_servers s ON s.id = c.server_id
		WHERE c.is_active AND c.expires_at < $1
		ORDER BY c.expires_at
	`

	rows, err := r.db.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("query expired credentials: %w", err)
	}
	defer rows.Close()

	var expired []*models.ExpiredCredential
	for rows.Next() {
		e := &models.ExpiredCredential{}
		c := &e.Credential
		err := rows.Scan(
			&c.ID, &c.UserID, &c.ServerID, &c.Provider, &c.ProviderKeyID, &c.AccessURL,
			&c.CreatedAt, &c.ExpiresAt, &c.IsActive, &e.ServerAPIURL, &e.ServerAPIToken,
		)
		if err != nil {
			return nil, fmt.Errorf("scan expired credential: %w", err)
		}
		expired = append(expired, e)
	}
	return expired, rows.Err()
}

// ListActiveKeyIDsByServer returns the provider key ids the ledger considers
// live on a server, for the orphan scan.
func (r *CredentialRepository) ListActiveKeyIDsByServer(ctx context.Context, serverID int64) (map[string]bool, error) {
	rows, err := r.db.Query(ctx,
		`SELECT provider_key_id FROM vpn_credentials WHERE server_id = $1 AND is_active`,
		serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("query active key ids: %w", err)
	}
	defer rows.Close()

	keyIDs := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan key id: %w", err)
		}
		keyIDs[id] = true
	}
	return keyIDs, rows.Err()
}

func (r *CredentialRepository) scanCredential(row pgx.Row) (*models.VPNCredential, error) {
	c := &models.VPNCredential{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.ServerID, &c.Provider, &c.ProviderKeyID,
		&c.AccessURL, &c.CreatedAt, &c.ExpiresAt, &c.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	return c, nil
}
