package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/artcry/vpn-service/internal/models"
)

// LogRepository writes the lifecycle audit log. Entries are append-only.
type LogRepository struct {
	db Querier
}

func NewLogRepository(db Querier) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) Create(ctx context.Context, entry *models.LifecycleLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO lifecycle_logs (id, credential_id, action, status, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		entry.ID, entry.CredentialID, entry.Action, entry.Status, entry.Message,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lifecycle log: %w", err)
	}
	return nil
}

// LogAction is a fire-and-forget helper for callers where a logging failure
// must not fail the operation being logged.
func (r *LogRepository) LogAction(ctx context.Context, credentialID *int64, action, status, message string) {
	entry := &models.LifecycleLog{
		CredentialID: credentialID,
		Action:       action,
		Status:       status,
		Message:      message,
	}
	if err := r.Create(ctx, entry); err != nil {
		log.Printf("[LogRepository] Failed to write lifecycle log (action=%s): %v", action, err)
	}
}
