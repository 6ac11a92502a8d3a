package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artcry/vpn-service/internal/models"
)

// Store composes the repositories over one pool and owns the transactional
// write units. Reads run against the pool directly; each multi-table write
// builds tx-bound repositories inside a single transaction so the ledger,
// subscription, dedup record and capacity counter move together.
type Store struct {
	pool *pgxpool.Pool

	Users         *UserRepository
	Catalog       *CatalogRepository
	Servers       *ServerRepository
	Credentials   *CredentialRepository
	Subscriptions *SubscriptionRepository
	Payments      *PaymentRepository
	Earnings      *EarningRepository
	Logs          *LogRepository
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:          pool,
		Users:         NewUserRepository(pool),
		Catalog:       NewCatalogRepository(pool),
		Servers:       NewServerRepository(pool),
		Credentials:   NewCredentialRepository(pool),
		Subscriptions: NewSubscriptionRepository(pool),
		Payments:      NewPaymentRepository(pool),
		Earnings:      NewEarningRepository(pool),
		Logs:          NewLogRepository(pool),
	}
}

// GetOrCreateUser resolves the user for a Telegram ID, creating the row on
// first interaction. A referrer Telegram ID, if present and distinct from
// the user, is resolved to an internal ID before the insert; an unknown
// referrer is ignored rather than failing the call.
func (s *Store) GetOrCreateUser(ctx context.Context, tgID int64, referrerTgID *int64) (*models.User, error) {
	var referrerID *int64
	if referrerTgID != nil && *referrerTgID != tgID {
		referrer, err := s.Users.GetByTgID(ctx, *referrerTgID)
		if err == nil {
			referrerID = &referrer.ID
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	return s.Users.GetOrCreate(ctx, tgID, referrerID)
}

// RecordPurchase persists one completed purchase atomically: capacity slot,
// credential row, subscription row, dedup record, optional referral earning
// and the audit entry. A duplicate payload rolls everything back and returns
// ErrDuplicatePayment; a full server returns ErrServerFull.
func (s *Store) RecordPurchase(ctx context.Context, rec *models.PurchaseRecord) (*models.VPNCredential, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin purchase tx: %w", err)
	}
	defer tx.Rollback(ctx)

	servers := NewServerRepository(tx)
	credentials := NewCredentialRepository(tx)
	subscriptions := NewSubscriptionRepository(tx)
	payments := NewPaymentRepository(tx)
	earnings := NewEarningRepository(tx)
	logs := NewLogRepository(tx)

	if err := servers.AcquireSlot(ctx, rec.ServerID); err != nil {
		return nil, err
	}

	credential := &models.VPNCredential{
		UserID:        rec.UserID,
		ServerID:      rec.ServerID,
		Provider:      rec.Provider,
		ProviderKeyID: rec.ProviderKeyID,
		AccessURL:     rec.AccessURL,
		ExpiresAt:     rec.ExpiresAt,
		IsActive:      true,
	}
	if err := credentials.Create(ctx, credential); err != nil {
		return nil, err
	}

	subscription := &models.Subscription{
		UserID:       rec.UserID,
		CredentialID: credential.ID,
		StartedAt:    credential.CreatedAt,
		ExpiresAt:    rec.ExpiresAt,
		Status:       models.SubscriptionActive,
	}
	if err := subscriptions.Create(ctx, subscription); err != nil {
		return nil, err
	}

	payment := &models.ProcessedPayment{
		Payload:      rec.Payload,
		Kind:         models.PaymentKindPurchase,
		UserID:       rec.UserID,
		CredentialID: credential.ID,
		AccessURL:    rec.AccessURL,
		ExpiresAt:    rec.ExpiresAt,
	}
	if err := payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	if rec.ReferrerID != nil && rec.ReferralAmount > 0 {
		earning := &models.ReferralEarning{
			ReferrerID: *rec.ReferrerID,
			ReferredID: rec.UserID,
			Amount:     rec.ReferralAmount,
		}
		if err := earnings.Create(ctx, earning); err != nil {
			return nil, err
		}
	}

	entry := &models.LifecycleLog{
		CredentialID: &credential.ID,
		Action:       "purchase",
		Status:       "success",
		Message:      fmt.Sprintf("user %d purchased server %d", rec.UserID, rec.ServerID),
	}
	if err := logs.Create(ctx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase tx: %w", err)
	}
	return credential, nil
}

// ApplyRenewal persists one completed renewal atomically: credential expiry,
// subscription expiry and the dedup record. A duplicate payload rolls
// everything back and returns ErrDuplicatePayment.
func (s *Store) ApplyRenewal(ctx context.Context, rec *models.RenewalRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin renewal tx: %w", err)
	}
	defer tx.Rollback(ctx)

	credentials := NewCredentialRepository(tx)
	subscriptions := NewSubscriptionRepository(tx)
	payments := NewPaymentRepository(tx)
	logs := NewLogRepository(tx)

	if err := credentials.UpdateExpiry(ctx, rec.CredentialID, rec.NewExpiresAt); err != nil {
		return err
	}
	if err := subscriptions.UpdateForCredential(ctx, rec.CredentialID, rec.NewExpiresAt, models.SubscriptionActive); err != nil {
		return err
	}

	payment := &models.ProcessedPayment{
		Payload:      rec.Payload,
		Kind:         models.PaymentKindRenewal,
		UserID:       rec.UserID,
		CredentialID: rec.CredentialID,
		AccessURL:    rec.AccessURL,
		ExpiresAt:    rec.NewExpiresAt,
	}
	if err := payments.Create(ctx, payment); err != nil {
		return err
	}

	entry := &models.LifecycleLog{
		CredentialID: &rec.CredentialID,
		Action:       "renewal",
		Status:       "success",
		Message:      fmt.Sprintf("credential %d extended to %s", rec.CredentialID, rec.NewExpiresAt.Format(time.RFC3339)),
	}
	if err := logs.Create(ctx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit renewal tx: %w", err)
	}
	return nil
}

// ExpireCredential retires a lapsed credential atomically: deactivate the
// ledger row, mark the subscription expired and free the server slot. The
// provider-side delete happens before this call.
func (s *Store) ExpireCredential(ctx context.Context, credentialID, serverID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin expire tx: %w", err)
	}
	defer tx.Rollback(ctx)

	credentials := NewCredentialRepository(tx)
	subscriptions := NewSubscriptionRepository(tx)
	servers := NewServerRepository(tx)
	logs := NewLogRepository(tx)

	if err := credentials.Deactivate(ctx, credentialID); err != nil {
		return err
	}
	if err := subscriptions.SetStatusForCredential(ctx, credentialID, models.SubscriptionExpired); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := servers.ReleaseSlot(ctx, serverID); err != nil {
		return err
	}

	entry := &models.LifecycleLog{
		CredentialID: &credentialID,
		Action:       "expire",
		Status:       "success",
		Message:      fmt.Sprintf("credential %d expired and slot released on server %d", credentialID, serverID),
	}
	if err := logs.Create(ctx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit expire tx: %w", err)
	}
	return nil
}

// ==================== Pass-through reads ====================
//
// Services depend on interfaces declared next to them; these methods let the
// Store satisfy those interfaces without callers reaching into repositories.

func (s *Store) GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error) {
	return s.Users.GetByTgID(ctx, tgID)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.Users.GetByID(ctx, id)
}

func (s *Store) GetServer(ctx context.Context, id int64) (*models.VPNServer, error) {
	return s.Servers.GetByID(ctx, id)
}

func (s *Store) ListActiveServers(ctx context.Context) ([]*models.ServerSummary, error) {
	return s.Servers.ListActiveSummaries(ctx)
}

func (s *Store) ListServers(ctx context.Context) ([]*models.VPNServer, error) {
	return s.Servers.List(ctx)
}

func (s *Store) GetCredential(ctx context.Context, id int64) (*models.VPNCredential, error) {
	return s.Credentials.GetByID(ctx, id)
}

func (s *Store) GetActiveCredentialForUser(ctx context.Context, id, userID int64) (*models.VPNCredential, error) {
	return s.Credentials.GetActiveForUser(ctx, id, userID)
}

func (s *Store) ListUserCredentials(ctx context.Context, userID int64) ([]*models.CredentialSummary, error) {
	return s.Credentials.ListSummariesByUser(ctx, userID)
}

func (s *Store) ListExpiredCredentials(ctx context.Context, asOf time.Time) ([]*models.ExpiredCredential, error) {
	return s.Credentials.ListExpired(ctx, asOf)
}

func (s *Store) ListActiveKeyIDs(ctx context.Context, serverID int64) (map[string]bool, error) {
	return s.Credentials.ListActiveKeyIDsByServer(ctx, serverID)
}

func (s *Store) GetProcessedPayment(ctx context.Context, payload string) (*models.ProcessedPayment, error) {
	return s.Payments.Get(ctx, payload)
}

func (s *Store) LogAction(ctx context.Context, credentialID *int64, action, status, message string) {
	s.Logs.LogAction(ctx, credentialID, action, status, message)
}

func (s *Store) ListTypes(ctx context.Context) ([]*models.VPNType, error) {
	return s.Catalog.ListTypes(ctx)
}

func (s *Store) GetType(ctx context.Context, id int64) (*models.VPNType, error) {
	return s.Catalog.GetType(ctx, id)
}

func (s *Store) CreateType(ctx context.Context, t *models.VPNType) error {
	return s.Catalog.CreateType(ctx, t)
}

func (s *Store) UpdateType(ctx context.Context, t *models.VPNType) error {
	return s.Catalog.UpdateType(ctx, t)
}

func (s *Store) DeleteType(ctx context.Context, id int64) error {
	return s.Catalog.DeleteType(ctx, id)
}

func (s *Store) ListCountries(ctx context.Context) ([]*models.VPNCountry, error) {
	return s.Catalog.ListCountries(ctx)
}

func (s *Store) GetCountry(ctx context.Context, id int64) (*models.VPNCountry, error) {
	return s.Catalog.GetCountry(ctx, id)
}

func (s *Store) CreateCountry(ctx context.Context, c *models.VPNCountry) error {
	return s.Catalog.CreateCountry(ctx, c)
}

func (s *Store) UpdateCountry(ctx context.Context, c *models.VPNCountry) error {
	return s.Catalog.UpdateCountry(ctx, c)
}

func (s *Store) DeleteCountry(ctx context.Context, id int64) error {
	return s.Catalog.DeleteCountry(ctx, id)
}

func (s *Store) CreateServer(ctx context.Context, srv *models.VPNServer) error {
	return s.Servers.Create(ctx, srv)
}

func (s *Store) UpdateServer(ctx context.Context, srv *models.VPNServer) error {
	return s.Servers.Update(ctx, srv)
}

func (s *Store) DeleteServer(ctx context.Context, id int64) error {
	return s.Servers.Delete(ctx, id)
}

func (s *Store) CountServersByType(ctx context.Context, typeID int64) (int, error) {
	return s.Servers.CountByType(ctx, typeID)
}

func (s *Store) CountServersByCountry(ctx context.Context, countryID int64) (int, error) {
	return s.Servers.CountByCountry(ctx, countryID)
}

func (s *Store) ListReferralEarnings(ctx context.Context, referrerID int64) ([]*models.ReferralEarning, error) {
	return s.Earnings.ListByReferrer(ctx, referrerID)
}
