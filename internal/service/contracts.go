// Package service implements the business operations: purchase and renewal
// of VPN access, catalog administration and the background reconciliation of
// lapsed credentials.
package service

import (
	"context"
	"time"

	"github.com/artcry/vpn-service/internal/models"
)

// LifecycleStore is the persistence surface the lifecycle manager needs.
// *repository.Store satisfies it; tests substitute a fake.
type LifecycleStore interface {
	GetOrCreateUser(ctx context.Context, tgID int64, referrerTgID *int64) (*models.User, error)
	GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetServer(ctx context.Context, id int64) (*models.VPNServer, error)
	ListActiveServers(ctx context.Context) ([]*models.ServerSummary, error)
	GetActiveCredentialForUser(ctx context.Context, id, userID int64) (*models.VPNCredential, error)
	ListUserCredentials(ctx context.Context, userID int64) ([]*models.CredentialSummary, error)
	GetProcessedPayment(ctx context.Context, payload string) (*models.ProcessedPayment, error)
	RecordPurchase(ctx context.Context, rec *models.PurchaseRecord) (*models.VPNCredential, error)
	ApplyRenewal(ctx context.Context, rec *models.RenewalRecord) error
	LogAction(ctx context.Context, credentialID *int64, action, status, message string)
}

// CatalogStore is the persistence surface for catalog administration.
type CatalogStore interface {
	ListTypes(ctx context.Context) ([]*models.VPNType, error)
	GetType(ctx context.Context, id int64) (*models.VPNType, error)
	CreateType(ctx context.Context, t *models.VPNType) error
	UpdateType(ctx context.Context, t *models.VPNType) error
	DeleteType(ctx context.Context, id int64) error
	ListCountries(ctx context.Context) ([]*models.VPNCountry, error)
	GetCountry(ctx context.Context, id int64) (*models.VPNCountry, error)
	CreateCountry(ctx context.Context, c *models.VPNCountry) error
	UpdateCountry(ctx context.Context, c *models.VPNCountry) error
	DeleteCountry(ctx context.Context, id int64) error
	ListServers(ctx context.Context) ([]*models.VPNServer, error)
	GetServer(ctx context.Context, id int64) (*models.VPNServer, error)
	CreateServer(ctx context.Context, srv *models.VPNServer) error
	UpdateServer(ctx context.Context, srv *models.VPNServer) error
	DeleteServer(ctx context.Context, id int64) error
	CountServersByType(ctx context.Context, typeID int64) (int, error)
	CountServersByCountry(ctx context.Context, countryID int64) (int, error)
	ListReferralEarnings(ctx context.Context, referrerID int64) ([]*models.ReferralEarning, error)
}

// ReconcileStore is the persistence surface for the background sweeps.
type ReconcileStore interface {
	ListExpiredCredentials(ctx context.Context, asOf time.Time) ([]*models.ExpiredCredential, error)
	ExpireCredential(ctx context.Context, credentialID, serverID int64) error
	ListServers(ctx context.Context) ([]*models.VPNServer, error)
	ListActiveKeyIDs(ctx context.Context, serverID int64) (map[string]bool, error)
	LogAction(ctx context.Context, credentialID *int64, action, status, message string)
}
