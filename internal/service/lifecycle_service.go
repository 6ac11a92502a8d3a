package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/artcry/vpn-service/internal/apperrors"
	"github.com/artcry/vpn-service/internal/config"
	"github.com/artcry/vpn-service/internal/models"
	"github.com/artcry/vpn-service/internal/payload"
	"github.com/artcry/vpn-service/internal/provider"
	"github.com/artcry/vpn-service/internal/repository"
)

const (
	// Currency the payment channel charges in (Telegram Stars).
	invoiceCurrency = "XTR"

	// One paid term.
	termDays = 30

	// Renewal bounds. A request outside the range is clamped at invoice
	// time; a token outside it never came from us.
	minRenewalMonths = 1
	maxRenewalMonths = 24
)

// LifecycleService manages the purchase and renewal flow: invoice
// generation, payment completion with exactly-once semantics, and the
// user-facing catalog and credential views.
type LifecycleService struct {
	cfg       *config.Config
	store     LifecycleStore
	providers provider.Factory
}

func NewLifecycleService(cfg *config.Config, store LifecycleStore, providers provider.Factory) *LifecycleService {
	return &LifecycleService{
		cfg:       cfg,
		store:     store,
		providers: providers,
	}
}

// InitiatePurchase validates a purchase request and returns the invoice
// descriptor for the payment channel. No provider call and no ledger write
// happen here; provisioning waits for payment confirmation.
func (s *LifecycleService) InitiatePurchase(ctx context.Context, req *models.InvoiceRequest) (*models.InvoiceDescriptor, error) {
	user, err := s.store.GetOrCreateUser(ctx, req.TgID, req.ReferrerTgID)
	if err != nil {
		return nil, apperrors.Storage("failed to resolve user", err)
	}

	server, err := s.store.GetServer(ctx, req.ServerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundf("server %d not found", req.ServerID)
		}
		return nil, apperrors.Storage("failed to load server", err)
	}
	if !server.IsActive {
		return nil, apperrors.Validationf("server %d is not available", server.ID)
	}
	if server.NowConn >= server.MaxConn {
		return nil, apperrors.Validationf("server %d is at capacity", server.ID)
	}

	log.Printf("[Lifecycle] Purchase invoice: user=%d server=%d price=%d", user.ID, server.ID, server.Price)

	return &models.InvoiceDescriptor{
		Title:       fmt.Sprintf("VPN access: %s", server.Name),
		Description: fmt.Sprintf("%d days of VPN access on %s", termDays, server.Name),
		Currency:    invoiceCurrency,
		Amount:      server.Price,
		Payload:     payload.EncodePurchase(user.ID, server.ID),
	}, nil
}

// CompletePurchase consumes a purchase payload token after a confirmed
// payment. The token is consumed at most once: a replay returns the result
// recorded the first time, with no second provider call.
func (s *LifecycleService) CompletePurchase(ctx context.Context, token string) (*models.PurchaseResult, error) {
	p, err := payload.DecodePurchase(token)
	if err != nil {
		return nil, err
	}

	// Fast path: already processed, return the recorded result.
	if prior, err := s.store.GetProcessedPayment(ctx, token); err == nil {
		log.Printf("[Lifecycle] Duplicate purchase payload %q, returning prior result", token)
		return &models.PurchaseResult{AccessURL: prior.AccessURL, ExpiresAt: prior.ExpiresAt}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Storage("failed to check payment record", err)
	}

	user, err := s.store.GetUserByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundf("user %d not found", p.UserID)
		}
		return nil, apperrors.Storage("failed to load user", err)
	}

	server, err := s.store.GetServer(ctx, p.ServerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundf("server %d not found", p.ServerID)
		}
		return nil, apperrors.Storage("failed to load server", err)
	}
	if !server.IsActive {
		// A retired server cannot take new provisioning, even paid-for.
		return nil, apperrors.NotFoundf("server %d not found", p.ServerID)
	}

	// Cheap admission check before the provider call. The guarded increment
	// inside the transaction is the authoritative one.
	if server.NowConn >= server.MaxConn {
		return nil, apperrors.Validationf("server %d is at capacity", server.ID)
	}

	client := s.providers(server.APIURL, server.APIToken)
	keyName := fmt.Sprintf("user_%d_srv_%d", user.TgID, server.ID)

	cred, err := client.CreateCredential(ctx, keyName)
	if err != nil {
		s.store.LogAction(ctx, nil, "purchase", "failed",
			fmt.Sprintf("provider create failed for user %d on server %d: %v", user.ID, server.ID, err))
		return nil, apperrors.ProviderUnavailable("vpn provider did not issue a credential", err)
	}

	expiresAt := time.Now().UTC().AddDate(0, 0, termDays)

	rec := &models.PurchaseRecord{
		Payload:       token,
		UserID:        user.ID,
		ServerID:      server.ID,
		Provider:      provider.NameOutline,
		ProviderKeyID: cred.ID,
		AccessURL:     cred.AccessURL,
		ExpiresAt:     expiresAt,
	}
	if user.ReferrerID != nil && s.cfg.Referral.SharePercent > 0 {
		rec.ReferrerID = user.ReferrerID
		rec.ReferralAmount = server.Price * int64(s.cfg.Referral.SharePercent) / 100
	}

	credential, err := s.store.RecordPurchase(ctx, rec)
	if err != nil {
		// The local write failed after the provider issued a key. Revoke
		// the key best-effort so the server does not accumulate orphans.
		s.rollbackProviderKey(client, cred.ID)

		switch {
		case errors.Is(err, repository.ErrDuplicatePayment):
			// A concurrent completion won the race. Its result is durable.
			prior, perr := s.store.GetProcessedPayment(ctx, token)
			if perr != nil {
				return nil, apperrors.Storage("failed to load prior payment record", perr)
			}
			return &models.PurchaseResult{AccessURL: prior.AccessURL, ExpiresAt: prior.ExpiresAt}, nil
		case errors.Is(err, repository.ErrServerFull):
			return nil, apperrors.Validationf("server %d is at capacity", server.ID)
		default:
			return nil, apperrors.Storage("failed to record purchase", err)
		}
	}

	log.Printf("[Lifecycle] Purchase complete: user=%d server=%d credential=%d expires=%s",
		user.ID, server.ID, credential.ID, expiresAt.Format(time.RFC3339))

	return &models.PurchaseResult{AccessURL: credential.AccessURL, ExpiresAt: expiresAt}, nil
}

// InitiateRenewal validates a renewal request and returns the invoice
// descriptor. The term length is clamped into the allowed range before it
// is priced and encoded.
func (s *LifecycleService) InitiateRenewal(ctx context.Context, req *models.RenewInvoiceRequest) (*models.InvoiceDescriptor, error) {
	months := clampMonths(req.Months)

	user, err := s.store.GetOrCreateUser(ctx, req.TgID, nil)
	if err != nil {
		return nil, apperrors.Storage("failed to resolve user", err)
	}

	credential, err := s.store.GetActiveCredentialForUser(ctx, req.CredentialID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundf("credential %d not found", req.CredentialID)
		}
		return nil, apperrors.Storage("failed to load credential", err)
	}

	server, err := s.store.GetServer(ctx, credential.ServerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundf("server %d not found", credential.ServerID)
		}
		return nil, apperrors.Storage("failed to load server", err)
	}

	log.Printf("[Lifecycle] Renewal invoice: user=%d credential=%d months=%d", user.ID, credential.ID, months)

	return &models.InvoiceDescriptor{
		Title:       fmt.Sprintf("VPN renewal: %s", server.Name),
		Description: fmt.Sprintf("Extend VPN access on %s by %d month(s)", server.Name, months),
		Currency:    invoiceCurrency,
		Amount:      server.Price * int64(months),
		Payload:     payload.EncodeRenewal(user.ID, credential.ID, months),
	}, nil
}

// CompleteRenewal consumes a renewal payload token after a confirmed
// payment. The extension is anchored at the later of the current expiry and
// now, so renewing early never loses paid time and renewing late never
// backdates. No provider call is made; the existing key stays valid.
func (s *LifecycleService) CompleteRenewal(ctx context.Context, token string) (*models.RenewalResult, error) {
	p, err := payload.DecodeRenewal(token)
	if err != nil {
		return nil, err
	}
	if p.Months < minRenewalMonths || p.Months > maxRenewalMonths {
		return nil, apperrors.MalformedPayloadf("renewal token months out of range")
	}

	if prior, err := s.store.GetProcessedPayment(ctx, token); err == nil {
		log.Printf("[Lifecycle] Duplicate renewal payload %q, returning prior result", token)
		return &models.RenewalResult{AccessURL: prior.AccessURL, NewExpiresAt: prior.ExpiresAt}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Storage("failed to check payment record", err)
	}

	credential, err := s.store.GetActiveCredentialForUser(ctx, p.CredentialID, p.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundf("credential %d not found", p.CredentialID)
		}
		return nil, apperrors.Storage("failed to load credential", err)
	}

	base := credential.ExpiresAt
	if now := time.Now().UTC(); base.Before(now) {
		base = now
	}
	newExpiresAt := base.AddDate(0, 0, termDays*p.Months)

	rec := &models.RenewalRecord{
		Payload:      token,
		UserID:       p.UserID,
		CredentialID: credential.ID,
		AccessURL:    credential.AccessURL,
		NewExpiresAt: newExpiresAt,
	}
	if err := s.store.ApplyRenewal(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) {
			prior, perr := s.store.GetProcessedPayment(ctx, token)
			if perr != nil {
				return nil, apperrors.Storage("failed to load prior payment record", perr)
			}
			return &models.RenewalResult{AccessURL: prior.AccessURL, NewExpiresAt: prior.ExpiresAt}, nil
		}
		return nil, apperrors.Storage("failed to record renewal", err)
	}

	log.Printf("[Lifecycle] Renewal complete: credential=%d new_expiry=%s",
		credential.ID, newExpiresAt.Format(time.RFC3339))

	return &models.RenewalResult{AccessURL: credential.AccessURL, NewExpiresAt: newExpiresAt}, nil
}

// ListServers returns the purchasable catalog.
func (s *LifecycleService) ListServers(ctx context.Context) ([]*models.ServerSummary, error) {
	servers, err := s.store.ListActiveServers(ctx)
	if err != nil {
		return nil, apperrors.Storage("failed to list servers", err)
	}
	return servers, nil
}

// ListUserCredentials returns a user's credentials with subscription state.
// An unknown Telegram ID yields an empty list, not an error: the user simply
// has no purchases yet.
func (s *LifecycleService) ListUserCredentials(ctx context.Context, tgID int64) ([]*models.CredentialSummary, error) {
	user, err := s.store.GetUserByTgID(ctx, tgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []*models.CredentialSummary{}, nil
		}
		return nil, apperrors.Storage("failed to load user", err)
	}

	creds, err := s.store.ListUserCredentials(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Storage("failed to list credentials", err)
	}
	if creds == nil {
		creds = []*models.CredentialSummary{}
	}
	return creds, nil
}

// rollbackProviderKey revokes a freshly issued key after a failed local
// write. Best-effort with its own deadline; a failure here is logged and
// left for the orphan scan.
func (s *LifecycleService) rollbackProviderKey(client provider.Client, keyID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.DeleteCredential(ctx, keyID); err != nil {
		log.Printf("[Lifecycle] Warning: failed to roll back provider key %s: %v", keyID, err)
	}
}

func clampMonths(months int) int {
	if months < minRenewalMonths {
		return minRenewalMonths
	}
	if months > maxRenewalMonths {
		return maxRenewalMonths
	}
	return months
}
