package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/artcry/vpn-service/internal/apperrors"
	"github.com/artcry/vpn-service/internal/config"
	"github.com/artcry/vpn-service/internal/models"
	"github.com/artcry/vpn-service/internal/payload"
	"github.com/artcry/vpn-service/internal/provider"
	"github.com/artcry/vpn-service/internal/repository"
)

// fakeStore is an in-memory LifecycleStore.
type fakeStore struct {
	users       map[int64]*models.User
	servers     map[int64]*models.VPNServer
	credentials map[int64]*models.VPNCredential
	payments    map[string]*models.ProcessedPayment
	summaries   map[int64][]*models.CredentialSummary

	nextCredentialID int64
	recordPurchase   func(rec *models.PurchaseRecord) (*models.VPNCredential, error)

	purchases []*models.PurchaseRecord
	renewals  []*models.RenewalRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:            make(map[int64]*models.User),
		servers:          make(map[int64]*models.VPNServer),
		credentials:      make(map[int64]*models.VPNCredential),
		payments:         make(map[string]*models.ProcessedPayment),
		summaries:        make(map[int64][]*models.CredentialSummary),
		nextCredentialID: 1,
	}
}

func (f *fakeStore) GetOrCreateUser(_ context.Context, tgID int64, referrerTgID *int64) (*models.User, error) {
	for _, u := range f.users {
		if u.TgID == tgID {
			return u, nil
		}
	}
	u := &models.User{ID: int64(len(f.users) + 1), TgID: tgID, Role: models.RoleUser}
	if referrerTgID != nil {
		for _, r := range f.users {
			if r.TgID == *referrerTgID {
				id := r.ID
				u.ReferrerID = &id
			}
		}
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUserByTgID(_ context.Context, tgID int64) (*models.User, error) {
	for _, u := range f.users {
		if u.TgID == tgID {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetServer(_ context.Context, id int64) (*models.VPNServer, error) {
	if s, ok := f.servers[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) ListActiveServers(_ context.Context) ([]*models.ServerSummary, error) {
	var out []*models.ServerSummary
	for _, s := range f.servers {
		if s.IsActive {
			out = append(out, &models.ServerSummary{ID: s.ID, Name: s.Name, Price: s.Price})
		}
	}
	return out, nil
}

func (f *fakeStore) GetActiveCredentialForUser(_ context.Context, id, userID int64) (*models.VPNCredential, error) {
	c, ok := f.credentials[id]
	if !ok || c.UserID != userID || !c.IsActive {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListUserCredentials(_ context.Context, userID int64) ([]*models.CredentialSummary, error) {
	return f.summaries[userID], nil
}

func (f *fakeStore) GetProcessedPayment(_ context.Context, payload string) (*models.ProcessedPayment, error) {
	if p, ok := f.payments[payload]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) RecordPurchase(_ context.Context, rec *models.PurchaseRecord) (*models.VPNCredential, error) {
	if f.recordPurchase != nil {
		return f.recordPurchase(rec)
	}
	if _, ok := f.payments[rec.Payload]; ok {
		return nil, repository.ErrDuplicatePayment
	}

	cred := &models.VPNCredential{
		ID:            f.nextCredentialID,
		UserID:        rec.UserID,
		ServerID:      rec.ServerID,
		Provider:      rec.Provider,
		ProviderKeyID: rec.ProviderKeyID,
		AccessURL:     rec.AccessURL,
		ExpiresAt:     rec.ExpiresAt,
		IsActive:      true,
	}
	f.nextCredentialID++
	f.credentials[cred.ID] = cred
	f.payments[rec.Payload] = &models.ProcessedPayment{
		Payload:      rec.Payload,
		Kind:         models.PaymentKindPurchase,
		UserID:       rec.UserID,
		CredentialID: cred.ID,
		AccessURL:    rec.AccessURL,
		ExpiresAt:    rec.ExpiresAt,
	}
	f.purchases = append(f.purchases, rec)
	return cred, nil
}

func (f *fakeStore) ApplyRenewal(_ context.Context, rec *models.RenewalRecord) error {
	if _, ok := f.payments[rec.Payload]; ok {
		return repository.ErrDuplicatePayment
	}
	cred, ok := f.credentials[rec.CredentialID]
	if !ok {
		return repository.ErrNotFound
	}
	cred.ExpiresAt = rec.NewExpiresAt
	f.payments[rec.Payload] = &models.ProcessedPayment{
		Payload:      rec.Payload,
		Kind:         models.PaymentKindRenewal,
		UserID:       rec.UserID,
		CredentialID: rec.CredentialID,
		AccessURL:    rec.AccessURL,
		ExpiresAt:    rec.NewExpiresAt,
	}
	f.renewals = append(f.renewals, rec)
	return nil
}

func (f *fakeStore) LogAction(context.Context, *int64, string, string, string) {}

// fakeClient is an in-memory provider.Client.
type fakeClient struct {
	creates  int
	deletes  []string
	renames  map[string]string
	failNext error
	keys     []provider.Credential
}

func (f *fakeClient) CreateCredential(_ context.Context, name string) (*provider.Credential, error) {
	if f.failNext != nil {
		return nil, f.failNext
	}
	f.creates++
	id := fmt.Sprintf("key-%d", f.creates)
	return &provider.Credential{ID: id, Name: name, AccessURL: "ss://access/" + id}, nil
}

func (f *fakeClient) DeleteCredential(_ context.Context, id string) error {
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeClient) RenameCredential(_ context.Context, id, name string) error {
	if f.renames == nil {
		f.renames = make(map[string]string)
	}
	f.renames[id] = name
	return nil
}

func (f *fakeClient) ListCredentials(context.Context) ([]provider.Credential, error) {
	return f.keys, nil
}

func fixedFactory(c *fakeClient) provider.Factory {
	return func(apiURL, apiToken string) provider.Client { return c }
}

func testConfig() *config.Config {
	return &config.Config{Referral: config.ReferralConfig{SharePercent: 10}}
}

func seedServer(store *fakeStore, id int64, price int64, active bool, maxConn, nowConn int) {
	store.servers[id] = &models.VPNServer{
		ID:       id,
		Name:     fmt.Sprintf("server-%d", id),
		Price:    price,
		MaxConn:  maxConn,
		NowConn:  nowConn,
		APIURL:   "https://outline.example:443/secret",
		IsActive: active,
	}
}

func TestInitiatePurchase(t *testing.T) {
	store := newFakeStore()
	seedServer(store, 5, 250, true, 10, 0)
	svc := NewLifecycleService(testConfig(), store, fixedFactory(&fakeClient{}))

	inv, err := svc.InitiatePurchase(context.Background(), &models.InvoiceRequest{TgID: 111, ServerID: 5})
	if err != nil {
		t.Fatalf("InitiatePurchase: %v", err)
	}
	if inv.Amount != 250 {
		t.Errorf("amount = %d, want server price 250", inv.Amount)
	}
	if inv.Currency != "XTR" {
		t.Errorf("currency = %q, want XTR", inv.Currency)
	}
	p, err := payload.DecodePurchase(inv.Payload)
	if err != nil {
		t.Fatalf("decode payload %q: %v", inv.Payload, err)
	}
	if p.UserID != 1 || p.ServerID != 5 {
		t.Errorf("payload = %+v, want user 1 server 5", p)
	}
	if store.purchases != nil {
		t.Error("initiate must not write to the ledger")
	}
}

func TestInitiatePurchaseRejections(t *testing.T) {
	store := newFakeStore()
	seedServer(store, 1, 100, false, 10, 0) // inactive
	seedServer(store, 2, 100, true, 3, 3)   // full
	svc := NewLifecycleService(testConfig(), store, fixedFactory(&fakeClient{}))

	tests := []struct {
		name     string
		serverID int64
		kind     apperrors.Kind
	}{
		{"unknown server", 99, apperrors.KindNotFound},
		{"inactive server", 1, apperrors.KindValidation},
		{"full server", 2, apperrors.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.InitiatePurchase(context.Background(), &models.InvoiceRequest{TgID: 111, ServerID: tt.serverID})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperrors.KindOf(err); got != tt.kind {
				t.Errorf("kind = %s, want %s", got, tt.kind)
			}
		})
	}
}

func TestCompletePurchase(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	seedServer(store, 5, 250, true, 10, 0)
	client := &fakeClient{}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(client))

	before := time.Now().UTC()
	res, err := svc.CompletePurchase(context.Background(), payload.EncodePurchase(1, 5))
	if err != nil {
		t.Fatalf("CompletePurchase: %v", err)
	}

	if client.creates != 1 {
		t.Errorf("provider creates = %d, want 1", client.creates)
	}
	if res.AccessURL == "" {
		t.Error("result access URL is empty")
	}

	wantExpiry := before.AddDate(0, 0, 30)
	if res.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || res.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("expiry = %s, want about %s", res.ExpiresAt, wantExpiry)
	}
	if len(store.purchases) != 1 {
		t.Fatalf("recorded purchases = %d, want 1", len(store.purchases))
	}
}

func TestCompletePurchaseReplay(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	seedServer(store, 5, 250, true, 10, 0)
	client := &fakeClient{}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(client))

	token := payload.EncodePurchase(1, 5)
	first, err := svc.CompletePurchase(context.Background(), token)
	if err != nil {
		t.Fatalf("first completion: %v", err)
	}

	second, err := svc.CompletePurchase(context.Background(), token)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if client.creates != 1 {
		t.Errorf("provider creates = %d, want exactly 1 across replays", client.creates)
	}
	if second.AccessURL != first.AccessURL {
		t.Errorf("replay access URL = %q, want first result %q", second.AccessURL, first.AccessURL)
	}
	if !second.ExpiresAt.Equal(first.ExpiresAt) {
		t.Errorf("replay expiry = %s, want first result %s", second.ExpiresAt, first.ExpiresAt)
	}
}

func TestCompletePurchaseDuplicateRace(t *testing.T) {
	// The dedup check passes but the transactional insert loses a race.
	// The fresh provider key must be revoked and the winner's result
	// returned.
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	seedServer(store, 5, 250, true, 10, 0)
	client := &fakeClient{}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(client))

	token := payload.EncodePurchase(1, 5)
	winner := &models.ProcessedPayment{
		Payload:   token,
		Kind:      models.PaymentKindPurchase,
		AccessURL: "ss://winner",
		ExpiresAt: time.Now().UTC().AddDate(0, 0, 30),
	}
	store.recordPurchase = func(rec *models.PurchaseRecord) (*models.VPNCredential, error) {
		store.payments[winner.Payload] = winner
		return nil, repository.ErrDuplicatePayment
	}

	res, err := svc.CompletePurchase(context.Background(), token)
	if err != nil {
		t.Fatalf("CompletePurchase: %v", err)
	}
	if res.AccessURL != "ss://winner" {
		t.Errorf("access URL = %q, want winner's ss://winner", res.AccessURL)
	}
	if len(client.deletes) != 1 {
		t.Errorf("provider deletes = %d, want 1 rollback of the losing key", len(client.deletes))
	}
}

func TestCompletePurchaseServerFull(t *testing.T) {
	// The read shows a free slot but a concurrent purchase takes it before
	// the transaction commits.
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	seedServer(store, 5, 250, true, 2, 1)
	client := &fakeClient{}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(client))

	store.recordPurchase = func(rec *models.PurchaseRecord) (*models.VPNCredential, error) {
		return nil, repository.ErrServerFull
	}

	_, err := svc.CompletePurchase(context.Background(), payload.EncodePurchase(1, 5))
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(client.deletes) != 1 {
		t.Errorf("provider deletes = %d, want 1 rollback", len(client.deletes))
	}
}

func TestCompletePurchaseProviderDown(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	seedServer(store, 5, 250, true, 10, 0)
	client := &fakeClient{failNext: fmt.Errorf("connection refused")}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(client))

	_, err := svc.CompletePurchase(context.Background(), payload.EncodePurchase(1, 5))
	if !apperrors.IsKind(err, apperrors.KindProviderUnavailable) {
		t.Fatalf("err = %v, want provider unavailable", err)
	}
	if len(store.purchases) != 0 {
		t.Error("failed provisioning must not write to the ledger")
	}
}

func TestCompletePurchaseMalformedToken(t *testing.T) {
	svc := NewLifecycleService(testConfig(), newFakeStore(), fixedFactory(&fakeClient{}))

	tokens := []string{
		"",
		"garbage",
		payload.EncodeRenewal(1, 2, 3),
		"vpn30days_1",
		"vpn30days_1_5",
		"vpn30days_1_5_nonsense",
		"vpn30days_0_5_0e04a2a8-6ab4-4f4f-8011-6a6a25b5e4a2",
	}
	for _, token := range tokens {
		_, err := svc.CompletePurchase(context.Background(), token)
		if !apperrors.IsKind(err, apperrors.KindMalformedPayload) {
			t.Errorf("token %q: err = %v, want malformed payload", token, err)
		}
	}
}

func TestCompletePurchaseReferralCredit(t *testing.T) {
	store := newFakeStore()
	referrerID := int64(7)
	store.users[7] = &models.User{ID: 7, TgID: 777}
	store.users[1] = &models.User{ID: 1, TgID: 111, ReferrerID: &referrerID}
	seedServer(store, 5, 250, true, 10, 0)
	svc := NewLifecycleService(testConfig(), store, fixedFactory(&fakeClient{}))

	if _, err := svc.CompletePurchase(context.Background(), payload.EncodePurchase(1, 5)); err != nil {
		t.Fatalf("CompletePurchase: %v", err)
	}

	rec := store.purchases[0]
	if rec.ReferrerID == nil || *rec.ReferrerID != 7 {
		t.Fatalf("referrer id = %v, want 7", rec.ReferrerID)
	}
	if rec.ReferralAmount != 25 {
		t.Errorf("referral amount = %d, want 10%% of 250 = 25", rec.ReferralAmount)
	}
}

// A lapsed user buying the same server again gets a fresh credential. The
// second invoice carries its own token, so the consumed record from the
// first purchase cannot swallow the second payment.
func TestCompletePurchaseRepeatedPurchases(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	seedServer(store, 5, 250, true, 10, 0)
	client := &fakeClient{}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(client))

	var tokens []string
	for i := 0; i < 2; i++ {
		inv, err := svc.InitiatePurchase(context.Background(), &models.InvoiceRequest{TgID: 111, ServerID: 5})
		if err != nil {
			t.Fatalf("purchase %d initiate: %v", i+1, err)
		}
		tokens = append(tokens, inv.Payload)
		if _, err := svc.CompletePurchase(context.Background(), inv.Payload); err != nil {
			t.Fatalf("purchase %d complete: %v", i+1, err)
		}
	}

	if tokens[0] == tokens[1] {
		t.Error("both invoices carry the same token")
	}
	if client.creates != 2 {
		t.Errorf("provider creates = %d, want one per paid purchase", client.creates)
	}
	if len(store.purchases) != 2 {
		t.Errorf("recorded purchases = %d, want 2", len(store.purchases))
	}
}

func TestInitiateRenewalClampsMonths(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	seedServer(store, 5, 100, true, 10, 1)
	store.credentials[9] = &models.VPNCredential{ID: 9, UserID: 1, ServerID: 5, IsActive: true, AccessURL: "ss://x"}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(&fakeClient{}))

	tests := []struct {
		months     int
		wantMonths int
		wantAmount int64
	}{
		{0, 1, 100},
		{3, 3, 300},
		{24, 24, 2400},
		{99, 24, 2400},
		{-5, 1, 100},
	}

	for _, tt := range tests {
		inv, err := svc.InitiateRenewal(context.Background(), &models.RenewInvoiceRequest{TgID: 111, CredentialID: 9, Months: tt.months})
		if err != nil {
			t.Fatalf("months=%d: %v", tt.months, err)
		}
		if inv.Amount != tt.wantAmount {
			t.Errorf("months=%d: amount = %d, want %d", tt.months, inv.Amount, tt.wantAmount)
		}
		p, err := payload.DecodeRenewal(inv.Payload)
		if err != nil {
			t.Fatalf("months=%d: decode payload %q: %v", tt.months, inv.Payload, err)
		}
		if p.UserID != 1 || p.CredentialID != 9 || p.Months != tt.wantMonths {
			t.Errorf("months=%d: payload = %+v, want user 1 credential 9 months %d", tt.months, p, tt.wantMonths)
		}
	}
}

func TestInitiateRenewalUnknownCredential(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	store.users[2] = &models.User{ID: 2, TgID: 222}
	store.credentials[9] = &models.VPNCredential{ID: 9, UserID: 2, ServerID: 5, IsActive: true}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(&fakeClient{}))

	// Credential belongs to another user.
	_, err := svc.InitiateRenewal(context.Background(), &models.RenewInvoiceRequest{TgID: 111, CredentialID: 9, Months: 1})
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCompleteRenewalExtendsFromCurrentExpiry(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	future := time.Now().UTC().AddDate(0, 0, 10).Truncate(time.Second)
	store.credentials[9] = &models.VPNCredential{ID: 9, UserID: 1, ServerID: 5, IsActive: true, AccessURL: "ss://x", ExpiresAt: future}
	client := &fakeClient{}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(client))

	res, err := svc.CompleteRenewal(context.Background(), payload.EncodeRenewal(1, 9, 2))
	if err != nil {
		t.Fatalf("CompleteRenewal: %v", err)
	}

	want := future.AddDate(0, 0, 60)
	if !res.NewExpiresAt.Equal(want) {
		t.Errorf("new expiry = %s, want current expiry + 60d = %s", res.NewExpiresAt, want)
	}
	if client.creates != 0 {
		t.Error("renewal must not call the provider")
	}
}

func TestCompleteRenewalLapsedAnchorsAtNow(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	past := time.Now().UTC().AddDate(0, 0, -10)
	store.credentials[9] = &models.VPNCredential{ID: 9, UserID: 1, ServerID: 5, IsActive: true, AccessURL: "ss://x", ExpiresAt: past}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(&fakeClient{}))

	before := time.Now().UTC()
	res, err := svc.CompleteRenewal(context.Background(), payload.EncodeRenewal(1, 9, 1))
	if err != nil {
		t.Fatalf("CompleteRenewal: %v", err)
	}

	want := before.AddDate(0, 0, 30)
	if res.NewExpiresAt.Before(want.Add(-time.Minute)) || res.NewExpiresAt.After(want.Add(time.Minute)) {
		t.Errorf("new expiry = %s, want about now + 30d = %s", res.NewExpiresAt, want)
	}
}

func TestCompleteRenewalReplay(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	store.credentials[9] = &models.VPNCredential{ID: 9, UserID: 1, ServerID: 5, IsActive: true, AccessURL: "ss://x",
		ExpiresAt: time.Now().UTC().AddDate(0, 0, 5)}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(&fakeClient{}))

	token := payload.EncodeRenewal(1, 9, 1)
	first, err := svc.CompleteRenewal(context.Background(), token)
	if err != nil {
		t.Fatalf("first renewal: %v", err)
	}
	second, err := svc.CompleteRenewal(context.Background(), token)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if !second.NewExpiresAt.Equal(first.NewExpiresAt) {
		t.Errorf("replay expiry = %s, want first result %s (no double extension)", second.NewExpiresAt, first.NewExpiresAt)
	}
	if len(store.renewals) != 1 {
		t.Errorf("recorded renewals = %d, want 1", len(store.renewals))
	}
}

// Back-to-back paid renewals are distinct payments, not replays. Each invoice
// mints its own token, so the second payment must extend the credential
// again instead of returning the first outcome.
func TestCompleteRenewalBackToBackPayments(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	seedServer(store, 5, 100, true, 10, 1)
	start := time.Now().UTC().AddDate(0, 0, 5).Truncate(time.Second)
	store.credentials[9] = &models.VPNCredential{ID: 9, UserID: 1, ServerID: 5, IsActive: true, AccessURL: "ss://x", ExpiresAt: start}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(&fakeClient{}))

	var tokens []string
	for i := 0; i < 2; i++ {
		inv, err := svc.InitiateRenewal(context.Background(), &models.RenewInvoiceRequest{TgID: 111, CredentialID: 9, Months: 1})
		if err != nil {
			t.Fatalf("renewal %d initiate: %v", i+1, err)
		}
		tokens = append(tokens, inv.Payload)
		if _, err := svc.CompleteRenewal(context.Background(), inv.Payload); err != nil {
			t.Fatalf("renewal %d complete: %v", i+1, err)
		}
	}

	if tokens[0] == tokens[1] {
		t.Error("both invoices carry the same token")
	}
	if len(store.renewals) != 2 {
		t.Fatalf("recorded renewals = %d, want 2", len(store.renewals))
	}
	want := start.AddDate(0, 0, 60)
	if got := store.credentials[9].ExpiresAt; !got.Equal(want) {
		t.Errorf("expiry after two renewals = %s, want %s", got, want)
	}
}

func TestCompleteRenewalUnknownCredential(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	svc := NewLifecycleService(testConfig(), store, fixedFactory(&fakeClient{}))

	_, err := svc.CompleteRenewal(context.Background(), payload.EncodeRenewal(1, 9, 1))
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if len(store.renewals) != 0 {
		t.Error("failed renewal must not write to the ledger")
	}
}

func TestCompleteRenewalMonthsOutOfRange(t *testing.T) {
	svc := NewLifecycleService(testConfig(), newFakeStore(), fixedFactory(&fakeClient{}))

	_, err := svc.CompleteRenewal(context.Background(), payload.EncodeRenewal(1, 9, 25))
	if !apperrors.IsKind(err, apperrors.KindMalformedPayload) {
		t.Fatalf("err = %v, want malformed payload", err)
	}
}

func TestListUserCredentialsUnknownUser(t *testing.T) {
	svc := NewLifecycleService(testConfig(), newFakeStore(), fixedFactory(&fakeClient{}))

	creds, err := svc.ListUserCredentials(context.Background(), 404404)
	if err != nil {
		t.Fatalf("ListUserCredentials: %v", err)
	}
	if len(creds) != 0 {
		t.Errorf("credentials = %d, want empty list", len(creds))
	}
}

func TestSafeMessageNeverLeaksInternals(t *testing.T) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, TgID: 111}
	seedServer(store, 5, 250, true, 10, 0)
	svc := NewLifecycleService(testConfig(), store, fixedFactory(&fakeClient{failNext: fmt.Errorf("dial tcp 10.0.0.8:443: connection refused")}))

	_, err := svc.CompletePurchase(context.Background(), payload.EncodePurchase(1, 5))
	if err == nil {
		t.Fatal("expected error")
	}
	msg := apperrors.SafeMessage(err)
	if strings.Contains(msg, "10.0.0.8") || strings.Contains(msg, "dial tcp") {
		t.Errorf("safe message leaks internals: %q", msg)
	}
}
