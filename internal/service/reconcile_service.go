package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/artcry/vpn-service/internal/provider"
)

// orphanPrefix marks provider keys the ledger does not know about. Tagged
// keys stay usable; an operator decides whether to remove them.
const orphanPrefix = "orphan:"

// ReconcileService runs the background sweeps that keep the provider fleet
// consistent with the ledger: revoking lapsed credentials and tagging keys
// with no ledger entry.
type ReconcileService struct {
	store     ReconcileStore
	providers provider.Factory
}

func NewReconcileService(store ReconcileStore, providers provider.Factory) *ReconcileService {
	return &ReconcileService{store: store, providers: providers}
}

// SweepExpired revokes every active credential past its expiry. For each
// one the provider key is deleted first; only after the provider confirms
// does the ledger row get deactivated and the server slot released. A
// provider failure leaves the row active for the next sweep.
func (s *ReconcileService) SweepExpired(ctx context.Context) error {
	expired, err := s.store.ListExpiredCredentials(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("list expired credentials: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	log.Printf("[Reconcile] Sweeping %d expired credential(s)", len(expired))

	var failed int
	for _, e := range expired {
		cred := e.Credential
		client := s.providers(e.ServerAPIURL, e.ServerAPIToken)

		if err := client.DeleteCredential(ctx, cred.ProviderKeyID); err != nil {
			failed++
			log.Printf("[Reconcile] Failed to revoke key %s for credential %d: %v",
				cred.ProviderKeyID, cred.ID, err)
			s.store.LogAction(ctx, &cred.ID, "expire", "failed",
				fmt.Sprintf("provider delete failed: %v", err))
			continue
		}

		if err := s.store.ExpireCredential(ctx, cred.ID, cred.ServerID); err != nil {
			failed++
			log.Printf("[Reconcile] Failed to retire credential %d after provider delete: %v", cred.ID, err)
			continue
		}
	}

	if failed > 0 {
		return fmt.Errorf("sweep finished with %d failure(s) out of %d", failed, len(expired))
	}
	return nil
}

// ScanOrphans compares each active server's provider keys with the ledger
// and renames unknown keys with the orphan prefix. Keys are never deleted
// here: a rename is reversible, a delete of a paying user's key is not.
func (s *ReconcileService) ScanOrphans(ctx context.Context) error {
	servers, err := s.store.ListServers(ctx)
	if err != nil {
		return fmt.Errorf("list servers: %w", err)
	}

	var failed int
	for _, srv := range servers {
		if !srv.IsActive {
			continue
		}
		if err := s.scanServer(ctx, srv.ID, srv.APIURL, srv.APIToken); err != nil {
			failed++
			log.Printf("[Reconcile] Orphan scan failed for server %d: %v", srv.ID, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("orphan scan finished with %d server failure(s)", failed)
	}
	return nil
}

func (s *ReconcileService) scanServer(ctx context.Context, serverID int64, apiURL, apiToken string) error {
	known, err := s.store.ListActiveKeyIDs(ctx, serverID)
	if err != nil {
		return fmt.Errorf("list ledger keys: %w", err)
	}

	client := s.providers(apiURL, apiToken)
	keys, err := client.ListCredentials(ctx)
	if err != nil {
		return fmt.Errorf("list provider keys: %w", err)
	}

	for _, key := range keys {
		if known[key.ID] || strings.HasPrefix(key.Name, orphanPrefix) {
			continue
		}

		newName := orphanPrefix + key.Name
		if err := client.RenameCredential(ctx, key.ID, newName); err != nil {
			log.Printf("[Reconcile] Failed to tag orphan key %s on server %d: %v", key.ID, serverID, err)
			continue
		}

		log.Printf("[Reconcile] Tagged orphan key %s on server %d", key.ID, serverID)
		s.store.LogAction(ctx, nil, "orphan_tag", "success",
			fmt.Sprintf("tagged provider key %s on server %d", key.ID, serverID))
	}
	return nil
}
