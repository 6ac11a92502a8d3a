// Package scheduler drives the background reconciliation jobs on a cron
// timetable.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/artcry/vpn-service/internal/service"
)

// jobTimeout bounds one sweep run so a hung provider cannot stall the
// scheduler forever.
const jobTimeout = 15 * time.Minute

type Scheduler struct {
	cron      *cron.Cron
	reconcile *service.ReconcileService
}

func NewScheduler(reconcile *service.ReconcileService) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		reconcile: reconcile,
	}
}

func (s *Scheduler) Start() error {
	// Expired credential sweep, daily at 00:10.
	if _, err := s.cron.AddFunc("10 0 * * *", s.runSweep); err != nil {
		return fmt.Errorf("failed to add expiry sweep job: %w", err)
	}

	// Orphan key scan, every 6 hours.
	if _, err := s.cron.AddFunc("0 */6 * * *", s.runOrphanScan); err != nil {
		return fmt.Errorf("failed to add orphan scan job: %w", err)
	}

	s.cron.Start()
	log.Println("[Scheduler] Cron scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	// Let a running job finish before shutdown proceeds.
	<-ctx.Done()
	log.Println("[Scheduler] Cron scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.reconcile.SweepExpired(ctx); err != nil {
		log.Printf("[Scheduler] Expiry sweep finished with errors: %v", err)
	}
}

func (s *Scheduler) runOrphanScan() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.reconcile.ScanOrphans(ctx); err != nil {
		log.Printf("[Scheduler] Orphan scan finished with errors: %v", err)
	}
}
