package services

import (
	"context"
	"errors"
	"log"
	"time"

	"award-portal/internal/adapters/persistence/models"
	"award-portal/internal/adapters/persistence/repositories"
	"award-portal/internal/config"
	"award-portal/internal/core/domain"

	"github.com/robfig/cron/v3"
)

// sweepBatchSize bounds how many transactions one sweep touches
const sweepBatchSize = 200

// ReconciliationService runs the scheduled payment housekeeping: expiring
// stale transactions and re-verifying pending ones (the safety net for lost
// webhooks), and serves the admin reconciliation queue.
type ReconciliationService struct {
	cron        *cron.Cron
	paymentRepo *repositories.PaymentRepository
	reconRepo   *repositories.ReconciliationRepository
	voteService *VoteService
	cfg         *config.Config
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	paymentRepo *repositories.PaymentRepository,
	reconRepo *repositories.ReconciliationRepository,
	voteService *VoteService,
	cfg *config.Config,
) *ReconciliationService {
	return &ReconciliationService{
		cron:        cron.New(),
		paymentRepo: paymentRepo,
		reconRepo:   reconRepo,
		voteService: voteService,
		cfg:         cfg,
	}
}

// Start schedules the background sweeps
func (s *ReconciliationService) Start() {
	s.cron.AddFunc("@every 1m", s.expireStalePayments)
	s.cron.AddFunc("@every 2m", s.reverifyPendingPayments)
	s.cron.Start()
	log.Println("🚀 ReconciliationService started")
}

// Stop stops the scheduled sweeps
func (s *ReconciliationService) Stop() {
	s.cron.Stop()
	log.Println("🛑 ReconciliationService stopped")
}

// expireStalePayments moves open transactions past the expiry window to
// EXPIRED. Expired transactions are excluded from eligibility so the user may
// re-attempt the vote.
func (s *ReconciliationService) expireStalePayments() {
	ctx := context.Background()
	cutoff := time.Now().Add(-time.Duration(s.cfg.Voting.PaymentExpiryMins) * time.Minute)

	txs, err := s.paymentRepo.ListOpenOlderThan(ctx, cutoff, sweepBatchSize)
	if err != nil {
		log.Printf("❌ Expiry sweep query error: %v", err)
		return
	}

	var expired int
	for _, tx := range txs {
		moved, err := s.paymentRepo.MarkStatus(ctx, tx.Reference, models.PaymentStatusExpired, nil)
		if err != nil {
			log.Printf("❌ Expiry sweep error for %s: %v", tx.Reference, err)
			continue
		}
		if moved {
			expired++
		}
	}

	if expired > 0 {
		log.Printf("🗑️ Expired %d stale payment transactions", expired)
	}
}

// reverifyPendingPayments re-drives ConfirmVote for recent PENDING
// transactions. This is the asynchronous re-entry path for payments whose
// webhook was lost and whose client stopped polling.
func (s *ReconciliationService) reverifyPendingPayments() {
	ctx := context.Background()
	cutoff := time.Now().Add(-time.Duration(s.cfg.Voting.PaymentExpiryMins) * time.Minute)

	txs, err := s.paymentRepo.ListPendingSince(ctx, cutoff, sweepBatchSize)
	if err != nil {
		log.Printf("❌ Re-verify sweep query error: %v", err)
		return
	}

	for _, tx := range txs {
		_, err := s.voteService.ConfirmVote(ctx, tx.Reference)
		switch {
		case err == nil:
			log.Printf("✅ Re-verify sweep committed vote for %s", tx.Reference)
		case errors.Is(err, domain.ErrPaymentNotConfirmed),
			errors.Is(err, domain.ErrGatewayUnavailable):
			// Still pending or gateway down; the next sweep retries.
		case errors.Is(err, domain.ErrPaymentFailed), errors.Is(err, domain.ErrPaymentExpired):
			// Settled as a failure; nothing to do.
		default:
			log.Printf("⚠️ Re-verify sweep error for %s: %v", tx.Reference, err)
		}
	}
}

// ListEntries lists reconciliation entries for the admin queue
func (s *ReconciliationService) ListEntries(ctx context.Context, onlyUnresolved bool, offset, limit int) ([]*models.ReconciliationEntry, int64, error) {
	return s.reconRepo.List(ctx, onlyUnresolved, offset, limit)
}

// ResolveEntry marks a reconciliation entry as handled by an admin
func (s *ReconciliationService) ResolveEntry(ctx context.Context, id, adminID uint, note string) error {
	if _, err := s.reconRepo.GetByID(ctx, id); err != nil {
		return domain.ErrNotFound
	}
	if err := s.reconRepo.Resolve(ctx, id, adminID, note); err != nil {
		return err
	}
	log.Printf("✅ Reconciliation entry %d resolved by admin %d", id, adminID)
	return nil
}
