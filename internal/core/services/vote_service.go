package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"award-portal/internal/adapters/persistence/models"
	"award-portal/internal/adapters/persistence/repositories"
	"award-portal/internal/config"
	"award-portal/internal/core/domain"
	"award-portal/internal/pkg/paystack"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentGateway is the slice of the gateway client the orchestrator needs.
type PaymentGateway interface {
	Initialize(ctx context.Context, req *paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error)
}

// VoteService sequences the paid-voting flow: eligibility check, payment
// initialization, payment verification, ledger commit, tally refresh.
type VoteService struct {
	eligibility  *EligibilityService
	gateway      PaymentGateway
	userRepo     *repositories.UserRepository
	categoryRepo *repositories.CategoryRepository
	nomineeRepo  *repositories.NomineeRepository
	paymentRepo  *repositories.PaymentRepository
	voteRepo     *repositories.VoteRepository
	reconRepo    *repositories.ReconciliationRepository
	tally        *TallyService
	cfg          *config.Config
}

// NewVoteService creates a new vote service
func NewVoteService(
	eligibility *EligibilityService,
	gateway PaymentGateway,
	userRepo *repositories.UserRepository,
	categoryRepo *repositories.CategoryRepository,
	nomineeRepo *repositories.NomineeRepository,
	paymentRepo *repositories.PaymentRepository,
	voteRepo *repositories.VoteRepository,
	reconRepo *repositories.ReconciliationRepository,
	tally *TallyService,
	cfg *config.Config,
) *VoteService {
	return &VoteService{
		eligibility:  eligibility,
		gateway:      gateway,
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		nomineeRepo:  nomineeRepo,
		paymentRepo:  paymentRepo,
		voteRepo:     voteRepo,
		reconRepo:    reconRepo,
		tally:        tally,
		cfg:          cfg,
	}
}

// InitiateVoteInput represents a vote intent
type InitiateVoteInput struct {
	CategoryID uint `json:"category_id" validate:"required"`
	NomineeID  uint `json:"nominee_id" validate:"required"`
}

// InitiateVoteOutput carries the gateway redirect for the client
type InitiateVoteOutput struct {
	Reference        string  `json:"reference"`
	AuthorizationURL string  `json:"authorization_url"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
}

// InitiateVote checks eligibility, records the vote intent as a payment
// transaction and initializes it on the gateway. The client completes payment
// out-of-band against the returned redirect.
func (s *VoteService) InitiateVote(ctx context.Context, userID uint, input *InitiateVoteInput) (*InitiateVoteOutput, error) {
	if err := s.eligibility.Check(ctx, userID, input.CategoryID); err != nil {
		return nil, err
	}

	nominee, err := s.nomineeRepo.GetByID(ctx, input.NomineeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNomineeNotFound
		}
		return nil, err
	}
	if nominee.CategoryID != input.CategoryID {
		return nil, domain.ErrNomineeWrongCategory
	}
	if !nominee.IsApproved() {
		return nil, domain.ErrNomineeNotApproved
	}

	category, err := s.categoryRepo.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category.VotePrice <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	reference := newReference()
	tx := &models.PaymentTransaction{
		Reference:  reference,
		UserID:     userID,
		CategoryID: input.CategoryID,
		NomineeID:  input.NomineeID,
		Amount:     category.VotePrice,
		Currency:   s.cfg.Voting.Currency,
		Status:     models.PaymentStatusInitialized,
	}
	if err := s.paymentRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	result, err := s.gateway.Initialize(ctx, &paystack.InitializeRequest{
		Amount:    toSubunit(category.VotePrice),
		Currency:  s.cfg.Voting.Currency,
		Email:     user.Email,
		Reference: reference,
		Metadata: paystack.Metadata{
			UserID:     userID,
			CategoryID: input.CategoryID,
			NomineeID:  input.NomineeID,
		},
	})
	if err != nil {
		// The intent never reached the gateway; close the transaction so it
		// doesn't linger until the expiry sweep.
		s.paymentRepo.MarkStatus(ctx, reference, models.PaymentStatusFailed, nil)
		return nil, translateGatewayError(err)
	}

	if _, err := s.paymentRepo.MarkStatus(ctx, reference, models.PaymentStatusPending, nil); err != nil {
		return nil, err
	}

	log.Printf("✅ Vote payment initialized: %s (user %d, category %d, nominee %d)",
		reference, userID, input.CategoryID, input.NomineeID)

	return &InitiateVoteOutput{
		Reference:        reference,
		AuthorizationURL: result.AuthorizationURL,
		Amount:           category.VotePrice,
		Currency:         s.cfg.Voting.Currency,
	}, nil
}

// ConfirmVote resolves a payment reference into a committed vote record. It
// is the shared entry point for the webhook push and the client poll, safe to
// call concurrently and repeatedly for the same reference: the payment status
// transition and the ledger's uniqueness constraint make the whole path
// idempotent.
func (s *VoteService) ConfirmVote(ctx context.Context, reference string) (*models.VoteRecord, error) {
	tx, err := s.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReferenceNotFound
		}
		return nil, err
	}

	switch tx.Status {
	case models.PaymentStatusSuccess:
		// Already confirmed; commit is idempotent.
		return s.commitConfirmed(ctx, tx)
	case models.PaymentStatusFailed:
		return nil, domain.ErrPaymentFailed
	case models.PaymentStatusExpired:
		return nil, domain.ErrPaymentExpired
	}

	result, err := s.verifyWithRetry(ctx, reference)
	if err != nil {
		if errors.Is(err, paystack.ErrReferenceNotFound) {
			// Gateway has no record of the reference: treat as failed.
			s.paymentRepo.MarkStatus(ctx, reference, models.PaymentStatusFailed, nil)
			return nil, domain.ErrPaymentFailed
		}
		return nil, translateGatewayError(err)
	}

	switch result.Status {
	case paystack.StatusSuccess:
		// fall through below
	case paystack.StatusPending:
		return nil, domain.ErrPaymentNotConfirmed
	default:
		s.paymentRepo.MarkStatus(ctx, reference, models.PaymentStatusFailed, nil)
		return nil, domain.ErrPaymentFailed
	}

	// The charge succeeded. Validate what the gateway confirmed against the
	// recorded intent before anything touches the ledger. Flagged charges
	// file their reconciliation entry BEFORE the transaction turns SUCCESS,
	// so no confirmer can observe a terminal SUCCESS without the flag.
	if result.AmountPaid < toSubunit(tx.Amount) {
		rejected := s.reconcile(ctx, tx, fmt.Sprintf("amount paid %d below expected %d",
			result.AmountPaid, toSubunit(tx.Amount)))
		if _, err := s.paymentRepo.MarkStatus(ctx, reference, models.PaymentStatusSuccess, result.PaidAt); err != nil {
			log.Printf("❌ Failed to settle underpaid transaction %s: %v", reference, err)
		}
		return nil, rejected
	}
	meta := result.Metadata
	if meta.UserID != tx.UserID || meta.CategoryID != tx.CategoryID || meta.NomineeID != tx.NomineeID {
		rejected := s.reconcile(ctx, tx, fmt.Sprintf("gateway metadata %+v does not match recorded intent", meta))
		if _, err := s.paymentRepo.MarkStatus(ctx, reference, models.PaymentStatusSuccess, result.PaidAt); err != nil {
			log.Printf("❌ Failed to settle mismatched transaction %s: %v", reference, err)
		}
		return nil, rejected
	}

	moved, err := s.paymentRepo.MarkStatus(ctx, reference, models.PaymentStatusSuccess, result.PaidAt)
	if err != nil {
		return nil, err
	}
	if moved {
		tx.Status = models.PaymentStatusSuccess
		return s.commitConfirmed(ctx, tx)
	}

	// The guard matched no rows: another confirmer or the expiry sweep
	// settled the transaction first. Re-read the real state rather than
	// assume the transition happened.
	tx, err = s.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	switch tx.Status {
	case models.PaymentStatusSuccess:
		return s.commitConfirmed(ctx, tx)
	case models.PaymentStatusFailed:
		return nil, domain.ErrPaymentFailed
	case models.PaymentStatusExpired:
		return nil, domain.ErrPaymentExpired
	default:
		return nil, domain.ErrPaymentNotConfirmed
	}
}

// commitConfirmed settles a SUCCESS transaction into the ledger. A reference
// with a reconciliation entry never commits automatically, no matter how many
// times verify is re-polled: the charge was flagged as underpaid or tampered
// and only the admin queue may dispose of it.
func (s *VoteService) commitConfirmed(ctx context.Context, tx *models.PaymentTransaction) (*models.VoteRecord, error) {
	flagged, err := s.reconRepo.ExistsByReference(ctx, tx.Reference)
	if err != nil {
		return nil, err
	}
	if flagged {
		return nil, domain.ErrCommitRejected
	}
	return s.commit(ctx, tx)
}

// commit writes the ledger record for a SUCCESS transaction. DuplicateVote is
// idempotent success: the existing record is returned. Any other rejection
// after a successful payment goes to reconciliation.
func (s *VoteService) commit(ctx context.Context, tx *models.PaymentTransaction) (*models.VoteRecord, error) {
	record, err := s.voteRepo.CommitVote(ctx, tx.UserID, tx.CategoryID, tx.NomineeID, tx.Reference)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateVote) {
			existing, getErr := s.voteRepo.GetByUserCategory(ctx, tx.UserID, tx.CategoryID)
			if getErr != nil {
				return nil, getErr
			}
			return existing, nil
		}
		return nil, s.reconcile(ctx, tx, fmt.Sprintf("ledger rejected commit: %v", err))
	}

	s.tally.Invalidate(tx.CategoryID)
	log.Printf("✅ Vote committed: %s (user %d, category %d, nominee %d)",
		tx.Reference, tx.UserID, tx.CategoryID, tx.NomineeID)

	return record, nil
}

// reconcile records a payment that succeeded but whose vote could not be
// committed. Never retried automatically; surfaced generically to the user
// and loudly to operators.
func (s *VoteService) reconcile(ctx context.Context, tx *models.PaymentTransaction, reason string) error {
	// One entry per reference, enforced by the unique index: a webhook and a
	// poll racing through the same flagged verification must not double-file
	// the queue. The loser's insert lands on the index and is dropped.
	entry := &models.ReconciliationEntry{
		Reference:  tx.Reference,
		UserID:     tx.UserID,
		CategoryID: tx.CategoryID,
		NomineeID:  tx.NomineeID,
		Reason:     reason,
	}
	if err := s.reconRepo.Create(ctx, entry); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		log.Printf("❌ Failed to record reconciliation entry for %s: %v", tx.Reference, err)
	}

	log.Printf("⚠️ RECONCILIATION REQUIRED: payment %s succeeded but vote not committed: %s",
		tx.Reference, reason)

	return domain.ErrCommitRejected
}

// verifyWithRetry calls Verify with bounded exponential backoff on transient
// gateway faults. An exhausted budget surfaces ErrGatewayUnavailable; the
// payment may still resolve later through the webhook path.
func (s *VoteService) verifyWithRetry(ctx context.Context, reference string) (*paystack.VerifyResult, error) {
	maxAttempts := s.cfg.Voting.VerifyMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	base := time.Duration(s.cfg.Voting.VerifyBackoffMillis) * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * base
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := s.gateway.Verify(ctx, reference)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, paystack.ErrGatewayUnavailable) {
			return nil, err
		}
		lastErr = err
		log.Printf("⚠️ Verify attempt %d/%d failed for %s: %v", attempt+1, maxAttempts, reference, err)
	}

	return nil, lastErr
}

// GetMyVote returns the caller's vote record for a category, nil when absent
func (s *VoteService) GetMyVote(ctx context.Context, userID, categoryID uint) (*models.VoteRecord, error) {
	record, err := s.voteRepo.GetByUserCategory(ctx, userID, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// GetMyVotes returns all of the caller's vote records
func (s *VoteService) GetMyVotes(ctx context.Context, userID uint) ([]*models.VoteRecord, error) {
	return s.voteRepo.ListByUser(ctx, userID)
}

// newReference generates a gateway transaction reference
func newReference() string {
	return "AWD-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// toSubunit converts a currency amount to its subunit (kobo for NGN)
func toSubunit(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// translateGatewayError maps gateway client errors onto domain errors
func translateGatewayError(err error) error {
	switch {
	case errors.Is(err, paystack.ErrGatewayUnavailable):
		return domain.ErrGatewayUnavailable
	case errors.Is(err, paystack.ErrInvalidAmount):
		return domain.ErrInvalidAmount
	case errors.Is(err, paystack.ErrReferenceNotFound):
		return domain.ErrReferenceNotFound
	default:
		return err
	}
}
