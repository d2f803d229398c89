package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"award-portal/internal/adapters/persistence/models"
	"award-portal/internal/core/domain"
	"award-portal/internal/pkg/paystack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateVote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.Reference, "AWD-"))
	assert.NotEmpty(t, out.AuthorizationURL)
	assert.Equal(t, 100.0, out.Amount)
	assert.Equal(t, "NGN", out.Currency)

	// The intent is recorded as a PENDING transaction
	tx, err := env.paymentRepo.GetByReference(ctx, out.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, tx.Status)
	assert.Equal(t, voter.ID, tx.UserID)
	assert.Equal(t, nominee.ID, tx.NomineeID)
}

func TestInitiateVoteRejectsUnapprovedNominee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)

	pending := &models.Nominee{
		CategoryID:  category.ID,
		DisplayName: "Not Yet Approved",
		Status:      models.NomineeStatusPending,
	}
	require.NoError(t, env.nomineeRepo.Create(ctx, pending))

	_, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  pending.ID,
	})
	assert.ErrorIs(t, err, domain.ErrNomineeNotApproved)
}

func TestInitiateVoteRejectsNomineeFromOtherCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	categoryA := env.createOpenCategory(t, "Category A", 100)
	categoryB := env.createOpenCategory(t, "Category B", 100)
	nomineeB := env.createApprovedNominee(t, categoryB.ID, "Wrong Category")

	_, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: categoryA.ID,
		NomineeID:  nomineeB.ID,
	})
	assert.ErrorIs(t, err, domain.ErrNomineeWrongCategory)
}

func TestInitiateVoteGatewayDown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	env.gateway.initializeErr = paystack.ErrGatewayUnavailable

	_, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)

	// No vote record appears for a failed initialization
	voted, err := env.voteRepo.HasVoted(ctx, voter.ID, category.ID)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestConfirmVoteCommitsLedgerRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	record, err := env.votes.ConfirmVote(ctx, out.Reference)
	require.NoError(t, err)
	assert.Equal(t, voter.ID, record.UserID)
	assert.Equal(t, nominee.ID, record.NomineeID)

	// Transaction settled as SUCCESS with a paid timestamp
	tx, err := env.paymentRepo.GetByReference(ctx, out.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, tx.Status)
	assert.NotNil(t, tx.PaidAt)

	// Tally reflects the committed vote
	count, err := env.tally.GetCount(ctx, nominee.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestConfirmVoteIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	first, err := env.votes.ConfirmVote(ctx, out.Reference)
	require.NoError(t, err)

	// Webhook and poll may both land; the second confirm returns the same record
	second, err := env.votes.ConfirmVote(ctx, out.Reference)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := env.voteRepo.CountByUser(ctx, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestConfirmVoteConcurrentCommitsSingleRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	const confirmers = 8
	var wg sync.WaitGroup
	errs := make([]error, confirmers)

	for i := 0; i < confirmers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.votes.ConfirmVote(ctx, out.Reference)
		}(i)
	}
	wg.Wait()

	for i := 0; i < confirmers; i++ {
		assert.NoError(t, errs[i])
	}

	// Exactly one ledger record regardless of how many confirmers raced
	count, err := env.voteRepo.CountByUser(ctx, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestConfirmVoteFailedCharge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	env.gateway.override = func(r *paystack.VerifyResult) {
		r.Status = paystack.StatusFailed
	}

	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)

	// No ledger record and the transaction is terminal FAILED
	voted, err := env.voteRepo.HasVoted(ctx, voter.ID, category.ID)
	require.NoError(t, err)
	assert.False(t, voted)

	tx, err := env.paymentRepo.GetByReference(ctx, out.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, tx.Status)

	// A later successful verify cannot resurrect the failed transaction
	env.gateway.override = nil
	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)
}

func TestConfirmVotePendingCharge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	env.gateway.override = func(r *paystack.VerifyResult) {
		r.Status = paystack.StatusPending
	}

	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	assert.ErrorIs(t, err, domain.ErrPaymentNotConfirmed)

	// The transaction stays open for a later confirm
	tx, err := env.paymentRepo.GetByReference(ctx, out.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, tx.Status)
}

func TestConfirmVoteUnderpaidGoesToReconciliation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	env.gateway.override = func(r *paystack.VerifyResult) {
		r.AmountPaid = 5000 // 50.00 NGN, half the vote price
	}

	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	assert.ErrorIs(t, err, domain.ErrCommitRejected)

	// No vote, but the succeeded charge is queued for manual follow-up
	voted, err := env.voteRepo.HasVoted(ctx, voter.ID, category.ID)
	require.NoError(t, err)
	assert.False(t, voted)

	entries, total, err := env.reconRepo.List(ctx, true, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, out.Reference, entries[0].Reference)
	assert.Contains(t, entries[0].Reason, "amount paid")
}

func TestConfirmVoteMetadataMismatchGoesToReconciliation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	env.gateway.override = func(r *paystack.VerifyResult) {
		r.Metadata.NomineeID = nominee.ID + 99
	}

	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	assert.ErrorIs(t, err, domain.ErrCommitRejected)

	entries, total, err := env.reconRepo.List(ctx, true, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, out.Reference, entries[0].Reference)
}

func TestConfirmVoteRepollAfterUnderpaymentNeverCommits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	env.gateway.override = func(r *paystack.VerifyResult) {
		r.AmountPaid = 5000
	}
	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	require.ErrorIs(t, err, domain.ErrCommitRejected)

	// Paying half the price and re-polling verify must not turn the flagged
	// charge into a vote, even though the transaction is terminal SUCCESS.
	env.gateway.override = nil
	for i := 0; i < 3; i++ {
		_, err = env.votes.ConfirmVote(ctx, out.Reference)
		assert.ErrorIs(t, err, domain.ErrCommitRejected)
	}

	voted, err := env.voteRepo.HasVoted(ctx, voter.ID, category.ID)
	require.NoError(t, err)
	assert.False(t, voted)

	// Re-polling files no additional queue entries
	_, total, err := env.reconRepo.List(ctx, false, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// Manual resolution settles the money question; it does not reopen an
	// automatic commit path either.
	entries, _, err := env.reconRepo.List(ctx, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	admin := env.createUser(t, "admin@example.com", domain.RoleAdmin)
	require.NoError(t, env.reconRepo.Resolve(ctx, entries[0].ID, admin.ID, "refunded"))

	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	assert.ErrorIs(t, err, domain.ErrCommitRejected)
	voted, err = env.voteRepo.HasVoted(ctx, voter.ID, category.ID)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestConfirmVoteRepollAfterMetadataMismatchNeverCommits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	env.gateway.override = func(r *paystack.VerifyResult) {
		r.Metadata.NomineeID = nominee.ID + 99
	}
	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	require.ErrorIs(t, err, domain.ErrCommitRejected)

	env.gateway.override = nil
	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	assert.ErrorIs(t, err, domain.ErrCommitRejected)

	voted, err := env.voteRepo.HasVoted(ctx, voter.ID, category.ID)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestConfirmVoteFlaggedConcurrentlyFilesOneEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	env.gateway.override = func(r *paystack.VerifyResult) {
		r.AmountPaid = 5000
	}

	// Webhook and poll race through the same flagged verification
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < len(errs); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.votes.ConfirmVote(ctx, out.Reference)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, domain.ErrCommitRejected)
	}

	_, total, err := env.reconRepo.List(ctx, false, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	voted, err := env.voteRepo.HasVoted(ctx, voter.ID, category.ID)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestConfirmVoteSettledByExpirySweepDuringVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	// The sweep expires the transaction between the gateway verify and the
	// local status transition. The guarded update matches no rows and the
	// confirmer must report the real state, not assume SUCCESS.
	env.gateway.override = func(r *paystack.VerifyResult) {
		moved, err := env.paymentRepo.MarkStatus(ctx, out.Reference, models.PaymentStatusExpired, nil)
		require.NoError(t, err)
		require.True(t, moved)
	}

	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	assert.ErrorIs(t, err, domain.ErrPaymentExpired)

	tx, err := env.paymentRepo.GetByReference(ctx, out.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusExpired, tx.Status)

	voted, err := env.voteRepo.HasVoted(ctx, voter.ID, category.ID)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestConfirmVoteRetriesTransientGatewayFaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	// First two verify calls fail, the third succeeds within the
	// VerifyMaxAttempts=3 budget
	env.gateway.verifyErr = paystack.ErrGatewayUnavailable
	env.gateway.verifyErrTimes = 2
	env.gateway.verifyCalls = 0

	record, err := env.votes.ConfirmVote(ctx, out.Reference)
	require.NoError(t, err)
	assert.Equal(t, nominee.ID, record.NomineeID)
	assert.Equal(t, 3, env.gateway.verifyCalls)
}

func TestConfirmVoteExhaustedRetriesSurfaceGatewayUnavailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)

	env.gateway.verifyErr = paystack.ErrGatewayUnavailable

	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	assert.Equal(t, env.cfg.Voting.VerifyMaxAttempts, env.gateway.verifyCalls)

	// Still pending: the webhook or sweep can resolve it later
	tx, err := env.paymentRepo.GetByReference(ctx, out.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, tx.Status)
}

func TestConfirmVoteUnknownReference(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.votes.ConfirmVote(context.Background(), "AWD-doesnotexist")
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestSecondVoteInCategoryRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")
	rival := env.createApprovedNominee(t, category.ID, "Bola Ade")

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)
	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	require.NoError(t, err)

	// A second initiation in the same category fails eligibility
	_, err = env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  rival.ID,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
}

func TestGetMyVote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")

	// No vote yet returns nil without error
	record, err := env.votes.GetMyVote(ctx, voter.ID, category.ID)
	require.NoError(t, err)
	assert.Nil(t, record)

	out, err := env.votes.InitiateVote(ctx, voter.ID, &InitiateVoteInput{
		CategoryID: category.ID,
		NomineeID:  nominee.ID,
	})
	require.NoError(t, err)
	_, err = env.votes.ConfirmVote(ctx, out.Reference)
	require.NoError(t, err)

	record, err = env.votes.GetMyVote(ctx, voter.ID, category.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, nominee.ID, record.NomineeID)
}
