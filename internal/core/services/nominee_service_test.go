package services

import (
	"context"
	"testing"

	"award-portal/internal/adapters/persistence/models"
	"award-portal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNomineeService(env *testEnv) *NomineeService {
	return NewNomineeService(env.nomineeRepo, env.categoryRepo, env.userRepo, env.voteRepo, env.tally)
}

func TestNominate(t *testing.T) {
	env := newTestEnv(t)
	svc := newNomineeService(env)
	ctx := context.Background()

	category := env.createOpenCategory(t, "Best Graduating Student", 100)

	nominee, err := svc.Nominate(ctx, &NominateInput{
		CategoryID:  category.ID,
		DisplayName: "Ada Obi",
		Reason:      "First class, 4.95 CGPA",
	})
	require.NoError(t, err)
	assert.Equal(t, models.NomineeStatusPending, nominee.Status)

	_, err = svc.Nominate(ctx, &NominateInput{CategoryID: 999, DisplayName: "Nobody"})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestNominateRegisteredStudent(t *testing.T) {
	env := newTestEnv(t)
	svc := newNomineeService(env)
	ctx := context.Background()

	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	student := env.createUser(t, "student@example.com", domain.RoleStudent)
	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)

	nominee, err := svc.Nominate(ctx, &NominateInput{
		CategoryID:  category.ID,
		StudentID:   &student.ID,
		DisplayName: "Ada Obi",
	})
	require.NoError(t, err)
	require.NotNil(t, nominee.StudentID)
	assert.Equal(t, student.ID, *nominee.StudentID)

	// One nomination per student per category
	_, err = svc.Nominate(ctx, &NominateInput{
		CategoryID:  category.ID,
		StudentID:   &student.ID,
		DisplayName: "Ada Obi Again",
	})
	assert.ErrorIs(t, err, ErrAlreadyNominated)

	// Plain voters lack the nomination capability
	_, err = svc.Nominate(ctx, &NominateInput{
		CategoryID:  category.ID,
		StudentID:   &voter.ID,
		DisplayName: "Not A Student",
	})
	assert.ErrorIs(t, err, ErrCannotBeNominated)
}

func TestNominateFullCategory(t *testing.T) {
	env := newTestEnv(t)
	svc := newNomineeService(env)
	ctx := context.Background()

	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	require.NoError(t, env.db.Model(category).Update("max_nominees", 1).Error)

	_, err := svc.Nominate(ctx, &NominateInput{CategoryID: category.ID, DisplayName: "Ada Obi"})
	require.NoError(t, err)

	_, err = svc.Nominate(ctx, &NominateInput{CategoryID: category.ID, DisplayName: "Bola Ade"})
	assert.ErrorIs(t, err, ErrCategoryFull)
}

func TestReviewNomination(t *testing.T) {
	env := newTestEnv(t)
	svc := newNomineeService(env)
	ctx := context.Background()

	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	admin := env.createUser(t, "admin@example.com", domain.RoleAdmin)

	nominee, err := svc.Nominate(ctx, &NominateInput{CategoryID: category.ID, DisplayName: "Ada Obi"})
	require.NoError(t, err)

	approved, err := svc.Review(ctx, admin.ID, nominee.ID, &ReviewInput{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, models.NomineeStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, admin.ID, *approved.ReviewedBy)

	// Decisions are terminal
	_, err = svc.Review(ctx, admin.ID, nominee.ID, &ReviewInput{Approve: false})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	// The approved nominee shows up in the tally as a zero row
	counts, err := env.tally.GetCounts(ctx, category.ID)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, nominee.ID, counts[0].NomineeID)
}

func TestReviewRejection(t *testing.T) {
	env := newTestEnv(t)
	svc := newNomineeService(env)
	ctx := context.Background()

	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	admin := env.createUser(t, "admin@example.com", domain.RoleAdmin)

	nominee, err := svc.Nominate(ctx, &NominateInput{CategoryID: category.ID, DisplayName: "Ada Obi"})
	require.NoError(t, err)

	rejected, err := svc.Review(ctx, admin.ID, nominee.ID, &ReviewInput{Approve: false, Note: "incomplete records"})
	require.NoError(t, err)
	assert.Equal(t, models.NomineeStatusRejected, rejected.Status)

	counts, err := env.tally.GetCounts(ctx, category.ID)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestListByStatus(t *testing.T) {
	env := newTestEnv(t)
	svc := newNomineeService(env)
	ctx := context.Background()

	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	admin := env.createUser(t, "admin@example.com", domain.RoleAdmin)

	first, err := svc.Nominate(ctx, &NominateInput{CategoryID: category.ID, DisplayName: "Ada Obi"})
	require.NoError(t, err)
	_, err = svc.Nominate(ctx, &NominateInput{CategoryID: category.ID, DisplayName: "Bola Ade"})
	require.NoError(t, err)

	_, err = svc.Review(ctx, admin.ID, first.ID, &ReviewInput{Approve: true})
	require.NoError(t, err)

	pending, total, err := svc.ListByStatus(ctx, models.NomineeStatusPending, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, pending, 1)
	assert.Equal(t, "Bola Ade", pending[0].DisplayName)

	_, _, err = svc.ListByStatus(ctx, "UNKNOWN", 0, 10)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteNomineeBlockedByLedger(t *testing.T) {
	env := newTestEnv(t)
	svc := newNomineeService(env)
	ctx := context.Background()

	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	voted := env.createApprovedNominee(t, category.ID, "Ada Obi")
	unvoted := env.createApprovedNominee(t, category.ID, "Bola Ade")

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	env.castVote(t, voter.ID, category.ID, voted.ID)

	assert.ErrorIs(t, svc.DeleteNominee(ctx, voted.ID), ErrNomineeHasVotes)

	require.NoError(t, svc.DeleteNominee(ctx, unvoted.ID))
	_, _, err := svc.GetNominee(ctx, unvoted.ID)
	assert.ErrorIs(t, err, domain.ErrNomineeNotFound)
}
