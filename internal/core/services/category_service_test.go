package services

import (
	"context"
	"testing"
	"time"

	"award-portal/internal/adapters/persistence/models"
	"award-portal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCategoryService(env *testEnv) *CategoryService {
	return NewCategoryService(env.categoryRepo, env.nomineeRepo, env.voteRepo)
}

func TestCreateCategory(t *testing.T) {
	env := newTestEnv(t)
	svc := newCategoryService(env)
	ctx := context.Background()

	start := time.Now().Add(time.Hour)
	end := time.Now().Add(48 * time.Hour)

	category, err := svc.CreateCategory(ctx, &CreateCategoryInput{
		Name:            "Best Graduating Student",
		Description:     "Faculty-wide award",
		VotePrice:       100,
		VotingStartDate: &start,
		VotingEndDate:   &end,
	})
	require.NoError(t, err)
	assert.NotZero(t, category.ID)
	assert.False(t, category.VotingActive, "voting starts closed")
	assert.True(t, category.IsActive)

	_, err = svc.CreateCategory(ctx, &CreateCategoryInput{Name: "Free Award", VotePrice: 0})
	assert.ErrorIs(t, err, ErrInvalidVotePrice)

	_, err = svc.CreateCategory(ctx, &CreateCategoryInput{
		Name: "Backwards Window", VotePrice: 100,
		VotingStartDate: &end, VotingEndDate: &start,
	})
	assert.ErrorIs(t, err, ErrInvalidVoteWindow)

	_, err = svc.CreateCategory(ctx, &CreateCategoryInput{Name: "Best Graduating Student", VotePrice: 50})
	assert.ErrorIs(t, err, ErrCategoryNameTaken)
}

func TestGetCategoryListsOnlyApprovedNominees(t *testing.T) {
	env := newTestEnv(t)
	svc := newCategoryService(env)
	ctx := context.Background()

	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	approved := env.createApprovedNominee(t, category.ID, "Ada Obi")

	pending := &models.Nominee{CategoryID: category.ID, DisplayName: "Bola Ade", Status: models.NomineeStatusPending}
	require.NoError(t, env.nomineeRepo.Create(ctx, pending))

	got, nominees, err := svc.GetCategory(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, category.ID, got.ID)
	require.Len(t, nominees, 1)
	assert.Equal(t, approved.ID, nominees[0].ID)

	_, _, err = svc.GetCategory(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestUpdateCategory(t *testing.T) {
	env := newTestEnv(t)
	svc := newCategoryService(env)
	ctx := context.Background()

	category := env.createOpenCategory(t, "Best Graduating Student", 100)

	newPrice := 250.0
	updated, err := svc.UpdateCategory(ctx, category.ID, &UpdateCategoryInput{
		Name:      "Best Final Year Student",
		VotePrice: &newPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, "Best Final Year Student", updated.Name)
	assert.Equal(t, 250.0, updated.VotePrice)

	badPrice := -1.0
	_, err = svc.UpdateCategory(ctx, category.ID, &UpdateCategoryInput{VotePrice: &badPrice})
	assert.ErrorIs(t, err, ErrInvalidVotePrice)

	// Moving the start past the existing end breaks the window
	badStart := category.VotingEndDate.Add(time.Hour)
	_, err = svc.UpdateCategory(ctx, category.ID, &UpdateCategoryInput{VotingStartDate: &badStart})
	assert.ErrorIs(t, err, ErrInvalidVoteWindow)
}

func TestOpenAndCloseVoting(t *testing.T) {
	env := newTestEnv(t)
	svc := newCategoryService(env)
	ctx := context.Background()

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)
	category, err := svc.CreateCategory(ctx, &CreateCategoryInput{
		Name: "Best Graduating Student", VotePrice: 100,
		VotingStartDate: &start, VotingEndDate: &end,
	})
	require.NoError(t, err)

	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	assert.ErrorIs(t, env.eligibility.Check(ctx, voter.ID, category.ID), domain.ErrVotingNotActive)

	opened, err := svc.OpenVoting(ctx, category.ID)
	require.NoError(t, err)
	assert.True(t, opened.VotingActive)
	assert.NoError(t, env.eligibility.Check(ctx, voter.ID, category.ID))

	closed, err := svc.CloseVoting(ctx, category.ID)
	require.NoError(t, err)
	assert.False(t, closed.VotingActive)
	assert.ErrorIs(t, env.eligibility.Check(ctx, voter.ID, category.ID), domain.ErrVotingNotActive)
}

func TestDeleteCategoryBlockedByLedger(t *testing.T) {
	env := newTestEnv(t)
	svc := newCategoryService(env)
	ctx := context.Background()

	category := env.createOpenCategory(t, "Best Graduating Student", 100)
	nominee := env.createApprovedNominee(t, category.ID, "Ada Obi")
	voter := env.createUser(t, "voter@example.com", domain.RoleVoter)
	env.castVote(t, voter.ID, category.ID, nominee.ID)

	assert.ErrorIs(t, svc.DeleteCategory(ctx, category.ID), ErrCategoryHasVotes)

	empty := env.createOpenCategory(t, "Most Innovative Student", 100)
	require.NoError(t, svc.DeleteCategory(ctx, empty.ID))

	_, _, err := svc.GetCategory(ctx, empty.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}
