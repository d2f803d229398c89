package services

import (
	"context"
	"errors"
	"time"

	"award-portal/internal/adapters/persistence/repositories"
	"award-portal/internal/core/domain"

	"gorm.io/gorm"
)

// EligibilityService decides whether a user may vote in a category. Checks
// are pure reads with no side effects, safe to call repeatedly. The fast
// answer here is advisory only: the vote ledger re-verifies at commit time
// under its uniqueness constraint.
type EligibilityService struct {
	categoryRepo *repositories.CategoryRepository
	voteRepo     *repositories.VoteRepository
	userRepo     *repositories.UserRepository
}

// NewEligibilityService creates a new eligibility service
func NewEligibilityService(
	categoryRepo *repositories.CategoryRepository,
	voteRepo *repositories.VoteRepository,
	userRepo *repositories.UserRepository,
) *EligibilityService {
	return &EligibilityService{
		categoryRepo: categoryRepo,
		voteRepo:     voteRepo,
		userRepo:     userRepo,
	}
}

// Check returns nil when the user may vote in the category, or the first
// failing reason in check order: category exists and is active, voting window
// open, no prior vote, account active and role allowed to vote.
func (s *EligibilityService) Check(ctx context.Context, userID, categoryID uint) error {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrCategoryNotFound
		}
		return err
	}
	if !category.IsActive {
		return domain.ErrCategoryNotFound
	}

	if ok, reason := category.AcceptsVotesAt(time.Now()); !ok {
		switch reason {
		case "not_started":
			return domain.ErrVotingNotStarted
		case "ended":
			return domain.ErrVotingEnded
		default:
			return domain.ErrVotingNotActive
		}
	}

	voted, err := s.voteRepo.HasVoted(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	if voted {
		return domain.ErrAlreadyVoted
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserInactive
		}
		return err
	}
	if !user.IsActive {
		return domain.ErrUserInactive
	}
	if !domain.Can(user.Role, domain.CapVote) {
		return domain.ErrRoleCannotVote
	}

	return nil
}
