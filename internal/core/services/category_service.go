package services

import (
	"context"
	"errors"
	"log"
	"time"

	"award-portal/internal/adapters/persistence/models"
	"award-portal/internal/adapters/persistence/repositories"
	"award-portal/internal/core/domain"

	"gorm.io/gorm"
)

// Category errors
var (
	ErrInvalidVotePrice  = errors.New("vote price must be greater than zero")
	ErrInvalidVoteWindow = errors.New("voting start date must be before end date")
	ErrCategoryNameTaken = errors.New("category name already exists")
	ErrCategoryHasVotes  = errors.New("category has recorded votes and cannot be deleted")
)

// CategoryService handles award category management
type CategoryService struct {
	categoryRepo *repositories.CategoryRepository
	nomineeRepo  *repositories.NomineeRepository
	voteRepo     *repositories.VoteRepository
}

// NewCategoryService creates a new category service
func NewCategoryService(
	categoryRepo *repositories.CategoryRepository,
	nomineeRepo *repositories.NomineeRepository,
	voteRepo *repositories.VoteRepository,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		nomineeRepo:  nomineeRepo,
		voteRepo:     voteRepo,
	}
}

// CreateCategoryInput represents category creation input
type CreateCategoryInput struct {
	Name            string     `json:"name" validate:"required"`
	Description     string     `json:"description,omitempty"`
	VotePrice       float64    `json:"vote_price" validate:"required,gt=0"`
	MaxNominees     int        `json:"max_nominees,omitempty"`
	VotingStartDate *time.Time `json:"voting_start_date,omitempty"`
	VotingEndDate   *time.Time `json:"voting_end_date,omitempty"`
}

// UpdateCategoryInput represents category update input
type UpdateCategoryInput struct {
	Name            string     `json:"name,omitempty"`
	Description     string     `json:"description,omitempty"`
	VotePrice       *float64   `json:"vote_price,omitempty"`
	MaxNominees     *int       `json:"max_nominees,omitempty"`
	VotingStartDate *time.Time `json:"voting_start_date,omitempty"`
	VotingEndDate   *time.Time `json:"voting_end_date,omitempty"`
}

// CreateCategory creates a new award category (admin). Voting starts closed;
// admins open it explicitly with OpenVoting.
func (s *CategoryService) CreateCategory(ctx context.Context, input *CreateCategoryInput) (*models.Category, error) {
	if input.VotePrice <= 0 {
		return nil, ErrInvalidVotePrice
	}
	if input.VotingStartDate != nil && input.VotingEndDate != nil &&
		!input.VotingStartDate.Before(*input.VotingEndDate) {
		return nil, ErrInvalidVoteWindow
	}

	category := &models.Category{
		Name:            input.Name,
		Description:     input.Description,
		VotePrice:       input.VotePrice,
		VotingStartDate: input.VotingStartDate,
		VotingEndDate:   input.VotingEndDate,
		VotingActive:    false,
		IsActive:        true,
	}
	if input.MaxNominees > 0 {
		category.MaxNominees = input.MaxNominees
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryNameTaken
		}
		return nil, err
	}

	log.Printf("✅ Category created: %s (price: %.2f)", category.Name, category.VotePrice)
	return category, nil
}

// GetCategory gets a category by ID with its approved nominees
func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*models.Category, []*models.Nominee, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrCategoryNotFound
		}
		return nil, nil, err
	}

	nominees, err := s.nomineeRepo.ListApprovedByCategory(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return category, nominees, nil
}

// ListCategories lists visible categories
func (s *CategoryService) ListCategories(ctx context.Context, includeArchived bool, offset, limit int) ([]*models.Category, int64, error) {
	if includeArchived {
		return s.categoryRepo.ListAll(ctx, offset, limit)
	}
	return s.categoryRepo.List(ctx, offset, limit)
}

// UpdateCategory updates category fields (admin)
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, input *UpdateCategoryInput) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}

	if input.Name != "" {
		category.Name = input.Name
	}
	if input.Description != "" {
		category.Description = input.Description
	}
	if input.VotePrice != nil {
		if *input.VotePrice <= 0 {
			return nil, ErrInvalidVotePrice
		}
		category.VotePrice = *input.VotePrice
	}
	if input.MaxNominees != nil && *input.MaxNominees > 0 {
		category.MaxNominees = *input.MaxNominees
	}
	if input.VotingStartDate != nil {
		category.VotingStartDate = input.VotingStartDate
	}
	if input.VotingEndDate != nil {
		category.VotingEndDate = input.VotingEndDate
	}

	if category.VotingStartDate != nil && category.VotingEndDate != nil &&
		!category.VotingStartDate.Before(*category.VotingEndDate) {
		return nil, ErrInvalidVoteWindow
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryNameTaken
		}
		return nil, err
	}

	log.Printf("✅ Category updated: %s", category.Name)
	return category, nil
}

// OpenVoting opens a category for voting (admin)
func (s *CategoryService) OpenVoting(ctx context.Context, id uint) (*models.Category, error) {
	return s.setVotingActive(ctx, id, true)
}

// CloseVoting closes a category for voting (admin). Open payment transactions
// against the category keep flowing through confirmation; eligibility stops
// new initiations only.
func (s *CategoryService) CloseVoting(ctx context.Context, id uint) (*models.Category, error) {
	return s.setVotingActive(ctx, id, false)
}

func (s *CategoryService) setVotingActive(ctx context.Context, id uint, active bool) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}

	category.VotingActive = active
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	state := "closed"
	if active {
		state = "opened"
	}
	log.Printf("✅ Voting %s for category: %s", state, category.Name)
	return category, nil
}

// DeleteCategory archives a category (admin). Categories with ledger entries
// cannot be removed; the ledger is append-only and tallies must stay auditable.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrCategoryNotFound
		}
		return err
	}

	counts, err := s.voteRepo.CountsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if len(counts) > 0 {
		return ErrCategoryHasVotes
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("🗑️ Category deleted: %s", category.Name)
	return nil
}
