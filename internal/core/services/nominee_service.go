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

// Nominee errors
var (
	ErrAlreadyNominated  = errors.New("student already nominated in this category")
	ErrCategoryFull      = errors.New("category has reached its nominee limit")
	ErrAlreadyReviewed   = errors.New("nomination has already been reviewed")
	ErrCannotBeNominated = errors.New("user role cannot be nominated")
	ErrInvalidStatus     = errors.New("invalid nominee status")
	ErrNomineeHasVotes   = errors.New("nominee has recorded votes and cannot be deleted")
)

// NomineeService handles nominations and their review lifecycle
type NomineeService struct {
	nomineeRepo  *repositories.NomineeRepository
	categoryRepo *repositories.CategoryRepository
	userRepo     *repositories.UserRepository
	voteRepo     *repositories.VoteRepository
	tallyService *TallyService
}

// NewNomineeService creates a new nominee service
func NewNomineeService(
	nomineeRepo *repositories.NomineeRepository,
	categoryRepo *repositories.CategoryRepository,
	userRepo *repositories.UserRepository,
	voteRepo *repositories.VoteRepository,
	tallyService *TallyService,
) *NomineeService {
	return &NomineeService{
		nomineeRepo:  nomineeRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		voteRepo:     voteRepo,
		tallyService: tallyService,
	}
}

// NominateInput represents nomination input
type NominateInput struct {
	CategoryID   uint   `json:"category_id" validate:"required"`
	StudentID    *uint  `json:"student_id,omitempty"`
	DisplayName  string `json:"display_name" validate:"required"`
	ImageURL     string `json:"image_url,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Achievements string `json:"achievements,omitempty"`
}

// ReviewInput represents nomination review input
type ReviewInput struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note,omitempty"`
}

// Nominate submits a nomination into a category. It enters the queue as
// PENDING and only becomes votable after admin approval.
func (s *NomineeService) Nominate(ctx context.Context, input *NominateInput) (*models.Nominee, error) {
	category, err := s.categoryRepo.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	if !category.IsActive {
		return nil, domain.ErrCategoryNotFound
	}

	count, err := s.nomineeRepo.CountByCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if count >= int64(category.MaxNominees) {
		return nil, ErrCategoryFull
	}

	// Nominations tied to a registered student require the STUDENT role
	if input.StudentID != nil {
		student, err := s.userRepo.GetByID(ctx, *input.StudentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, err
		}
		if !student.IsActive {
			return nil, domain.ErrUserInactive
		}
		if !domain.Can(student.Role, domain.CapBeNominated) {
			return nil, ErrCannotBeNominated
		}

		exists, err := s.nomineeRepo.ExistsInCategory(ctx, input.CategoryID, *input.StudentID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrAlreadyNominated
		}
	}

	nominee := &models.Nominee{
		CategoryID:   input.CategoryID,
		StudentID:    input.StudentID,
		DisplayName:  input.DisplayName,
		Status:       models.NomineeStatusPending,
		ImageURL:     input.ImageURL,
		Reason:       input.Reason,
		Achievements: input.Achievements,
	}

	if err := s.nomineeRepo.Create(ctx, nominee); err != nil {
		return nil, err
	}

	log.Printf("✅ Nomination submitted: %s (category ID: %d)", nominee.DisplayName, nominee.CategoryID)
	return nominee, nil
}

// GetNominee gets a nominee by ID with its vote count
func (s *NomineeService) GetNominee(ctx context.Context, id uint) (*models.Nominee, int64, error) {
	nominee, err := s.nomineeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, domain.ErrNomineeNotFound
		}
		return nil, 0, err
	}

	count, err := s.voteRepo.CountByNominee(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	return nominee, count, nil
}

// ListByCategory lists approved nominees for a category
func (s *NomineeService) ListByCategory(ctx context.Context, categoryID uint) ([]*models.Nominee, error) {
	if _, err := s.categoryRepo.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return s.nomineeRepo.ListApprovedByCategory(ctx, categoryID)
}

// ListByStatus lists nominations by review status (admin queue)
func (s *NomineeService) ListByStatus(ctx context.Context, status string, offset, limit int) ([]*models.Nominee, int64, error) {
	switch status {
	case models.NomineeStatusPending, models.NomineeStatusApproved, models.NomineeStatusRejected:
	default:
		return nil, 0, ErrInvalidStatus
	}
	return s.nomineeRepo.ListByStatus(ctx, status, offset, limit)
}

// Review approves or rejects a PENDING nomination (admin). The decision is
// terminal; approved nominees keep their category and student bindings.
func (s *NomineeService) Review(ctx context.Context, reviewerID, nomineeID uint, input *ReviewInput) (*models.Nominee, error) {
	nominee, err := s.nomineeRepo.GetByID(ctx, nomineeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNomineeNotFound
		}
		return nil, err
	}

	if nominee.Status != models.NomineeStatusPending {
		return nil, ErrAlreadyReviewed
	}

	status := models.NomineeStatusRejected
	if input.Approve {
		status = models.NomineeStatusApproved
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      status,
		"reviewed_by": reviewerID,
		"reviewed_at": now,
	}
	if err := s.nomineeRepo.UpdateStatus(ctx, nomineeID, updates); err != nil {
		return nil, err
	}

	nominee.Status = status
	nominee.ReviewedBy = &reviewerID
	nominee.ReviewedAt = &now

	// Approved nominees show up in tallies as zero rows right away
	s.tallyService.Invalidate(nominee.CategoryID)

	log.Printf("✅ Nomination %s: %s (reviewer ID: %d)", status, nominee.DisplayName, reviewerID)
	return nominee, nil
}

// DeleteNominee removes a nomination (admin). Nominees with ledger entries
// are kept; their votes were paid for and stay counted.
func (s *NomineeService) DeleteNominee(ctx context.Context, id uint) error {
	nominee, err := s.nomineeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNomineeNotFound
		}
		return err
	}

	count, err := s.voteRepo.CountByNominee(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrNomineeHasVotes
	}

	if err := s.nomineeRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.tallyService.Invalidate(nominee.CategoryID)
	log.Printf("🗑️ Nominee deleted: %s", nominee.DisplayName)
	return nil
}
