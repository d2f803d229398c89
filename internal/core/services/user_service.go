package services

import (
	"context"
	"errors"
	"log"

	"award-portal/internal/adapters/persistence/models"
	"award-portal/internal/adapters/persistence/repositories"
	"award-portal/internal/core/domain"
	"award-portal/internal/pkg/password"

	"gorm.io/gorm"
)

// User errors
var (
	ErrInvalidRole      = errors.New("invalid role")
	ErrWrongPassword    = errors.New("current password is incorrect")
	ErrCannotDemoteSelf = errors.New("cannot change own role")
	ErrCannotDeleteSelf = errors.New("cannot delete own account")
)

// UserService handles user profile and admin user management
type UserService struct {
	userRepo    *repositories.UserRepository
	voteRepo    *repositories.VoteRepository
	paymentRepo *repositories.PaymentRepository
}

// NewUserService creates a new user service
func NewUserService(
	userRepo *repositories.UserRepository,
	voteRepo *repositories.VoteRepository,
	paymentRepo *repositories.PaymentRepository,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		voteRepo:    voteRepo,
		paymentRepo: paymentRepo,
	}
}

// UpdateProfileInput represents profile update input
type UpdateProfileInput struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// ChangePasswordInput represents password change input
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// GetProfile returns a user profile with vote counters derived from the ledger
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	resp := user.ToResponse()

	votesCast, err := s.voteRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	amountSpent, err := s.paymentRepo.SumSpentByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp.TotalVotesCast = votesCast
	resp.TotalAmountSpent = amountSpent

	return resp, nil
}

// UpdateProfile updates editable profile fields
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Profile updated for user ID: %d", userID)
	return user.ToResponse(), nil
}

// ChangePassword changes the user password after verifying the current one
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	if !password.Verify(input.CurrentPassword, user.Password) {
		return ErrWrongPassword
	}

	if !password.ValidatePassword(input.NewPassword) {
		return ErrWeakPassword
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("✅ Password changed for user ID: %d", userID)
	return nil
}

// ListUsers lists users, optionally filtered by role (admin)
func (s *UserService) ListUsers(ctx context.Context, role string, offset, limit int) ([]*models.UserResponse, int64, error) {
	var (
		users []*models.User
		total int64
		err   error
	)

	if role != "" {
		if !domain.ValidRole(role) {
			return nil, 0, ErrInvalidRole
		}
		users, total, err = s.userRepo.ListByRole(ctx, role, offset, limit)
	} else {
		users, total, err = s.userRepo.List(ctx, offset, limit)
	}
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	return responses, total, nil
}

// GetUser returns a single user with derived counters (admin)
func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.UserResponse, error) {
	return s.GetProfile(ctx, userID)
}

// SetUserRole changes a user's role (admin)
func (s *UserService) SetUserRole(ctx context.Context, actorID, userID uint, role string) error {
	if actorID == userID {
		return ErrCannotDemoteSelf
	}
	if !domain.ValidRole(role) {
		return ErrInvalidRole
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	if err := s.userRepo.SetRole(ctx, userID, role); err != nil {
		return err
	}

	log.Printf("✅ Role for user ID %d set to %s", userID, role)
	return nil
}

// SetUserActive enables or disables a user account (admin)
func (s *UserService) SetUserActive(ctx context.Context, userID uint, active bool) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	if err := s.userRepo.SetActive(ctx, userID, active); err != nil {
		return err
	}

	log.Printf("✅ User ID %d active set to %t", userID, active)
	return nil
}

// DeleteUser soft deletes a user account (admin). The vote ledger is
// append-only, so past votes stay in the tallies.
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID uint) error {
	if actorID == userID {
		return ErrCannotDeleteSelf
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	log.Printf("🗑️ User ID %d deleted", userID)
	return nil
}
