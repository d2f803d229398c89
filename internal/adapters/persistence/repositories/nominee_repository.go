package repositories

import (
	"context"

	"award-portal/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// NomineeRepository handles nominee data access
type NomineeRepository struct {
	db *gorm.DB
}

// NewNomineeRepository creates a new nominee repository
func NewNomineeRepository(db *gorm.DB) *NomineeRepository {
	return &NomineeRepository{db: db}
}

// Create creates a new nominee
func (r *NomineeRepository) Create(ctx context.Context, nominee *models.Nominee) error {
	return r.db.WithContext(ctx).Create(nominee).Error
}

// GetByID gets a nominee by ID with relations
func (r *NomineeRepository) GetByID(ctx context.Context, id uint) (*models.Nominee, error) {
	var nominee models.Nominee
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Student").
		First(&nominee, id).Error
	return &nominee, err
}

// ListApprovedByCategory lists approved nominees for a category
func (r *NomineeRepository) ListApprovedByCategory(ctx context.Context, categoryID uint) ([]*models.Nominee, error) {
	var nominees []*models.Nominee
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND status = ?", categoryID, models.NomineeStatusApproved).
		Order("display_name ASC").
		Find(&nominees).Error
	return nominees, err
}

// ListByStatus lists nominees by approval status with pagination (admin view)
func (r *NomineeRepository) ListByStatus(ctx context.Context, status string, offset, limit int) ([]*models.Nominee, int64, error) {
	var nominees []*models.Nominee
	var total int64

	r.db.WithContext(ctx).Model(&models.Nominee{}).Where("status = ?", status).Count(&total)

	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Student").
		Where("status = ?", status).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&nominees).Error

	return nominees, total, err
}

// CountByCategory counts nominees in a category regardless of status
func (r *NomineeRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Nominee{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// ExistsInCategory checks whether a student already has a nomination in a category
func (r *NomineeRepository) ExistsInCategory(ctx context.Context, categoryID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Nominee{}).
		Where("category_id = ? AND student_id = ?", categoryID, studentID).
		Count(&count).Error
	return count > 0, err
}

// Update updates a nominee
func (r *NomineeRepository) Update(ctx context.Context, nominee *models.Nominee) error {
	return r.db.WithContext(ctx).Save(nominee).Error
}

// UpdateStatus updates the approval status fields only
func (r *NomineeRepository) UpdateStatus(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Nominee{}).Where("id = ?", id).
		Updates(updates).Error
}

// Delete soft deletes a nominee
func (r *NomineeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Nominee{}, id).Error
}
