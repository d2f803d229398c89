package repositories

import (
	"context"
	"time"

	"award-portal/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ReconciliationRepository handles reconciliation entry data access
type ReconciliationRepository struct {
	db *gorm.DB
}

// NewReconciliationRepository creates a new reconciliation repository
func NewReconciliationRepository(db *gorm.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

// Create creates a new reconciliation entry
func (r *ReconciliationRepository) Create(ctx context.Context, entry *models.ReconciliationEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetByID gets a reconciliation entry by ID
func (r *ReconciliationRepository) GetByID(ctx context.Context, id uint) (*models.ReconciliationEntry, error) {
	var entry models.ReconciliationEntry
	err := r.db.WithContext(ctx).First(&entry, id).Error
	return &entry, err
}

// ExistsByReference checks whether any entry, resolved or not, was ever
// recorded for a payment reference. A flagged reference belongs to the admin
// queue from then on.
func (r *ReconciliationRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReconciliationEntry{}).
		Where("reference = ?", reference).
		Count(&count).Error
	return count > 0, err
}

// List lists reconciliation entries, unresolved first
func (r *ReconciliationRepository) List(ctx context.Context, onlyUnresolved bool, offset, limit int) ([]*models.ReconciliationEntry, int64, error) {
	var entries []*models.ReconciliationEntry
	var total int64

	q := r.db.WithContext(ctx).Model(&models.ReconciliationEntry{})
	if onlyUnresolved {
		q = q.Where("resolved = ?", false)
	}

	q.Count(&total)

	err := q.
		Order("resolved ASC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error

	return entries, total, err
}

// Resolve marks an entry as resolved by an admin
func (r *ReconciliationRepository) Resolve(ctx context.Context, id, adminID uint, note string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.ReconciliationEntry{}).
		Where("id = ?", id).
		Where("resolved = ?", false).
		Updates(map[string]interface{}{
			"resolved":    true,
			"resolved_by": adminID,
			"resolved_at": &now,
			"note":        note,
		}).Error
}
