package repositories

import (
	"context"
	"errors"

	"award-portal/internal/adapters/persistence/models"
	"award-portal/internal/core/domain"

	"gorm.io/gorm"
)

// NomineeCount is one tally row
type NomineeCount struct {
	NomineeID uint  `json:"nominee_id"`
	Count     int64 `json:"count"`
}

// VoteRepository is the vote ledger. Records are append-only: this type
// exposes no update or delete operations.
type VoteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// CommitVote inserts the vote record for a confirmed payment as a single
// atomic unit. The linked payment transaction must be SUCCESS and its
// recorded intent must match the requested user/category/nominee exactly.
// Uniqueness per (user, category) is enforced by the storage-level composite
// index, not an application pre-check: a concurrent commit for the same pair
// loses the insert and gets domain.ErrDuplicateVote, which callers treat as
// already-committed.
func (r *VoteRepository) CommitVote(ctx context.Context, userID, categoryID, nomineeID uint, reference string) (*models.VoteRecord, error) {
	var record *models.VoteRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.PaymentTransaction
		if err := tx.Where("reference = ?", reference).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrReferenceNotFound
			}
			return err
		}

		if payment.Status != models.PaymentStatusSuccess {
			return domain.ErrPaymentNotConfirmed
		}

		// Possible tampering or replay. Reject, never silently correct.
		if payment.UserID != userID || payment.CategoryID != categoryID || payment.NomineeID != nomineeID {
			return domain.ErrMetadataMismatch
		}

		record = &models.VoteRecord{
			UserID:               userID,
			CategoryID:           categoryID,
			NomineeID:            nomineeID,
			PaymentTransactionID: payment.ID,
		}

		if err := tx.Create(record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateVote
			}
			return err
		}

		return nil
	})

	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetByUserCategory gets the vote record for a (user, category) pair
func (r *VoteRepository) GetByUserCategory(ctx context.Context, userID, categoryID uint) (*models.VoteRecord, error) {
	var record models.VoteRecord
	err := r.db.WithContext(ctx).
		Preload("Nominee").
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		First(&record).Error
	return &record, err
}

// HasVoted checks whether a user already has a vote record in a category
func (r *VoteRepository) HasVoted(ctx context.Context, userID, categoryID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VoteRecord{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Count(&count).Error
	return count > 0, err
}

// ListByUser lists all vote records for a user
func (r *VoteRepository) ListByUser(ctx context.Context, userID uint) ([]*models.VoteRecord, error) {
	var records []*models.VoteRecord
	err := r.db.WithContext(ctx).
		Preload("Nominee").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// CountByUser counts committed votes for a user (derived profile counter)
func (r *VoteRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VoteRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CountByNominee counts committed votes for a nominee
func (r *VoteRepository) CountByNominee(ctx context.Context, nomineeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VoteRecord{}).
		Where("nominee_id = ?", nomineeID).
		Count(&count).Error
	return count, err
}

// CountsByCategory returns per-nominee vote counts for a category, derived
// from the ledger by a grouped count. Nominees without votes are absent here;
// the tally service fills in zero rows.
func (r *VoteRepository) CountsByCategory(ctx context.Context, categoryID uint) ([]NomineeCount, error) {
	var counts []NomineeCount
	err := r.db.WithContext(ctx).Model(&models.VoteRecord{}).
		Select("nominee_id, COUNT(*) AS count").
		Where("category_id = ?", categoryID).
		Group("nominee_id").
		Scan(&counts).Error
	return counts, err
}
