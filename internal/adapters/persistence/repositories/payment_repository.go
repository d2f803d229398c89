package repositories

import (
	"context"
	"time"

	"award-portal/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// PaymentRepository handles payment transaction data access
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// openStatuses are the non-terminal payment statuses
var openStatuses = []string{models.PaymentStatusInitialized, models.PaymentStatusPending}

// Create creates a new payment transaction
func (r *PaymentRepository) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByReference gets a payment transaction by gateway reference
func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&tx).Error
	return &tx, err
}

// MarkStatus moves a transaction to newStatus, but only from an open status.
// Status transitions are monotonic: once a transaction is terminal the guard
// matches zero rows and MarkStatus reports false. This keeps the
// reaches-a-terminal-state-exactly-once invariant even when the webhook and a
// client poll race.
func (r *PaymentRepository) MarkStatus(ctx context.Context, reference, newStatus string, paidAt *time.Time) (bool, error) {
	updates := map[string]interface{}{"status": newStatus}
	if paidAt != nil {
		updates["paid_at"] = paidAt
	}

	res := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("reference = ?", reference).
		Where("status IN ?", openStatuses).
		Updates(updates)

	return res.RowsAffected > 0, res.Error
}

// ListOpenOlderThan lists open transactions created before the cutoff
// (candidates for expiry).
func (r *PaymentRepository) ListOpenOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*models.PaymentTransaction, error) {
	var txs []*models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("status IN ?", openStatuses).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// ListPendingSince lists PENDING transactions created after the cutoff
// (candidates for re-verification while still inside the expiry window).
func (r *PaymentRepository) ListPendingSince(ctx context.Context, cutoff time.Time, limit int) ([]*models.PaymentTransaction, error) {
	var txs []*models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PaymentStatusPending).
		Where("created_at >= ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// SumSpentByUser sums the amount of successful transactions linked to the
// user's committed votes (derived profile counter, never stored).
func (r *PaymentRepository) SumSpentByUser(ctx context.Context, userID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Select("COALESCE(SUM(payment_transactions.amount), 0)").
		Joins("JOIN vote_records ON vote_records.payment_transaction_id = payment_transactions.id").
		Where("payment_transactions.user_id = ?", userID).
		Scan(&total).Error
	return total, err
}

// WithTx returns a repository bound to the given transaction handle
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}
