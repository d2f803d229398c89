package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FirstName string         `gorm:"size:100;not null" json:"first_name"`
	LastName  string         `gorm:"size:100;not null" json:"last_name"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone     string         `gorm:"size:20" json:"phone"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'VOTER'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO. TotalVotesCast and TotalAmountSpent are derived from the
// vote ledger on read, never stored on the row.
type UserResponse struct {
	ID               uint      `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Role             string    `json:"role"`
	IsActive         bool      `json:"is_active"`
	TotalVotesCast   int64     `json:"total_votes_cast"`
	TotalAmountSpent float64   `json:"total_amount_spent"`
	CreatedAt        time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Award Tables
// ============================================================

// Category represents award categories. A category accepts votes only while
// VotingActive is true and the current time falls inside [start, end] when
// the window is set.
type Category struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"uniqueIndex;size:150;not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	VotingActive    bool           `gorm:"default:false" json:"voting_active"`
	VotingStartDate *time.Time     `json:"voting_start_date"`
	VotingEndDate   *time.Time     `json:"voting_end_date"`
	VotePrice       float64        `gorm:"type:decimal(10,2);not null" json:"vote_price"`
	MaxNominees     int            `gorm:"default:20" json:"max_nominees"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Nominees []Nominee `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"nominees,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

// AcceptsVotesAt reports whether the category accepts votes at t, together
// with the first failing condition ("" when it does).
func (c *Category) AcceptsVotesAt(t time.Time) (bool, string) {
	if !c.VotingActive {
		return false, "inactive"
	}
	if c.VotingStartDate != nil && t.Before(*c.VotingStartDate) {
		return false, "not_started"
	}
	if c.VotingEndDate != nil && t.After(*c.VotingEndDate) {
		return false, "ended"
	}
	return true, ""
}

// Nominee approval statuses
const (
	NomineeStatusPending  = "PENDING"
	NomineeStatusApproved = "APPROVED"
	NomineeStatusRejected = "REJECTED"
)

// Nominee represents nominees table. Only APPROVED nominees are votable.
// Once approved, CategoryID and StudentID are immutable for audit integrity.
type Nominee struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CategoryID   uint           `gorm:"not null;index" json:"category_id"`
	StudentID    *uint          `gorm:"index" json:"student_id"`
	DisplayName  string         `gorm:"size:150;not null" json:"display_name"`
	Status       string         `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	ImageURL     string         `gorm:"size:500" json:"image_url"`
	Reason       string         `gorm:"type:text" json:"reason"`
	Achievements string         `gorm:"type:text" json:"achievements"`
	ReviewedBy   *uint          `json:"reviewed_by"`
	ReviewedAt   *time.Time     `json:"reviewed_at"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Student  *User     `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Reviewer *User     `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
}

func (Nominee) TableName() string {
	return "nominees"
}

func (n *Nominee) IsApproved() bool {
	return n.Status == NomineeStatusApproved
}

// ============================================================
// Voting Transaction Tables
// ============================================================

// Payment transaction statuses. INITIALIZED and PENDING are open states;
// SUCCESS, FAILED and EXPIRED are terminal. A transaction reaches a terminal
// state exactly once and is never mutated afterwards.
const (
	PaymentStatusInitialized = "INITIALIZED"
	PaymentStatusPending     = "PENDING"
	PaymentStatusSuccess     = "SUCCESS"
	PaymentStatusFailed      = "FAILED"
	PaymentStatusExpired     = "EXPIRED"
)

// PaymentTransaction represents payment_transactions table. The
// category/nominee columns record the vote intent at initialization time; the
// ledger re-checks them at commit time against what the gateway confirmed.
type PaymentTransaction struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Reference  string     `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	CategoryID uint       `gorm:"not null;index" json:"category_id"`
	NomineeID  uint       `gorm:"not null;index" json:"nominee_id"`
	Amount     float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency   string     `gorm:"size:3;not null;default:'NGN'" json:"currency"`
	Status     string     `gorm:"size:20;not null;default:'INITIALIZED';index" json:"status"`
	PaidAt     *time.Time `json:"paid_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Nominee  *Nominee  `gorm:"foreignKey:NomineeID" json:"nominee,omitempty"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// IsTerminal reports whether the transaction has reached a terminal status.
func (t *PaymentTransaction) IsTerminal() bool {
	switch t.Status {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusExpired:
		return true
	}
	return false
}

// VoteRecord is the append-only vote ledger. The composite unique index on
// (user_id, category_id) is the storage-level guard that closes the
// check-then-insert race: concurrent commits for the same pair collide there
// and the loser surfaces gorm.ErrDuplicatedKey. Rows are never updated or
// deleted.
type VoteRecord struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"not null;uniqueIndex:idx_vote_user_category" json:"user_id"`
	CategoryID           uint      `gorm:"not null;uniqueIndex:idx_vote_user_category" json:"category_id"`
	NomineeID            uint      `gorm:"not null;index" json:"nominee_id"`
	PaymentTransactionID uint      `gorm:"not null;uniqueIndex" json:"payment_transaction_id"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`

	Nominee            *Nominee            `gorm:"foreignKey:NomineeID" json:"nominee,omitempty"`
	PaymentTransaction *PaymentTransaction `gorm:"foreignKey:PaymentTransactionID" json:"payment_transaction,omitempty"`
}

func (VoteRecord) TableName() string {
	return "vote_records"
}

// ReconciliationEntry records a payment that succeeded but whose vote could
// not be committed (metadata mismatch or a rejected ledger write). These
// require manual admin follow-up; there is no automated refund path.
type ReconciliationEntry struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Reference  string     `gorm:"size:64;not null;uniqueIndex" json:"reference"`
	UserID     uint       `gorm:"not null" json:"user_id"`
	CategoryID uint       `gorm:"not null" json:"category_id"`
	NomineeID  uint       `gorm:"not null" json:"nominee_id"`
	Reason     string     `gorm:"type:text;not null" json:"reason"`
	Resolved   bool       `gorm:"default:false;index" json:"resolved"`
	ResolvedBy *uint      `json:"resolved_by"`
	ResolvedAt *time.Time `json:"resolved_at"`
	Note       string     `gorm:"type:text" json:"note"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ReconciliationEntry) TableName() string {
	return "reconciliation_entries"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Category{},
		&Nominee{},
		&PaymentTransaction{},
		&VoteRecord{},
		&ReconciliationEntry{},
	)
}
