package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalStatus is the admin-driven state of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// Withdrawal is a request to cash out referral earnings by e-transfer
type Withdrawal struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;index" json:"user_id"`
	User        *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount      decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"amount"`
	Email       string           `gorm:"size:255;not null" json:"email"`
	Status      WithdrawalStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	AdminNotes  string           `gorm:"type:text" json:"admin_notes,omitempty"`
	ProcessedAt *time.Time       `json:"processed_at,omitempty"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for Withdrawal model
func (Withdrawal) TableName() string {
	return "withdrawal_requests"
}

func (w *Withdrawal) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// WithdrawalRequest is the participant's cash-out payload
type WithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Email  string          `json:"email"`
}
