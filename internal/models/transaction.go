package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionStatus is the lifecycle state of a registered transaction
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusVerified TransactionStatus = "verified"
	TransactionStatusRejected TransactionStatus = "rejected"
	TransactionStatusRefunded TransactionStatus = "refunded"
)

// Transaction is one registered real-estate deal purchasing draw points
type Transaction struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uint              `gorm:"not null;index" json:"user_id"`
	User              *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Points            int               `gorm:"not null" json:"points"`
	Amount            decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	ReferralDiscount  decimal.Decimal   `gorm:"type:decimal(12,2);default:0" json:"referral_discount"`
	ReferralCodeUsed  *ReferralCode     `gorm:"size:20;index" json:"referral_code_used,omitempty"`
	CertificateNumber string            `gorm:"size:32;uniqueIndex;not null" json:"certificate_number"`
	TransactionDate   time.Time         `gorm:"not null" json:"transaction_date"`
	TransactionAmount decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"transaction_amount"`
	ETransferRef      string            `gorm:"column:etransfer_reference;size:255;not null" json:"etransfer_reference"`
	ETransferEmail    string            `gorm:"column:etransfer_email;size:255;not null" json:"etransfer_email"`
	ETransferDate     time.Time         `gorm:"column:etransfer_date" json:"etransfer_date"`
	Status            TransactionStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	VerifiedBy        *uint             `json:"verified_by,omitempty"`
	VerifiedAt        *time.Time        `json:"verified_at,omitempty"`
	RejectionReason   string            `gorm:"type:text" json:"rejection_reason,omitempty"`
	Notes             string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt         time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// BeforeCreate assigns a UUID when the caller did not
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// SubmitTransactionRequest is the participant's registration payload
type SubmitTransactionRequest struct {
	Points            int             `json:"points"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	TransactionDate   *time.Time      `json:"transaction_date"`
	ETransferRef      string          `json:"etransfer_reference"`
	ETransferEmail    string          `json:"etransfer_email"`
	ETransferDate     *time.Time      `json:"etransfer_date"`
	ReferralCodeUsed  string          `json:"referral_code_used"`
	Notes             string          `json:"notes"`
}
