package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralCode is a user's shareable code, always stored upper-cased
type ReferralCode string

// NormalizeReferralCode trims and upper-cases raw user input
func NormalizeReferralCode(raw string) ReferralCode {
	return ReferralCode(strings.ToUpper(strings.TrimSpace(raw)))
}

// IsZero reports whether no code was given
func (c ReferralCode) IsZero() bool {
	return c == ""
}

// Valid reports whether the code has a storable shape: 1-20 upper-case letters or digits
func (c ReferralCode) Valid() bool {
	if len(c) == 0 || len(c) > 20 {
		return false
	}
	for _, r := range c {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func (c ReferralCode) String() string {
	return string(c)
}

// ReferralStatus mirrors the lifecycle of the parent transaction
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusApproved  ReferralStatus = "approved"
	ReferralStatusPaid      ReferralStatus = "paid"
	ReferralStatusCancelled ReferralStatus = "cancelled"
)

// Referral links a referrer to the transaction that used their code
type Referral struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ReferrerID     uint            `gorm:"not null;index" json:"referrer_id"`
	Referrer       *User           `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	ReferredUserID uint            `gorm:"not null;index" json:"referred_user_id"`
	ReferredUser   *User           `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
	TransactionID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"transaction_id"`
	Transaction    *Transaction    `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	ReferralCode   ReferralCode    `gorm:"size:20;not null" json:"referral_code"`
	RewardAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"reward_amount"`
	Status         ReferralStatus  `gorm:"size:20;not null;default:pending;index" json:"status"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Referral) TableName() string {
	return "referrals"
}

func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
