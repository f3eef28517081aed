package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User categories accepted at registration
const (
	CategoryAgentBroker    = "agent-broker"
	CategoryDeveloper      = "developer"
	CategorySalesMarketing = "sales-marketing"
	CategoryMortgageBroker = "mortgage-broker"
)

// User represents a draw participant (or an admin)
type User struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	FirstName    string        `gorm:"size:100;not null" json:"first_name"`
	LastName     string        `gorm:"size:100;not null" json:"last_name"`
	Email        string        `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone        string        `gorm:"size:20" json:"phone,omitempty"`
	PasswordHash string        `gorm:"size:255;not null" json:"-"`
	Category     string        `gorm:"size:30;not null" json:"category"`
	Company      string        `gorm:"size:255" json:"company,omitempty"`
	City         string        `gorm:"size:100" json:"city,omitempty"`
	Province     string        `gorm:"size:50" json:"province,omitempty"`
	ReferralCode ReferralCode  `gorm:"size:20;uniqueIndex;not null" json:"referral_code"`
	ReferredBy   *ReferralCode `gorm:"size:20" json:"referred_by,omitempty"`
	IsAdmin      bool          `gorm:"default:false" json:"is_admin"`

	// Materialized from verified transactions; written only by transaction approval.
	TotalPoints int             `gorm:"default:0" json:"total_points"`
	TotalPaid   decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_paid"`

	// Hint only. Withdrawable balance is always recomputed from the ledger.
	ReferralEarnings decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"referral_earnings"`

	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UpdateProfileRequest carries the fields a participant may edit on their own
// record. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company"`
	City      *string `json:"city"`
	Province  *string `json:"province"`
	Category  *string `json:"category"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// FullName returns "First Last"
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ValidCategory reports whether c is one of the registration categories
func ValidCategory(c string) bool {
	switch c {
	case CategoryAgentBroker, CategoryDeveloper, CategorySalesMarketing, CategoryMortgageBroker:
		return true
	}
	return false
}
