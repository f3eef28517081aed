package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONB for PostgreSQL JSON support
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONB source %T", value)
	}
}

// Admin actions recorded in the audit trail
const (
	AdminActionApproveTransaction = "APPROVE_TRANSACTION"
	AdminActionRejectTransaction  = "REJECT_TRANSACTION"
	AdminActionApproveWithdrawal  = "APPROVE_WITHDRAWAL"
	AdminActionRejectWithdrawal   = "REJECT_WITHDRAWAL"
	AdminActionPromoteUser        = "PROMOTE_USER"
)

// AdminLog records admin actions for audit trail
type AdminLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AdminID      uint      `gorm:"not null;index" json:"admin_id"`
	Admin        *User     `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action       string    `gorm:"size:100;not null" json:"action"`
	ResourceType string    `gorm:"size:50" json:"resource_type"`
	ResourceID   string    `gorm:"size:64;index" json:"resource_id"`
	Details      JSONB     `gorm:"type:jsonb" json:"details"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (AdminLog) TableName() string {
	return "admin_logs"
}
