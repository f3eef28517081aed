package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Activity kinds in the admin recent-activity feed
const (
	ActivityTypeTransaction = "transaction"
	ActivityTypeWithdrawal  = "withdrawal"
)

// DashboardStats is the admin dashboard read model
type DashboardStats struct {
	TotalParticipants    int64           `json:"total_participants"`
	TotalPoints          int64           `json:"total_points"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	PendingTransactions  int64           `json:"pending_transactions"`
	VerifiedTransactions int64           `json:"verified_transactions"`
	RejectedTransactions int64           `json:"rejected_transactions"`
	PoolProgress         decimal.Decimal `json:"pool_progress"`
	RecentActivity       []ActivityItem  `json:"recent_activity"`
}

// ActivityItem is one row of the merged transaction/withdrawal feed
type ActivityItem struct {
	Type              string          `json:"type"`
	ID                string          `json:"id"`
	CertificateNumber string          `json:"certificate_number,omitempty"`
	ParticipantName   string          `json:"participant_name"`
	ParticipantEmail  string          `json:"participant_email"`
	Points            int             `json:"points,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
	Date              time.Time       `json:"date"`
}

// GlobalStats is the public pool progress view
type GlobalStats struct {
	TotalPoints     int64           `json:"total_points"`
	PointsUntilDraw int64           `json:"points_until_draw"`
	Progress        decimal.Decimal `json:"progress"`
	TargetPoints    int64           `json:"target_points"`
	PrizePool       decimal.Decimal `json:"prize_pool"`
	Participants    int64           `json:"participants"`
}

// UserStats summarises a participant's own ledger
type UserStats struct {
	TotalPoints           int64           `json:"total_points"`
	PendingPoints         int64           `json:"pending_points"`
	TotalEntries          int64           `json:"total_entries"`
	PendingEntries        int64           `json:"pending_entries"`
	TotalAmountPaid       decimal.Decimal `json:"total_amount_paid"`
	CompletedReferrals    int64           `json:"completed_referrals"`
	ReferralRewardsEarned decimal.Decimal `json:"referral_rewards_earned"`
	AvailableBalance      decimal.Decimal `json:"available_balance"`
}

// LeaderboardEntry is a public ranking row
type LeaderboardEntry struct {
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	Location         string    `json:"location"`
	Points           int       `json:"points"`
	RegistrationDate time.Time `json:"registration_date"`
}

// ParticipantExport is one row of the draw export
type ParticipantExport struct {
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Points             int64     `json:"points"`
	Province           string    `json:"province"`
	City               string    `json:"city"`
	ReferralCode       string    `json:"referral_code"`
	CertificateNumbers []string  `json:"certificate_numbers"`
	RegisteredAt       time.Time `json:"registered_at"`
}
