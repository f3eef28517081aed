package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"deeddraw/internal/models"
	"deeddraw/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	recentActivityWindow = 10
	leaderboardSize      = 10
	searchResultLimit    = 10
	minSearchLength      = 2
)

// ReportService derives read models from the ledger on every call. Only
// verified transactions count toward points and revenue.
type ReportService struct {
	repo *repository.Repository
}

func NewReportService(repo *repository.Repository) *ReportService {
	return &ReportService{repo: repo}
}

// PoolProgress is min(points/TargetPoints, 1) * 100 rounded to two places
func PoolProgress(points int64) decimal.Decimal {
	if points <= 0 {
		return decimal.Zero
	}
	if points >= TargetPoints {
		return decimal.NewFromInt(100)
	}
	return decimal.NewFromInt(points).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(TargetPoints)).
		Round(2)
}

// MergeActivity interleaves transactions and withdrawals by creation time,
// newest first, keeping at most limit items
func MergeActivity(txns []models.Transaction, withdrawals []models.Withdrawal, limit int) []models.ActivityItem {
	items := make([]models.ActivityItem, 0, len(txns)+len(withdrawals))
	for _, t := range txns {
		item := models.ActivityItem{
			Type:              models.ActivityTypeTransaction,
			ID:                t.ID.String(),
			CertificateNumber: t.CertificateNumber,
			Points:            t.Points,
			Amount:            t.Amount,
			Status:            string(t.Status),
			Date:              t.CreatedAt,
		}
		if t.User != nil {
			item.ParticipantName = t.User.FullName()
			item.ParticipantEmail = t.User.Email
		}
		items = append(items, item)
	}
	for _, w := range withdrawals {
		item := models.ActivityItem{
			Type:   models.ActivityTypeWithdrawal,
			ID:     w.ID.String(),
			Amount: w.Amount,
			Status: string(w.Status),
			Date:   w.CreatedAt,
		}
		if w.User != nil {
			item.ParticipantName = w.User.FullName()
			item.ParticipantEmail = w.User.Email
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Dashboard builds the admin overview
func (s *ReportService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	participants, err := s.repo.CountParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	points, revenue, err := s.repo.VerifiedTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum verified transactions: %w", err)
	}
	counts, err := s.repo.CountTransactionsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	txns, err := s.repo.RecentTransactions(ctx, recentActivityWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent transactions: %w", err)
	}
	withdrawals, err := s.repo.RecentWithdrawals(ctx, recentActivityWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent withdrawals: %w", err)
	}

	return &models.DashboardStats{
		TotalParticipants:    participants,
		TotalPoints:          points,
		TotalRevenue:         revenue,
		PendingTransactions:  counts[models.TransactionStatusPending],
		VerifiedTransactions: counts[models.TransactionStatusVerified],
		RejectedTransactions: counts[models.TransactionStatusRejected],
		PoolProgress:         PoolProgress(points),
		RecentActivity:       MergeActivity(txns, withdrawals, recentActivityWindow),
	}, nil
}

// GlobalStats is the public progress toward the draw
func (s *ReportService) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	points, _, err := s.repo.VerifiedTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum verified transactions: %w", err)
	}
	participants, err := s.repo.CountVerifiedParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}

	remaining := int64(TargetPoints) - points
	if remaining < 0 {
		remaining = 0
	}
	return &models.GlobalStats{
		TotalPoints:     points,
		PointsUntilDraw: remaining,
		Progress:        PoolProgress(points),
		TargetPoints:    TargetPoints,
		PrizePool:       PrizePool,
		Participants:    participants,
	}, nil
}

// Leaderboard ranks participants by verified points
func (s *ReportService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	users, err := s.repo.Leaderboard(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return toLeaderboard(users), nil
}

// SearchParticipants finds verified participants by name. Queries shorter
// than two characters match nothing.
func (s *ReportService) SearchParticipants(ctx context.Context, query string) ([]models.LeaderboardEntry, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSearchLength {
		return []models.LeaderboardEntry{}, nil
	}
	users, err := s.repo.SearchVerifiedParticipants(ctx, query, searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search participants: %w", err)
	}
	return toLeaderboard(users), nil
}

func toLeaderboard(users []models.User) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		location := "N/A"
		if u.City != "" && u.Province != "" {
			location = u.City + ", " + u.Province
		}
		entries = append(entries, models.LeaderboardEntry{
			Name:             u.FullName(),
			Category:         u.Category,
			Location:         location,
			Points:           u.TotalPoints,
			RegistrationDate: u.CreatedAt,
		})
	}
	return entries
}
