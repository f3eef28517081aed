package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"deeddraw/internal/models"
	"deeddraw/internal/repository"
)

// UserService serves a participant's view of their own ledger
type UserService struct {
	repo *repository.Repository
}

// NewUserService creates a new UserService
func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// GetUserStats summarises the user's entries, payments and referral income
func (s *UserService) GetUserStats(ctx context.Context, userID uint) (*models.UserStats, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if repository.IsNotFound(err) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	summary, err := s.repo.UserTransactionSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise transactions: %w", err)
	}
	verified := summary[models.TransactionStatusVerified]
	pending := summary[models.TransactionStatusPending]

	_, referrals, err := s.repo.ReferredPoints(ctx, user.ReferralCode, models.TransactionStatusVerified)
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	balance, err := computeBalance(ctx, s.repo, user)
	if err != nil {
		return nil, err
	}

	return &models.UserStats{
		TotalPoints:           verified.Points,
		PendingPoints:         pending.Points,
		TotalEntries:          verified.Count,
		PendingEntries:        pending.Count,
		TotalAmountPaid:       verified.Amount,
		CompletedReferrals:    referrals,
		ReferralRewardsEarned: balance.TotalEarnings,
		AvailableBalance:      balance.Available,
	}, nil
}

// GetProfile returns the caller's own user record
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if repository.IsNotFound(err) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// profile field limits mirror the users table column sizes
var profileLimits = map[string]int{
	"first_name": 100,
	"last_name":  100,
	"phone":      20,
	"company":    255,
	"city":       100,
	"province":   50,
}

// UpdateProfile edits the caller's contact details. Blank names and a blank
// category are ignored; the referral code, email and totals are not editable.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req models.UpdateProfileRequest) (*models.User, error) {
	updates := make(map[string]interface{})
	set := func(column string, value *string, required bool) {
		if value == nil {
			return
		}
		v := strings.TrimSpace(*value)
		if required && v == "" {
			return
		}
		updates[column] = v
	}
	set("first_name", req.FirstName, true)
	set("last_name", req.LastName, true)
	set("phone", req.Phone, false)
	set("company", req.Company, false)
	set("city", req.City, false)
	set("province", req.Province, false)

	for column, limit := range profileLimits {
		if v, ok := updates[column].(string); ok && utf8.RuneCountInString(v) > limit {
			return nil, validationError("%s must be at most %d characters", column, limit)
		}
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		category := strings.TrimSpace(*req.Category)
		if !models.ValidCategory(category) {
			return nil, validationError("unknown category %q", category)
		}
		updates["category"] = category
	}

	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateUserProfile(ctx, userID, updates); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}
	return s.GetProfile(ctx, userID)
}
