package services

import (
	"context"
	"fmt"

	"deeddraw/internal/models"
	"deeddraw/internal/repository"
)

// ReferralCodeInfo describes a code a participant is about to use
type ReferralCodeInfo struct {
	Code             models.ReferralCode `json:"code"`
	ReferrerName     string              `json:"referrer_name"`
	DiscountPerPoint string              `json:"discount_per_point"`
}

type ReferralService struct {
	repo *repository.Repository
}

func NewReferralService(repo *repository.Repository) *ReferralService {
	return &ReferralService{repo: repo}
}

// ValidateCode checks that raw names another participant's code
func (s *ReferralService) ValidateCode(ctx context.Context, raw string, userID uint) (*ReferralCodeInfo, error) {
	code := models.NormalizeReferralCode(raw)
	referrer, err := resolveReferralCode(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}
	if referrer.ID == userID {
		return nil, ErrSelfReferralNotAllowed
	}
	return &ReferralCodeInfo{
		Code:             code,
		ReferrerName:     referrer.FullName(),
		DiscountPerPoint: DiscountPerPoint.StringFixed(2),
	}, nil
}

// ListReferrals returns the referrals the user has earned, newest first
func (s *ReferralService) ListReferrals(ctx context.Context, userID uint) ([]models.Referral, error) {
	referrals, err := s.repo.ListReferralsByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return referrals, nil
}
