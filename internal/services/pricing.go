package services

import (
	"context"
	"fmt"

	"deeddraw/internal/models"
	"deeddraw/internal/repository"

	"github.com/shopspring/decimal"
)

// Draw economics
var (
	PricePerPoint        = decimal.NewFromInt(2000)
	DiscountPerPoint     = decimal.NewFromInt(100)
	RewardPerPoint       = decimal.NewFromInt(100)
	MinTransactionAmount = decimal.NewFromInt(500000)
	MinWithdrawal        = decimal.NewFromInt(100)
	PrizePool            = decimal.NewFromInt(500000)
)

// TargetPoints is the pool size that triggers the draw
const TargetPoints = 400

// Quote is the price of a submission and the reward it will owe a referrer
type Quote struct {
	BaseAmount       decimal.Decimal `json:"base_amount"`
	Amount           decimal.Decimal `json:"amount"`
	ReferralDiscount decimal.Decimal `json:"referral_discount"`
	Referrer         *models.User    `json:"-"`
	RewardAmount     decimal.Decimal `json:"reward_amount"`
}

// priceTransaction prices points for submitterID, resolving code against repo
func priceTransaction(
	ctx context.Context,
	repo *repository.Repository,
	points int,
	code models.ReferralCode,
	submitterID uint,
) (*Quote, error) {
	if points < 1 {
		return nil, validationError("points must be at least 1")
	}

	n := decimal.NewFromInt(int64(points))
	quote := &Quote{
		BaseAmount:       n.Mul(PricePerPoint),
		ReferralDiscount: decimal.Zero,
		RewardAmount:     decimal.Zero,
	}
	quote.Amount = quote.BaseAmount

	if code.IsZero() {
		return quote, nil
	}

	referrer, err := resolveReferralCode(ctx, repo, code)
	if err != nil {
		return nil, err
	}
	if referrer.ID == submitterID {
		return nil, ErrSelfReferralNotAllowed
	}

	quote.Referrer = referrer
	quote.ReferralDiscount = n.Mul(DiscountPerPoint)
	quote.Amount = quote.BaseAmount.Sub(quote.ReferralDiscount)
	quote.RewardAmount = n.Mul(RewardPerPoint)
	return quote, nil
}

// resolveReferralCode finds the owner of a normalized code
func resolveReferralCode(ctx context.Context, repo *repository.Repository, code models.ReferralCode) (*models.User, error) {
	if !code.Valid() {
		return nil, ErrInvalidReferralCode
	}
	user, err := repo.GetUserByReferralCode(ctx, code)
	if repository.IsNotFound(err) {
		return nil, ErrInvalidReferralCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve referral code: %w", err)
	}
	return user, nil
}
