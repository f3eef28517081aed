package repository

import (
	"context"

	"deeddraw/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateWithdrawal inserts a withdrawal request
func (r *Repository) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	return r.db.WithContext(ctx).Create(w).Error
}

// GetWithdrawalByID retrieves a withdrawal request
func (r *Repository) GetWithdrawalByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// TransitionWithdrawal applies updates only while the request is in status from
func (r *Repository) TransitionWithdrawal(
	ctx context.Context,
	id uuid.UUID,
	from models.WithdrawalStatus,
	updates map[string]interface{},
) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListUserWithdrawals returns a user's withdrawal requests, newest first
func (r *Repository) ListUserWithdrawals(ctx context.Context, userID uint) ([]models.Withdrawal, error) {
	var ws []models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&ws).Error
	return ws, err
}

// ListWithdrawals returns all requests, optionally filtered by status
func (r *Repository) ListWithdrawals(ctx context.Context, status models.WithdrawalStatus) ([]models.Withdrawal, error) {
	query := r.db.WithContext(ctx).Preload("User")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var ws []models.Withdrawal
	err := query.Order("created_at DESC").Find(&ws).Error
	return ws, err
}

// SumReservedWithdrawals totals a user's pending and approved requests.
// Pending requests hold funds until an admin rejects them.
func (r *Repository) SumReservedWithdrawals(ctx context.Context, userID uint) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND status IN ?", userID, []models.WithdrawalStatus{
			models.WithdrawalStatusPending,
			models.WithdrawalStatusApproved,
		}).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// ReferredPoints sums points and counts transactions in the given status that
// used code
func (r *Repository) ReferredPoints(
	ctx context.Context,
	code models.ReferralCode,
	status models.TransactionStatus,
) (points int64, count int64, err error) {
	var row struct {
		Points int64
		Count  int64
	}
	err = r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(points), 0) AS points, COUNT(*) AS count").
		Where("referral_code_used = ? AND status = ?", code, status).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Points, row.Count, nil
}
