package repository

import (
	"context"
	"fmt"

	"deeddraw/internal/models"

	"github.com/google/uuid"
)

// TransactionFilter narrows the admin transaction listing
type TransactionFilter struct {
	Status models.TransactionStatus
	UserID uint
	Limit  int
	Offset int
}

// CreateTransaction inserts a transaction. A certificate number collision is
// reported as ErrConflict so the caller can draw a fresh number.
func (r *Repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	err := r.db.WithContext(ctx).Create(txn).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// GetTransactionByID retrieves a transaction with its owner
func (r *Repository) GetTransactionByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// GetUserTransaction retrieves a transaction only if it belongs to userID
func (r *Repository) GetUserTransaction(ctx context.Context, userID uint, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// LatestCertificateNumber returns the highest certificate number carrying
// prefix, or "" when the prefix has not been used. Sequence digits are fixed
// width, so lexical order is numeric order.
func (r *Repository) LatestCertificateNumber(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("certificate_number LIKE ?", prefix+"%").
		Order("certificate_number DESC").
		Limit(1).
		Pluck("certificate_number", &numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

// TransitionTransaction applies updates only while the row is still in
// status from. It reports whether the row moved.
func (r *Repository) TransitionTransaction(
	ctx context.Context,
	id uuid.UUID,
	from models.TransactionStatus,
	updates map[string]interface{},
) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListUserTransactions returns a user's transactions, newest first
func (r *Repository) ListUserTransactions(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&txns).Error
	return txns, err
}

// ListTransactions returns transactions matching the filter with a total count
func (r *Repository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.Transaction
	err := query.Preload("User").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// CreateReferral inserts the referral record for a transaction
func (r *Repository) CreateReferral(ctx context.Context, referral *models.Referral) error {
	return r.db.WithContext(ctx).Create(referral).Error
}

// GetReferralByTransaction returns the referral attached to a transaction, or
// nil when the transaction used no code
func (r *Repository) GetReferralByTransaction(ctx context.Context, txnID uuid.UUID) (*models.Referral, error) {
	var referrals []models.Referral
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", txnID).
		Limit(1).
		Find(&referrals).Error
	if err != nil {
		return nil, err
	}
	if len(referrals) == 0 {
		return nil, nil
	}
	return &referrals[0], nil
}

// TransitionReferral applies updates only while the referral is in status from
func (r *Repository) TransitionReferral(
	ctx context.Context,
	id uuid.UUID,
	from models.ReferralStatus,
	updates map[string]interface{},
) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListReferralsByReferrer returns referrals earned by a user, newest first
func (r *Repository) ListReferralsByReferrer(ctx context.Context, referrerID uint) ([]models.Referral, error) {
	var referrals []models.Referral
	err := r.db.WithContext(ctx).
		Preload("ReferredUser").
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Find(&referrals).Error
	return referrals, err
}
