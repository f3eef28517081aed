package repository

import (
	"context"

	"deeddraw/internal/models"

	"github.com/shopspring/decimal"
)

// StatusSummary aggregates one user's transactions in a single status
type StatusSummary struct {
	Status models.TransactionStatus
	Count  int64
	Points int64
	Amount decimal.Decimal
}

// UserTotals is the ledger-derived value of a user's cached totals
type UserTotals struct {
	UserID uint
	Points int64
	Paid   decimal.Decimal
}

// CountTransactionsByStatus returns the number of transactions per status
func (r *Repository) CountTransactionsByStatus(ctx context.Context) (map[models.TransactionStatus]int64, error) {
	var rows []struct {
		Status models.TransactionStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.TransactionStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// VerifiedTotals sums points and revenue over verified transactions only
func (r *Repository) VerifiedTotals(ctx context.Context) (points int64, revenue decimal.Decimal, err error) {
	var row struct {
		Points  int64
		Revenue decimal.Decimal
	}
	err = r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(points), 0) AS points, COALESCE(SUM(amount), 0) AS revenue").
		Where("status = ?", models.TransactionStatusVerified).
		Scan(&row).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	return row.Points, row.Revenue, nil
}

// CountParticipants counts registered non-admin users
func (r *Repository) CountParticipants(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("is_admin = ?", false).
		Count(&count).Error
	return count, err
}

// CountVerifiedParticipants counts users owning at least one verified transaction
func (r *Repository) CountVerifiedParticipants(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("status = ?", models.TransactionStatusVerified).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}

// RecentTransactions returns the newest transactions with their owners
func (r *Repository) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

// RecentWithdrawals returns the newest withdrawal requests with their owners
func (r *Repository) RecentWithdrawals(ctx context.Context, limit int) ([]models.Withdrawal, error) {
	var ws []models.Withdrawal
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&ws).Error
	return ws, err
}

// UserTransactionSummary groups a user's transactions by status
func (r *Repository) UserTransactionSummary(ctx context.Context, userID uint) (map[models.TransactionStatus]StatusSummary, error) {
	var rows []StatusSummary
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(points), 0) AS points, COALESCE(SUM(amount), 0) AS amount").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := make(map[models.TransactionStatus]StatusSummary, len(rows))
	for _, row := range rows {
		summary[row.Status] = row
	}
	return summary, nil
}

// VerifiedTotalsByUser recomputes every user's verified points and paid
// amount from the ledger. Users without verified transactions are absent.
func (r *Repository) VerifiedTotalsByUser(ctx context.Context) ([]UserTotals, error) {
	var rows []UserTotals
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("user_id, COALESCE(SUM(points), 0) AS points, COALESCE(SUM(amount), 0) AS paid").
		Where("status = ?", models.TransactionStatusVerified).
		Group("user_id").
		Scan(&rows).Error
	return rows, err
}

// VerifiedCertificatesByUser maps each user to their verified certificate
// numbers in issue order
func (r *Repository) VerifiedCertificatesByUser(ctx context.Context) (map[uint][]string, error) {
	var rows []struct {
		UserID            uint
		CertificateNumber string
	}
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("user_id, certificate_number").
		Where("status = ?", models.TransactionStatusVerified).
		Order("certificate_number ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	certs := make(map[uint][]string)
	for _, row := range rows {
		certs[row.UserID] = append(certs[row.UserID], row.CertificateNumber)
	}
	return certs, nil
}

// CreateAdminLog records an admin action
func (r *Repository) CreateAdminLog(ctx context.Context, entry *models.AdminLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListAdminLogs returns audit entries, newest first, with a total count
func (r *Repository) ListAdminLogs(ctx context.Context, limit, offset int) ([]models.AdminLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.AdminLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AdminLog
	err := r.db.WithContext(ctx).
		Preload("Admin").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
