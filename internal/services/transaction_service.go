package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"deeddraw/internal/metrics"
	"deeddraw/internal/models"
	"deeddraw/internal/repository"
	"deeddraw/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionService owns the transaction lifecycle:
// pending -> verified | rejected. Approval is the only place cached user
// totals change.
type TransactionService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// PriceTransaction quotes points for submitterID without persisting anything
func (s *TransactionService) PriceTransaction(ctx context.Context, points int, code string, submitterID uint) (*Quote, error) {
	return priceTransaction(ctx, s.repo, points, models.NormalizeReferralCode(code), submitterID)
}

func validateSubmission(req *models.SubmitTransactionRequest) error {
	if req.Points < 1 {
		return validationError("points must be at least 1")
	}
	if req.TransactionAmount.LessThan(MinTransactionAmount) {
		return validationError("transaction amount must be at least %s", MinTransactionAmount.String())
	}
	if strings.TrimSpace(req.ETransferRef) == "" {
		return validationError("e-transfer reference is required")
	}
	if !utils.ValidEmail(req.ETransferEmail) {
		return validationError("a valid e-transfer email is required")
	}
	return nil
}

// Submit registers a pending transaction for userID. The transaction, its
// certificate number and any referral record are written together or not at
// all.
func (s *TransactionService) Submit(ctx context.Context, userID uint, req models.SubmitTransactionRequest) (*models.Transaction, error) {
	if err := validateSubmission(&req); err != nil {
		return nil, err
	}
	code := models.NormalizeReferralCode(req.ReferralCodeUsed)

	var (
		txn  *models.Transaction
		user *models.User
		err  error
	)
	for attempt := 1; attempt <= maxCertificateAttempts; attempt++ {
		txn, user, err = s.submitOnce(ctx, userID, code, &req)
		if !errors.Is(err, repository.ErrConflict) {
			break
		}
		metrics.CertificateRetries.Inc()
		s.logger.Warn("certificate number taken, retrying",
			zap.Uint("user_id", userID),
			zap.Int("attempt", attempt),
		)
	}
	if err != nil {
		return nil, err
	}

	metrics.TransactionsSubmitted.Inc()
	s.logger.Info("transaction submitted",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("certificate_number", txn.CertificateNumber),
		zap.Uint("user_id", userID),
		zap.Int("points", txn.Points),
	)

	if err := s.notifier.SendETransferInstructions(ctx, ETransferInstructions{
		Email:             user.Email,
		Name:              user.FullName(),
		Amount:            txn.Amount,
		CertificateNumber: txn.CertificateNumber,
	}); err != nil {
		metrics.NotificationFailures.WithLabelValues("etransfer_instructions").Inc()
		s.logger.Warn("failed to send e-transfer instructions",
			zap.String("transaction_id", txn.ID.String()),
			zap.Error(err),
		)
	}

	return txn, nil
}

func (s *TransactionService) submitOnce(
	ctx context.Context,
	userID uint,
	code models.ReferralCode,
	req *models.SubmitTransactionRequest,
) (*models.Transaction, *models.User, error) {
	var (
		txn  *models.Transaction
		user *models.User
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		user, err = tx.GetUserByID(ctx, userID)
		if repository.IsNotFound(err) {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}

		quote, err := priceTransaction(ctx, tx, req.Points, code, userID)
		if err != nil {
			return err
		}

		now := s.now()
		certificate, err := NextCertificateNumber(ctx, tx, now.Year())
		if err != nil {
			return err
		}

		txn = &models.Transaction{
			ID:                uuid.New(),
			UserID:            userID,
			Points:            req.Points,
			Amount:            quote.Amount,
			ReferralDiscount:  quote.ReferralDiscount,
			CertificateNumber: certificate,
			TransactionDate:   now,
			TransactionAmount: req.TransactionAmount,
			ETransferRef:      strings.TrimSpace(req.ETransferRef),
			ETransferEmail:    strings.TrimSpace(req.ETransferEmail),
			ETransferDate:     now,
			Status:            models.TransactionStatusPending,
			Notes:             req.Notes,
		}
		if req.TransactionDate != nil {
			txn.TransactionDate = *req.TransactionDate
		}
		if req.ETransferDate != nil {
			txn.ETransferDate = *req.ETransferDate
		}
		if quote.Referrer != nil {
			used := code
			txn.ReferralCodeUsed = &used
		}

		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		if quote.Referrer != nil {
			referral := &models.Referral{
				ReferrerID:     quote.Referrer.ID,
				ReferredUserID: userID,
				TransactionID:  txn.ID,
				ReferralCode:   code,
				RewardAmount:   quote.RewardAmount,
				Status:         models.ReferralStatusPending,
			}
			if err := tx.CreateReferral(ctx, referral); err != nil {
				return fmt.Errorf("failed to create referral: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return txn, user, nil
}

// Approve verifies a pending transaction, credits its owner's totals and
// pays out any referral it carries
func (s *TransactionService) Approve(ctx context.Context, id uuid.UUID, adminID uint, notes string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		txn, err = s.loadPending(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.now()
		updates := map[string]interface{}{
			"status":      models.TransactionStatusVerified,
			"verified_by": adminID,
			"verified_at": now,
			"updated_at":  now,
		}
		if notes = strings.TrimSpace(notes); notes != "" {
			updates["notes"] = notes
		}
		if err := s.transition(ctx, tx, id, updates); err != nil {
			return err
		}

		if err := tx.IncrementUserTotals(ctx, txn.UserID, txn.Points, txn.Amount); err != nil {
			return fmt.Errorf("failed to credit user totals: %w", err)
		}

		referral, err := tx.GetReferralByTransaction(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load referral: %w", err)
		}
		if referral != nil {
			moved, err := tx.TransitionReferral(ctx, referral.ID, models.ReferralStatusPending, map[string]interface{}{
				"status":     models.ReferralStatusPaid,
				"paid_at":    now,
				"updated_at": now,
			})
			if err != nil {
				return fmt.Errorf("failed to update referral: %w", err)
			}
			if moved {
				if err := tx.IncrementReferralEarnings(ctx, referral.ReferrerID, referral.RewardAmount); err != nil {
					return fmt.Errorf("failed to credit referrer: %w", err)
				}
			}
		}

		if err := tx.CreateAdminLog(ctx, &models.AdminLog{
			AdminID:      adminID,
			Action:       models.AdminActionApproveTransaction,
			ResourceType: "transaction",
			ResourceID:   id.String(),
			Details: models.JSONB{
				"certificate_number": txn.CertificateNumber,
				"points":             txn.Points,
				"amount":             txn.Amount.StringFixed(2),
			},
		}); err != nil {
			return fmt.Errorf("failed to write admin log: %w", err)
		}

		txn.Status = models.TransactionStatusVerified
		txn.VerifiedBy = &adminID
		txn.VerifiedAt = &now
		if notes != "" {
			txn.Notes = notes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TransactionsProcessed.WithLabelValues(string(models.TransactionStatusVerified)).Inc()
	metrics.PointsVerified.Add(float64(txn.Points))
	s.logger.Info("transaction approved",
		zap.String("transaction_id", id.String()),
		zap.Uint("admin_id", adminID),
		zap.Uint("user_id", txn.UserID),
		zap.Int("points", txn.Points),
	)

	if txn.User != nil {
		if err := s.notifier.SendPaymentApproved(ctx, PaymentApproved{
			Email:             txn.User.Email,
			Name:              txn.User.FullName(),
			Amount:            txn.Amount,
			Points:            txn.Points,
			CertificateNumber: txn.CertificateNumber,
		}); err != nil {
			metrics.NotificationFailures.WithLabelValues("payment_approved").Inc()
			s.logger.Warn("failed to send payment approval",
				zap.String("transaction_id", id.String()),
				zap.Error(err),
			)
		}
	}

	return txn, nil
}

// Reject closes a pending transaction without touching any balance and
// cancels its referral
func (s *TransactionService) Reject(ctx context.Context, id uuid.UUID, adminID uint, reason string) (*models.Transaction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationError("rejection reason is required")
	}

	var txn *models.Transaction
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		txn, err = s.loadPending(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.now()
		if err := s.transition(ctx, tx, id, map[string]interface{}{
			"status":           models.TransactionStatusRejected,
			"verified_by":      adminID,
			"verified_at":      now,
			"rejection_reason": reason,
			"updated_at":       now,
		}); err != nil {
			return err
		}

		referral, err := tx.GetReferralByTransaction(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load referral: %w", err)
		}
		if referral != nil {
			if _, err := tx.TransitionReferral(ctx, referral.ID, models.ReferralStatusPending, map[string]interface{}{
				"status":     models.ReferralStatusCancelled,
				"updated_at": now,
			}); err != nil {
				return fmt.Errorf("failed to cancel referral: %w", err)
			}
		}

		if err := tx.CreateAdminLog(ctx, &models.AdminLog{
			AdminID:      adminID,
			Action:       models.AdminActionRejectTransaction,
			ResourceType: "transaction",
			ResourceID:   id.String(),
			Details: models.JSONB{
				"certificate_number": txn.CertificateNumber,
				"reason":             reason,
			},
		}); err != nil {
			return fmt.Errorf("failed to write admin log: %w", err)
		}

		txn.Status = models.TransactionStatusRejected
		txn.VerifiedBy = &adminID
		txn.VerifiedAt = &now
		txn.RejectionReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TransactionsProcessed.WithLabelValues(string(models.TransactionStatusRejected)).Inc()
	s.logger.Info("transaction rejected",
		zap.String("transaction_id", id.String()),
		zap.Uint("admin_id", adminID),
		zap.String("reason", reason),
	)
	return txn, nil
}

// loadPending fetches a transaction and fails unless it is still pending
func (s *TransactionService) loadPending(ctx context.Context, tx *repository.Repository, id uuid.UUID) (*models.Transaction, error) {
	txn, err := tx.GetTransactionByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn.Status != models.TransactionStatusPending {
		return nil, &InvalidStateTransitionError{Resource: "transaction", Current: string(txn.Status)}
	}
	return txn, nil
}

// transition moves a pending transaction. Losing the race to another admin
// surfaces as the state that admin left behind.
func (s *TransactionService) transition(ctx context.Context, tx *repository.Repository, id uuid.UUID, updates map[string]interface{}) error {
	moved, err := tx.TransitionTransaction(ctx, id, models.TransactionStatusPending, updates)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if moved {
		return nil
	}
	current, err := tx.GetTransactionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to reload transaction: %w", err)
	}
	return &InvalidStateTransitionError{Resource: "transaction", Current: string(current.Status)}
}

// GetUserTransaction returns one of the user's own transactions
func (s *TransactionService) GetUserTransaction(ctx context.Context, userID uint, id uuid.UUID) (*models.Transaction, error) {
	txn, err := s.repo.GetUserTransaction(ctx, userID, id)
	if repository.IsNotFound(err) {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return txn, err
}

// GetTransaction returns any transaction with its owner
func (s *TransactionService) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	txn, err := s.repo.GetTransactionByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return txn, err
}

// ListUserTransactions returns the user's transactions, newest first
func (s *TransactionService) ListUserTransactions(ctx context.Context, userID uint) ([]models.Transaction, error) {
	return s.repo.ListUserTransactions(ctx, userID)
}

// ListTransactions returns a filtered page of all transactions
func (s *TransactionService) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, int64, error) {
	return s.repo.ListTransactions(ctx, filter)
}
