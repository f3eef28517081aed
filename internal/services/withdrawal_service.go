package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deeddraw/internal/metrics"
	"deeddraw/internal/models"
	"deeddraw/internal/repository"
	"deeddraw/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Balance breaks down a user's withdrawable referral earnings
type Balance struct {
	TotalEarnings  decimal.Decimal `json:"total_earnings"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	Available      decimal.Decimal `json:"available"`
}

type WithdrawalService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewWithdrawalService(repo *repository.Repository, logger *zap.Logger) *WithdrawalService {
	return &WithdrawalService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// AvailableBalance recomputes the user's balance from the ledger
func (s *WithdrawalService) AvailableBalance(ctx context.Context, userID uint) (*Balance, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if repository.IsNotFound(err) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return computeBalance(ctx, s.repo, user)
}

// computeBalance derives earnings from verified transactions that used the
// user's code. Pending and approved withdrawals both count as withdrawn.
func computeBalance(ctx context.Context, repo *repository.Repository, user *models.User) (*Balance, error) {
	points, _, err := repo.ReferredPoints(ctx, user.ReferralCode, models.TransactionStatusVerified)
	if err != nil {
		return nil, fmt.Errorf("failed to sum referral earnings: %w", err)
	}
	withdrawn, err := repo.SumReservedWithdrawals(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum withdrawals: %w", err)
	}

	earnings := decimal.NewFromInt(points).Mul(RewardPerPoint)
	return &Balance{
		TotalEarnings:  earnings,
		TotalWithdrawn: withdrawn,
		Available:      earnings.Sub(withdrawn),
	}, nil
}

// RequestWithdrawal reserves amount from the user's balance as a pending
// request. Requests for the same user are serialized on the user row.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, userID uint, req models.WithdrawalRequest) (*models.Withdrawal, error) {
	email := strings.TrimSpace(req.Email)
	if !utils.ValidEmail(email) {
		return nil, validationError("a valid e-transfer email is required")
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, validationError("amount has more than two decimal places")
	}
	if req.Amount.LessThan(MinWithdrawal) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrBelowMinimum, MinWithdrawal.StringFixed(2))
	}

	var withdrawal *models.Withdrawal
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		user, err := tx.GetUserByIDForUpdate(ctx, userID)
		if repository.IsNotFound(err) {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}

		balance, err := computeBalance(ctx, tx, user)
		if err != nil {
			return err
		}
		if req.Amount.GreaterThan(balance.Available) {
			return &InsufficientBalanceError{Available: balance.Available}
		}

		withdrawal = &models.Withdrawal{
			ID:     uuid.New(),
			UserID: userID,
			Amount: req.Amount,
			Email:  email,
			Status: models.WithdrawalStatusPending,
		}
		if err := tx.CreateWithdrawal(ctx, withdrawal); err != nil {
			return fmt.Errorf("failed to create withdrawal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalsRequested.Inc()
	s.logger.Info("withdrawal requested",
		zap.String("withdrawal_id", withdrawal.ID.String()),
		zap.Uint("user_id", userID),
		zap.String("amount", withdrawal.Amount.StringFixed(2)),
	)
	return withdrawal, nil
}

// ApproveWithdrawal marks a pending request paid. It refuses when the ledger
// no longer covers everything the user has reserved.
func (s *WithdrawalService) ApproveWithdrawal(ctx context.Context, id uuid.UUID, adminID uint, notes string) (*models.Withdrawal, error) {
	return s.process(ctx, id, adminID, notes, models.WithdrawalStatusApproved)
}

// RejectWithdrawal returns a pending request's amount to the user's balance
func (s *WithdrawalService) RejectWithdrawal(ctx context.Context, id uuid.UUID, adminID uint, notes string) (*models.Withdrawal, error) {
	return s.process(ctx, id, adminID, notes, models.WithdrawalStatusRejected)
}

func (s *WithdrawalService) process(
	ctx context.Context,
	id uuid.UUID,
	adminID uint,
	notes string,
	to models.WithdrawalStatus,
) (*models.Withdrawal, error) {
	notes = strings.TrimSpace(notes)

	var withdrawal *models.Withdrawal
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		withdrawal, err = tx.GetWithdrawalByID(ctx, id)
		if repository.IsNotFound(err) {
			return fmt.Errorf("withdrawal %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load withdrawal: %w", err)
		}
		if withdrawal.Status != models.WithdrawalStatusPending {
			return &InvalidStateTransitionError{Resource: "withdrawal", Current: string(withdrawal.Status)}
		}

		if to == models.WithdrawalStatusApproved {
			user, err := tx.GetUserByIDForUpdate(ctx, withdrawal.UserID)
			if err != nil {
				return fmt.Errorf("failed to lock user: %w", err)
			}
			balance, err := computeBalance(ctx, tx, user)
			if err != nil {
				return err
			}
			// the request itself is already counted as withdrawn
			if balance.Available.IsNegative() {
				return &InsufficientBalanceError{Available: balance.Available.Add(withdrawal.Amount)}
			}
		}

		now := s.now()
		moved, err := tx.TransitionWithdrawal(ctx, id, models.WithdrawalStatusPending, map[string]interface{}{
			"status":       to,
			"admin_notes":  notes,
			"processed_at": now,
		})
		if err != nil {
			return fmt.Errorf("failed to update withdrawal: %w", err)
		}
		if !moved {
			current, err := tx.GetWithdrawalByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to reload withdrawal: %w", err)
			}
			return &InvalidStateTransitionError{Resource: "withdrawal", Current: string(current.Status)}
		}

		action := models.AdminActionApproveWithdrawal
		if to == models.WithdrawalStatusRejected {
			action = models.AdminActionRejectWithdrawal
		}
		if err := tx.CreateAdminLog(ctx, &models.AdminLog{
			AdminID:      adminID,
			Action:       action,
			ResourceType: "withdrawal",
			ResourceID:   id.String(),
			Details: models.JSONB{
				"user_id": withdrawal.UserID,
				"amount":  withdrawal.Amount.StringFixed(2),
				"notes":   notes,
			},
		}); err != nil {
			return fmt.Errorf("failed to write admin log: %w", err)
		}

		withdrawal.Status = to
		withdrawal.AdminNotes = notes
		withdrawal.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalsProcessed.WithLabelValues(string(to)).Inc()
	s.logger.Info("withdrawal processed",
		zap.String("withdrawal_id", id.String()),
		zap.String("status", string(to)),
		zap.Uint("admin_id", adminID),
	)
	return withdrawal, nil
}

// ListUserWithdrawals returns the user's requests, newest first
func (s *WithdrawalService) ListUserWithdrawals(ctx context.Context, userID uint) ([]models.Withdrawal, error) {
	return s.repo.ListUserWithdrawals(ctx, userID)
}

// ListWithdrawals returns every request, optionally filtered by status
func (s *WithdrawalService) ListWithdrawals(ctx context.Context, status models.WithdrawalStatus) ([]models.Withdrawal, error) {
	switch status {
	case "", models.WithdrawalStatusPending, models.WithdrawalStatusApproved, models.WithdrawalStatusRejected:
	default:
		return nil, validationError("unknown withdrawal status %q", status)
	}
	return s.repo.ListWithdrawals(ctx, status)
}
