package services

import (
	"context"
	"fmt"
	"strings"

	"deeddraw/internal/models"
	"deeddraw/internal/repository"
	"deeddraw/internal/utils"

	"go.uber.org/zap"
)

type AdminService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func NewAdminService(repo *repository.Repository, logger *zap.Logger) *AdminService {
	return &AdminService{
		repo:   repo,
		logger: logger,
	}
}

// IsAdmin checks if a user is an admin
func (s *AdminService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if repository.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// EnsureAdmin grants admin rights to the account registered under email.
// A missing account is not an error; the grant applies once it registers and
// the server restarts.
func (s *AdminService) EnsureAdmin(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	user, err := s.repo.GetUserByEmail(ctx, utils.NormalizeEmail(email))
	if repository.IsNotFound(err) {
		s.logger.Warn("bootstrap admin not registered yet", zap.String("email", email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}
	changed, err := s.repo.SetAdmin(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to grant admin: %w", err)
	}
	if changed {
		s.logger.Info("bootstrap admin granted", zap.Uint("user_id", user.ID))
	}
	return nil
}

// PromoteUserToAdmin promotes a user to admin
func (s *AdminService) PromoteUserToAdmin(ctx context.Context, userID uint, promotedBy uint) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		user, err := tx.GetUserByID(ctx, userID)
		if repository.IsNotFound(err) {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if user.IsAdmin {
			return validationError("user is already an admin")
		}
		if _, err := tx.SetAdmin(ctx, userID); err != nil {
			return fmt.Errorf("failed to promote user: %w", err)
		}
		return tx.CreateAdminLog(ctx, &models.AdminLog{
			AdminID:      promotedBy,
			Action:       models.AdminActionPromoteUser,
			ResourceType: "user",
			ResourceID:   fmt.Sprintf("%d", userID),
			Details:      models.JSONB{"email": user.Email},
		})
	})
}

// GetAdminLogs returns the audit trail, newest first
func (s *AdminService) GetAdminLogs(ctx context.Context, limit, offset int) ([]models.AdminLog, int64, error) {
	return s.repo.ListAdminLogs(ctx, limit, offset)
}

// GetAllUsers returns a filtered page of participants
func (s *AdminService) GetAllUsers(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	return s.repo.ListUsers(ctx, filter)
}

// ExportParticipants lists every participant with their verified points and
// certificate numbers for the draw
func (s *AdminService) ExportParticipants(ctx context.Context) ([]models.ParticipantExport, error) {
	users, err := s.repo.ListParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	totals, err := s.repo.VerifiedTotalsByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum verified points: %w", err)
	}
	certs, err := s.repo.VerifiedCertificatesByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificates: %w", err)
	}

	points := make(map[uint]int64, len(totals))
	for _, t := range totals {
		points[t.UserID] = t.Points
	}

	rows := make([]models.ParticipantExport, 0, len(users))
	for _, u := range users {
		numbers := certs[u.ID]
		if numbers == nil {
			numbers = []string{}
		}
		rows = append(rows, models.ParticipantExport{
			Name:               u.FullName(),
			Email:              u.Email,
			Phone:              u.Phone,
			Points:             points[u.ID],
			Province:           u.Province,
			City:               u.City,
			ReferralCode:       u.ReferralCode.String(),
			CertificateNumbers: numbers,
			RegisteredAt:       u.CreatedAt,
		})
	}
	return rows, nil
}
