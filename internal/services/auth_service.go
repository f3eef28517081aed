package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"deeddraw/internal/models"
	"deeddraw/internal/repository"
	"deeddraw/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
	Category   string `json:"category"`
	Company    string `json:"company"`
	City       string `json:"city"`
	Province   string `json:"province"`
	ReferredBy string `json:"referred_by"`
}

// AuthService handles registration and password login
type AuthService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo *repository.Repository, logger *zap.Logger) *AuthService {
	return &AuthService{repo: repo, logger: logger}
}

func validateRegistration(req *RegisterRequest) error {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return validationError("first and last name are required")
	}
	if !utils.ValidEmail(req.Email) {
		return validationError("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return validationError("password must be at least %d characters", minPasswordLength)
	}
	if !models.ValidCategory(req.Category) {
		return validationError("unknown category %q", req.Category)
	}
	return nil
}

// Register creates a participant with a freshly generated referral code
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := validateRegistration(&req); err != nil {
		return nil, err
	}
	email := utils.NormalizeEmail(req.Email)

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	var referredBy *models.ReferralCode
	if raw := strings.TrimSpace(req.ReferredBy); raw != "" {
		code := models.NormalizeReferralCode(raw)
		if _, err := resolveReferralCode(ctx, s.repo, code); err != nil {
			return nil, err
		}
		referredBy = &code
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	code, err := utils.GenerateReferralCode(firstName, lastName, func(candidate string) (bool, error) {
		return s.repo.ReferralCodeExists(ctx, models.ReferralCode(candidate))
	})
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: string(hash),
		Category:     req.Category,
		Company:      strings.TrimSpace(req.Company),
		City:         strings.TrimSpace(req.City),
		Province:     strings.TrimSpace(req.Province),
		ReferralCode: models.ReferralCode(code),
		ReferredBy:   referredBy,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.String("referral_code", user.ReferralCode.String()),
	)
	return user, nil
}

// Login checks credentials and stamps the login time
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, utils.NormalizeEmail(email))
	if repository.IsNotFound(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record login", zap.Uint("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if repository.IsNotFound(err) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return user, err
}
