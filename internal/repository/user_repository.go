package repository

import (
	"context"
	"fmt"
	"time"

	"deeddraw/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserFilter narrows the admin user listing
type UserFilter struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}

// CreateUser inserts a new user. A unique violation is reported as ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByIDForUpdate retrieves a user and holds a row lock until the
// surrounding transaction ends. SQLite ignores the locking clause and
// serializes writers instead.
func (r *Repository) GetUserByIDForUpdate(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by normalized email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByReferralCode resolves a referral code to its owner
func (r *Repository) GetUserByReferralCode(ctx context.Context, code models.ReferralCode) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ReferralCodeExists reports whether a code is already taken
func (r *Repository) ReferralCodeExists(ctx context.Context, code models.ReferralCode) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("referral_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

// IncrementUserTotals atomically adds to the cached verified totals
func (r *Repository) IncrementUserTotals(ctx context.Context, userID uint, points int, paid decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_points": gorm.Expr("total_points + ?", points),
			"total_paid":   gorm.Expr("total_paid + ?", paid),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementReferralEarnings adds to the referrer's earnings hint
func (r *Repository) IncrementReferralEarnings(ctx context.Context, userID uint, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"referral_earnings": gorm.Expr("referral_earnings + ?", amount),
			"updated_at":        time.Now(),
		}).Error
}

// profileColumns are the only user columns a profile update may write
var profileColumns = []string{"first_name", "last_name", "phone", "company", "city", "province", "category", "updated_at"}

// UpdateUserProfile writes profile fields. Keys outside profileColumns are
// ignored.
func (r *Repository) UpdateUserProfile(ctx context.Context, userID uint, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Select(profileColumns).
		Updates(updates).Error
}

// UpdateLastLogin stamps a successful login
func (r *Repository) UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login", at).Error
}

// ListUsers returns non-admin users matching the filter with a total count
func (r *Repository) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Where("is_admin = ?", false)
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", like, like, like)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListParticipants returns every non-admin user, newest first
func (r *Repository) ListParticipants(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("is_admin = ?", false).
		Order("created_at DESC").
		Find(&users).Error
	return users, err
}

// SearchVerifiedParticipants finds non-admin users by name who own at least
// one verified transaction
func (r *Repository) SearchVerifiedParticipants(ctx context.Context, q string, limit int) ([]models.User, error) {
	like := "%" + q + "%"
	verified := r.db.Model(&models.Transaction{}).
		Select("user_id").
		Where("status = ?", models.TransactionStatusVerified)

	var users []models.User
	err := r.db.WithContext(ctx).
		Where("is_admin = ?", false).
		Where("first_name LIKE ? OR last_name LIKE ?", like, like).
		Where("id IN (?)", verified).
		Order("total_points DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// Leaderboard returns the top participants by cached points, earliest
// registration first on ties
func (r *Repository) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("is_admin = ? AND total_points > ?", false, 0).
		Order("total_points DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// SetAdmin grants admin rights. It reports whether a row changed.
func (r *Repository) SetAdmin(ctx context.Context, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_admin = ?", userID, false).
		Updates(map[string]interface{}{
			"is_admin":   true,
			"updated_at": time.Now(),
		})
	return result.RowsAffected == 1, result.Error
}
