package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrConflict is returned when a write loses a race on a unique key
var ErrConflict = errors.New("concurrent write conflict")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying handle
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Transaction runs fn with a repository bound to a single database transaction.
// fn must only use the repository it is given.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// IsNotFound reports whether err means the row does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicateKey recognises unique violations from both postgres and sqlite
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
