package database

import (
	"fmt"

	"deeddraw/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the ledger database for driver ("postgres" or "sqlite")
func Connect(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// one writer at a time; sqlite has no row locks
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("database connection established", zap.String("driver", driver))
	return db, nil
}

// Models lists every table the ledger owns, in dependency order
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Transaction{},
		&models.Referral{},
		&models.Withdrawal{},
		&models.AdminLog{},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	log.Info("database migrations completed")
	return nil
}
