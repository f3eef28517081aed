package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"deeddraw/internal/database"
	"deeddraw/internal/models"
	"deeddraw/internal/repository"
)

func setupTestDB(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db, zap.NewNop()))
	return repository.NewRepository(db), db
}

// forceTotals writes cached totals behind the service layer to simulate drift
func forceTotals(t *testing.T, db *gorm.DB, userID uint, points int, paid int64) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"total_points": points,
		"total_paid":   decimal.NewFromInt(paid),
	}).Error)
}

func seedUser(t *testing.T, repo *repository.Repository, name string) *models.User {
	t.Helper()
	user := &models.User{
		FirstName:    name,
		LastName:     "Test",
		Email:        name + "@example.com",
		PasswordHash: "x",
		Category:     models.CategoryDeveloper,
		ReferralCode: models.NormalizeReferralCode(name + "1000"),
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func seedTransaction(t *testing.T, repo *repository.Repository, userID uint, seq, points int, status models.TransactionStatus) {
	t.Helper()
	amount := decimal.NewFromInt(int64(points) * 2000)
	require.NoError(t, repo.CreateTransaction(context.Background(), &models.Transaction{
		ID:                uuid.New(),
		UserID:            userID,
		Points:            points,
		Amount:            amount,
		CertificateNumber: fmt.Sprintf("DD-2025-%06d", seq),
		TransactionDate:   time.Now(),
		TransactionAmount: decimal.NewFromInt(750000),
		ETransferRef:      "ET",
		ETransferEmail:    "payer@example.com",
		Status:            status,
	}))
}

func TestRunOnceReportsDriftWithoutWriting(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	drifted := seedUser(t, repo, "ann")
	seedTransaction(t, repo, drifted.ID, 1, 3, models.TransactionStatusVerified)
	seedTransaction(t, repo, drifted.ID, 2, 4, models.TransactionStatusPending)

	inSync := seedUser(t, repo, "ben")
	seedTransaction(t, repo, inSync.ID, 3, 2, models.TransactionStatusVerified)
	forceTotals(t, db, inSync.ID, 2, 4000)

	phantom := seedUser(t, repo, "cat")
	forceTotals(t, db, phantom.ID, 9, 18000)

	reconciler := NewTotalsReconciler(repo, zap.NewNop(), time.Minute)
	count, err := reconciler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// cached totals are left exactly as they were
	user, err := repo.GetUserByID(ctx, drifted.ID)
	require.NoError(t, err)
	assert.Zero(t, user.TotalPoints)
	assert.True(t, user.TotalPaid.IsZero())

	user, err = repo.GetUserByID(ctx, phantom.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, user.TotalPoints)
	assert.True(t, user.TotalPaid.Equal(decimal.NewFromInt(18000)))

	// drift keeps being reported until something fixes the ledger or the cache
	count, err = reconciler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunOnceAfterRefundLeavesTotals(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, repo, "dan")
	seedTransaction(t, repo, user.ID, 1, 2, models.TransactionStatusVerified)
	forceTotals(t, db, user.ID, 2, 4000)

	reconciler := NewTotalsReconciler(repo, zap.NewNop(), time.Minute)
	count, err := reconciler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, db.Model(&models.Transaction{}).
		Where("user_id = ?", user.ID).
		Update("status", models.TransactionStatusRefunded).Error)

	count, err = reconciler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	reloaded, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.TotalPoints)
	assert.True(t, reloaded.TotalPaid.Equal(decimal.NewFromInt(4000)))
}

func TestStartStop(t *testing.T) {
	repo, _ := setupTestDB(t)
	reconciler := NewTotalsReconciler(repo, zap.NewNop(), 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		reconciler.Start()
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	reconciler.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
