package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"deeddraw/internal/database"
	"deeddraw/internal/models"
	"deeddraw/internal/repository"
)

// setupTestDB opens a private in-memory database per test
func setupTestDB(t *testing.T) *repository.Repository {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
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
	return repository.NewRepository(db)
}

func createUser(t *testing.T, repo *repository.Repository, first, last, code string) *models.User {
	t.Helper()
	user := &models.User{
		FirstName:    first,
		LastName:     last,
		Email:        strings.ToLower(first) + "@example.com",
		PasswordHash: "x",
		Category:     models.CategoryAgentBroker,
		City:         "Toronto",
		Province:     "ON",
		ReferralCode: models.ReferralCode(code),
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func reloadUser(t *testing.T, repo *repository.Repository, id uint) *models.User {
	t.Helper()
	user, err := repo.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

func countRows(t *testing.T, repo *repository.Repository, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, repo.DB().Model(model).Count(&n).Error)
	return n
}

func fixedClock(year int) func() time.Time {
	var mu sync.Mutex
	tick := time.Date(year, time.March, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}
}

func submission(points int) models.SubmitTransactionRequest {
	return models.SubmitTransactionRequest{
		Points:            points,
		TransactionAmount: decimal.NewFromInt(600000),
		ETransferRef:      "ET-123",
		ETransferEmail:    "payer@example.com",
	}
}

// recordingNotifier captures messages and can be told to fail
type recordingNotifier struct {
	mu           sync.Mutex
	instructions []ETransferInstructions
	approvals    []PaymentApproved
	fail         bool
}

func (n *recordingNotifier) SendETransferInstructions(_ context.Context, msg ETransferInstructions) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.instructions = append(n.instructions, msg)
	if n.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (n *recordingNotifier) SendPaymentApproved(_ context.Context, msg PaymentApproved) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approvals = append(n.approvals, msg)
	if n.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func newTransactionService(repo *repository.Repository, notifier Notifier, year int) *TransactionService {
	s := NewTransactionService(repo, notifier, zap.NewNop())
	s.now = fixedClock(year)
	return s
}
