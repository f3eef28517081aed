package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deeddraw/internal/models"
)

func TestSubmitValidation(t *testing.T) {
	repo := setupTestDB(t)
	user := createUser(t, repo, "Bob", "Jones", "BOBJON5678")
	svc := newTransactionService(repo, &recordingNotifier{}, 2025)

	cases := map[string]func(r *models.SubmitTransactionRequest){
		"zero points":       func(r *models.SubmitTransactionRequest) { r.Points = 0 },
		"small deal":        func(r *models.SubmitTransactionRequest) { r.TransactionAmount = decimal.NewFromInt(499999) },
		"missing reference": func(r *models.SubmitTransactionRequest) { r.ETransferRef = "  " },
		"missing email":     func(r *models.SubmitTransactionRequest) { r.ETransferEmail = "" },
		"malformed email":   func(r *models.SubmitTransactionRequest) { r.ETransferEmail = "not-an-email" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := submission(1)
			mutate(&req)
			_, err := svc.Submit(context.Background(), user.ID, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Zero(t, countRows(t, repo, &models.Transaction{}))
}

func TestSubmitUnknownUser(t *testing.T) {
	repo := setupTestDB(t)
	svc := newTransactionService(repo, &recordingNotifier{}, 2025)

	_, err := svc.Submit(context.Background(), 999, submission(1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitAssignsSequentialCertificates(t *testing.T) {
	repo := setupTestDB(t)
	user := createUser(t, repo, "Bob", "Jones", "BOBJON5678")
	notifier := &recordingNotifier{}
	svc := newTransactionService(repo, notifier, 2025)

	want := []string{"DD-2025-000001", "DD-2025-000002", "DD-2025-000003"}
	for _, expected := range want {
		txn, err := svc.Submit(context.Background(), user.ID, submission(1))
		require.NoError(t, err)
		assert.Equal(t, expected, txn.CertificateNumber)
		assert.Equal(t, models.TransactionStatusPending, txn.Status)
	}

	require.Len(t, notifier.instructions, 3)
	assert.Equal(t, "DD-2025-000003", notifier.instructions[2].CertificateNumber)
	assert.Equal(t, user.Email, notifier.instructions[2].Email)
	assert.True(t, notifier.instructions[2].Amount.Equal(decimal.NewFromInt(2000)))
}

func TestSubmitDoesNotTouchTotals(t *testing.T) {
	repo := setupTestDB(t)
	user := createUser(t, repo, "Bob", "Jones", "BOBJON5678")
	svc := newTransactionService(repo, &recordingNotifier{}, 2025)

	_, err := svc.Submit(context.Background(), user.ID, submission(5))
	require.NoError(t, err)

	reloaded := reloadUser(t, repo, user.ID)
	assert.Zero(t, reloaded.TotalPoints)
	assert.True(t, reloaded.TotalPaid.IsZero())
}

func TestReferralScenario(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	a := createUser(t, repo, "Alice", "Smith", "ALISMI1234")
	b := createUser(t, repo, "Bob", "Jones", "BOBJON5678")
	admin := createUser(t, repo, "Root", "Admin", "ROOADM1000")
	notifier := &recordingNotifier{}
	svc := newTransactionService(repo, notifier, 2025)

	req := submission(2)
	req.ReferralCodeUsed = "alismi1234"
	txn, err := svc.Submit(ctx, b.ID, req)
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(decimal.NewFromInt(3800)))
	assert.True(t, txn.ReferralDiscount.Equal(decimal.NewFromInt(200)))
	require.NotNil(t, txn.ReferralCodeUsed)
	assert.Equal(t, models.ReferralCode("ALISMI1234"), *txn.ReferralCodeUsed)

	referral, err := repo.GetReferralByTransaction(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, referral)
	assert.Equal(t, models.ReferralStatusPending, referral.Status)
	assert.Equal(t, a.ID, referral.ReferrerID)
	assert.True(t, referral.RewardAmount.Equal(decimal.NewFromInt(200)))

	approved, err := svc.Approve(ctx, txn.ID, admin.ID, "looks good")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusVerified, approved.Status)
	require.NotNil(t, approved.VerifiedBy)
	assert.Equal(t, admin.ID, *approved.VerifiedBy)

	reloadedB := reloadUser(t, repo, b.ID)
	assert.Equal(t, 2, reloadedB.TotalPoints)
	assert.True(t, reloadedB.TotalPaid.Equal(decimal.NewFromInt(3800)))

	reloadedA := reloadUser(t, repo, a.ID)
	assert.True(t, reloadedA.ReferralEarnings.Equal(decimal.NewFromInt(200)))
	assert.Zero(t, reloadedA.TotalPoints)

	referral, err = repo.GetReferralByTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusPaid, referral.Status)
	assert.NotNil(t, referral.PaidAt)

	require.Len(t, notifier.approvals, 1)
	assert.Equal(t, 2, notifier.approvals[0].Points)
	assert.Equal(t, b.Email, notifier.approvals[0].Email)

	logs, total, err := repo.ListAdminLogs(ctx, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, models.AdminActionApproveTransaction, logs[0].Action)
	assert.Equal(t, txn.ID.String(), logs[0].ResourceID)
}

func TestSelfReferralCreatesNothing(t *testing.T) {
	repo := setupTestDB(t)
	b := createUser(t, repo, "Bob", "Jones", "BOBJON5678")
	svc := newTransactionService(repo, &recordingNotifier{}, 2025)

	req := submission(1)
	req.ReferralCodeUsed = "BOBJON5678"
	_, err := svc.Submit(context.Background(), b.ID, req)
	assert.ErrorIs(t, err, ErrSelfReferralNotAllowed)

	assert.Zero(t, countRows(t, repo, &models.Transaction{}))
	assert.Zero(t, countRows(t, repo, &models.Referral{}))
}

func TestInvalidReferralCodeCreatesNothing(t *testing.T) {
	repo := setupTestDB(t)
	b := createUser(t, repo, "Bob", "Jones", "BOBJON5678")
	svc := newTransactionService(repo, &recordingNotifier{}, 2025)

	req := submission(1)
	req.ReferralCodeUsed = "GHOST0000"
	_, err := svc.Submit(context.Background(), b.ID, req)
	assert.ErrorIs(t, err, ErrInvalidReferralCode)
	assert.Zero(t, countRows(t, repo, &models.Transaction{}))
}

func TestApproveTwiceCreditsOnce(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	b := createUser(t, repo, "Bob", "Jones", "BOBJON5678")
	svc := newTransactionService(repo, &recordingNotifier{}, 2025)

	txn, err := svc.Submit(ctx, b.ID, submission(3))
	require.NoError(t, err)

	_, err = svc.Approve(ctx, txn.ID, 1, "")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, txn.ID, 1, "")
	require.ErrorIs(t, err, ErrInvalidStateTransition)
	var stateErr *InvalidStateTransitionError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, "verified", stateErr.Current)
	assert.Equal(t, "transaction is already verified", err.Error())

	reloaded := reloadUser(t, repo, b.ID)
	assert.Equal(t, 3, reloaded.TotalPoints)
	assert.True(t, reloaded.TotalPaid.Equal(decimal.NewFromInt(6000)))
}

func TestConcurrentApprovalsCreditOnce(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	b := createUser(t, repo, "Bob", "Jones", "BOBJON5678")
	svc := newTransactionService(repo, &recordingNotifier{}, 2025)

	txn, err := svc.Submit(ctx, b.ID, submission(4))
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Approve(ctx, txn.ID, 1, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, ErrInvalidStateTransition) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)
	assert.Equal(t, 4, reloadUser(t, repo, b.ID).TotalPoints)
}

func TestRejectLeavesTotalsUnchanged(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	a := createUser(t, repo, "Alice", "Smith", "ALISMI1234")
	b := createUser(t, repo, "Bob", "Jones", "BOBJON5678")
	svc := newTransactionService(repo, &recordingNotifier{}, 2025)

	req := submission(2)
	req.ReferralCodeUsed = "ALISMI1234"
	txn, err := svc.Submit(ctx, b.ID, req)
	require.NoError(t, err)

	_, err = svc.Reject(ctx, txn.ID, 1, "")
	assert.ErrorIs(t, err, ErrValidation)

	rejected, err := svc.Reject(ctx, txn.ID, 1, "payment not received")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRejected, rejected.Status)
	assert.Equal(t, "payment not received", rejected.RejectionReason)

	for _, id := range []uint{a.ID, b.ID} {
		u := reloadUser(t, repo, id)
		assert.Zero(t, u.TotalPoints)
		assert.True(t, u.TotalPaid.IsZero())
		assert.True(t, u.ReferralEarnings.IsZero())
	}

	referral, err := repo.GetReferralByTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusCancelled, referral.Status)

	_, err = svc.Approve(ctx, txn.ID, 1, "")
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	_, err = svc.Reject(ctx, txn.ID, 1, "again")
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestApproveUnknownTransaction(t *testing.T) {
	repo := setupTestDB(t)
	svc := newTransactionService(repo, &recordingNotifier{}, 2025)

	_, err := svc.Approve(context.Background(), uuid.New(), 1, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotifierFailureDoesNotRollBack(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	b := createUser(t, repo, "Bob", "Jones", "BOBJON5678")
	notifier := &recordingNotifier{fail: true}
	svc := newTransactionService(repo, notifier, 2025)

	txn, err := svc.Submit(ctx, b.ID, submission(1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, countRows(t, repo, &models.Transaction{}))

	_, err = svc.Approve(ctx, txn.ID, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 1, reloadUser(t, repo, b.ID).TotalPoints)
	assert.Len(t, notifier.instructions, 1)
	assert.Len(t, notifier.approvals, 1)
}

func TestGetUserTransactionIsScopedToOwner(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	a := createUser(t, repo, "Alice", "Smith", "ALISMI1234")
	b := createUser(t, repo, "Bob", "Jones", "BOBJON5678")
	svc := newTransactionService(repo, &recordingNotifier{}, 2025)

	txn, err := svc.Submit(ctx, b.ID, submission(1))
	require.NoError(t, err)

	got, err := svc.GetUserTransaction(ctx, b.ID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.CertificateNumber, got.CertificateNumber)

	_, err = svc.GetUserTransaction(ctx, a.ID, txn.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
