package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deeddraw/internal/models"
	"deeddraw/internal/repository"
)

func insertCertificate(t *testing.T, repo *repository.Repository, userID uint, number string) {
	t.Helper()
	require.NoError(t, repo.CreateTransaction(context.Background(), &models.Transaction{
		ID:                uuid.New(),
		UserID:            userID,
		Points:            1,
		Amount:            decimal.NewFromInt(2000),
		CertificateNumber: number,
		TransactionDate:   time.Now(),
		TransactionAmount: decimal.NewFromInt(500000),
		ETransferRef:      "ref",
		ETransferEmail:    "a@example.com",
		Status:            models.TransactionStatusPending,
	}))
}

func TestFormatCertificateNumber(t *testing.T) {
	assert.Equal(t, "DD-2025-000001", FormatCertificateNumber(2025, 1))
	assert.Equal(t, "DD-2025-999999", FormatCertificateNumber(2025, 999999))
}

func TestParseCertificateSequence(t *testing.T) {
	seq, err := ParseCertificateSequence("DD-2025-000042", 2025)
	require.NoError(t, err)
	assert.Equal(t, 42, seq)

	_, err = ParseCertificateSequence("DD-2024-000042", 2025)
	assert.Error(t, err)

	_, err = ParseCertificateSequence("DD-2025-42", 2025)
	assert.Error(t, err)
}

func TestNextCertificateNumber(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, repo, "Ann", "Lee", "ANNLEE1000")

	next, err := NextCertificateNumber(ctx, repo, 2025)
	require.NoError(t, err)
	assert.Equal(t, "DD-2025-000001", next)

	insertCertificate(t, repo, user.ID, "DD-2025-000001")
	insertCertificate(t, repo, user.ID, "DD-2025-000009")
	insertCertificate(t, repo, user.ID, "DD-2026-000500")

	next, err = NextCertificateNumber(ctx, repo, 2025)
	require.NoError(t, err)
	assert.Equal(t, "DD-2025-000010", next)

	next, err = NextCertificateNumber(ctx, repo, 2026)
	require.NoError(t, err)
	assert.Equal(t, "DD-2026-000501", next)

	next, err = NextCertificateNumber(ctx, repo, 2027)
	require.NoError(t, err)
	assert.Equal(t, "DD-2027-000001", next)
}

func TestNextCertificateNumberExhausted(t *testing.T) {
	repo := setupTestDB(t)
	user := createUser(t, repo, "Ann", "Lee", "ANNLEE1000")
	insertCertificate(t, repo, user.ID, "DD-2025-999999")

	_, err := NextCertificateNumber(context.Background(), repo, 2025)
	assert.ErrorIs(t, err, ErrSequenceExhausted)
}

func TestDuplicateCertificateIsConflict(t *testing.T) {
	repo := setupTestDB(t)
	user := createUser(t, repo, "Ann", "Lee", "ANNLEE1000")
	insertCertificate(t, repo, user.ID, "DD-2025-000001")

	err := repo.CreateTransaction(context.Background(), &models.Transaction{
		UserID:            user.ID,
		Points:            1,
		Amount:            decimal.NewFromInt(2000),
		CertificateNumber: "DD-2025-000001",
		TransactionDate:   time.Now(),
		TransactionAmount: decimal.NewFromInt(500000),
		ETransferRef:      "ref",
		ETransferEmail:    "a@example.com",
		Status:            models.TransactionStatusPending,
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
}
