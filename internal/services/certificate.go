package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"deeddraw/internal/repository"
)

const (
	CertificatePrefix = "DD"

	certificateDigits      = 6
	maxCertificateSequence = 999999
	// attempts at drawing a fresh number after losing an insert race
	maxCertificateAttempts = 5
)

// FormatCertificateNumber renders DD-YYYY-NNNNNN
func FormatCertificateNumber(year, seq int) string {
	return fmt.Sprintf("%s%0*d", certificateYearPrefix(year), certificateDigits, seq)
}

// ParseCertificateSequence extracts the sequence from a number issued in year
func ParseCertificateSequence(number string, year int) (int, error) {
	prefix := certificateYearPrefix(year)
	if !strings.HasPrefix(number, prefix) {
		return 0, fmt.Errorf("certificate %q not issued in %d", number, year)
	}
	digits := strings.TrimPrefix(number, prefix)
	if len(digits) != certificateDigits {
		return 0, fmt.Errorf("certificate %q has malformed sequence", number)
	}
	seq, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("certificate %q has malformed sequence: %w", number, err)
	}
	return seq, nil
}

// NextCertificateNumber returns the number following the highest one issued
// in year. It must run in the transaction that inserts the result, and the
// unique index on certificate_number rejects a concurrent duplicate.
func NextCertificateNumber(ctx context.Context, repo *repository.Repository, year int) (string, error) {
	latest, err := repo.LatestCertificateNumber(ctx, certificateYearPrefix(year))
	if err != nil {
		return "", fmt.Errorf("failed to read certificate sequence: %w", err)
	}

	next := 1
	if latest != "" {
		seq, err := ParseCertificateSequence(latest, year)
		if err != nil {
			return "", err
		}
		next = seq + 1
	}
	if next > maxCertificateSequence {
		return "", fmt.Errorf("%w: year %d", ErrSequenceExhausted, year)
	}
	return FormatCertificateNumber(year, next), nil
}

func certificateYearPrefix(year int) string {
	return fmt.Sprintf("%s-%04d-", CertificatePrefix, year)
}
