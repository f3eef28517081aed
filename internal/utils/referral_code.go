package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// MaxReferralCodeAttempts is how many digit suffixes are tried before
	// falling back to a base-36 suffix
	MaxReferralCodeAttempts = 10

	base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ReferralCodeBase builds the name part of a referral code: up to three
// letters of the first name followed by up to three of the last name,
// upper-cased, with anything that is not A-Z or 0-9 dropped.
// An empty result falls back to "REF".
func ReferralCodeBase(firstName, lastName string) string {
	base := prefix(firstName, 3) + prefix(lastName, 3)
	if base == "" {
		return "REF"
	}
	return base
}

func prefix(name string, n int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if b.Len() == n {
			break
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DigitSuffix returns a random number in [1000, 9999] as text
func DigitSuffix() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}

// AlnumSuffix returns four random upper-case base-36 characters
func AlnumSuffix() (string, error) {
	out := make([]byte, 4)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random suffix: %w", err)
		}
		out[i] = base36[n.Int64()]
	}
	return string(out), nil
}

// GenerateReferralCode picks a code for a new user. taken reports whether a
// candidate is already assigned. After MaxReferralCodeAttempts collisions on
// digit suffixes the code gets a base-36 suffix instead, which is returned
// without a further check; the unique index catches the rare clash.
func GenerateReferralCode(firstName, lastName string, taken func(code string) (bool, error)) (string, error) {
	base := ReferralCodeBase(firstName, lastName)

	for attempt := 0; attempt <= MaxReferralCodeAttempts; attempt++ {
		suffix, err := DigitSuffix()
		if err != nil {
			return "", err
		}
		code := base + suffix
		exists, err := taken(code)
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	suffix, err := AlnumSuffix()
	if err != nil {
		return "", err
	}
	return base + suffix, nil
}
