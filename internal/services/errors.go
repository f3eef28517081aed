package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrInvalidReferralCode    = errors.New("invalid referral code")
	ErrSelfReferralNotAllowed = errors.New("cannot use your own referral code")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrBelowMinimum           = errors.New("amount is below the minimum withdrawal")
	ErrSequenceExhausted      = errors.New("certificate sequence exhausted")
	ErrNotFound               = errors.New("not found")
	ErrEmailTaken             = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
)

// InvalidStateTransitionError is returned when a resource has already left
// the pending state
type InvalidStateTransitionError struct {
	Resource string
	Current  string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s is already %s", e.Resource, e.Current)
}

func (e *InvalidStateTransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// InsufficientBalanceError carries the balance the request exceeded
type InsufficientBalanceError struct {
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s", e.Available.StringFixed(2))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
