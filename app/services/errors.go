package services

import (
	"errors"
	"fmt"
	"time"

	"spinwheel/pkg/wheel"
)

var (
	// ErrNoSpinsAvailable: free spin used today and no extra spins left.
	ErrNoSpinsAvailable = wheel.ErrNoSpinsAvailable
	// ErrUnknownPack: no spin pack matches the request or the amount paid.
	ErrUnknownPack = wheel.ErrUnknownPack

	ErrInvalidWallet = errors.New("invalid wallet address")
	ErrInvalidTxHash = errors.New("invalid transaction hash")
	ErrUserNotFound  = errors.New("wallet not connected")

	// ErrDuplicateTransaction: the payment was already credited.
	ErrDuplicateTransaction = errors.New("transaction reference already used")
	// ErrTransactionVerificationFailed: the payment does not prove the purchase.
	ErrTransactionVerificationFailed = errors.New("transaction verification failed")
	// ErrTransferSubmissionFailed: the prize was won and the spin consumed, but
	// the token transfer could not be submitted. It is retried in background.
	ErrTransferSubmissionFailed = errors.New("prize transfer submission failed")

	ErrShareTaskCooldown = errors.New("share task already claimed")
)

// CooldownError tells how long until the share task can be claimed again.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s, retry in %s", ErrShareTaskCooldown, e.Remaining.Round(time.Minute))
}

func (e *CooldownError) Unwrap() error {
	return ErrShareTaskCooldown
}
