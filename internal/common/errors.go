// Package common defines shared constants and sentinel errors used across
// client, gateway and ledger layers of HealthKey. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Precondition errors: reported before any resource is spent.
	ErrWalletNotConnected = errors.New("connect your wallet first")

	// Gateway errors.
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrChallengeExpired  = errors.New("challenge expired or unknown")
	ErrInvalidSignature  = errors.New("invalid signature")

	// Cryptographic errors. Never carry partial plaintext.
	ErrDecryptionFailed = errors.New("decryption failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
