package wallet

import "errors"

var (
	// ErrWalletNotCreated is returned when no L1 wallet exists yet
	ErrWalletNotCreated = errors.New("wallet not created yet")

	// ErrWalletAlreadyExists is returned when trying to create a duplicate wallet
	ErrWalletAlreadyExists = errors.New("wallet already exists")

	// ErrInvalidPIN is returned when the PIN is incorrect
	ErrInvalidPIN = errors.New("invalid PIN")

	// ErrInvalidPINFormat is returned when the PIN format is invalid
	ErrInvalidPINFormat = errors.New("PIN must be 4-8 digits")

	// ErrKeystoreFailed is returned when a keystore operation fails
	ErrKeystoreFailed = errors.New("keystore operation failed")
)
