package domain

import (
	"errors"
	"fmt"
)

// Ledger errors. Operations wrap them with context, match with errors.Is.
var (
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidName            = errors.New("box name cannot be empty")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInsufficientBoxBalance = errors.New("insufficient box balance")
	ErrBoxNotFound            = errors.New("box not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrCorruptState           = errors.New("corrupt ledger state")
	ErrStorageUnavailable     = errors.New("storage unavailable")
)

// CorruptStateError reports a persisted value that could not be decoded or
// failed validation. It matches ErrCorruptState with errors.Is.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt ledger state at key %q: %v", e.Key, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *CorruptStateError) Unwrap() []error {
	return []error{ErrCorruptState, e.Err}
}
