package domain

import "context"

// Keys owned by the ledger. No other component writes them.
const (
	KeyBalance      = "balance"
	KeyTransactions = "transactions"
	KeyBoxes        = "boxes"
)

// KeyValueStore persists named serialized values
type KeyValueStore interface {
	// Get returns the stored value for key. The boolean is false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error
}

// BatchStore is a KeyValueStore that can write several keys all-or-nothing
type BatchStore interface {
	KeyValueStore

	// SetMany stores every entry or none of them
	SetMany(ctx context.Context, entries map[string][]byte) error
}
