package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/caixinha-backend/internal/domain"
)

// persistOrder is the write order used when the store cannot batch
var persistOrder = []string{domain.KeyTransactions, domain.KeyBoxes, domain.KeyBalance}

// loadState reads the three ledger keys and validates them.
// Absent keys fall back to defaults; present but invalid values are reported as corrupt.
func loadState(ctx context.Context, store domain.KeyValueStore, initialBalance decimal.Decimal) (domain.Snapshot, error) {
	state := domain.Snapshot{
		Balance:      domain.NormalizeAmount(initialBalance),
		Transactions: make([]domain.Transaction, 0),
		Boxes:        make([]domain.Box, 0),
	}

	raw, ok, err := readKey(ctx, store, domain.KeyBalance)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if ok {
		if state.Balance, err = decodeBalance(raw); err != nil {
			return domain.Snapshot{}, &domain.CorruptStateError{Key: domain.KeyBalance, Err: err}
		}
	}

	raw, ok, err = readKey(ctx, store, domain.KeyBoxes)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if ok {
		if state.Boxes, err = decodeBoxes(raw); err != nil {
			return domain.Snapshot{}, &domain.CorruptStateError{Key: domain.KeyBoxes, Err: err}
		}
	}

	raw, ok, err = readKey(ctx, store, domain.KeyTransactions)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if ok {
		if state.Transactions, err = decodeTransactions(raw, state.Boxes); err != nil {
			return domain.Snapshot{}, &domain.CorruptStateError{Key: domain.KeyTransactions, Err: err}
		}
	}

	return state, nil
}

func readKey(ctx context.Context, store domain.KeyValueStore, key string) ([]byte, bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read %q: %w: %w", key, domain.ErrStorageUnavailable, err)
	}
	return raw, ok, nil
}

func decodeBalance(raw []byte) (decimal.Decimal, error) {
	balance, err := decimal.NewFromString(string(bytes.TrimSpace(raw)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance: %w", err)
	}
	if err := domain.CheckStoredAmount(balance); err != nil {
		return decimal.Zero, fmt.Errorf("balance: %w", err)
	}
	if !balance.Equal(domain.NormalizeAmount(balance)) {
		return decimal.Zero, errors.New("balance must have at most two decimal places")
	}
	return domain.NormalizeAmount(balance), nil
}

func decodeBoxes(raw []byte) ([]domain.Box, error) {
	var boxes []domain.Box
	if err := json.Unmarshal(raw, &boxes); err != nil {
		return nil, fmt.Errorf("decode boxes: %w", err)
	}
	if boxes == nil {
		return nil, errors.New("boxes must be a JSON array, got null")
	}

	seen := make(map[uuid.UUID]struct{}, len(boxes))
	out := make([]domain.Box, 0, len(boxes))
	for i, box := range boxes {
		if err := box.Validate(); err != nil {
			return nil, fmt.Errorf("box %d: %w", i, err)
		}
		if _, dup := seen[box.ID]; dup {
			return nil, fmt.Errorf("box %d: duplicate ID %s", i, box.ID)
		}
		seen[box.ID] = struct{}{}

		box.Amount = domain.NormalizeAmount(box.Amount)
		out = append(out, box)
	}

	return out, nil
}

func decodeTransactions(raw []byte, boxes []domain.Box) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	if txs == nil {
		return nil, errors.New("transactions must be a JSON array, got null")
	}

	known := make(map[uuid.UUID]struct{}, len(boxes))
	for _, box := range boxes {
		known[box.ID] = struct{}{}
	}

	seen := make(map[uuid.UUID]struct{}, len(txs))
	out := make([]domain.Transaction, 0, len(txs))
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		if _, dup := seen[tx.ID]; dup {
			return nil, fmt.Errorf("transaction %d: duplicate ID %s", i, tx.ID)
		}
		seen[tx.ID] = struct{}{}

		if tx.BoxID != nil {
			if _, ok := known[*tx.BoxID]; !ok {
				return nil, fmt.Errorf("transaction %d: references unknown box %s", i, *tx.BoxID)
			}
		}

		tx.Amount = domain.NormalizeAmount(tx.Amount)
		out = append(out, tx)
	}

	return out, nil
}

// encodeState serializes a snapshot into the value stored under each key
func encodeState(state domain.Snapshot) (map[string][]byte, error) {
	txs := state.Transactions
	if txs == nil {
		txs = []domain.Transaction{}
	}
	boxes := state.Boxes
	if boxes == nil {
		boxes = []domain.Box{}
	}

	rawTxs, err := json.Marshal(txs)
	if err != nil {
		return nil, fmt.Errorf("encode transactions: %w", err)
	}
	rawBoxes, err := json.Marshal(boxes)
	if err != nil {
		return nil, fmt.Errorf("encode boxes: %w", err)
	}

	return map[string][]byte{
		domain.KeyBalance:      []byte(state.Balance.StringFixed(domain.AmountPlaces)),
		domain.KeyTransactions: rawTxs,
		domain.KeyBoxes:        rawBoxes,
	}, nil
}
