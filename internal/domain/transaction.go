package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies a transaction
type Kind string

const (
	KindDeposit          Kind = "deposit"
	KindWithdrawal       Kind = "withdrawal"
	KindPeerTransferSend Kind = "peer-transfer-send"
	KindBoxDeposit       Kind = "box-deposit"
	KindBoxWithdrawal    Kind = "box-withdrawal"
	KindBoxCreation      Kind = "box-creation"
)

// Display sources used to colour-code the statement
const (
	SourcePix   = "pix"
	SourceCaixa = "caixa"
)

// Valid reports whether k is a known transaction kind
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindPeerTransferSend,
		KindBoxDeposit, KindBoxWithdrawal, KindBoxCreation:
		return true
	}
	return false
}

// IsBoxRelated reports whether the kind moves funds between the Balance and a box
func (k Kind) IsBoxRelated() bool {
	return k == KindBoxDeposit || k == KindBoxWithdrawal || k == KindBoxCreation
}

// BalanceEffect returns +1 when the kind credits the Balance and -1 when it debits it
func (k Kind) BalanceEffect() int {
	switch k {
	case KindDeposit, KindBoxWithdrawal:
		return 1
	case KindWithdrawal, KindPeerTransferSend, KindBoxDeposit, KindBoxCreation:
		return -1
	}
	return 0
}

// Source returns the statement source: "caixa" for box kinds, "pix" otherwise
func (k Kind) Source() string {
	if k.IsBoxRelated() {
		return SourceCaixa
	}
	return SourcePix
}

// Transaction is an immutable entry of the append-only ledger log
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	Kind        Kind            `json:"kind"`
	Amount      decimal.Decimal `json:"amount"` // ABSOLUTE VALUE, sign implied by Kind
	Description string          `json:"description,omitempty"`
	BoxID       *uuid.UUID      `json:"box_id,omitempty"` // set iff Kind.IsBoxRelated()
	CreatedAt   time.Time       `json:"created_at"`
}

// Validate ensures the transaction adheres to domain rules
// Returns an error if validation fails
func (t *Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return errors.New("transaction ID cannot be empty")
	}

	if !t.Kind.Valid() {
		return errors.New("transaction kind is not recognised")
	}

	// A box may be opened empty, every other movement carries money
	if t.Kind == KindBoxCreation {
		if t.Amount.IsNegative() {
			return errors.New("box creation amount cannot be negative")
		}
	} else if t.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("transaction amount must be positive (absolute value)")
	}

	if err := CheckStoredAmount(t.Amount); err != nil {
		return fmt.Errorf("transaction amount: %w", err)
	}

	if !hasStoragePrecision(t.Amount) {
		return errors.New("transaction amount must have at most two decimal places")
	}

	if t.Kind.IsBoxRelated() {
		if t.BoxID == nil || *t.BoxID == uuid.Nil {
			return errors.New("box transaction must reference a box")
		}
	} else if t.BoxID != nil {
		return errors.New("only box transactions may reference a box")
	}

	if t.CreatedAt.IsZero() {
		return errors.New("transaction creation time cannot be empty")
	}

	return nil
}

// SignedAmount returns the amount applied to the Balance
func (t Transaction) SignedAmount() decimal.Decimal {
	return t.Amount.Mul(decimal.NewFromInt(int64(t.Kind.BalanceEffect())))
}

// Equal reports whether two transactions hold the same values
func (t Transaction) Equal(other Transaction) bool {
	if t.ID != other.ID || t.Kind != other.Kind || t.Description != other.Description {
		return false
	}
	if !t.Amount.Equal(other.Amount) || !t.CreatedAt.Equal(other.CreatedAt) {
		return false
	}
	if (t.BoxID == nil) != (other.BoxID == nil) {
		return false
	}
	return t.BoxID == nil || *t.BoxID == *other.BoxID
}
