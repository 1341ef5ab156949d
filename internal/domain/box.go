package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Box represents a named sub-ledger ("caixinha").
// Its Amount is a partition of the account holdings: funds moved into a box
// leave the Balance, funds moved out of it return to the Balance.
type Box struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"` // never negative
	CreatedAt   time.Time       `json:"created_at"`
}

// Validate ensures the box adheres to domain rules
// Returns an error if validation fails
func (b *Box) Validate() error {
	if b.ID == uuid.Nil {
		return errors.New("box ID cannot be empty")
	}

	if strings.TrimSpace(b.Name) == "" {
		return errors.New("box name cannot be empty")
	}

	if b.Amount.IsNegative() {
		return errors.New("box amount cannot be negative")
	}

	if err := CheckStoredAmount(b.Amount); err != nil {
		return fmt.Errorf("box amount: %w", err)
	}

	if !hasStoragePrecision(b.Amount) {
		return errors.New("box amount must have at most two decimal places")
	}

	if b.CreatedAt.IsZero() {
		return errors.New("box creation time cannot be empty")
	}

	return nil
}

// Equal reports whether two boxes hold the same values
func (b Box) Equal(other Box) bool {
	return b.ID == other.ID &&
		b.Name == other.Name &&
		b.Description == other.Description &&
		b.Amount.Equal(other.Amount) &&
		b.CreatedAt.Equal(other.CreatedAt)
}
