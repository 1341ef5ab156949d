package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is a consistent read of the ledger at one instant.
// Transactions are in append order, which is the chronological order.
type Snapshot struct {
	Balance      decimal.Decimal
	Transactions []Transaction
	Boxes        []Box
}

// Clone returns a deep copy that shares no memory with s
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Balance:      s.Balance,
		Transactions: make([]Transaction, len(s.Transactions)),
		Boxes:        make([]Box, len(s.Boxes)),
	}

	copy(out.Transactions, s.Transactions)
	for i := range out.Transactions {
		if id := out.Transactions[i].BoxID; id != nil {
			boxID := *id
			out.Transactions[i].BoxID = &boxID
		}
	}
	copy(out.Boxes, s.Boxes)

	return out
}

// Boxed returns the sum of all box amounts
func (s Snapshot) Boxed() decimal.Decimal {
	boxed := decimal.Zero
	for _, box := range s.Boxes {
		boxed = boxed.Add(box.Amount)
	}
	return boxed
}

// Total returns the account holdings: Balance plus every box
func (s Snapshot) Total() decimal.Decimal {
	return s.Balance.Add(s.Boxed())
}

// BoxByID finds a box by its ID
func (s Snapshot) BoxByID(id uuid.UUID) (Box, bool) {
	for _, box := range s.Boxes {
		if box.ID == id {
			return box, true
		}
	}
	return Box{}, false
}

// TransactionByID finds a transaction by its ID
func (s Snapshot) TransactionByID(id uuid.UUID) (Transaction, bool) {
	for _, tx := range s.Transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return Transaction{}, false
}

// Recent returns the log most-recent-first. The stored order is left untouched.
func (s Snapshot) Recent() []Transaction {
	return NewestFirst(s.Transactions)
}

// NewestFirst returns a reversed copy of transactions kept in append order
func NewestFirst(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		out = append(out, txs[i])
	}
	return out
}

// BoxTransactions returns the transactions referencing a box, in append order
func (s Snapshot) BoxTransactions(id uuid.UUID) []Transaction {
	out := make([]Transaction, 0)
	for _, tx := range s.Transactions {
		if tx.BoxID != nil && *tx.BoxID == id {
			out = append(out, tx)
		}
	}
	return out
}

// Equal reports whether two snapshots hold the same values
func (s Snapshot) Equal(other Snapshot) bool {
	if !s.Balance.Equal(other.Balance) {
		return false
	}
	if len(s.Transactions) != len(other.Transactions) || len(s.Boxes) != len(other.Boxes) {
		return false
	}
	for i := range s.Transactions {
		if !s.Transactions[i].Equal(other.Transactions[i]) {
			return false
		}
	}
	for i := range s.Boxes {
		if !s.Boxes[i].Equal(other.Boxes[i]) {
			return false
		}
	}
	return true
}
