// Package events describes notifications emitted after a ledger operation commits.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/caixinha-backend/internal/domain"
)

// LedgerEvent announces one appended transaction and the totals it left behind
type LedgerEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	Kind          domain.Kind     `json:"kind"`
	Source        string          `json:"source"`
	Amount        decimal.Decimal `json:"amount"`
	BoxID         *uuid.UUID      `json:"box_id,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	Total         decimal.Decimal `json:"total"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Publisher delivers ledger events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
	Close() error
}

// FromSnapshot builds the event for the most recent transaction of snap.
// It returns false when the log is empty.
func FromSnapshot(snap domain.Snapshot) (LedgerEvent, bool) {
	if len(snap.Transactions) == 0 {
		return LedgerEvent{}, false
	}

	tx := snap.Transactions[len(snap.Transactions)-1]
	event := LedgerEvent{
		TransactionID: tx.ID,
		Kind:          tx.Kind,
		Source:        tx.Kind.Source(),
		Amount:        tx.Amount,
		Balance:       snap.Balance,
		Total:         snap.Total(),
		OccurredAt:    tx.CreatedAt,
	}
	if tx.BoxID != nil {
		boxID := *tx.BoxID
		event.BoxID = &boxID
	}

	return event, true
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, LedgerEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
