package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/caixinha-backend/internal/domain"
)

// Summary represents the account header shown above the statement
type Summary struct {
	Total            decimal.Decimal // Balance + Boxed
	Balance          decimal.Decimal
	Boxed            decimal.Decimal
	BoxCount         int
	TransactionCount int
}

// TransactionDetail is one statement entry. Box is set for box transactions.
type TransactionDetail struct {
	Transaction domain.Transaction
	Box         *domain.Box
}

// DashboardService builds read models over ledger snapshots
type DashboardService struct {
	Ledger domain.SnapshotReader
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(ledger domain.SnapshotReader) *DashboardService {
	return &DashboardService{
		Ledger: ledger,
	}
}

// GetSummary calculates the account totals
// Logic:
//   - Balance: unboxed spendable amount
//   - Boxed: sum of every box amount
//   - Total: Balance + Boxed
func (s *DashboardService) GetSummary(ctx context.Context) (*Summary, error) {
	snap, err := s.Ledger.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	return &Summary{
		Total:            snap.Total(),
		Balance:          snap.Balance,
		Boxed:            snap.Boxed(),
		BoxCount:         len(snap.Boxes),
		TransactionCount: len(snap.Transactions),
	}, nil
}

// History returns a page of the statement, most recent first, together with
// the number of matching transactions. A nil boxID lists every transaction.
// A non-positive limit returns everything after offset.
func (s *DashboardService) History(ctx context.Context, limit, offset int, boxID *uuid.UUID) ([]domain.Transaction, int, error) {
	snap, err := s.Ledger.Snapshot(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read ledger: %w", err)
	}

	txs := snap.Recent()
	if boxID != nil {
		if _, ok := snap.BoxByID(*boxID); !ok {
			return nil, 0, fmt.Errorf("history: %w: %s", domain.ErrBoxNotFound, *boxID)
		}
		txs = domain.NewestFirst(snap.BoxTransactions(*boxID))
	}

	total := len(txs)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.Transaction{}, total, nil
	}

	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}

	return txs[offset:end], total, nil
}

// Transaction returns the detail view of a single statement entry
func (s *DashboardService) Transaction(ctx context.Context, id uuid.UUID) (*TransactionDetail, error) {
	snap, err := s.Ledger.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	tx, ok := snap.TransactionByID(id)
	if !ok {
		return nil, fmt.Errorf("transaction: %w: %s", domain.ErrTransactionNotFound, id)
	}

	detail := &TransactionDetail{Transaction: tx}
	if tx.BoxID != nil {
		if box, ok := snap.BoxByID(*tx.BoxID); ok {
			detail.Box = &box
		}
	}
	return detail, nil
}

// ListBoxes returns every box ordered by name, then creation time
func (s *DashboardService) ListBoxes(ctx context.Context) ([]domain.Box, error) {
	snap, err := s.Ledger.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	boxes := snap.Boxes
	sort.SliceStable(boxes, func(i, j int) bool {
		a, b := strings.ToLower(boxes[i].Name), strings.ToLower(boxes[j].Name)
		if a != b {
			return a < b
		}
		return boxes[i].CreatedAt.Before(boxes[j].CreatedAt)
	})

	return boxes, nil
}
