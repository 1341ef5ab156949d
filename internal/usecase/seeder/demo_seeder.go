package seeder

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/caixinha-backend/internal/domain"
	"github.com/simaogato/caixinha-backend/internal/usecase/ledger"
	"go.uber.org/zap"
)

// Ledger is the part of the ledger service the seeder needs
type Ledger interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	CreateBox(ctx context.Context, input ledger.CreateBoxInput) (domain.Snapshot, error)
}

// DemoBox defines a box created for demo accounts
type DemoBox struct {
	Name        string
	Amount      decimal.Decimal
	Description string
}

// DefaultDemoBoxes are the boxes shown on a fresh demo account
var DefaultDemoBoxes = []DemoBox{
	{Name: "Viagem", Amount: decimal.RequireFromString("200.00"), Description: "Férias de julho"},
	{Name: "Reserva de emergência", Amount: decimal.RequireFromString("150.00")},
}

// DemoSeeder fills a pristine ledger with demo boxes
type DemoSeeder struct {
	ledger Ledger
	boxes  []DemoBox
	logger *zap.Logger
}

// NewDemoSeeder creates a new DemoSeeder instance. A nil boxes slice uses DefaultDemoBoxes.
func NewDemoSeeder(l Ledger, boxes []DemoBox, logger *zap.Logger) *DemoSeeder {
	if boxes == nil {
		boxes = DefaultDemoBoxes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DemoSeeder{
		ledger: l,
		boxes:  boxes,
		logger: logger,
	}
}

// Seed creates the demo boxes when the ledger has no transactions and no boxes.
// Boxes go through CreateBox, so their funds come out of the Balance.
// Returns false when the ledger was already in use.
func (s *DemoSeeder) Seed(ctx context.Context) (bool, error) {
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}

	if len(snap.Transactions) > 0 || len(snap.Boxes) > 0 {
		s.logger.Debug("ledger already in use, skipping demo seed")
		return false, nil
	}

	for _, box := range s.boxes {
		_, err := s.ledger.CreateBox(ctx, ledger.CreateBoxInput{
			Name:          box.Name,
			InitialAmount: box.Amount,
			Description:   box.Description,
		})
		if err != nil {
			return false, fmt.Errorf("seed box %q: %w", box.Name, err)
		}
	}

	s.logger.Info("demo boxes seeded", zap.Int("boxes", len(s.boxes)))
	return true, nil
}
