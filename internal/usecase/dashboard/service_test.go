package dashboard

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/caixinha-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSnapshotReader is a mock implementation of SnapshotReader for testing
type MockSnapshotReader struct {
	mock.Mock
}

func (m *MockSnapshotReader) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

var (
	tripID = uuid.MustParse("0195a0b0-0000-7000-8000-000000000001")
	carID  = uuid.MustParse("0195a0b0-0000-7000-8000-000000000002")
)

func fixtureSnapshot() domain.Snapshot {
	at := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	trip, car := tripID, carID

	return domain.Snapshot{
		Balance: decimal.RequireFromString("700.00"),
		Boxes: []domain.Box{
			{ID: tripID, Name: "trip", Amount: decimal.RequireFromString("250.00"), CreatedAt: at},
			{ID: carID, Name: "Car", Amount: decimal.RequireFromString("50.50"), CreatedAt: at.Add(time.Minute)},
		},
		Transactions: []domain.Transaction{
			{ID: uuid.New(), Kind: domain.KindBoxCreation, Amount: decimal.RequireFromString("200.00"), BoxID: &trip, CreatedAt: at},
			{ID: uuid.New(), Kind: domain.KindDeposit, Amount: decimal.RequireFromString("10.00"), CreatedAt: at.Add(time.Second)},
			{ID: uuid.New(), Kind: domain.KindBoxCreation, Amount: decimal.RequireFromString("50.50"), BoxID: &car, CreatedAt: at.Add(time.Minute)},
			{ID: uuid.New(), Kind: domain.KindBoxDeposit, Amount: decimal.RequireFromString("50.00"), BoxID: &trip, CreatedAt: at.Add(2 * time.Minute)},
			{ID: uuid.New(), Kind: domain.KindPeerTransferSend, Amount: decimal.RequireFromString("9.50"), CreatedAt: at.Add(3 * time.Minute)},
		},
	}
}

func TestDashboardService_GetSummary(t *testing.T) {
	ctx := context.Background()
	reader := new(MockSnapshotReader)
	reader.On("Snapshot", ctx).Return(fixtureSnapshot(), nil)

	service := NewDashboardService(reader)
	summary, err := service.GetSummary(ctx)

	require.NoError(t, err)
	assert.Equal(t, "1000.50", summary.Total.StringFixed(2))
	assert.Equal(t, "700.00", summary.Balance.StringFixed(2))
	assert.Equal(t, "300.50", summary.Boxed.StringFixed(2))
	assert.Equal(t, 2, summary.BoxCount)
	assert.Equal(t, 5, summary.TransactionCount)
	reader.AssertExpectations(t)
}

func TestDashboardService_GetSummary_LedgerError(t *testing.T) {
	ctx := context.Background()
	reader := new(MockSnapshotReader)
	reader.On("Snapshot", ctx).Return(domain.Snapshot{}, domain.ErrStorageUnavailable)

	service := NewDashboardService(reader)
	summary, err := service.GetSummary(ctx)

	assert.Nil(t, summary)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestDashboardService_History(t *testing.T) {
	snap := fixtureSnapshot()
	all := snap.Recent()

	tests := []struct {
		name      string
		limit     int
		offset    int
		boxID     *uuid.UUID
		wantKinds []domain.Kind
		wantTotal int
	}{
		{
			name:      "everything most recent first",
			wantKinds: []domain.Kind{all[0].Kind, all[1].Kind, all[2].Kind, all[3].Kind, all[4].Kind},
			wantTotal: 5,
		},
		{
			name:      "first page",
			limit:     2,
			wantKinds: []domain.Kind{domain.KindPeerTransferSend, domain.KindBoxDeposit},
			wantTotal: 5,
		},
		{
			name:      "last partial page",
			limit:     2,
			offset:    4,
			wantKinds: []domain.Kind{domain.KindBoxCreation},
			wantTotal: 5,
		},
		{
			name:      "offset past the end",
			limit:     2,
			offset:    10,
			wantKinds: []domain.Kind{},
			wantTotal: 5,
		},
		{
			name:      "negative offset starts at the top",
			limit:     1,
			offset:    -3,
			wantKinds: []domain.Kind{domain.KindPeerTransferSend},
			wantTotal: 5,
		},
		{
			name:      "maximal limit after an offset",
			limit:     math.MaxInt,
			offset:    2,
			wantKinds: []domain.Kind{all[2].Kind, all[3].Kind, all[4].Kind},
			wantTotal: 5,
		},
		{
			name:      "maximal limit and offset",
			limit:     math.MaxInt,
			offset:    math.MaxInt,
			wantKinds: []domain.Kind{},
			wantTotal: 5,
		},
		{
			name:      "box filter",
			boxID:     &tripID,
			wantKinds: []domain.Kind{domain.KindBoxDeposit, domain.KindBoxCreation},
			wantTotal: 2,
		},
		{
			name:      "box filter paged with a maximal limit",
			limit:     math.MaxInt,
			offset:    1,
			boxID:     &tripID,
			wantKinds: []domain.Kind{domain.KindBoxCreation},
			wantTotal: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			reader := new(MockSnapshotReader)
			reader.On("Snapshot", ctx).Return(fixtureSnapshot(), nil)

			service := NewDashboardService(reader)
			txs, total, err := service.History(ctx, tt.limit, tt.offset, tt.boxID)

			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)

			kinds := make([]domain.Kind, 0, len(txs))
			for _, tx := range txs {
				kinds = append(kinds, tx.Kind)
			}
			assert.Equal(t, tt.wantKinds, kinds)
		})
	}
}

func TestDashboardService_History_UnknownBox(t *testing.T) {
	ctx := context.Background()
	reader := new(MockSnapshotReader)
	reader.On("Snapshot", ctx).Return(fixtureSnapshot(), nil)

	service := NewDashboardService(reader)
	missing := uuid.New()
	_, _, err := service.History(ctx, 10, 0, &missing)

	assert.ErrorIs(t, err, domain.ErrBoxNotFound)
}

func TestDashboardService_Transaction(t *testing.T) {
	ctx := context.Background()
	snap := fixtureSnapshot()
	reader := new(MockSnapshotReader)
	reader.On("Snapshot", ctx).Return(snap, nil)

	service := NewDashboardService(reader)

	detail, err := service.Transaction(ctx, snap.Transactions[3].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindBoxDeposit, detail.Transaction.Kind)
	require.NotNil(t, detail.Box)
	assert.Equal(t, "trip", detail.Box.Name)

	detail, err = service.Transaction(ctx, snap.Transactions[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindDeposit, detail.Transaction.Kind)
	assert.Nil(t, detail.Box)

	_, err = service.Transaction(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestDashboardService_ListBoxes(t *testing.T) {
	ctx := context.Background()
	reader := new(MockSnapshotReader)
	reader.On("Snapshot", ctx).Return(fixtureSnapshot(), nil)

	service := NewDashboardService(reader)
	boxes, err := service.ListBoxes(ctx)

	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Equal(t, "Car", boxes[0].Name)
	assert.Equal(t, "trip", boxes[1].Name)
}

func TestDashboardService_ListBoxes_LedgerError(t *testing.T) {
	ctx := context.Background()
	reader := new(MockSnapshotReader)
	reader.On("Snapshot", ctx).Return(domain.Snapshot{}, errors.New("boom"))

	service := NewDashboardService(reader)
	boxes, err := service.ListBoxes(ctx)

	assert.Nil(t, boxes)
	assert.Error(t, err)
}
