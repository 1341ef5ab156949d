package grpc

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/caixinha-backend/internal/domain"
	"github.com/simaogato/caixinha-backend/internal/events"
	"github.com/simaogato/caixinha-backend/internal/metrics"
	"github.com/simaogato/caixinha-backend/internal/usecase/dashboard"
	"github.com/simaogato/caixinha-backend/internal/usecase/ledger"
)

const (
	defaultHistoryLimit = 50
	maxPageField        = math.MaxInt32
)

// Server implements the LedgerService gRPC server
type Server struct {
	LedgerService    *ledger.Service
	DashboardService *dashboard.DashboardService
	Publisher        events.Publisher
	Metrics          *metrics.Metrics // optional
	Logger           *zap.Logger
}

// NewServer creates a new gRPC server instance.
// A nil publisher drops events; a nil logger discards logs.
func NewServer(
	ledgerService *ledger.Service,
	dashboardService *dashboard.DashboardService,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		LedgerService:    ledgerService,
		DashboardService: dashboardService,
		Publisher:        publisher,
		Metrics:          m,
		Logger:           logger,
	}
}

// Deposit handles the Deposit RPC
func (s *Server) Deposit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	amount, err := requiredAmount(req, "amount")
	if err != nil {
		return nil, err
	}

	snap, err := s.LedgerService.Deposit(ctx, amount, stringField(req, "description"))
	if err != nil {
		return nil, mapError(err)
	}
	return s.committed(ctx, snap)
}

// Withdraw handles the Withdraw RPC
func (s *Server) Withdraw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	amount, err := requiredAmount(req, "amount")
	if err != nil {
		return nil, err
	}

	snap, err := s.LedgerService.Withdraw(ctx, amount, stringField(req, "description"))
	if err != nil {
		return nil, mapError(err)
	}
	return s.committed(ctx, snap)
}

// TransferOut handles the TransferOut RPC (Pix send)
func (s *Server) TransferOut(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	amount, err := requiredAmount(req, "amount")
	if err != nil {
		return nil, err
	}

	snap, err := s.LedgerService.TransferOut(ctx, amount, stringField(req, "description"))
	if err != nil {
		return nil, mapError(err)
	}
	return s.committed(ctx, snap)
}

// CreateBox handles the CreateBox RPC. initial_amount defaults to zero.
func (s *Server) CreateBox(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	initial := decimal.Zero
	if raw := stringField(req, "initial_amount"); raw != "" {
		parsed, err := domain.ParseAmount(raw)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid initial_amount format: %v", err)
		}
		initial = parsed
	}

	snap, err := s.LedgerService.CreateBox(ctx, ledger.CreateBoxInput{
		Name:          stringField(req, "name"),
		InitialAmount: initial,
		Description:   stringField(req, "description"),
	})
	if err != nil {
		return nil, mapError(err)
	}
	return s.committed(ctx, snap)
}

// DepositToBox handles the DepositToBox RPC
func (s *Server) DepositToBox(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	boxID, err := requiredBoxID(req)
	if err != nil {
		return nil, err
	}
	amount, err := requiredAmount(req, "amount")
	if err != nil {
		return nil, err
	}

	snap, err := s.LedgerService.DepositToBox(ctx, boxID, amount)
	if err != nil {
		return nil, mapError(err)
	}
	return s.committed(ctx, snap)
}

// WithdrawFromBox handles the WithdrawFromBox RPC
func (s *Server) WithdrawFromBox(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	boxID, err := requiredBoxID(req)
	if err != nil {
		return nil, err
	}
	amount, err := requiredAmount(req, "amount")
	if err != nil {
		return nil, err
	}

	snap, err := s.LedgerService.WithdrawFromBox(ctx, boxID, amount)
	if err != nil {
		return nil, mapError(err)
	}
	return s.committed(ctx, snap)
}

// GetSnapshot handles the GetSnapshot RPC
func (s *Server) GetSnapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	snap, err := s.LedgerService.Snapshot(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return newResponse(map[string]any{"snapshot": snapshotToMap(snap)})
}

// GetSummary handles the GetSummary RPC
func (s *Server) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	summary, err := s.DashboardService.GetSummary(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]any{
		"total":             formatAmount(summary.Total),
		"balance":           formatAmount(summary.Balance),
		"boxed":             formatAmount(summary.Boxed),
		"box_count":         float64(summary.BoxCount),
		"transaction_count": float64(summary.TransactionCount),
	})
}

// History handles the History RPC: a most-recent-first page of the statement
func (s *Server) History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := intField(req, "limit")
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	offset, err := intField(req, "offset")
	if err != nil {
		return nil, err
	}

	// Parse optional box ID filter
	var boxID *uuid.UUID
	if raw := stringField(req, "box_id"); raw != "" {
		parsedID, err := uuid.Parse(raw)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid box_id format: %v", err)
		}
		boxID = &parsedID
	}

	txs, total, err := s.DashboardService.History(ctx, limit, offset, boxID)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]any, 0, len(txs))
	for _, tx := range txs {
		items = append(items, transactionToMap(tx))
	}

	return newResponse(map[string]any{
		"transactions": items,
		"total_count":  float64(total),
	})
}

// GetTransaction handles the GetTransaction RPC: one statement entry and its box
func (s *Server) GetTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(req, "id")
	if err != nil {
		return nil, err
	}

	detail, err := s.DashboardService.Transaction(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	fields := map[string]any{"transaction": transactionToMap(detail.Transaction)}
	if detail.Box != nil {
		fields["box"] = boxToMap(*detail.Box)
	}
	return newResponse(fields)
}

// committed publishes the event for the transaction just appended and builds
// the mutation response. Publishing never fails a committed operation.
func (s *Server) committed(ctx context.Context, snap domain.Snapshot) (*structpb.Struct, error) {
	fields := map[string]any{"snapshot": snapshotToMap(snap)}

	if event, ok := events.FromSnapshot(snap); ok {
		fields["transaction"] = transactionToMap(snap.Transactions[len(snap.Transactions)-1])

		if err := s.Publisher.Publish(ctx, event); err != nil {
			s.Logger.Warn("failed to publish ledger event",
				zap.String("transaction_id", event.TransactionID.String()),
				zap.Error(err))
			if s.Metrics != nil {
				s.Metrics.EventPublishFailures.Inc()
			}
		}
	}

	return newResponse(fields)
}

func newResponse(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return resp, nil
}

func snapshotToMap(snap domain.Snapshot) map[string]any {
	txs := make([]any, 0, len(snap.Transactions))
	for _, tx := range snap.Transactions {
		txs = append(txs, transactionToMap(tx))
	}

	boxes := make([]any, 0, len(snap.Boxes))
	for _, box := range snap.Boxes {
		boxes = append(boxes, boxToMap(box))
	}

	return map[string]any{
		"balance":      formatAmount(snap.Balance),
		"total":        formatAmount(snap.Total()),
		"transactions": txs,
		"boxes":        boxes,
	}
}

func transactionToMap(tx domain.Transaction) map[string]any {
	m := map[string]any{
		"id":          tx.ID.String(),
		"kind":        string(tx.Kind),
		"source":      tx.Kind.Source(),
		"amount":      formatAmount(tx.Amount),
		"description": tx.Description,
		"created_at":  tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if tx.BoxID != nil {
		m["box_id"] = tx.BoxID.String()
	}
	return m
}

func boxToMap(box domain.Box) map[string]any {
	return map[string]any{
		"id":          box.ID.String(),
		"name":        box.Name,
		"description": box.Description,
		"amount":      formatAmount(box.Amount),
		"created_at":  box.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(domain.AmountPlaces)
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// intField reads an optional whole number in [0, maxPageField]. Absent and null fields are zero.
func intField(req *structpb.Struct, name string) (int, error) {
	value, ok := req.GetFields()[name]
	if !ok {
		return 0, nil
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_NullValue:
		return 0, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || n < 0 || n > maxPageField {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be a whole number between 0 and %d", name, maxPageField)
		}
		return int(n), nil
	default:
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
}

func requiredAmount(req *structpb.Struct, name string) (decimal.Decimal, error) {
	raw := stringField(req, name)
	if raw == "" {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}

	amount, err := domain.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
	}
	return amount, nil
}

func requiredBoxID(req *structpb.Struct) (uuid.UUID, error) {
	return requiredUUID(req, "box_id")
}

func requiredUUID(req *structpb.Struct, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(stringField(req, name))
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
	}
	return id, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidName):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance), errors.Is(err, domain.ErrInsufficientBoxBalance):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrBoxNotFound), errors.Is(err, domain.ErrTransactionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, domain.ErrCorruptState):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	return status.Error(codes.Internal, err.Error())
}

var _ LedgerServiceServer = (*Server)(nil)
