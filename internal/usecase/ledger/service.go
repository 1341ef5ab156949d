package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/caixinha-backend/internal/domain"
)

// CreateBoxInput represents the input for creating a box
type CreateBoxInput struct {
	Name          string
	InitialAmount decimal.Decimal // moved out of the Balance, may be zero
	Description   string
}

// Option configures a Service
type Option func(*Service)

// WithInitialBalance sets the Balance used when the store holds none
func WithInitialBalance(balance decimal.Decimal) Option {
	return func(s *Service) {
		s.initialBalance = balance
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source stamped on transactions and boxes
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how transaction and box IDs are produced
func WithIDGenerator(newID func() (uuid.UUID, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// Service owns the Balance, the transaction log and the boxes.
// It is the only writer of their keys and serializes every operation.
type Service struct {
	store  domain.KeyValueStore
	logger *zap.Logger
	now    func() time.Time
	newID  func() (uuid.UUID, error)

	initialBalance decimal.Decimal

	mu    sync.Mutex
	state domain.Snapshot
	// dirty is set when a failed write could not be undone, so storage may
	// hold a partial write. state stays the last committed value.
	dirty bool
}

// Open loads the ledger from store and returns a ready Service.
// It fails with domain.ErrCorruptState when a stored value is invalid and
// with domain.ErrStorageUnavailable when the store cannot be read.
func Open(ctx context.Context, store domain.KeyValueStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("ledger requires a key-value store")
	}

	s := &Service{
		store:          store,
		logger:         zap.NewNop(),
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewV7,
		initialBalance: decimal.Zero,
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := loadState(ctx, store, s.initialBalance)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	s.state = state

	s.logger.Info("ledger loaded",
		zap.String("balance", state.Balance.StringFixed(domain.AmountPlaces)),
		zap.Int("transactions", len(state.Transactions)),
		zap.Int("boxes", len(state.Boxes)),
	)

	return s, nil
}

// Snapshot returns the current Balance, transaction log (append order) and boxes
func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureCommitted(ctx); err != nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return s.state.Clone(), nil
}

// Deposit credits the Balance and appends a deposit transaction
func (s *Service) Deposit(ctx context.Context, amount decimal.Decimal, description string) (domain.Snapshot, error) {
	return s.record(ctx, "deposit", domain.KindDeposit, amount, description)
}

// Withdraw debits the Balance and appends a withdrawal transaction
func (s *Service) Withdraw(ctx context.Context, amount decimal.Decimal, description string) (domain.Snapshot, error) {
	return s.record(ctx, "withdraw", domain.KindWithdrawal, amount, description)
}

// TransferOut sends a Pix-style transfer: a withdrawal classified as peer-transfer-send
func (s *Service) TransferOut(ctx context.Context, amount decimal.Decimal, description string) (domain.Snapshot, error) {
	return s.record(ctx, "transfer out", domain.KindPeerTransferSend, amount, description)
}

// record applies a Balance-only movement of the given kind
func (s *Service) record(ctx context.Context, op string, kind domain.Kind, amount decimal.Decimal, description string) (domain.Snapshot, error) {
	amount, amountErr := normalizeInput(amount)

	return s.apply(ctx, op, func(next *domain.Snapshot) error {
		if amountErr != nil {
			return amountErr
		}
		if !amount.IsPositive() {
			return domain.ErrInvalidAmount
		}
		if kind.BalanceEffect() < 0 && amount.GreaterThan(next.Balance) {
			return insufficient(domain.ErrInsufficientBalance, amount, next.Balance)
		}

		tx, err := s.newTransaction(kind, amount, description, nil)
		if err != nil {
			return err
		}

		next.Balance = domain.NormalizeAmount(next.Balance.Add(tx.SignedAmount()))
		next.Transactions = append(next.Transactions, tx)
		return nil
	})
}

// CreateBox opens a box funded from the Balance and appends a box-creation transaction
func (s *Service) CreateBox(ctx context.Context, input CreateBoxInput) (domain.Snapshot, error) {
	name := strings.TrimSpace(input.Name)
	amount, amountErr := normalizeInput(input.InitialAmount)

	return s.apply(ctx, "create box", func(next *domain.Snapshot) error {
		if name == "" {
			return domain.ErrInvalidName
		}
		if amountErr != nil {
			return amountErr
		}
		if amount.IsNegative() {
			return domain.ErrInvalidAmount
		}
		if amount.GreaterThan(next.Balance) {
			return insufficient(domain.ErrInsufficientBalance, amount, next.Balance)
		}

		boxID, err := s.newID()
		if err != nil {
			return fmt.Errorf("generate box ID: %w", err)
		}

		box := domain.Box{
			ID:          boxID,
			Name:        name,
			Description: strings.TrimSpace(input.Description),
			Amount:      amount,
			CreatedAt:   s.now(),
		}
		if err := box.Validate(); err != nil {
			return err
		}

		tx, err := s.newTransaction(domain.KindBoxCreation, amount, box.Name, &box.ID)
		if err != nil {
			return err
		}

		next.Balance = domain.NormalizeAmount(next.Balance.Sub(amount))
		next.Boxes = append(next.Boxes, box)
		next.Transactions = append(next.Transactions, tx)
		return nil
	})
}

// DepositToBox moves funds from the Balance into a box
func (s *Service) DepositToBox(ctx context.Context, boxID uuid.UUID, amount decimal.Decimal) (domain.Snapshot, error) {
	amount, amountErr := normalizeInput(amount)

	return s.apply(ctx, "deposit to box", func(next *domain.Snapshot) error {
		idx := boxIndex(next.Boxes, boxID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", domain.ErrBoxNotFound, boxID)
		}
		if amountErr != nil {
			return amountErr
		}
		if !amount.IsPositive() {
			return domain.ErrInvalidAmount
		}
		if amount.GreaterThan(next.Balance) {
			return insufficient(domain.ErrInsufficientBalance, amount, next.Balance)
		}

		tx, err := s.newTransaction(domain.KindBoxDeposit, amount, next.Boxes[idx].Name, &boxID)
		if err != nil {
			return err
		}

		next.Boxes[idx].Amount = domain.NormalizeAmount(next.Boxes[idx].Amount.Add(amount))
		next.Balance = domain.NormalizeAmount(next.Balance.Sub(amount))
		next.Transactions = append(next.Transactions, tx)
		return nil
	})
}

// WithdrawFromBox moves funds from a box back into the Balance
func (s *Service) WithdrawFromBox(ctx context.Context, boxID uuid.UUID, amount decimal.Decimal) (domain.Snapshot, error) {
	amount, amountErr := normalizeInput(amount)

	return s.apply(ctx, "withdraw from box", func(next *domain.Snapshot) error {
		idx := boxIndex(next.Boxes, boxID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", domain.ErrBoxNotFound, boxID)
		}
		if amountErr != nil {
			return amountErr
		}
		if !amount.IsPositive() {
			return domain.ErrInvalidAmount
		}
		if amount.GreaterThan(next.Boxes[idx].Amount) {
			return insufficient(domain.ErrInsufficientBoxBalance, amount, next.Boxes[idx].Amount)
		}

		tx, err := s.newTransaction(domain.KindBoxWithdrawal, amount, next.Boxes[idx].Name, &boxID)
		if err != nil {
			return err
		}

		next.Boxes[idx].Amount = domain.NormalizeAmount(next.Boxes[idx].Amount.Sub(amount))
		next.Balance = domain.NormalizeAmount(next.Balance.Add(amount))
		next.Transactions = append(next.Transactions, tx)
		return nil
	})
}

// apply runs one unit of work: mutate a copy of the state, persist it, then
// publish it as the current state. Nothing changes when any step fails.
func (s *Service) apply(ctx context.Context, op string, mutate func(next *domain.Snapshot) error) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureCommitted(ctx); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	next := s.state.Clone()
	if err := mutate(&next); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.persist(ctx, next); err != nil {
		s.logger.Warn("ledger operation not persisted", zap.String("op", op), zap.Error(err))
		return domain.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	s.state = next

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("balance", next.Balance.StringFixed(domain.AmountPlaces)),
	}
	if n := len(next.Transactions); n > 0 {
		fields = append(fields, zap.String("transaction_id", next.Transactions[n-1].ID.String()))
	}
	s.logger.Debug("ledger operation committed", fields...)

	return next.Clone(), nil
}

// persist writes every key of next. Batch stores commit all-or-nothing; other
// stores are written key by key and rolled back to the committed values on failure.
func (s *Service) persist(ctx context.Context, next domain.Snapshot) error {
	entries, err := encodeState(next)
	if err != nil {
		return err
	}

	if batch, ok := s.store.(domain.BatchStore); ok {
		if err := batch.SetMany(ctx, entries); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
		return nil
	}

	previous, err := encodeState(s.state)
	if err != nil {
		return err
	}

	touched := make([]string, 0, len(persistOrder))
	for _, key := range persistOrder {
		touched = append(touched, key)

		if err := s.store.Set(ctx, key, entries[key]); err != nil {
			writeErr := fmt.Errorf("write %q: %w: %w", key, domain.ErrStorageUnavailable, err)

			if restoreErr := s.restore(ctx, previous, touched); restoreErr != nil {
				s.dirty = true
				s.logger.Error("ledger storage holds a partial write, repairing before next operation",
					zap.Error(restoreErr))
				return fmt.Errorf("%w (restore failed: %v)", writeErr, restoreErr)
			}
			return writeErr
		}
	}

	return nil
}

// restore rewrites keys with their last committed values
func (s *Service) restore(ctx context.Context, previous map[string][]byte, keys []string) error {
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for _, key := range keys {
		if err := s.store.Set(ctx, key, previous[key]); err != nil {
			errs = append(errs, fmt.Errorf("restore %q: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// ensureCommitted rewrites the committed state after a write failure that could
// not be undone. Until storage is repaired every call fails and memory is kept.
func (s *Service) ensureCommitted(ctx context.Context) error {
	if !s.dirty {
		return nil
	}

	committed, err := encodeState(s.state)
	if err != nil {
		return err
	}
	if err := s.restore(ctx, committed, persistOrder); err != nil {
		return fmt.Errorf("repair storage: %w: %w", domain.ErrStorageUnavailable, err)
	}

	s.dirty = false
	s.logger.Info("ledger storage repaired")
	return nil
}

func (s *Service) newTransaction(kind domain.Kind, amount decimal.Decimal, description string, boxID *uuid.UUID) (domain.Transaction, error) {
	id, err := s.newID()
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("generate transaction ID: %w", err)
	}

	tx := domain.Transaction{
		ID:          id,
		Kind:        kind,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now(),
	}
	if boxID != nil {
		ref := *boxID
		tx.BoxID = &ref
	}

	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// normalizeInput bounds and rounds an amount supplied by a caller
func normalizeInput(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := domain.CheckAmount(amount); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", domain.ErrInvalidAmount, err)
	}
	return domain.NormalizeAmount(amount), nil
}

func boxIndex(boxes []domain.Box, id uuid.UUID) int {
	for i := range boxes {
		if boxes[i].ID == id {
			return i
		}
	}
	return -1
}

func insufficient(sentinel error, requested, available decimal.Decimal) error {
	return fmt.Errorf("%w: requested %s, available %s", sentinel,
		requested.StringFixed(domain.AmountPlaces), available.StringFixed(domain.AmountPlaces))
}
