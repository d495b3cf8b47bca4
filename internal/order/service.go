package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
	"github.com/moosoltadiwa/localpay-connect/internal/notification"
)

// Service charges wallets for placed orders and credits refunds.
type Service struct {
	store    Store
	ledger   ledger.Store
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds an order service. Notifier may be nil.
func NewService(store Store, l ledger.Store, n notification.Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, ledger: l, notifier: n, logger: logger}
}

// PlaceInput captures a new order request.
type PlaceInput struct {
	UserID      string
	ServiceName string
	Link        string
	Quantity    int
	Charge      int64
}

// Place debits the wallet first, then records the order. The debit is the
// atomic gate: a balance short of the charge rejects the whole placement.
func (s *Service) Place(ctx context.Context, in PlaceInput) (Order, error) {
	if in.UserID == "" {
		return Order{}, fmt.Errorf("user required")
	}
	if in.ServiceName == "" || in.Link == "" {
		return Order{}, fmt.Errorf("service and link required")
	}
	if in.Quantity <= 0 {
		return Order{}, fmt.Errorf("quantity must be positive")
	}
	if in.Charge <= 0 {
		return Order{}, fmt.Errorf("charge must be positive")
	}

	if _, err := s.ledger.AdjustBalance(ctx, in.UserID, -in.Charge); err != nil {
		return Order{}, err
	}

	now := time.Now().UTC()
	o := Order{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		ServiceName: in.ServiceName,
		Link:        in.Link,
		Quantity:    in.Quantity,
		Charge:      in.Charge,
		Status:      StatusPending,
		CreatedAt:   now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		// Give the money back; the order never existed.
		if _, refundErr := s.ledger.AdjustBalance(ctx, in.UserID, in.Charge); refundErr != nil {
			s.logger.Error("order rollback failed, reconciliation required",
				"user_id", in.UserID, "charge", in.Charge, "error", refundErr)
		}
		return Order{}, fmt.Errorf("create order: %w", err)
	}

	tx := ledger.Transaction{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Kind:      ledger.KindOrder,
		Amount:    in.Charge,
		Reference: "ORD-" + o.ID,
		Status:    ledger.StatusCompleted,
		CreatedAt: now,
	}
	if err := s.ledger.CreateTransaction(ctx, tx); err != nil {
		s.logger.Error("order charged without audit row", "order_id", o.ID, "error", err)
	}

	s.logger.Info("order placed", "order_id", o.ID, "user_id", in.UserID, "charge", in.Charge)
	return o, nil
}

// Refund flips the order to refunded and credits the charge back. The status
// flip is conditional, so repeated refund requests credit at most once.
func (s *Service) Refund(ctx context.Context, orderID string) (Order, error) {
	o, won, err := s.store.MarkRefunded(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !won {
		return o, ErrAlreadyRefunded
	}

	if _, err := s.ledger.AdjustBalance(ctx, o.UserID, o.Charge); err != nil {
		s.logger.Error("refund credit failed, reconciliation required",
			"order_id", o.ID, "user_id", o.UserID, "charge", o.Charge, "error", err)
		return Order{}, fmt.Errorf("credit refund: %w", err)
	}

	tx := ledger.Transaction{
		ID:        uuid.NewString(),
		UserID:    o.UserID,
		Kind:      ledger.KindRefund,
		Amount:    o.Charge,
		Reference: "REF-" + o.ID,
		Status:    ledger.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledger.CreateTransaction(ctx, tx); err != nil {
		s.logger.Error("refund credited without audit row", "order_id", o.ID, "error", err)
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, notification.Event{
			Kind:    notification.KindOrderRefunded,
			UserID:  o.UserID,
			Amount:  o.Charge,
			Subject: o.ServiceName,
		})
	}

	s.logger.Info("order refunded", "order_id", o.ID, "user_id", o.UserID, "charge", o.Charge)
	return o, nil
}

// Order returns one order, owner-checked by the caller when needed.
func (s *Service) Order(ctx context.Context, id string) (Order, error) {
	return s.store.Order(ctx, id)
}

// List returns the user's most recent orders.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Order, error) {
	return s.store.OrdersByUser(ctx, userID, limit)
}
