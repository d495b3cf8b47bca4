// Package order places marketing service orders against wallet balances and
// handles admin refunds.
package order

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrAlreadyRefunded occurs when a refund targets an order that already
	// left its original status.
	ErrAlreadyRefunded = errors.New("order already refunded")
)

// Order statuses. An order is created pending and moves through the fulfilment
// pipeline; refunded is terminal.
const (
	StatusPending  = "pending"
	StatusRefunded = "refunded"
)

// Order is one placed service order. Charge is in cents.
type Order struct {
	ID          string
	UserID      string
	ServiceName string
	Link        string
	Quantity    int
	Charge      int64
	Status      string
	CreatedAt   time.Time
}

// Store persists orders.
//
// MarkRefunded flips the order to refunded only if it has not been refunded
// yet and reports whether this caller performed the transition.
type Store interface {
	Create(ctx context.Context, o Order) error
	Order(ctx context.Context, id string) (Order, error)
	OrdersByUser(ctx context.Context, userID string, limit int) ([]Order, error)
	MarkRefunded(ctx context.Context, id string) (Order, bool, error)
}
