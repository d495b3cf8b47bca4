package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the requested wallet transaction does not exist.
	ErrNotFound = errors.New("transaction not found")

	// ErrInsufficientFunds occurs when a debit would take a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Transaction kinds. Deposits and refunds credit a balance, withdrawals and
// order charges debit it.
const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
	KindOrder      = "order"
	KindRefund     = "refund"
)

// Transaction statuses. A transaction leaves pending at most once.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Transaction is one row of the wallet audit trail. Amount is in cents and
// always positive; Kind determines the sign applied to the balance.
// Reference is the unique correlation key quoted back by the payment gateway.
type Transaction struct {
	ID         string
	UserID     string
	Kind       string
	Amount     int64
	Method     string
	Reference  string
	PollURL    string
	GatewayRef string
	Status     string
	CreatedAt  time.Time
}

// Terminal reports whether the transaction has reached a final status.
func (t Transaction) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// Store is the contract implemented by ledger backends.
//
// Settle is the idempotence choke point: it flips a transaction from pending
// to the given terminal status as a single compare-and-swap and reports
// whether this caller performed the transition. Concurrent settlement
// attempts (webhook, poll, admin action) race on it; exactly one wins.
//
// AdjustBalance applies a signed delta to the owner's stored balance in one
// atomic operation. Callers never read-modify-write balances.
type Store interface {
	CreateTransaction(ctx context.Context, tx Transaction) error
	Transaction(ctx context.Context, id string) (Transaction, error)
	TransactionByReference(ctx context.Context, reference string) (Transaction, error)
	TransactionsByUser(ctx context.Context, userID string, limit int) ([]Transaction, error)
	SetPollURL(ctx context.Context, id, pollURL string) error
	Settle(ctx context.Context, id, status, gatewayRef string) (bool, error)
	AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error)
	Balance(ctx context.Context, userID string) (int64, error)
	FailStalePending(ctx context.Context, cutoff time.Time) ([]Transaction, error)
}
