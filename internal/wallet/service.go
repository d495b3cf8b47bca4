// Package wallet exposes balance and history reads plus the admin manual
// adjustment. Every mutation goes through the ledger's atomic delta
// primitive; nothing here reads a balance to compute the next one.
package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
)

// Service wraps the ledger store for wallet-facing operations.
type Service struct {
	store  ledger.Store
	logger *slog.Logger
}

// NewService builds a wallet service.
func NewService(store ledger.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Balance returns the user's current balance in cents.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.store.Balance(ctx, userID)
}

// History returns the user's most recent wallet transactions.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]ledger.Transaction, error) {
	return s.store.TransactionsByUser(ctx, userID, limit)
}

// AdjustInput captures an admin manual credit or debit.
type AdjustInput struct {
	UserID string
	Amount int64
	Credit bool
	Reason string
}

// AdjustResult reports the new balance and the audit row written.
type AdjustResult struct {
	Balance       int64
	TransactionID string
}

// ManualAdjust moves a balance by an admin decision. The delta is applied
// atomically first (a debit below zero is rejected by the store), then a
// completed audit transaction is recorded.
func (s *Service) ManualAdjust(ctx context.Context, in AdjustInput) (AdjustResult, error) {
	if in.Amount <= 0 {
		return AdjustResult{}, fmt.Errorf("amount must be positive")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return AdjustResult{}, fmt.Errorf("adjustment reason required")
	}

	delta := in.Amount
	kind := ledger.KindDeposit
	if !in.Credit {
		delta = -in.Amount
		kind = ledger.KindWithdrawal
	}

	balance, err := s.store.AdjustBalance(ctx, in.UserID, delta)
	if err != nil {
		return AdjustResult{}, err
	}

	tx := ledger.Transaction{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Kind:      kind,
		Amount:    in.Amount,
		Reference: "ADJ-" + uuid.NewString()[:8] + ": " + in.Reason,
		Status:    ledger.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		// Balance moved but the audit row is missing; surface it, do not
		// retry into a second delta.
		s.logger.Error("manual adjustment without audit row, reconciliation required",
			"user_id", in.UserID, "delta", delta, "error", err)
		return AdjustResult{}, fmt.Errorf("record adjustment: %w", err)
	}

	s.logger.Info("manual balance adjustment", "user_id", in.UserID, "delta", delta, "transaction_id", tx.ID)
	return AdjustResult{Balance: balance, TransactionID: tx.ID}, nil
}
