package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
	"github.com/moosoltadiwa/localpay-connect/internal/logging"
)

func TestManualAdjustCredit(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, logging.Discard())
	ctx := context.Background()
	userID := uuid.NewString()

	res, err := svc.ManualAdjust(ctx, AdjustInput{
		UserID: userID,
		Amount: 1_500,
		Credit: true,
		Reason: "goodwill credit",
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if res.Balance != 1_500 {
		t.Fatalf("expected balance 1500, got %d", res.Balance)
	}

	tx, err := l.Transaction(ctx, res.TransactionID)
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if tx.Kind != ledger.KindDeposit || tx.Status != ledger.StatusCompleted || tx.Amount != 1_500 {
		t.Fatalf("unexpected audit row: %+v", tx)
	}
}

func TestManualAdjustDebitFloor(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, logging.Discard())
	ctx := context.Background()
	userID := uuid.NewString()
	ledger.SeedBalance(l, userID, 1_000)

	if _, err := svc.ManualAdjust(ctx, AdjustInput{
		UserID: userID,
		Amount: 2_000,
		Credit: false,
		Reason: "chargeback",
	}); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	balance, _ := l.Balance(ctx, userID)
	if balance != 1_000 {
		t.Fatalf("failed debit must not move balance, got %d", balance)
	}

	res, err := svc.ManualAdjust(ctx, AdjustInput{
		UserID: userID,
		Amount: 400,
		Credit: false,
		Reason: "chargeback",
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if res.Balance != 600 {
		t.Fatalf("expected balance 600, got %d", res.Balance)
	}
	tx, _ := l.Transaction(ctx, res.TransactionID)
	if tx.Kind != ledger.KindWithdrawal {
		t.Fatalf("expected withdrawal audit row, got %s", tx.Kind)
	}
}

func TestManualAdjustValidation(t *testing.T) {
	svc := NewService(ledger.NewInMemory(), logging.Discard())
	ctx := context.Background()

	if _, err := svc.ManualAdjust(ctx, AdjustInput{UserID: "u", Amount: 0, Credit: true, Reason: "r"}); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := svc.ManualAdjust(ctx, AdjustInput{UserID: "u", Amount: 100, Credit: true, Reason: "  "}); err == nil {
		t.Fatal("expected error for empty reason")
	}
}

func TestHistoryLimit(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, logging.Discard())
	ctx := context.Background()
	userID := uuid.NewString()

	for i := 0; i < 5; i++ {
		if _, err := svc.ManualAdjust(ctx, AdjustInput{UserID: userID, Amount: 100, Credit: true, Reason: "seed"}); err != nil {
			t.Fatalf("adjust: %v", err)
		}
	}

	history, err := svc.History(ctx, userID, 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(history))
	}
}
