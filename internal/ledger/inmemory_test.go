package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func pendingDeposit(userID string, amount int64) Transaction {
	return Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      KindDeposit,
		Amount:    amount,
		Method:    "ecocash",
		Reference: "DEP-" + uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestInMemorySettleOnce(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	tx := pendingDeposit(uuid.NewString(), 1_000)
	if err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create: %v", err)
	}

	won, err := s.Settle(ctx, tx.ID, StatusCompleted, "PN-1")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !won {
		t.Fatal("first settle should win")
	}

	won, err = s.Settle(ctx, tx.ID, StatusFailed, "")
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if won {
		t.Fatal("second settle must lose")
	}

	got, err := s.Transaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Status != StatusCompleted || got.GatewayRef != "PN-1" {
		t.Fatalf("unexpected transaction: %+v", got)
	}
}

func TestInMemorySettleConcurrent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	tx := pendingDeposit(uuid.NewString(), 1_000)
	if err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create: %v", err)
	}

	const attempts = 20
	wins := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := s.Settle(ctx, tx.ID, StatusCompleted, "")
			if err != nil {
				t.Errorf("settle: %v", err)
				return
			}
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestInMemorySettleRejectsNonTerminal(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	tx := pendingDeposit(uuid.NewString(), 500)
	if err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Settle(ctx, tx.ID, StatusPending, ""); err == nil {
		t.Fatal("expected error settling to pending")
	}
}

func TestInMemoryAdjustBalanceFloor(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()

	if _, err := s.AdjustBalance(ctx, userID, -100); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	balance, err := s.AdjustBalance(ctx, userID, 1_000)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if balance != 1_000 {
		t.Fatalf("expected 1000, got %d", balance)
	}

	balance, err = s.AdjustBalance(ctx, userID, -400)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 600 {
		t.Fatalf("expected 600, got %d", balance)
	}
}

func TestInMemoryAdjustBalanceConcurrent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()
	SeedBalance(s, userID, 0)

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AdjustBalance(ctx, userID, 100); err != nil {
				t.Errorf("adjust: %v", err)
			}
		}()
	}
	wg.Wait()

	balance, _ := s.Balance(ctx, userID)
	if balance != workers*100 {
		t.Fatalf("lost update: expected %d, got %d", workers*100, balance)
	}
}

func TestInMemoryFailStalePending(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	stale := pendingDeposit(uuid.NewString(), 500)
	stale.CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := pendingDeposit(uuid.NewString(), 500)
	for _, tx := range []Transaction{stale, fresh} {
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	failed, err := s.FailStalePending(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != stale.ID {
		t.Fatalf("expected only the stale transaction, got %+v", failed)
	}

	got, _ := s.Transaction(ctx, fresh.ID)
	if got.Status != StatusPending {
		t.Fatalf("fresh transaction should stay pending, got %s", got.Status)
	}
}

func TestInMemoryTransactionsByUserOrder(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()

	for i := 0; i < 3; i++ {
		tx := pendingDeposit(userID, int64(100*(i+1)))
		tx.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		tx.Reference = fmt.Sprintf("DEP-%d", i)
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	txs, err := s.TransactionsByUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].CreatedAt.Before(txs[1].CreatedAt) {
		t.Fatal("expected newest first")
	}
}
