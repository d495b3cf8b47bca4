package sweeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
	"github.com/moosoltadiwa/localpay-connect/internal/logging"
	"github.com/moosoltadiwa/localpay-connect/internal/notification"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *captureNotifier) Notify(_ context.Context, ev notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func pendingTx(t *testing.T, l ledger.Store, userID string, age time.Duration) ledger.Transaction {
	t.Helper()
	tx := ledger.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      ledger.KindDeposit,
		Amount:    1_000,
		Reference: "DEP-" + uuid.NewString()[:8],
		Status:    ledger.StatusPending,
		CreatedAt: time.Now().UTC().Add(-age),
	}
	if err := l.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func TestSweepExpiresOnlyStale(t *testing.T) {
	l := ledger.NewInMemory()
	notifier := &captureNotifier{}
	s := New(l, notifier, nil, logging.Discard(), time.Minute, 24*time.Hour)
	ctx := context.Background()
	userID := uuid.NewString()

	stale := pendingTx(t, l, userID, 25*time.Hour)
	fresh := pendingTx(t, l, userID, time.Hour)

	if err := s.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	tx, _ := l.Transaction(ctx, stale.ID)
	if tx.Status != ledger.StatusFailed {
		t.Fatalf("expected stale transaction failed, got %s", tx.Status)
	}
	tx, _ = l.Transaction(ctx, fresh.ID)
	if tx.Status != ledger.StatusPending {
		t.Fatalf("fresh transaction must stay pending, got %s", tx.Status)
	}

	if len(notifier.events) != 1 || notifier.events[0].Kind != notification.KindDepositExpired {
		t.Fatalf("expected one expiry notification, got %+v", notifier.events)
	}
	if notifier.events[0].UserID != userID || notifier.events[0].Amount != 1_000 {
		t.Fatalf("unexpected notification payload: %+v", notifier.events[0])
	}

	balance, _ := l.Balance(ctx, userID)
	if balance != 0 {
		t.Fatalf("expiry must not move balances, got %d", balance)
	}
}

func TestSweepIgnoresTerminal(t *testing.T) {
	l := ledger.NewInMemory()
	notifier := &captureNotifier{}
	s := New(l, notifier, nil, logging.Discard(), time.Minute, 24*time.Hour)
	ctx := context.Background()

	tx := pendingTx(t, l, uuid.NewString(), 48*time.Hour)
	if _, err := l.Settle(ctx, tx.ID, ledger.StatusCompleted, ""); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if err := s.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	got, _ := l.Transaction(ctx, tx.ID)
	if got.Status != ledger.StatusCompleted {
		t.Fatalf("settled transaction must not be expired, got %s", got.Status)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notifications, got %+v", notifier.events)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	l := ledger.NewInMemory()
	s := New(l, nil, nil, logging.Discard(), time.Millisecond, 24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
