// Package sweeper expires deposits that never received a gateway verdict.
// Without it an abandoned checkout stays pending forever and remains a
// creditable target for a late or forged callback.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
	"github.com/moosoltadiwa/localpay-connect/internal/metrics"
	"github.com/moosoltadiwa/localpay-connect/internal/notification"
)

// Sweeper periodically fails stale pending transactions.
type Sweeper struct {
	store    ledger.Store
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	interval time.Duration
	maxAge   time.Duration
}

// New builds a sweeper. Notifier and metrics may be nil.
func New(store ledger.Store, n notification.Notifier, m *metrics.Metrics, logger *slog.Logger, interval, maxAge time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &Sweeper{store: store, notifier: n, metrics: m, logger: logger, interval: interval, maxAge: maxAge}
}

// Run sweeps on a ticker until the context is cancelled. Call it from its own
// goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

// Sweep fails every pending transaction older than maxAge and notifies the
// owners. Expiry goes through the same conditional settle as every other
// terminal transition, so a sweep racing a webhook never double-settles.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.maxAge)
	expired, err := s.store.FailStalePending(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	for _, tx := range expired {
		s.metrics.SettlementProcessed(metrics.PathSweeper, ledger.StatusFailed)
		if s.notifier != nil {
			_ = s.notifier.Notify(ctx, notification.Event{
				Kind:    notification.KindDepositExpired,
				UserID:  tx.UserID,
				Amount:  tx.Amount,
				Subject: tx.Reference,
			})
		}
	}

	s.logger.Info("expired stale pending transactions", "count", len(expired), "cutoff", cutoff)
	return nil
}
