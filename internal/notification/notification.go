// Package notification delivers user-facing event notices. The service only
// depends on the Notifier interface; the default implementation writes
// structured log lines and is replaced by a real channel in deployment.
package notification

import (
	"context"
	"log/slog"
)

// Event kinds emitted by the payment pipeline.
const (
	KindDepositExpired = "deposit_expired"
	KindOrderRefunded  = "order_refunded"
)

// Event is a single notice addressed to one user.
type Event struct {
	Kind    string
	UserID  string
	Amount  int64
	Subject string
}

// Notifier delivers events. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// LoggerNotifier writes each event as a structured log line.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier builds a log-backed notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Notify logs the event. It never fails.
func (n *LoggerNotifier) Notify(_ context.Context, ev Event) error {
	n.logger.Info("notification",
		"kind", ev.Kind,
		"user_id", ev.UserID,
		"amount", ev.Amount,
		"subject", ev.Subject,
	)
	return nil
}
