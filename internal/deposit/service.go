// Package deposit implements gateway-backed wallet funding: payment
// initiation against Paynow, the asynchronous webhook callback, and the
// synchronous client poll. The webhook and the poll race for the same
// conditional settle; whichever wins credits the balance exactly once.
package deposit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
	"github.com/moosoltadiwa/localpay-connect/internal/metrics"
	"github.com/moosoltadiwa/localpay-connect/internal/paynow"
)

// Payment method tags stored on deposit transactions.
const (
	MethodPaynow   = "paynow"
	MethodEcocash  = paynow.MethodEcocash
	MethodOneMoney = paynow.MethodOneMoney
)

var (
	// ErrUserMismatch indicates the claimed user id differs from the
	// authenticated caller. Rejected before any row is written.
	ErrUserMismatch = errors.New("user id does not match authenticated caller")

	// ErrGatewayRejected carries the gateway's own error text; the
	// transaction has already been marked failed when it is returned.
	ErrGatewayRejected = errors.New("payment initiation rejected")
)

// Gateway is the slice of the Paynow client the service depends on.
type Gateway interface {
	InitiateWeb(ctx context.Context, reference, email string, amount int64) (paynow.InitiateResponse, error)
	InitiateMobile(ctx context.Context, reference, email, phone, method string, amount int64) (paynow.InitiateResponse, error)
	Poll(ctx context.Context, pollURL string) (paynow.StatusUpdate, error)
	VerifyCallback(u paynow.StatusUpdate) error
}

// Service coordinates deposit initiation and both settlement paths.
type Service struct {
	store   ledger.Store
	gateway Gateway
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService builds a deposit service. Metrics may be nil.
func NewService(store ledger.Store, gateway Gateway, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, gateway: gateway, metrics: m, logger: logger}
}

// InitiateInput captures a funding request. AuthUserID is the identity from
// the bearer token; UserID is what the client claimed. They must match.
type InitiateInput struct {
	AuthUserID string
	UserID     string
	Email      string
	Method     string
	Phone      string
	Amount     int64
}

// InitiateResult tells the client how to complete the payment: a redirect
// target for web flows or push instructions for mobile money.
type InitiateResult struct {
	TransactionID string
	Reference     string
	RedirectURL   string
	Instructions  string
	PollURL       string
}

func mobileMethod(method string) bool {
	return method == MethodEcocash || method == MethodOneMoney
}

// Initiate validates the request, records a pending deposit and submits it to
// the gateway. On gateway rejection or transport failure the transaction is
// marked failed; the caller may resubmit as a brand-new transaction.
func (s *Service) Initiate(ctx context.Context, in InitiateInput) (InitiateResult, error) {
	if in.UserID != in.AuthUserID {
		return InitiateResult{}, ErrUserMismatch
	}
	if in.Amount < 100 {
		return InitiateResult{}, fmt.Errorf("amount must be at least 1.00")
	}
	if in.Email == "" || in.UserID == "" {
		return InitiateResult{}, fmt.Errorf("user information required")
	}
	switch in.Method {
	case MethodPaynow:
	case MethodEcocash, MethodOneMoney:
		if in.Phone == "" {
			return InitiateResult{}, fmt.Errorf("phone number required for mobile money")
		}
	default:
		return InitiateResult{}, fmt.Errorf("unsupported payment method %q", in.Method)
	}

	reference := NewReference()
	tx := ledger.Transaction{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Kind:      ledger.KindDeposit,
		Amount:    in.Amount,
		Method:    in.Method,
		Reference: reference,
		Status:    ledger.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return InitiateResult{}, fmt.Errorf("create transaction: %w", err)
	}

	var (
		resp paynow.InitiateResponse
		err  error
	)
	if mobileMethod(in.Method) {
		resp, err = s.gateway.InitiateMobile(ctx, reference, in.Email, paynow.NormalizePhone(in.Phone), in.Method, in.Amount)
	} else {
		resp, err = s.gateway.InitiateWeb(ctx, reference, in.Email, in.Amount)
	}
	if err != nil {
		s.failInitiation(ctx, tx.ID)
		return InitiateResult{}, fmt.Errorf("gateway unreachable: %w", err)
	}
	if !resp.Accepted() {
		s.failInitiation(ctx, tx.ID)
		if resp.Error != "" {
			return InitiateResult{}, fmt.Errorf("%w: %s", ErrGatewayRejected, resp.Error)
		}
		return InitiateResult{}, ErrGatewayRejected
	}

	if resp.PollURL != "" {
		if err := s.store.SetPollURL(ctx, tx.ID, resp.PollURL); err != nil {
			s.logger.Error("store poll url", "transaction_id", tx.ID, "error", err)
		}
	}

	s.logger.Info("deposit initiated",
		"transaction_id", tx.ID,
		"reference", reference,
		"method", in.Method,
		"amount", in.Amount,
	)

	return InitiateResult{
		TransactionID: tx.ID,
		Reference:     reference,
		RedirectURL:   resp.BrowserURL,
		Instructions:  resp.Instructions,
		PollURL:       resp.PollURL,
	}, nil
}

func (s *Service) failInitiation(ctx context.Context, txID string) {
	if _, err := s.store.Settle(ctx, txID, ledger.StatusFailed, ""); err != nil {
		s.logger.Error("mark initiation failed", "transaction_id", txID, "error", err)
	}
}

// HandleCallback processes an asynchronous gateway callback. It authenticates
// the payload before touching any row, then runs the shared settle path.
// A duplicate delivery or a lost race is a successful no-op.
func (s *Service) HandleCallback(ctx context.Context, body []byte) error {
	update, err := paynow.ParseCallback(string(body))
	if err != nil {
		s.metrics.CallbackRejected(metrics.ReasonMalformed)
		return err
	}
	if err := s.gateway.VerifyCallback(update); err != nil {
		switch {
		case errors.Is(err, paynow.ErrMissingHash):
			s.metrics.CallbackRejected(metrics.ReasonMissingHash)
		case errors.Is(err, paynow.ErrInvalidHash):
			s.metrics.CallbackRejected(metrics.ReasonInvalidHash)
		}
		s.logger.Warn("callback rejected", "reference", update.Reference, "error", err)
		return err
	}

	tx, err := s.store.TransactionByReference(ctx, CleanReference(update.Reference))
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			s.metrics.CallbackRejected(metrics.ReasonUnknownReference)
		}
		return err
	}
	if tx.Terminal() {
		// The gateway may deliver the same callback more than once.
		return nil
	}

	status := paynow.MapStatus(update.Status)
	if status == ledger.StatusPending {
		s.logger.Info("callback still pending", "reference", tx.Reference, "gateway_status", update.Status)
		return nil
	}
	return s.settle(ctx, tx, status, update.PaynowReference, metrics.PathWebhook)
}

// PollResult is what the poller reports back to the client.
type PollResult struct {
	Status    string
	Completed bool
}

// Poll re-queries the gateway for a pending transaction owned by userID.
// Foreign transactions are reported as not found, never their real status.
func (s *Service) Poll(ctx context.Context, userID, transactionID string) (PollResult, error) {
	tx, err := s.store.Transaction(ctx, transactionID)
	if err != nil {
		return PollResult{}, err
	}
	if tx.UserID != userID {
		return PollResult{}, ledger.ErrNotFound
	}
	if tx.Terminal() {
		return PollResult{Status: tx.Status, Completed: tx.Status == ledger.StatusCompleted}, nil
	}
	if tx.PollURL == "" {
		// Gateway accepted without a poll endpoint; wait for the webhook.
		return PollResult{Status: ledger.StatusPending}, nil
	}

	update, err := s.gateway.Poll(ctx, tx.PollURL)
	if err != nil {
		return PollResult{}, fmt.Errorf("poll gateway: %w", err)
	}

	status := paynow.MapStatus(update.Status)
	if status == ledger.StatusPending {
		return PollResult{Status: ledger.StatusPending}, nil
	}
	if err := s.settle(ctx, tx, status, update.PaynowReference, metrics.PathPoll); err != nil {
		return PollResult{}, err
	}

	// Re-read rather than assume: a concurrent webhook may have settled to a
	// different terminal status before our conditional update ran.
	settled, err := s.store.Transaction(ctx, tx.ID)
	if err != nil {
		return PollResult{}, err
	}
	return PollResult{Status: settled.Status, Completed: settled.Status == ledger.StatusCompleted}, nil
}

// settle is the single settlement sequence shared by the webhook and the
// poller: conditional status flip first, balance credit only if this caller
// won the flip. A partial failure after the flip is surfaced loudly.
func (s *Service) settle(ctx context.Context, tx ledger.Transaction, status, gatewayRef, path string) error {
	won, err := s.store.Settle(ctx, tx.ID, status, gatewayRef)
	if err != nil {
		return fmt.Errorf("settle transaction: %w", err)
	}
	if !won {
		s.logger.Info("settlement already performed elsewhere", "transaction_id", tx.ID, "path", path)
		return nil
	}

	s.metrics.SettlementProcessed(path, status)
	s.logger.Info("transaction settled", "transaction_id", tx.ID, "status", status, "path", path)

	if status != ledger.StatusCompleted {
		return nil
	}
	if _, err := s.store.AdjustBalance(ctx, tx.UserID, tx.Amount); err != nil {
		// The transaction is completed but the credit did not land. This
		// needs manual reconciliation, not a silent retry.
		s.logger.Error("settled without credit, reconciliation required",
			"transaction_id", tx.ID, "user_id", tx.UserID, "amount", tx.Amount, "error", err)
		return fmt.Errorf("credit balance for %s: %w", tx.ID, err)
	}
	return nil
}

// NewReference builds a unique human-legible correlation reference.
func NewReference() string {
	return fmt.Sprintf("DEP-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// CleanReference strips a legacy poll-URL suffix from a gateway-echoed
// reference. Older records stored "REF|pollurl" in one field.
func CleanReference(reference string) string {
	ref, _, _ := strings.Cut(reference, "|")
	return ref
}
