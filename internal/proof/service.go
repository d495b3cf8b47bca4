package proof

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
	"github.com/moosoltadiwa/localpay-connect/internal/metrics"
)

// Payment method tags for manual rails.
const (
	MethodBank          = "bank"
	MethodManualEcocash = "manual-ecocash"
)

// Service couples proof submission and review to the wallet ledger.
type Service struct {
	store   Store
	ledger  ledger.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService builds a proof service. Metrics may be nil.
func NewService(store Store, l ledger.Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, ledger: l, metrics: m, logger: logger}
}

// SubmitInput captures a manual payment claim.
type SubmitInput struct {
	UserID        string
	Amount        int64
	Method        string
	PhoneNumber   string
	ScreenshotURL string
}

// Submission pairs the created proof with its pending transaction.
type Submission struct {
	Proof         Proof
	TransactionID string
	Reference     string
}

// Submit records the monetary intent as a pending deposit and the evidence as
// a pending proof. Nothing is credited until an admin approves.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Submission, error) {
	if in.UserID == "" {
		return Submission{}, fmt.Errorf("user required")
	}
	if in.Amount < 100 {
		return Submission{}, fmt.Errorf("amount must be at least 1.00")
	}
	if in.Method != MethodBank && in.Method != MethodManualEcocash {
		return Submission{}, fmt.Errorf("unsupported manual method %q", in.Method)
	}
	if in.ScreenshotURL == "" {
		return Submission{}, fmt.Errorf("payment screenshot required")
	}

	now := time.Now().UTC()
	tx := ledger.Transaction{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Kind:      ledger.KindDeposit,
		Amount:    in.Amount,
		Method:    in.Method,
		Reference: fmt.Sprintf("MAN-%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		Status:    ledger.StatusPending,
		CreatedAt: now,
	}
	if err := s.ledger.CreateTransaction(ctx, tx); err != nil {
		return Submission{}, fmt.Errorf("create transaction: %w", err)
	}

	p := Proof{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		TransactionID: tx.ID,
		ScreenshotURL: in.ScreenshotURL,
		PhoneNumber:   in.PhoneNumber,
		Status:        StatusPending,
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		// The intent row exists without evidence; fail it so it cannot
		// linger as creditable.
		if _, settleErr := s.ledger.Settle(ctx, tx.ID, ledger.StatusFailed, ""); settleErr != nil {
			s.logger.Error("orphaned proof transaction", "transaction_id", tx.ID, "error", settleErr)
		}
		return Submission{}, fmt.Errorf("create proof: %w", err)
	}

	s.logger.Info("payment proof submitted", "proof_id", p.ID, "transaction_id", tx.ID, "method", in.Method)
	return Submission{Proof: p, TransactionID: tx.ID, Reference: tx.Reference}, nil
}

// Approve marks the proof approved, completes its transaction and credits the
// balance, as one unit.
func (s *Service) Approve(ctx context.Context, proofID, notes string) (Proof, error) {
	p, err := s.store.Decide(ctx, proofID, true, notes)
	if err != nil {
		return Proof{}, err
	}
	s.metrics.SettlementProcessed(metrics.PathProof, ledger.StatusCompleted)
	s.logger.Info("payment proof approved", "proof_id", p.ID, "transaction_id", p.TransactionID)
	return p, nil
}

// Reject marks the proof rejected and fails its transaction. Notes are
// mandatory: the reviewer's reasoning is part of the audit trail.
func (s *Service) Reject(ctx context.Context, proofID, notes string) (Proof, error) {
	if strings.TrimSpace(notes) == "" {
		return Proof{}, ErrNotesRequired
	}
	p, err := s.store.Decide(ctx, proofID, false, notes)
	if err != nil {
		return Proof{}, err
	}
	s.metrics.SettlementProcessed(metrics.PathProof, ledger.StatusFailed)
	s.logger.Info("payment proof rejected", "proof_id", p.ID, "transaction_id", p.TransactionID)
	return p, nil
}

// List returns proofs for the admin queue; empty status means all.
func (s *Service) List(ctx context.Context, status string, limit int) ([]Proof, error) {
	return s.store.ProofsByStatus(ctx, status, limit)
}
