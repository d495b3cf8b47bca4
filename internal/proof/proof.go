// Package proof implements the manual proof-of-payment pipeline: customers
// on rails with no programmatic gateway (bank transfer, manual EcoCash) upload
// evidence, and an admin decision settles the linked transaction.
package proof

import (
	"context"
	"errors"
	"time"
)

// Proof statuses. Distinct from the transaction's own lifecycle: a proof is
// decided once, and the decision drives the transaction terminal state.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	// ErrNotFound indicates the proof does not exist.
	ErrNotFound = errors.New("payment proof not found")

	// ErrAlreadyDecided indicates the proof has been approved or rejected
	// before; decisions are terminal.
	ErrAlreadyDecided = errors.New("payment proof already decided")

	// ErrNotesRequired indicates a rejection without reviewer reasoning.
	ErrNotesRequired = errors.New("admin notes required on rejection")

	// ErrOutOfSync indicates the proof and its transaction disagree (the
	// transaction was settled outside the proof pipeline). Requires manual
	// reconciliation.
	ErrOutOfSync = errors.New("proof and transaction out of sync")
)

// Proof is the human-reviewable evidence for one pending deposit.
type Proof struct {
	ID            string
	UserID        string
	TransactionID string
	ScreenshotURL string
	PhoneNumber   string
	Status        string
	AdminNotes    string
	CreatedAt     time.Time
}

// Store persists proofs and performs the decision triad. Decide must make the
// proof flip, the transaction flip and (on approval) the balance credit
// visible together: all three or none.
type Store interface {
	Create(ctx context.Context, p Proof) error
	Proof(ctx context.Context, id string) (Proof, error)
	ProofsByStatus(ctx context.Context, status string, limit int) ([]Proof, error)
	Decide(ctx context.Context, id string, approve bool, notes string) (Proof, error)
}
