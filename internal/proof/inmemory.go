package proof

import (
	"context"
	"fmt"
	"sync"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
)

type memoryStore struct {
	mu     sync.Mutex
	proofs map[string]Proof
	ledger ledger.Store
}

// NewMemoryStore builds an in-memory proof store over the given ledger. The
// mutex makes a decision and its ledger effects visible together, mirroring
// the Postgres store's transactional triad.
func NewMemoryStore(l ledger.Store) Store {
	return &memoryStore{proofs: make(map[string]Proof), ledger: l}
}

func (s *memoryStore) Create(_ context.Context, p Proof) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.proofs[p.ID]; exists {
		return fmt.Errorf("proof %s exists", p.ID)
	}
	s.proofs[p.ID] = p
	return nil
}

func (s *memoryStore) Proof(_ context.Context, id string) (Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proofs[id]
	if !ok {
		return Proof{}, ErrNotFound
	}
	return p, nil
}

func (s *memoryStore) ProofsByStatus(_ context.Context, status string, limit int) ([]Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var proofs []Proof
	for _, p := range s.proofs {
		if status == "" || p.Status == status {
			proofs = append(proofs, p)
		}
		if len(proofs) == limit {
			break
		}
	}
	return proofs, nil
}

func (s *memoryStore) Decide(ctx context.Context, id string, approve bool, notes string) (Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proofs[id]
	if !ok {
		return Proof{}, ErrNotFound
	}
	if p.Status != StatusPending {
		return Proof{}, ErrAlreadyDecided
	}

	txStatus := ledger.StatusFailed
	newStatus := StatusRejected
	if approve {
		txStatus = ledger.StatusCompleted
		newStatus = StatusApproved
	}

	won, err := s.ledger.Settle(ctx, p.TransactionID, txStatus, "")
	if err != nil {
		return Proof{}, err
	}
	if !won {
		return Proof{}, ErrOutOfSync
	}

	if approve {
		tx, err := s.ledger.Transaction(ctx, p.TransactionID)
		if err != nil {
			return Proof{}, err
		}
		if _, err := s.ledger.AdjustBalance(ctx, tx.UserID, tx.Amount); err != nil {
			return Proof{}, err
		}
	}

	p.Status = newStatus
	p.AdminNotes = notes
	s.proofs[id] = p
	return p, nil
}
