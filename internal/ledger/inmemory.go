package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type inMemoryStore struct {
	mu           sync.RWMutex
	balances     map[string]int64
	transactions map[string]Transaction
	byReference  map[string]string
}

// NewInMemory creates a concurrency-safe in-memory ledger store. It backs the
// unit tests and the dev-mode server when no database is configured.
func NewInMemory() Store {
	return &inMemoryStore{
		balances:     make(map[string]int64),
		transactions: make(map[string]Transaction),
		byReference:  make(map[string]string),
	}
}

func (s *inMemoryStore) CreateTransaction(_ context.Context, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[tx.ID]; exists {
		return fmt.Errorf("transaction %s exists", tx.ID)
	}
	if _, exists := s.byReference[tx.Reference]; exists {
		return fmt.Errorf("reference %s exists", tx.Reference)
	}
	s.transactions[tx.ID] = tx
	s.byReference[tx.Reference] = tx.ID
	return nil
}

func (s *inMemoryStore) Transaction(_ context.Context, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (s *inMemoryStore) TransactionByReference(_ context.Context, reference string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byReference[reference]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return s.transactions[id], nil
}

func (s *inMemoryStore) TransactionsByUser(_ context.Context, userID string, limit int) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	var txs []Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			txs = append(txs, tx)
		}
	}
	for i := 0; i < len(txs); i++ {
		for j := i + 1; j < len(txs); j++ {
			if txs[j].CreatedAt.After(txs[i].CreatedAt) {
				txs[i], txs[j] = txs[j], txs[i]
			}
		}
	}
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (s *inMemoryStore) SetPollURL(_ context.Context, id, pollURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return ErrNotFound
	}
	tx.PollURL = pollURL
	s.transactions[id] = tx
	return nil
}

func (s *inMemoryStore) Settle(_ context.Context, id, status, gatewayRef string) (bool, error) {
	if status != StatusCompleted && status != StatusFailed {
		return false, fmt.Errorf("settle to non-terminal status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return false, ErrNotFound
	}
	if tx.Status != StatusPending {
		return false, nil
	}
	tx.Status = status
	if gatewayRef != "" {
		tx.GatewayRef = gatewayRef
	}
	s.transactions[id] = tx
	return true, nil
}

func (s *inMemoryStore) AdjustBalance(_ context.Context, userID string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance := s.balances[userID]
	if balance+delta < 0 {
		return 0, ErrInsufficientFunds
	}
	balance += delta
	s.balances[userID] = balance
	return balance, nil
}

func (s *inMemoryStore) Balance(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[userID], nil
}

func (s *inMemoryStore) FailStalePending(_ context.Context, cutoff time.Time) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var failed []Transaction
	for id, tx := range s.transactions {
		if tx.Status == StatusPending && tx.CreatedAt.Before(cutoff) {
			tx.Status = StatusFailed
			s.transactions[id] = tx
			failed = append(failed, tx)
		}
	}
	return failed, nil
}
