package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memoryStore struct {
	mu     sync.Mutex
	orders map[string]Order
}

// NewMemoryStore builds an in-memory order store for tests and dev mode.
func NewMemoryStore() Store {
	return &memoryStore{orders: make(map[string]Order)}
}

func (s *memoryStore) Create(_ context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("order %s exists", o.ID)
	}
	s.orders[o.ID] = o
	return nil
}

func (s *memoryStore) Order(_ context.Context, id string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (s *memoryStore) OrdersByUser(_ context.Context, userID string, limit int) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var orders []Order
	for _, o := range s.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *memoryStore) MarkRefunded(_ context.Context, id string) (Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, false, ErrNotFound
	}
	if o.Status == StatusRefunded {
		return o, false, nil
	}
	o.Status = StatusRefunded
	s.orders[id] = o
	return o, true, nil
}
