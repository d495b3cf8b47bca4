package ledger

// SeedBalance is a test helper that sets a user's balance directly when using
// the in-memory store.
func SeedBalance(s Store, userID string, amount int64) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.balances[userID] = amount
	}
}
