package store

import (
	"sync"

	"QuantumTrader/internal/model"
)

// MemoryStore is an in-memory Store, used by tests that don't need
// durability.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]model.UserRecord
	holdings map[string][]model.Holding
	txs      map[string][]model.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]model.UserRecord),
		holdings: make(map[string][]model.Holding),
		txs:      make(map[string][]model.Transaction),
	}
}

func (s *MemoryStore) LoadUsers() (map[string]model.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]model.UserRecord, len(s.users))
	for name, rec := range s.users {
		out[name] = rec
	}
	return out, nil
}

func (s *MemoryStore) SaveUsers(users map[string]model.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]model.UserRecord, len(users))
	for name, rec := range users {
		s.users[name] = rec
	}
	return nil
}

func (s *MemoryStore) LoadHoldings(username string) ([]model.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.Holding(nil), s.holdings[username]...), nil
}

func (s *MemoryStore) SaveHoldings(username string, holdings []model.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.holdings[username] = append([]model.Holding(nil), holdings...)
	return nil
}

func (s *MemoryStore) AppendTransaction(username string, tx model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs[username] = append(s.txs[username], tx)
	return nil
}

func (s *MemoryStore) LoadTransactions(username string) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.Transaction(nil), s.txs[username]...), nil
}

func (s *MemoryStore) Close() error { return nil }
