package pending

import (
	"context"
	"sync"
)

// Ensure MemoryStore implements the port at compile time.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store for tests and local development. It
// does not survive a process restart, so it must never back a real agent.
type MemoryStore struct {
	mu  sync.Mutex
	txn *Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Put(ctx context.Context, txn Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txn = &txn
	return nil
}

func (m *MemoryStore) Get(ctx context.Context) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.txn == nil {
		return nil, nil
	}
	cp := *m.txn
	cp.ProductIDs = append([]string(nil), m.txn.ProductIDs...)
	return &cp, nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txn = nil
	return nil
}
