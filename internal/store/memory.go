package store

import (
	"context"
	"sync"

	"github.com/coinsim/trade-engine/internal/model"
)

// MemoryStore implements SessionStore with an in-memory map. Used for
// testing and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]model.Snapshot
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]model.Snapshot),
	}
}

func (s *MemoryStore) Save(_ context.Context, id string, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[id] = copySnapshot(snap)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return model.Snapshot{}, ErrNotFound
	}
	return copySnapshot(snap), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	return ids, nil
}

// copySnapshot clones slice fields so callers cannot mutate stored state.
func copySnapshot(snap model.Snapshot) model.Snapshot {
	out := snap
	out.LimitOrders = make([]model.LimitOrder, len(snap.LimitOrders))
	copy(out.LimitOrders, snap.LimitOrders)
	out.Ledger = make([]model.LedgerEntry, len(snap.Ledger))
	copy(out.Ledger, snap.Ledger)
	return out
}
