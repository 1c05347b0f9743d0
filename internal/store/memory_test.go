package store

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/model"
)

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		Portfolio: model.Portfolio{
			Cash:  decimal.NewFromInt(9000),
			Asset: decimal.NewFromFloat(0.03333333),
		},
		LimitOrders: []model.LimitOrder{
			{ID: "o1", Side: model.Buy, Status: model.StatusPending},
		},
		Ledger: []model.LedgerEntry{
			{ID: "e1", Turn: 1, Action: model.ActionBuy, Outcome: model.OutcomeSuccess},
		},
		Turn:  1,
		Price: decimal.NewFromInt(30000),
	}
}

func TestMemoryStore_SaveLoad(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Save(ctx, "a", sampleSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, "a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Turn != 1 || !got.Price.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("loaded snapshot mismatch: turn=%d price=%s", got.Turn, got.Price)
	}
	if len(got.LimitOrders) != 1 || len(got.Ledger) != 1 {
		t.Errorf("slices not preserved: %d orders, %d entries", len(got.LimitOrders), len(got.Ledger))
	}
}

func TestMemoryStore_LoadMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Save(ctx, "a", sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting a missing id is a no-op.
	if err := s.Delete(ctx, "a"); err != nil {
		t.Errorf("delete of missing id should not fail: %v", err)
	}
}

func TestMemoryStore_List(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if err := s.Save(ctx, id, sampleSnapshot()); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(ids)
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestMemoryStore_CopiesOnSaveAndLoad(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	snap := sampleSnapshot()
	if err := s.Save(ctx, "a", snap); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy after save must not leak into the store.
	snap.LimitOrders[0].Status = model.StatusCancelled
	got, err := s.Load(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.LimitOrders[0].Status != model.StatusPending {
		t.Error("save must deep-copy slice fields")
	}

	// Mutating a loaded copy must not change what a later load sees.
	got.Ledger[0].Detail = "tampered"
	again, err := s.Load(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if again.Ledger[0].Detail == "tampered" {
		t.Error("load must return an isolated copy")
	}
}
