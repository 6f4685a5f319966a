package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fyndra/outfitscout/internal/models"
)

func TestMemoryStoreEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	entry := models.WatchEntry{ID: "w1", TargetPrice: decimal.NewFromInt(500)}
	if err := s.CreateEntry(ctx, &entry); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if err := s.CreateEntry(ctx, &entry); err == nil {
		t.Fatal("duplicate CreateEntry must fail")
	}

	got, err := s.GetEntry(ctx, "w1")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	got.AlertFired = true
	if err := s.SaveEntry(ctx, got); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	// GetEntry hands out copies, not aliases into the store.
	fresh, _ := s.GetEntry(ctx, "w1")
	fresh.TargetPrice = decimal.NewFromInt(1)
	check, _ := s.GetEntry(ctx, "w1")
	if !check.TargetPrice.Equal(decimal.NewFromInt(500)) {
		t.Error("mutating a returned entry must not change the store")
	}
	if !check.AlertFired {
		t.Error("SaveEntry changes must persist")
	}

	if err := s.DeleteEntry(ctx, "w1"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if _, err := s.GetEntry(ctx, "w1"); err == nil {
		t.Fatal("GetEntry after delete must fail")
	}
}

func TestMemoryStoreListSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	for _, id := range []string{"w3", "w1", "w2"} {
		if err := s.CreateEntry(ctx, &models.WatchEntry{ID: id}); err != nil {
			t.Fatalf("CreateEntry %s: %v", id, err)
		}
	}
	entries, err := s.ListEntries(ctx)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	for i, want := range []string{"w1", "w2", "w3"} {
		if entries[i].ID != want {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].ID, want)
		}
	}
}

func TestMemoryStoreHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		snap := models.PriceSnapshot{
			EntryID:    "w1",
			LandedCost: decimal.NewFromInt(int64(500 - i*10)),
			Currency:   "SEK",
			ObservedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.AppendSnapshot(ctx, snap); err != nil {
			t.Fatalf("AppendSnapshot: %v", err)
		}
	}

	history, err := s.History(ctx, "w1", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history = %d, want 3", len(history))
	}
	if !history[0].ObservedAt.After(history[2].ObservedAt) {
		t.Error("history must be newest first")
	}

	limited, err := s.History(ctx, "w1", 2)
	if err != nil {
		t.Fatalf("History limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited history = %d, want 2", len(limited))
	}
	if history, _ := s.History(ctx, "unknown", 0); len(history) != 0 {
		t.Errorf("unknown entry history = %d, want 0", len(history))
	}
}
