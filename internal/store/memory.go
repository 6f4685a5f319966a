package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fyndra/outfitscout/internal/models"
)

// MemoryStore keeps watch state in process memory. Used when no
// database is configured, and by tests.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]models.WatchEntry
	snapshots map[string][]models.PriceSnapshot
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]models.WatchEntry),
		snapshots: make(map[string][]models.PriceSnapshot),
	}
}

func (s *MemoryStore) CreateEntry(_ context.Context, entry *models.WatchEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.entries[entry.ID]; dup {
		return fmt.Errorf("watch entry %s already exists", entry.ID)
	}
	s.entries[entry.ID] = *entry
	return nil
}

func (s *MemoryStore) GetEntry(_ context.Context, id string) (*models.WatchEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("watch entry %s not found", id)
	}
	return &entry, nil
}

func (s *MemoryStore) ListEntries(_ context.Context) ([]*models.WatchEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.WatchEntry, 0, len(s.entries))
	for id := range s.entries {
		entry := s.entries[id]
		out = append(out, &entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SaveEntry(_ context.Context, entry *models.WatchEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	return nil
}

func (s *MemoryStore) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	delete(s.snapshots, id)
	return nil
}

func (s *MemoryStore) AppendSnapshot(_ context.Context, snap models.PriceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.EntryID] = append(s.snapshots[snap.EntryID], snap)
	return nil
}

func (s *MemoryStore) History(_ context.Context, entryID string, limit int) ([]models.PriceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snaps := s.snapshots[entryID]
	out := make([]models.PriceSnapshot, len(snaps))
	copy(out, snaps)
	// newest first, matching the database store
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.After(out[j].ObservedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
