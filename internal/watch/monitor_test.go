package watch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/store"
	"github.com/fyndra/outfitscout/internal/watch"
)

// fakeChecker returns whatever observation the test sets next.
type fakeChecker struct {
	mu  sync.Mutex
	obs watch.Observation
	err error
}

func (f *fakeChecker) set(cost int64, inStock bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs = watch.Observation{
		ShopID:   "alfa",
		Cost:     decimal.NewFromInt(cost),
		Currency: "SEK",
		InStock:  inStock,
		Links:    []string{"https://alfa.example/p/1"},
	}
}

func (f *fakeChecker) BestPrice(_ context.Context, _ models.WatchTarget) (*watch.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	obs := f.obs
	return &obs, nil
}

type countingNotifier struct {
	mu     sync.Mutex
	alerts []watch.Alert
	err    error
}

func (n *countingNotifier) Notify(_ context.Context, alert watch.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return n.err
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

func newEntry(t *testing.T, st *store.MemoryStore, entry models.WatchEntry) {
	t.Helper()
	if err := st.CreateEntry(context.Background(), &entry); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
}

func dropEntry(id string, target int64) models.WatchEntry {
	return models.WatchEntry{
		ID:           id,
		Target:       models.WatchTarget{Item: &models.CategorySlot{Category: "hoodie"}},
		TargetPrice:  decimal.NewFromInt(target),
		NotifyOnDrop: true,
		LastInStock:  true,
	}
}

// One alert per crossing: the latch holds through further drops and
// re-arms only after the cost rises back above target.
func TestMonitorDropLatch(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	checker := &fakeChecker{}
	notifier := &countingNotifier{}
	m := watch.NewMonitor(checker, st, notifier, nil)

	newEntry(t, st, dropEntry("w1", 500))

	steps := []struct {
		cost       int64
		wantAlert  bool
		wantAlerts int
	}{
		{550, false, 0}, // above target, armed
		{480, true, 1},  // crossing fires
		{470, false, 1}, // still below, latched
		{520, false, 1}, // back above, re-arms silently
		{450, true, 2},  // second crossing fires again
	}
	for i, step := range steps {
		checker.set(step.cost, true)
		res, err := m.Check(ctx, "w1")
		if err != nil {
			t.Fatalf("step %d: Check: %v", i, err)
		}
		if res.AlertEmitted != step.wantAlert {
			t.Errorf("step %d (cost %d): emitted = %v, want %v", i, step.cost, res.AlertEmitted, step.wantAlert)
		}
		if notifier.count() != step.wantAlerts {
			t.Errorf("step %d: total alerts = %d, want %d", i, notifier.count(), step.wantAlerts)
		}
	}

	entry, err := st.GetEntry(ctx, "w1")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if !entry.AlertFired {
		t.Error("latch must be set after the last crossing")
	}
	if !entry.LowestSeen.Equal(decimal.NewFromInt(450)) {
		t.Errorf("LowestSeen = %s, want 450", entry.LowestSeen)
	}
	if !entry.LastBestCost.Equal(decimal.NewFromInt(450)) {
		t.Errorf("LastBestCost = %s, want 450", entry.LastBestCost)
	}

	// Every check appended exactly one snapshot, newest first.
	history, err := st.History(ctx, "w1", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != len(steps) {
		t.Errorf("history length = %d, want %d", len(history), len(steps))
	}
}

func TestMonitorRestockAlert(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	checker := &fakeChecker{}
	notifier := &countingNotifier{}
	m := watch.NewMonitor(checker, st, notifier, nil)

	newEntry(t, st, models.WatchEntry{
		ID:              "w2",
		Target:          models.WatchTarget{Item: &models.CategorySlot{Category: "shoes"}},
		NotifyOnRestock: true,
	})

	checker.set(900, false)
	res, err := m.Check(ctx, "w2")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.AlertEmitted {
		t.Error("out of stock must not alert")
	}

	checker.set(900, true)
	res, err = m.Check(ctx, "w2")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.AlertEmitted {
		t.Fatal("restock must alert")
	}
	if notifier.count() != 1 || !notifier.alerts[0].Restock {
		t.Errorf("alerts = %+v, want one restock alert", notifier.alerts)
	}
}

// A failed dispatch keeps the latch set: the crossing never fires twice.
func TestMonitorNotifyFailureKeepsLatch(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	checker := &fakeChecker{}
	notifier := &countingNotifier{err: errors.New("smtp down")}
	m := watch.NewMonitor(checker, st, notifier, nil)

	newEntry(t, st, dropEntry("w3", 500))

	checker.set(480, true)
	res, err := m.Check(ctx, "w3")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.AlertEmitted {
		t.Fatal("crossing must emit despite dispatch failure")
	}

	checker.set(470, true)
	res, err = m.Check(ctx, "w3")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.AlertEmitted {
		t.Error("latched entry must not emit again")
	}
}

func TestMonitorCheckerErrorAppendsNothing(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	checker := &fakeChecker{err: errors.New("all shops unavailable")}
	m := watch.NewMonitor(checker, st, &countingNotifier{}, nil)

	newEntry(t, st, dropEntry("w4", 500))

	if _, err := m.Check(ctx, "w4"); err == nil {
		t.Fatal("Check must propagate the checker error")
	}
	history, err := st.History(ctx, "w4", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history length = %d, want 0 after a failed check", len(history))
	}
}

func TestMonitorCheckAllSurvivesFailures(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	checker := &fakeChecker{}
	notifier := &countingNotifier{}
	m := watch.NewMonitor(checker, st, notifier, nil)

	newEntry(t, st, dropEntry("w5", 500))
	newEntry(t, st, dropEntry("w6", 300))

	checker.set(400, true)
	if err := m.CheckAll(ctx, 2); err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	// 400 crosses w5's target of 500 but not w6's 300.
	if notifier.count() != 1 {
		t.Errorf("alerts = %d, want 1", notifier.count())
	}
}

func TestMonitorUnknownEntry(t *testing.T) {
	m := watch.NewMonitor(&fakeChecker{}, store.NewMemory(), &countingNotifier{}, nil)
	if _, err := m.Check(context.Background(), "missing"); err == nil {
		t.Fatal("Check of an unknown entry must fail")
	}
}
