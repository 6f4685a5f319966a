// Package watch tracks price history for watched items and outfits and
// decides when to alert. The monitor owns no timer: an external
// scheduler calls CheckAll on its own cadence.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Observation is the current best cost for a watch target.
type Observation struct {
	ShopID   string
	Cost     decimal.Decimal
	Currency string
	InStock  bool
	Links    []string
}

// Checker resolves the current best cost for a target. Implemented by
// the service layer.
type Checker interface {
	BestPrice(ctx context.Context, target models.WatchTarget) (*Observation, error)
}

// Store persists watch entries and their append-only snapshot history.
// The monitor assumes single-record atomicity, nothing more.
type Store interface {
	GetEntry(ctx context.Context, id string) (*models.WatchEntry, error)
	ListEntries(ctx context.Context) ([]*models.WatchEntry, error)
	SaveEntry(ctx context.Context, entry *models.WatchEntry) error
	AppendSnapshot(ctx context.Context, snap models.PriceSnapshot) error
}

// Alert is one notification request.
type Alert struct {
	EntryID     string          `json:"watch_entry_id"`
	CurrentCost decimal.Decimal `json:"current_cost"`
	Target      decimal.Decimal `json:"target"`
	Currency    string          `json:"currency"`
	ShopLinks   []string        `json:"shop_links"`
	Restock     bool            `json:"restock"`
}

// Notifier dispatches alerts. Failures are logged by the monitor and
// retried on the caller's schedule, never by the monitor itself.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// CheckResult reports one check's outcome.
type CheckResult struct {
	Snapshot     models.PriceSnapshot `json:"new_snapshot"`
	AlertEmitted bool                 `json:"alert_emitted"`
}

// Monitor runs the per-entry alert state machine: ARMED until a
// qualifying check fires the alert, FIRED until the cost rises back
// above target, then ARMED again. At most one notification per
// crossing.
type Monitor struct {
	checker      Checker
	store        Store
	notifier     Notifier
	logger       *slog.Logger
	checkTimeout time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewMonitor creates a monitor.
func NewMonitor(checker Checker, store Store, notifier Notifier, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		checker:      checker,
		store:        store,
		notifier:     notifier,
		logger:       logger,
		checkTimeout: 2 * time.Minute,
		inFlight:     make(map[string]bool),
	}
}

// Check re-prices one entry, appends a snapshot, and fires at most one
// alert. Concurrent checks of the same entry are rejected so snapshot
// history stays strictly ordered.
func (m *Monitor) Check(ctx context.Context, entryID string) (*CheckResult, error) {
	if !m.acquire(entryID) {
		return nil, fmt.Errorf("check already in flight for entry %s", entryID)
	}
	defer m.release(entryID)

	entry, err := m.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("load watch entry %s: %w", entryID, err)
	}
	return m.check(ctx, entry)
}

// CheckAll checks every entry. Entries run concurrently; a failing or
// timed-out check never affects the others.
func (m *Monitor) CheckAll(ctx context.Context, maxConcurrent int) error {
	entries, err := m.store.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("list watch entries: %w", err)
	}
	m.logger.Info("checking watch entries", "count", len(entries))

	g := new(errgroup.Group)
	if maxConcurrent > 0 {
		g.SetLimit(maxConcurrent)
	}
	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			if !m.acquire(entry.ID) {
				m.logger.Warn("skipping entry, check in flight", "entry", entry.ID)
				return nil
			}
			defer m.release(entry.ID)

			if _, err := m.check(ctx, entry); err != nil {
				m.logger.Warn("watch check failed", "entry", entry.ID, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *Monitor) check(ctx context.Context, entry *models.WatchEntry) (*CheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, m.checkTimeout)
	defer cancel()

	obs, err := m.checker.BestPrice(ctx, entry.Target)
	if err != nil {
		return nil, fmt.Errorf("price check for entry %s: %w", entry.ID, err)
	}

	snap := models.PriceSnapshot{
		EntryID:    entry.ID,
		ShopID:     obs.ShopID,
		LandedCost: obs.Cost,
		Currency:   obs.Currency,
		InStock:    obs.InStock,
		ObservedAt: time.Now().UTC(),
	}
	if err := m.store.AppendSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("append snapshot for entry %s: %w", entry.ID, err)
	}

	restocked := obs.InStock && !entry.LastInStock
	emitted := false

	switch {
	case !entry.AlertFired && m.qualifies(entry, obs, restocked):
		entry.AlertFired = true
		emitted = true
		alert := Alert{
			EntryID:     entry.ID,
			CurrentCost: obs.Cost,
			Target:      entry.TargetPrice,
			Currency:    obs.Currency,
			ShopLinks:   obs.Links,
			Restock:     restocked && obs.Cost.GreaterThan(entry.TargetPrice),
		}
		if err := m.notifier.Notify(ctx, alert); err != nil {
			// Dispatch failure is the dispatcher's problem to retry; the
			// latch stays set so the same crossing never fires twice.
			m.logger.Warn("notification dispatch failed", "entry", entry.ID, "error", err)
		}

	case entry.AlertFired && obs.Cost.GreaterThan(entry.TargetPrice):
		// Price rose back above target: re-arm for the next drop.
		entry.AlertFired = false
	}

	entry.LastBestCost = obs.Cost
	entry.LastInStock = obs.InStock
	if entry.LowestSeen.IsZero() || obs.Cost.LessThan(entry.LowestSeen) {
		entry.LowestSeen = obs.Cost
	}
	if err := m.store.SaveEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("save watch entry %s: %w", entry.ID, err)
	}

	return &CheckResult{Snapshot: snap, AlertEmitted: emitted}, nil
}

func (m *Monitor) qualifies(entry *models.WatchEntry, obs *Observation, restocked bool) bool {
	if entry.NotifyOnDrop && !entry.TargetPrice.IsZero() && obs.Cost.LessThanOrEqual(entry.TargetPrice) {
		return true
	}
	if entry.NotifyOnRestock && restocked {
		return true
	}
	return false
}

func (m *Monitor) acquire(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight[id] {
		return false
	}
	m.inFlight[id] = true
	return true
}

func (m *Monitor) release(id string) {
	m.mu.Lock()
	delete(m.inFlight, id)
	m.mu.Unlock()
}
