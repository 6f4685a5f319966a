package shop

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fyndra/outfitscout/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Handle pairs one shop's immutable config with its adapter and the
// shop's token bucket. The limiter is the only per-shop mutable state
// and is safe for concurrent use.
type Handle struct {
	Config  *models.ShopConfig
	Adapter Adapter
	limiter *rate.Limiter
}

// SearchResult carries listings from the shops that answered plus an
// error per shop that did not. A failing shop never aborts the fan-out.
type SearchResult struct {
	Listings []models.Listing
	Errors   map[string]error // shop id -> failure
}

// Registry holds the configured shops and dispatches queries to all of
// them concurrently.
type Registry struct {
	mu            sync.RWMutex
	handles       map[string]*Handle
	maxConcurrent int
	callTimeout   time.Duration
	logger        *slog.Logger
}

// NewRegistry creates an empty registry. maxConcurrent bounds the
// fan-out; callTimeout bounds each individual shop call.
func NewRegistry(maxConcurrent int, callTimeout time.Duration, logger *slog.Logger) *Registry {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handles:       make(map[string]*Handle),
		maxConcurrent: maxConcurrent,
		callTimeout:   callTimeout,
		logger:        logger,
	}
}

// Register adds a shop. The token bucket is sized from the config's
// requests-per-minute with a small burst.
func (r *Registry) Register(cfg *models.ShopConfig, adapter Adapter) {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[cfg.ID] = &Handle{
		Config:  cfg,
		Adapter: adapter,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
	}
}

// Get returns the handle for one shop.
func (r *Registry) Get(shopID string) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[shopID]
	if !ok {
		return nil, fmt.Errorf("shop %q not registered", shopID)
	}
	return h, nil
}

// Shops returns all configured shops, sorted by id for determinism.
func (r *Registry) Shops() []*models.ShopConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	configs := make([]*models.ShopConfig, 0, len(r.handles))
	for _, h := range r.handles {
		configs = append(configs, h.Config)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })
	return configs
}

// Search fans the query out to every shop, normalizing records as they
// arrive. Malformed records are skipped and logged; a failing shop lands
// in the error map while the others still contribute listings.
func (r *Registry) Search(ctx context.Context, q Query) (*SearchResult, error) {
	r.mu.RLock()
	handles := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	r.mu.RUnlock()
	sort.Slice(handles, func(i, j int) bool { return handles[i].Config.ID < handles[j].Config.ID })

	result := &SearchResult{Errors: make(map[string]error)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)

	for _, h := range handles {
		h := h
		g.Go(func() error {
			listings, err := r.searchShop(gctx, h, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[h.Config.ID] = err
				return nil // partial-result policy: never abort the group
			}
			result.Listings = append(result.Listings, listings...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ReportProgress(ctx, fmt.Sprintf("%d listings from %d shops (%d failed)",
		len(result.Listings), len(handles), len(result.Errors)))
	return result, nil
}

// SearchShop queries a single shop through its token bucket.
func (r *Registry) SearchShop(ctx context.Context, shopID string, q Query) ([]models.Listing, error) {
	h, err := r.Get(shopID)
	if err != nil {
		return nil, err
	}
	return r.searchShop(ctx, h, q)
}

func (r *Registry) searchShop(ctx context.Context, h *Handle, q Query) ([]models.Listing, error) {
	if q.NoWait {
		if !h.limiter.Allow() {
			return nil, &RateLimitedError{ShopID: h.Config.ID}
		}
	} else if err := h.limiter.Wait(ctx); err != nil {
		return nil, &ShopUnavailableError{ShopID: h.Config.ID, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	records, err := h.Adapter.Search(callCtx, q)
	if err != nil {
		return nil, &ShopUnavailableError{ShopID: h.Config.ID, Err: err}
	}

	listings := make([]models.Listing, 0, len(records))
	for _, rec := range records {
		listing, err := Normalize(rec, h.Config.Kind, h.Config)
		if err != nil {
			r.logger.Warn("skipping malformed record", "shop", h.Config.ID, "error", err)
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// CheckAvailability fetches one item's current price and stock state.
func (r *Registry) CheckAvailability(ctx context.Context, shopID, externalID string) (*models.Listing, error) {
	h, err := r.Get(shopID)
	if err != nil {
		return nil, err
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, &ShopUnavailableError{ShopID: shopID, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	rec, err := h.Adapter.Fetch(callCtx, externalID)
	if err != nil {
		return nil, &ShopUnavailableError{ShopID: shopID, Err: err}
	}
	if rec == nil {
		return nil, nil
	}
	listing, err := Normalize(*rec, h.Config.Kind, h.Config)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}
