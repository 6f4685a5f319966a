// Package service wires the shop registry, cost engine, aggregator and
// optimizer into the operations exposed to the CLI, MCP server and
// watch monitor.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fyndra/outfitscout/internal/aggregate"
	"github.com/fyndra/outfitscout/internal/cost"
	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/outfit"
	"github.com/fyndra/outfitscout/internal/shop"
)

// Service executes searches and assembly builds over the configured
// shops.
type Service struct {
	registry  *shop.Registry
	engine    *cost.Engine
	optimizer *outfit.Optimizer
	logger    *slog.Logger
}

// New creates a service.
func New(registry *shop.Registry, engine *cost.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:  registry,
		engine:    engine,
		optimizer: outfit.New(),
		logger:    logger,
	}
}

// SearchOutcome is a ranked cross-shop result. Listings whose currency
// has no exchange rate cannot join the cost ranking but are still
// carried for display.
type SearchOutcome struct {
	Ranked   []aggregate.Candidate `json:"ranked"`
	Unpriced []models.Listing      `json:"unpriced,omitempty"`
	Errors   map[string]error      `json:"-"`
}

// Search fans the query out to every shop and returns candidates ranked
// by landed total. Per-shop failures are carried in Errors; partial
// results always beat no results.
func (s *Service) Search(ctx context.Context, q shop.Query) (*SearchOutcome, error) {
	res, err := s.registry.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	outcome := &SearchOutcome{Errors: res.Errors}
	var candidates []aggregate.Candidate
	for _, l := range res.Listings {
		h, err := s.registry.Get(l.ShopID)
		if err != nil {
			continue
		}
		breakdown, err := s.engine.Compute(l, h.Config)
		if err != nil {
			var unknown *shop.UnknownCurrencyError
			if errors.As(err, &unknown) {
				s.logger.Warn("listing excluded from cost ranking", "shop", l.ShopID, "currency", l.Currency)
				outcome.Unpriced = append(outcome.Unpriced, l)
				continue
			}
			return nil, fmt.Errorf("compute cost for %s/%s: %w", l.ShopID, l.ExternalID, err)
		}
		candidates = append(candidates, aggregate.Candidate{Listing: l, Cost: breakdown, Shop: h.Config})
	}

	outcome.Ranked = aggregate.Rank(candidates)
	if q.Limit > 0 && len(outcome.Ranked) > q.Limit {
		outcome.Ranked = outcome.Ranked[:q.Limit]
	}
	return outcome, nil
}

// BuildAssemblies fills every slot of the request with ranked
// candidates and runs the optimizer. Per-shop errors from the slot
// searches are merged; infeasibility propagates as
// *shop.InfeasibleAssemblyError.
func (s *Service) BuildAssemblies(ctx context.Context, req models.OutfitRequest) (*outfit.Assemblies, map[string]error, error) {
	if req.Currency == "" {
		req.Currency = s.engine.Currency()
	}

	candidates := make(map[string][]aggregate.Candidate, len(req.Slots))
	shopErrs := make(map[string]error)

	for _, slot := range req.Slots {
		q := QueryForSlot(slot)
		// The brand hint stays out of the shop-side filter: the exact
		// assembly falls back to non-brand candidates and the saver
		// ignores hints entirely, so both need the full category pool.
		searchQ := q
		searchQ.Brand = ""
		outcome, err := s.Search(ctx, searchQ)
		if err != nil {
			return nil, nil, fmt.Errorf("search category %s: %w", slot.Category, err)
		}
		for id, e := range outcome.Errors {
			shopErrs[id] = e
		}
		// Slot lists go to the optimizer best-first: relevance decides
		// the order, price breaks ties through the underlying ranking.
		candidates[slot.Category] = aggregate.ByRelevance(outcome.Ranked, q)
	}

	assemblies, err := s.optimizer.Build(req, candidates)
	if err != nil {
		return nil, shopErrs, err
	}
	return assemblies, shopErrs, nil
}

// QueryForSlot derives the query for one outfit slot: brand first when
// hinted, then the category. The Brand field weights relevance ordering
// and the exact pick; BuildAssemblies strips it before searching.
func QueryForSlot(slot models.CategorySlot) shop.Query {
	var parts []string
	if slot.Brand != "" {
		parts = append(parts, slot.Brand)
	}
	parts = append(parts, slot.Category)
	return shop.Query{
		Text:      strings.Join(parts, " "),
		Category:  slot.Category,
		Brand:     slot.Brand,
		Size:      slot.Size,
		StyleTags: slot.StyleTags,
	}
}
