package service

import (
	"context"
	"fmt"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/watch"
)

// BestPrice implements watch.Checker: the current best observable cost
// for a watch target. Single items re-run the aggregator; outfits
// re-run the optimizer's best-within-budget assembly.
func (s *Service) BestPrice(ctx context.Context, target models.WatchTarget) (*watch.Observation, error) {
	switch {
	case target.Outfit != nil:
		assemblies, _, err := s.BuildAssemblies(ctx, *target.Outfit)
		if err != nil {
			return nil, err
		}
		best := assemblies.BestInBudget
		obs := &watch.Observation{
			Cost:     best.Total,
			Currency: best.Currency,
			InStock:  true,
		}
		for _, slot := range target.Outfit.Slots {
			pick := best.Picks[slot.Category]
			obs.Links = append(obs.Links, pick.Listing.URL)
		}
		return obs, nil

	case target.Item != nil:
		q := QueryForSlot(*target.Item)
		if target.Query != "" {
			q.Text = target.Query
		}
		outcome, err := s.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(outcome.Ranked) == 0 {
			return nil, fmt.Errorf("no priced candidates for %q", q.Text)
		}
		best := outcome.Ranked[0]
		return &watch.Observation{
			ShopID:   best.Shop.ID,
			Cost:     best.Cost.LandedTotal,
			Currency: best.Cost.Currency,
			InStock:  best.Listing.InStock,
			Links:    []string{best.Listing.URL},
		}, nil

	default:
		return nil, fmt.Errorf("watch target has neither item nor outfit")
	}
}
