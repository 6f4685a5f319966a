package custom

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fyndra/outfitscout/internal/adapters/scrape"
	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
)

func init() {
	Register("scrape_headless_fallback", func(cfg *models.ShopConfig, client *http.Client) (shop.Adapter, error) {
		if cfg.Scrape == nil {
			return nil, fmt.Errorf("shop %s: scrape_headless_fallback needs a scrape block", cfg.ID)
		}
		return &FallbackAdapter{
			primary:  scrape.New(cfg, client),
			fallback: &HeadlessAdapter{cfg: cfg},
		}, nil
	})
}

// FallbackAdapter tries cheap static scraping first and falls back to
// a rendered browser when the static page yields nothing. Shops that
// ship server-rendered HTML most of the time but A/B test a JS-only
// storefront need this.
type FallbackAdapter struct {
	primary  shop.Adapter
	fallback shop.Adapter
}

func (f *FallbackAdapter) Search(ctx context.Context, q shop.Query) ([]shop.RawRecord, error) {
	records, err := f.primary.Search(ctx, q)
	if err == nil && len(records) > 0 {
		return records, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return f.fallback.Search(ctx, q)
}

func (f *FallbackAdapter) Fetch(ctx context.Context, externalID string) (*shop.RawRecord, error) {
	rec, err := f.primary.Fetch(ctx, externalID)
	if err == nil && rec != nil {
		return rec, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return f.fallback.Fetch(ctx, externalID)
}
