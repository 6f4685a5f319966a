package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fyndra/outfitscout/internal/adapters/feed"
	"github.com/fyndra/outfitscout/internal/cost"
	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/service"
	"github.com/fyndra/outfitscout/internal/shop"
)

const outfitFeed = `id,name,brand,price,currency,url,category
h1,Basic Hoodie,,500,SEK,https://feedshop.example/p/h1,hoodie
s1,Road Shoe,Runner,900,SEK,https://feedshop.example/p/s1,shoes
`

func feedService(t *testing.T) *service.Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(outfitFeed))
	}))
	t.Cleanup(srv.Close)

	cfg := &models.ShopConfig{
		ID:          "feedshop",
		Name:        "feedshop",
		URL:         "https://feedshop.example",
		Kind:        models.SourceAffiliateFeed,
		Currency:    "SEK",
		OriginEU:    true,
		VATIncluded: true,
		Feed:        &models.FeedConfig{URL: srv.URL, Type: "csv"},
	}

	registry := shop.NewRegistry(2, time.Second, nil)
	registry.Register(cfg, feed.New(cfg, srv.Client()))

	engine := cost.NewEngine(cost.Rules{
		DestinationCountry:  "SE",
		DestinationEU:       true,
		Currency:            "SEK",
		VATRate:             decimal.NewFromFloat(0.25),
		CustomsThresholdEUR: decimal.NewFromInt(150),
	}, cost.DefaultStaticRates())

	return service.New(registry, engine, nil)
}

// A brand hint for a brand the shop does not carry must still assemble
// the outfit from the category candidates; the exact pick falls back to
// the top-ranked one.
func TestBuildAssembliesBrandHintFallsBack(t *testing.T) {
	svc := feedService(t)

	req := models.OutfitRequest{
		Budget:   decimal.NewFromInt(2000),
		Currency: "SEK",
		Slots: []models.CategorySlot{
			{Category: "hoodie", Brand: "acme"},
			{Category: "shoes"},
		},
	}

	assemblies, shopErrs, err := svc.BuildAssemblies(context.Background(), req)
	if err != nil {
		t.Fatalf("BuildAssemblies: %v", err)
	}
	if len(shopErrs) != 0 {
		t.Fatalf("shop errors = %v, want none", shopErrs)
	}

	pick := assemblies.Exact.Picks["hoodie"]
	if pick.Listing.Name != "Basic Hoodie" {
		t.Errorf("exact hoodie pick = %q, want the brandless fallback", pick.Listing.Name)
	}
	if !assemblies.Exact.Total.Equal(decimal.NewFromInt(1400)) {
		t.Errorf("exact total = %s, want 1400", assemblies.Exact.Total)
	}
}
