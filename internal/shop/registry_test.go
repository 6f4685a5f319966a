package shop

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fyndra/outfitscout/internal/models"
)

type fakeAdapter struct {
	records []RawRecord
	err     error
	calls   int
}

func (f *fakeAdapter) Search(_ context.Context, _ Query) ([]RawRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeAdapter) Fetch(_ context.Context, externalID string) (*RawRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.records {
		if f.records[i].Field("id") == externalID {
			return &f.records[i], nil
		}
	}
	return nil, nil
}

func record(id, name, price string) RawRecord {
	return RawRecord{Fields: map[string]string{
		"id":    id,
		"name":  name,
		"price": price,
		"url":   "https://shop.example/p/" + id,
	}}
}

func shopCfg(id string, rpm int) *models.ShopConfig {
	return &models.ShopConfig{
		ID:                id,
		Name:              id,
		URL:               "https://" + id + ".example",
		Kind:              models.SourceScraper,
		Currency:          "SEK",
		RequestsPerMinute: rpm,
	}
}

func TestSearchPartialResults(t *testing.T) {
	r := NewRegistry(4, time.Second, nil)
	r.Register(shopCfg("alfa", 600), &fakeAdapter{records: []RawRecord{record("1", "Hoodie", "500")}})
	r.Register(shopCfg("bravo", 600), &fakeAdapter{err: fmt.Errorf("connection refused")})
	r.Register(shopCfg("charlie", 600), &fakeAdapter{records: []RawRecord{record("2", "Jacket", "900")}})

	res, err := r.Search(context.Background(), Query{Text: "hoodie"})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}

	if len(res.Listings) != 2 {
		t.Errorf("got %d listings, want 2 from the healthy shops", len(res.Listings))
	}
	if len(res.Errors) != 1 {
		t.Fatalf("got %d shop errors, want 1", len(res.Errors))
	}
	var unavailable *ShopUnavailableError
	if !errors.As(res.Errors["bravo"], &unavailable) {
		t.Errorf("bravo error = %v, want ShopUnavailableError", res.Errors["bravo"])
	}
}

func TestSearchSkipsMalformedRecords(t *testing.T) {
	adapter := &fakeAdapter{records: []RawRecord{
		record("1", "Good one", "250"),
		{Fields: map[string]string{"name": "No price", "url": "https://shop.example/p/2"}},
		record("3", "Also good", "300"),
	}}
	r := NewRegistry(1, time.Second, nil)
	r.Register(shopCfg("alfa", 600), adapter)

	res, err := r.Search(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(res.Listings) != 2 {
		t.Errorf("got %d listings, want 2 with the malformed record dropped", len(res.Listings))
	}
	if len(res.Errors) != 0 {
		t.Errorf("malformed record must not fail the shop, got errors %v", res.Errors)
	}
}

func TestNoWaitRateLimit(t *testing.T) {
	// 10 rpm gives a burst of one token.
	r := NewRegistry(1, time.Second, nil)
	r.Register(shopCfg("slowshop", 10), &fakeAdapter{records: []RawRecord{record("1", "Cap", "150")}})

	q := Query{NoWait: true}
	if _, err := r.SearchShop(context.Background(), "slowshop", q); err != nil {
		t.Fatalf("first call: %v", err)
	}

	_, err := r.SearchShop(context.Background(), "slowshop", q)
	var limited *RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("second call error = %v, want RateLimitedError", err)
	}
	if limited.ShopID != "slowshop" {
		t.Errorf("ShopID = %q, want slowshop", limited.ShopID)
	}
}

func TestCheckAvailability(t *testing.T) {
	adapter := &fakeAdapter{records: []RawRecord{record("42", "Parka", "2100")}}
	r := NewRegistry(1, time.Second, nil)
	r.Register(shopCfg("alfa", 600), adapter)

	l, err := r.CheckAvailability(context.Background(), "alfa", "42")
	if err != nil {
		t.Fatalf("CheckAvailability error: %v", err)
	}
	if l == nil || l.Name != "Parka" {
		t.Fatalf("listing = %+v, want Parka", l)
	}

	gone, err := r.CheckAvailability(context.Background(), "alfa", "missing")
	if err != nil {
		t.Fatalf("CheckAvailability error: %v", err)
	}
	if gone != nil {
		t.Errorf("listing = %+v, want nil for a delisted item", gone)
	}
}
