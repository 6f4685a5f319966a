package custom

import (
	"sort"
	"testing"

	"github.com/fyndra/outfitscout/internal/models"
)

func TestNamesIncludeBuiltins(t *testing.T) {
	names := Names()
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	want := map[string]bool{"headless_jsonld": false, "scrape_headless_fallback": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, seen := range want {
		if !seen {
			t.Errorf("builtin %q not registered", n)
		}
	}
}

func TestNewUnknownAdapter(t *testing.T) {
	cfg := &models.ShopConfig{ID: "x", Custom: "does_not_exist"}
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("unknown adapter name must fail")
	}
}

func TestNewHeadlessRequiresSelectors(t *testing.T) {
	cfg := &models.ShopConfig{ID: "x", Custom: "headless_jsonld", URL: "https://shop.example"}
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("headless adapter without scrape config must fail")
	}

	cfg.Scrape = &models.ScrapeConfig{SearchPath: "/search", QueryParam: "q"}
	if _, err := New(cfg, nil); err != nil {
		t.Fatalf("New: %v", err)
	}
}
