package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
)

func candidate(shopName string, trust int, landed int64, inStock bool) Candidate {
	return Candidate{
		Listing: models.Listing{
			ShopID:   shopName,
			Name:     "item",
			Price:    decimal.NewFromInt(landed),
			Currency: "SEK",
			InStock:  inStock,
		},
		Cost: models.CostBreakdown{
			LandedTotal: decimal.NewFromInt(landed),
			Currency:    "SEK",
		},
		Shop: &models.ShopConfig{ID: shopName, Name: shopName, TrustScore: trust},
	}
}

func TestRankTotalOrder(t *testing.T) {
	in := []Candidate{
		candidate("delta", 3, 100, false), // cheapest but out of stock
		candidate("alfa", 2, 500, true),
		candidate("bravo", 5, 300, true),
		candidate("charlie", 4, 300, true), // price tie, lower trust than bravo
		candidate("echo", 4, 900, true),
	}

	ranked := Rank(in)

	wantOrder := []string{"bravo", "charlie", "alfa", "echo", "delta"}
	if len(ranked) != len(wantOrder) {
		t.Fatalf("len = %d, want %d", len(ranked), len(wantOrder))
	}
	for i, want := range wantOrder {
		if ranked[i].Shop.Name != want {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].Shop.Name, want)
		}
	}

	// Input order untouched.
	if in[0].Shop.Name != "delta" {
		t.Error("Rank must not reorder its input slice")
	}
}

func TestRankTrustTieBrokenByName(t *testing.T) {
	in := []Candidate{
		candidate("zeta", 4, 300, true),
		candidate("alfa", 4, 300, true),
	}
	ranked := Rank(in)
	if ranked[0].Shop.Name != "alfa" || ranked[1].Shop.Name != "zeta" {
		t.Errorf("got %s, %s; want alfa, zeta", ranked[0].Shop.Name, ranked[1].Shop.Name)
	}
}

func TestInStockFilter(t *testing.T) {
	in := []Candidate{
		candidate("alfa", 3, 100, true),
		candidate("bravo", 3, 200, false),
		candidate("charlie", 3, 300, true),
	}
	got := InStock(in)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Shop.Name != "alfa" || got[1].Shop.Name != "charlie" {
		t.Errorf("got %s, %s; want alfa, charlie", got[0].Shop.Name, got[1].Shop.Name)
	}
}

func TestRelevanceBrandAndCategory(t *testing.T) {
	l := models.Listing{
		Name:     "Classic Hooded Sweatshirt",
		Brand:    "acme",
		Category: "hoodie",
		Color:    "black",
		Sizes:    []string{"S", "M", "L"},
	}

	exact := Relevance(l, shop.Query{Brand: "Acme", Category: "hoodie", Color: "black", Size: "m"})
	weak := Relevance(l, shop.Query{Brand: "Other", Category: "dress"})

	if exact <= weak {
		t.Errorf("exact match %.2f not above mismatch %.2f", exact, weak)
	}
	// Brand 0.35 + category 0.25 + color 0.10 + size 0.05.
	if exact < 0.74 {
		t.Errorf("exact match score %.2f, want >= 0.75", exact)
	}
	if weak != 0 {
		t.Errorf("mismatch score %.2f, want 0", weak)
	}
}

func TestRelevanceCategorySynonyms(t *testing.T) {
	l := models.Listing{Name: "Wool Jumper", Category: models.Unknown}
	got := Relevance(l, shop.Query{Category: "sweater"})
	if got < 0.25 {
		t.Errorf("synonym score %.2f, want >= 0.25", got)
	}
}

func TestRelevanceSwedishColor(t *testing.T) {
	l := models.Listing{Name: "T-shirt", Color: "svart"}
	got := Relevance(l, shop.Query{Color: "black"})
	if got < 0.10 {
		t.Errorf("swedish color score %.2f, want >= 0.10", got)
	}
}
