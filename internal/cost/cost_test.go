package cost

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
)

func swedishRules() Rules {
	return Rules{
		DestinationCountry:  "SE",
		DestinationEU:       true,
		Currency:            "SEK",
		VATRate:             decimal.RequireFromString("0.25"),
		CustomsThresholdEUR: decimal.NewFromInt(150),
		DutyRates: DutyRates{
			Clothing:    decimal.RequireFromString("0.12"),
			Footwear:    decimal.RequireFromString("0.08"),
			Accessories: decimal.RequireFromString("0.04"),
			Default:     decimal.RequireFromString("0.05"),
		},
	}
}

func euShop(id string, flatShipping string) *models.ShopConfig {
	return &models.ShopConfig{
		ID:            id,
		Name:          id,
		OriginCountry: "SE",
		OriginEU:      true,
		Currency:      "SEK",
		VATIncluded:   true,
		FlatShipping:  decimal.RequireFromString(flatShipping),
	}
}

func listing(shopID, category, price, currency string) models.Listing {
	return models.Listing{
		ShopID:   shopID,
		Category: category,
		Name:     "item",
		Price:    decimal.RequireFromString(price),
		Currency: currency,
		InStock:  true,
	}
}

func wantDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

// The cheaper sticker price can lose on landed total once shipping is
// in: 300+50 beats 280+90.
func TestComputeShippingFlipsRanking(t *testing.T) {
	e := NewEngine(swedishRules(), DefaultStaticRates())

	a, err := e.Compute(listing("a", "hoodie", "300", "SEK"), euShop("a", "50"))
	if err != nil {
		t.Fatalf("Compute a: %v", err)
	}
	b, err := e.Compute(listing("b", "hoodie", "280", "SEK"), euShop("b", "90"))
	if err != nil {
		t.Fatalf("Compute b: %v", err)
	}

	wantDecimal(t, "a landed", a.LandedTotal, "350")
	wantDecimal(t, "b landed", b.LandedTotal, "370")
	if !a.LandedTotal.LessThan(b.LandedTotal) {
		t.Error("shop a must rank ahead of shop b on landed total")
	}
}

// A misconfigured negative shipping charge floors at zero: the landed
// total never undercuts the base price.
func TestComputeNegativeShippingFloorsAtZero(t *testing.T) {
	e := NewEngine(swedishRules(), DefaultStaticRates())

	got, err := e.Compute(listing("a", "hoodie", "500", "SEK"), euShop("a", "-100"))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !got.Shipping.IsZero() {
		t.Errorf("shipping = %s, want 0", got.Shipping)
	}
	wantDecimal(t, "landed", got.LandedTotal, "500")
	if got.LandedTotal.LessThan(got.Base) {
		t.Errorf("landed total %s below base %s", got.LandedTotal, got.Base)
	}
}

func TestComputeFreeShippingThreshold(t *testing.T) {
	cfg := euShop("a", "50")
	cfg.FreeShipThreshold = decimal.NewFromInt(500)
	e := NewEngine(swedishRules(), DefaultStaticRates())

	got, err := e.Compute(listing("a", "coat", "600", "SEK"), cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !got.Shipping.IsZero() {
		t.Errorf("shipping = %s, want 0 above the free-shipping threshold", got.Shipping)
	}
	wantDecimal(t, "landed", got.LandedTotal, "600")
}

func TestComputeShippingTableBeatsFlat(t *testing.T) {
	cfg := euShop("a", "120")
	cfg.ShippingTable = map[string]decimal.Decimal{"SE": decimal.NewFromInt(29)}
	e := NewEngine(swedishRules(), DefaultStaticRates())

	got, err := e.Compute(listing("a", "shirt", "200", "SEK"), cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	wantDecimal(t, "shipping", got.Shipping, "29")
	wantDecimal(t, "landed", got.LandedTotal, "229")
}

func TestComputeNonEUImport(t *testing.T) {
	cfg := &models.ShopConfig{
		ID:            "usshop",
		Name:          "usshop",
		OriginCountry: "US",
		Currency:      "USD",
		FlatShipping:  decimal.NewFromInt(20),
	}
	e := NewEngine(swedishRules(), DefaultStaticRates())

	got, err := e.Compute(listing("usshop", "jacket", "200", "USD"), cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// 200+20 USD is above the 150 EUR de-minimis, clothing duty 12% of
	// the item price: 24 USD. VAT 25% on (200+20+24): 61 USD. All
	// converted at 10.50 SEK/USD.
	wantDecimal(t, "base", got.Base, "2100")
	wantDecimal(t, "shipping", got.Shipping, "210")
	wantDecimal(t, "customs", got.Customs, "252")
	wantDecimal(t, "vat", got.VAT, "640.50")
	wantDecimal(t, "landed", got.LandedTotal, "3202.50")
	if got.Currency != "SEK" {
		t.Errorf("currency = %q, want SEK", got.Currency)
	}
}

func TestComputeBelowCustomsThreshold(t *testing.T) {
	cfg := &models.ShopConfig{
		ID:            "usshop",
		Name:          "usshop",
		OriginCountry: "US",
		Currency:      "USD",
		FlatShipping:  decimal.NewFromInt(10),
	}
	e := NewEngine(swedishRules(), DefaultStaticRates())

	got, err := e.Compute(listing("usshop", "cap", "100", "USD"), cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !got.Customs.IsZero() {
		t.Errorf("customs = %s, want 0 below the de-minimis threshold", got.Customs)
	}
}

func TestComputeEUtoEUNoCustoms(t *testing.T) {
	cfg := euShop("de", "0")
	cfg.OriginCountry = "DE"
	cfg.Currency = "EUR"
	e := NewEngine(swedishRules(), DefaultStaticRates())

	got, err := e.Compute(listing("de", "jacket", "400", "EUR"), cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !got.Customs.IsZero() {
		t.Errorf("customs = %s, want 0 for EU-to-EU", got.Customs)
	}
	wantDecimal(t, "landed", got.LandedTotal, "4600")
}

func TestComputeUnknownCurrency(t *testing.T) {
	cfg := euShop("x", "0")
	cfg.Currency = "JPY"
	e := NewEngine(swedishRules(), DefaultStaticRates())

	_, err := e.Compute(listing("x", "shirt", "5000", "JPY"), cfg)
	var unknown *shop.UnknownCurrencyError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownCurrencyError", err)
	}
	if unknown.Currency != "JPY" {
		t.Errorf("Currency = %q, want JPY", unknown.Currency)
	}
}

func TestDutyRateByCategory(t *testing.T) {
	e := NewEngine(swedishRules(), DefaultStaticRates())
	tests := []struct {
		category string
		want     string
	}{
		{"hoodie", "0.12"},
		{"sneakers", "0.08"},
		{"crossbody bag", "0.04"},
		{"umbrella", "0.05"},
	}
	for _, tt := range tests {
		got := e.dutyRate(tt.category)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("dutyRate(%q) = %s, want %s", tt.category, got, tt.want)
		}
	}
}

func TestStaticRatesPivotDerivation(t *testing.T) {
	rates := DefaultStaticRates()

	direct, ok := rates.Rate("EUR", "SEK")
	if !ok || !direct.Equal(decimal.RequireFromString("11.50")) {
		t.Errorf("EUR/SEK = %s %v, want 11.50", direct, ok)
	}

	inverse, ok := rates.Rate("SEK", "EUR")
	if !ok {
		t.Fatal("SEK/EUR not derivable")
	}
	product := inverse.Mul(direct)
	if product.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(decimal.RequireFromString("0.0001")) {
		t.Errorf("SEK/EUR * EUR/SEK = %s, want ~1", product)
	}

	// USD->GBP only exists through the SEK pivot.
	cross, ok := rates.Rate("USD", "GBP")
	if !ok {
		t.Fatal("USD/GBP not derivable through pivot")
	}
	if cross.LessThanOrEqual(decimal.Zero) || cross.GreaterThan(decimal.NewFromInt(2)) {
		t.Errorf("USD/GBP = %s, implausible", cross)
	}

	if _, ok := rates.Rate("JPY", "SEK"); ok {
		t.Error("JPY/SEK must be unknown")
	}
}
