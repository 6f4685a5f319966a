// Package cost computes the landed total of a listing for one
// destination: shipping, customs duty, VAT, and currency conversion.
package cost

import (
	"strings"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
	"github.com/shopspring/decimal"
)

// Rules carries the destination's trade parameters. All values are
// injected from configuration; the de-minimis threshold and duty table
// are deliberately not constants here.
type Rules struct {
	DestinationCountry string
	DestinationEU      bool
	Currency           string // comparison currency, e.g. "SEK"
	VATRate            decimal.Decimal
	CustomsThresholdEUR decimal.Decimal
	DutyRates          DutyRates
}

// DutyRates holds per-category-group customs duty percentages.
type DutyRates struct {
	Clothing    decimal.Decimal
	Footwear    decimal.Decimal
	Accessories decimal.Decimal
	Default     decimal.Decimal
}

// Engine computes cost breakdowns against a fixed rule set and exchange
// rate source.
type Engine struct {
	rules Rules
	rates RateSource
}

// NewEngine creates a cost engine.
func NewEngine(rules Rules, rates RateSource) *Engine {
	return &Engine{rules: rules, rates: rates}
}

// Currency returns the comparison currency all breakdowns use.
func (e *Engine) Currency() string { return e.rules.Currency }

// Compute derives the landed total for one listing in the comparison
// currency. Rules are evaluated in order: shipping, customs, VAT,
// conversion. A currency with no exchange rate yields
// *shop.UnknownCurrencyError; the caller excludes the listing from
// cost ranking but may still display it.
func (e *Engine) Compute(listing models.Listing, cfg *models.ShopConfig) (models.CostBreakdown, error) {
	shipping := e.shippingCost(listing.Price, cfg)
	customs := e.customsDuty(listing, shipping, cfg)

	vat := decimal.Zero
	if !cfg.VATIncluded {
		vat = listing.Price.Add(shipping).Add(customs).Mul(e.rules.VATRate).Round(2)
	}

	total := listing.Price.Add(shipping).Add(customs).Add(vat)

	base, err := e.convert(listing.Price, listing.Currency)
	if err != nil {
		return models.CostBreakdown{}, err
	}
	shipping, _ = e.convert(shipping, listing.Currency)
	customs, _ = e.convert(customs, listing.Currency)
	vat, _ = e.convert(vat, listing.Currency)
	total, _ = e.convert(total, listing.Currency)

	return models.CostBreakdown{
		Base:        base,
		Shipping:    shipping,
		Customs:     customs,
		VAT:         vat,
		LandedTotal: total,
		Currency:    e.rules.Currency,
	}, nil
}

// shippingCost resolves the shipping charge in the shop's currency:
// destination table first, free-shipping threshold next, flat fallback
// last. The charge floors at zero so the landed total can never drop
// below the base price.
func (e *Engine) shippingCost(price decimal.Decimal, cfg *models.ShopConfig) decimal.Decimal {
	if !cfg.FreeShipThreshold.IsZero() && price.GreaterThanOrEqual(cfg.FreeShipThreshold) {
		return decimal.Zero
	}
	charge := cfg.FlatShipping
	if c, ok := cfg.ShippingTable[e.rules.DestinationCountry]; ok {
		charge = c
	}
	if charge.IsNegative() {
		return decimal.Zero
	}
	return charge
}

// customsDuty is zero for EU-to-EU shipments. Otherwise the de-minimis
// threshold is assessed on price+shipping in EUR, and the duty rate for
// the listing's category group applies to the base price.
func (e *Engine) customsDuty(listing models.Listing, shipping decimal.Decimal, cfg *models.ShopConfig) decimal.Decimal {
	if cfg.OriginEU && e.rules.DestinationEU {
		return decimal.Zero
	}

	valueEUR := listing.Price.Add(shipping)
	if listing.Currency != "EUR" {
		if r, ok := e.rates.Rate(listing.Currency, "EUR"); ok {
			valueEUR = valueEUR.Mul(r)
		}
	}
	if valueEUR.LessThanOrEqual(e.rules.CustomsThresholdEUR) {
		return decimal.Zero
	}

	return listing.Price.Mul(e.dutyRate(listing.Category)).Round(2)
}

func (e *Engine) dutyRate(category string) decimal.Decimal {
	c := strings.ToLower(category)
	switch {
	case containsAny(c, "shirt", "pants", "jacket", "dress", "coat", "hoodie", "sweater", "jeans", "skirt"):
		return e.rules.DutyRates.Clothing
	case containsAny(c, "shoe", "boot", "sneaker", "sandal", "trainer"):
		return e.rules.DutyRates.Footwear
	case containsAny(c, "bag", "belt", "watch", "jewelry", "cap", "hat", "scarf"):
		return e.rules.DutyRates.Accessories
	default:
		return e.rules.DutyRates.Default
	}
}

func (e *Engine) convert(amount decimal.Decimal, from string) (decimal.Decimal, error) {
	if from == e.rules.Currency {
		return amount.Round(2), nil
	}
	r, ok := e.rates.Rate(from, e.rules.Currency)
	if !ok {
		return decimal.Zero, &shop.UnknownCurrencyError{Currency: from}
	}
	return amount.Mul(r).Round(2), nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
