package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unknown is the sentinel stored for optional listing fields the source
// did not provide.
const Unknown = "unknown"

// SourceKind identifies how a shop's listings are obtained.
type SourceKind string

const (
	SourceAffiliateFeed SourceKind = "affiliate_feed"
	SourceScraper       SourceKind = "scraper"
	SourceCustom        SourceKind = "custom"
)

// FeedConfig describes an affiliate product feed.
type FeedConfig struct {
	URL     string            `yaml:"url"`
	Type    string            `yaml:"type"` // "csv" or "xml"
	ItemTag string            `yaml:"item_tag,omitempty"`
	Mapping map[string]string `yaml:"mapping,omitempty"` // canonical field -> source column/tag
}

// ScrapeConfig describes CSS selectors for a scraped shop.
type ScrapeConfig struct {
	SearchPath    string `yaml:"search_path"`
	QueryParam    string `yaml:"query_param"`
	ItemSelector  string `yaml:"item_selector"`
	NameSelector  string `yaml:"name_selector"`
	BrandSelector string `yaml:"brand_selector,omitempty"`
	PriceSelector string `yaml:"price_selector"`
	ImageSelector string `yaml:"image_selector,omitempty"`
	LinkSelector  string `yaml:"link_selector,omitempty"`
}

// ShopConfig is one configured shop. Loaded once at startup and never
// mutated afterwards.
type ShopConfig struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	DisplayName string     `yaml:"display_name,omitempty"`
	URL         string     `yaml:"url"`
	Kind        SourceKind `yaml:"kind"`
	TrustScore  int        `yaml:"trust_score"` // 0-100

	OriginCountry string `yaml:"origin_country"` // ISO 3166-1 alpha-2
	OriginEU      bool   `yaml:"origin_eu"`
	Currency      string `yaml:"currency"`
	VATIncluded   bool   `yaml:"vat_included"`

	DeliveryDays     int `yaml:"delivery_days,omitempty"`
	ReturnWindowDays int `yaml:"return_window_days,omitempty"`

	// Shipping: destination-keyed table, free-shipping threshold, and a
	// flat fallback when the destination is not in the table.
	ShippingTable     map[string]decimal.Decimal `yaml:"shipping_table,omitempty"`
	FreeShipThreshold decimal.Decimal            `yaml:"free_ship_threshold,omitempty"`
	FlatShipping      decimal.Decimal            `yaml:"flat_shipping,omitempty"`

	RequestsPerMinute int `yaml:"requests_per_minute"`

	AffiliateURLTemplate string `yaml:"affiliate_url_template,omitempty"`

	Feed   *FeedConfig   `yaml:"feed,omitempty"`
	Scrape *ScrapeConfig `yaml:"scrape,omitempty"`
	Custom string        `yaml:"custom,omitempty"` // registered custom adapter name
}

// Display returns the shop name to show users.
func (c *ShopConfig) Display() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// Listing is one shop's offer of one item. Produced fresh on every
// search or check and never mutated.
type Listing struct {
	ShopID       string          `json:"shop_id"`
	ExternalID   string          `json:"external_id"`
	Category     string          `json:"category"`
	Brand        string          `json:"brand"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	InStock      bool            `json:"in_stock"`
	Sizes        []string        `json:"sizes,omitempty"`
	Color        string          `json:"color,omitempty"`
	Gender       string          `json:"gender,omitempty"`
	Material     string          `json:"material,omitempty"`
	Description  string          `json:"description,omitempty"`
	URL          string          `json:"url"`
	AffiliateURL string          `json:"affiliate_url,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	RetrievedAt  time.Time       `json:"retrieved_at"`
}

// CostBreakdown is the landed cost of a Listing for one destination,
// expressed in the comparison currency. Derived, never persisted on its
// own.
type CostBreakdown struct {
	Base        decimal.Decimal `json:"base"`
	Shipping    decimal.Decimal `json:"shipping"`
	Customs     decimal.Decimal `json:"customs"`
	VAT         decimal.Decimal `json:"vat"`
	LandedTotal decimal.Decimal `json:"landed_total"`
	Currency    string          `json:"currency"`
}

// CategorySlot is one category to fill in an outfit request, with
// optional hints derived from the vision service.
type CategorySlot struct {
	Category  string   `json:"category"`
	Brand     string   `json:"brand,omitempty"`
	StyleTags []string `json:"style_tags,omitempty"`
	Size      string   `json:"size,omitempty"`
}

// OutfitRequest asks for one item per category under a budget ceiling.
type OutfitRequest struct {
	Slots    []CategorySlot  `json:"slots"`
	Budget   decimal.Decimal `json:"budget"`
	Currency string          `json:"currency"`
}

// AssemblyKind distinguishes the three assembly strategies.
type AssemblyKind string

const (
	AssemblyExact        AssemblyKind = "exact"
	AssemblyBestInBudget AssemblyKind = "best_within_budget"
	AssemblyBudgetSaver  AssemblyKind = "budget_saver"
)

// Pick is the listing chosen for one category, with its cost.
type Pick struct {
	Listing Listing       `json:"listing"`
	Cost    CostBreakdown `json:"cost"`
}

// OutfitAssembly is one complete outfit: exactly one pick per requested
// category.
type OutfitAssembly struct {
	Kind          AssemblyKind      `json:"kind"`
	Picks         map[string]Pick   `json:"picks"` // category -> pick
	Total         decimal.Decimal   `json:"total"`
	Currency      string            `json:"currency"`
	OverBudget    bool              `json:"over_budget"`
	Substitutions map[string]string `json:"substitutions,omitempty"` // category -> reason
}

// WatchTarget is what a watch entry tracks: a single item search or a
// whole outfit request. Exactly one of Item or Outfit is set.
type WatchTarget struct {
	Item   *CategorySlot  `json:"item,omitempty"`
	Query  string         `json:"query,omitempty"`
	Outfit *OutfitRequest `json:"outfit,omitempty"`
}

// WatchEntry tracks an item or outfit for price/stock alerts.
type WatchEntry struct {
	ID              string          `json:"id"`
	Target          WatchTarget     `json:"target"`
	TargetPrice     decimal.Decimal `json:"target_price"`
	NotifyOnDrop    bool            `json:"notify_on_drop"`
	NotifyOnRestock bool            `json:"notify_on_restock"`
	LastBestCost    decimal.Decimal `json:"last_best_cost"`
	LowestSeen      decimal.Decimal `json:"lowest_seen"`
	LastInStock     bool            `json:"last_in_stock"`
	AlertFired      bool            `json:"alert_fired"` // latched until cost rises back above target
	CreatedAt       time.Time       `json:"created_at"`
}

// PriceChangePercent reports how far the last observed cost sits from
// the lowest cost ever seen, as a percentage.
func (w *WatchEntry) PriceChangePercent() float64 {
	if w.LowestSeen.IsZero() {
		return 0
	}
	diff := w.LastBestCost.Sub(w.LowestSeen)
	pct, _ := diff.Div(w.LowestSeen).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return pct
}

// PriceSnapshot is one observation in a watch entry's append-only
// history.
type PriceSnapshot struct {
	EntryID    string          `json:"entry_id"`
	ShopID     string          `json:"shop_id"`
	LandedCost decimal.Decimal `json:"landed_cost"`
	Currency   string          `json:"currency"`
	InStock    bool            `json:"in_stock"`
	ObservedAt time.Time       `json:"observed_at"`
}
