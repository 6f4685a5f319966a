package shop

import (
	"context"

	"github.com/shopspring/decimal"
)

// Query is a search request dispatched to every configured shop.
type Query struct {
	Text      string
	Category  string
	Brand     string
	Color     string
	Gender    string
	Size      string
	StyleTags []string
	MinPrice  decimal.Decimal
	MaxPrice  decimal.Decimal
	Limit     int

	// NoWait makes a shop whose token bucket is empty fail with
	// *RateLimitedError instead of suspending for a token.
	NoWait bool
}

// RawRecord is one source record with canonical field names already
// applied by the adapter. The normalizer turns it into a Listing.
type RawRecord struct {
	Fields map[string]string // id, name, brand, price, currency, url, image, category, color, sizes, gender, material, description, in_stock
}

// Field returns a named field or "".
func (r RawRecord) Field(name string) string {
	return r.Fields[name]
}

// Adapter is the capability handle for one shop source. Implementations
// exist per SourceKind: affiliate feed, scraper, and custom code.
type Adapter interface {
	// Search returns raw records matching the query. Implementations do
	// their own I/O; the registry handles rate limiting and timeouts.
	Search(ctx context.Context, q Query) ([]RawRecord, error)

	// Fetch returns the raw record for one external item id, or nil if
	// the shop no longer lists it.
	Fetch(ctx context.Context, externalID string) (*RawRecord, error)
}
