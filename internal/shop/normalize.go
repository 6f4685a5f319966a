package shop

import (
	"strings"
	"time"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/shopspring/decimal"
)

// Normalize converts a raw adapter record into a canonical Listing. It
// is a pure function: no I/O, no clock beyond the stamped retrieval
// time. Optional fields fall back to explicit sentinels; mandatory
// fields (name, price, currency, url) missing or a non-numeric/negative
// price yield a *MalformedRecordError.
func Normalize(raw RawRecord, kind models.SourceKind, cfg *models.ShopConfig) (models.Listing, error) {
	name := strings.TrimSpace(raw.Field("name"))
	if name == "" {
		return models.Listing{}, &MalformedRecordError{ShopID: cfg.ID, Field: "name", Reason: "missing"}
	}

	priceStr := strings.TrimSpace(raw.Field("price"))
	if priceStr == "" {
		return models.Listing{}, &MalformedRecordError{ShopID: cfg.ID, Field: "price", Reason: "missing"}
	}
	price, err := ParsePrice(priceStr)
	if err != nil {
		return models.Listing{}, &MalformedRecordError{ShopID: cfg.ID, Field: "price", Reason: "is not numeric"}
	}
	if price.IsNegative() {
		return models.Listing{}, &MalformedRecordError{ShopID: cfg.ID, Field: "price", Reason: "is negative"}
	}

	currency := strings.ToUpper(strings.TrimSpace(raw.Field("currency")))
	if currency == "" {
		currency = cfg.Currency
	}
	if currency == "" {
		return models.Listing{}, &MalformedRecordError{ShopID: cfg.ID, Field: "currency", Reason: "missing"}
	}

	pageURL := strings.TrimSpace(raw.Field("url"))
	if pageURL == "" {
		return models.Listing{}, &MalformedRecordError{ShopID: cfg.ID, Field: "url", Reason: "missing"}
	}

	l := models.Listing{
		ShopID:       cfg.ID,
		ExternalID:   orSentinel(raw.Field("id")),
		Category:     orSentinel(raw.Field("category")),
		Brand:        orSentinel(raw.Field("brand")),
		Name:         name,
		Price:        price,
		Currency:     currency,
		InStock:      parseStock(raw.Field("in_stock")),
		Color:        strings.TrimSpace(raw.Field("color")),
		Gender:       strings.TrimSpace(raw.Field("gender")),
		Material:     strings.TrimSpace(raw.Field("material")),
		Description:  strings.TrimSpace(raw.Field("description")),
		URL:          pageURL,
		AffiliateURL: AffiliateURL(cfg, pageURL),
		ImageURL:     strings.TrimSpace(raw.Field("image")),
		RetrievedAt:  time.Now().UTC(),
	}

	if sizes := raw.Field("sizes"); sizes != "" {
		for _, s := range strings.Split(sizes, ",") {
			if s = strings.TrimSpace(s); s != "" {
				l.Sizes = append(l.Sizes, s)
			}
		}
	}

	return l, nil
}

// ParsePrice extracts a decimal amount from price text, handling both
// European (1.234,56) and US (1,234.56) separators plus stray currency
// symbols.
func ParsePrice(text string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, text)

	comma := strings.LastIndex(cleaned, ",")
	dot := strings.LastIndex(cleaned, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		// European: 1.234,56
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		// US: 1,234.56
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case comma >= 0:
		if len(cleaned)-comma-1 == 2 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	return decimal.NewFromString(cleaned)
}

// AffiliateURL applies the shop's affiliate template to a product URL.
// Returns "" when the shop has no affiliate program configured.
func AffiliateURL(cfg *models.ShopConfig, productURL string) string {
	if cfg.AffiliateURLTemplate == "" {
		return ""
	}
	return strings.ReplaceAll(cfg.AffiliateURLTemplate, "{url}", productURL)
}

func orSentinel(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return models.Unknown
	}
	return s
}

func parseStock(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "0", "no", "out_of_stock", "outofstock":
		return false
	default:
		// Sources that omit stock information list only available items.
		return true
	}
}
