package scrape

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fyndra/outfitscout/internal/shop"
)

// jsonLDItem represents a generic JSON-LD object.
type jsonLDItem struct {
	Type            string            `json:"@type"`
	Name            string            `json:"name"`
	Brand           json.RawMessage   `json:"brand"`
	URL             string            `json:"url"`
	Image           interface{}       `json:"image"`
	Description     string            `json:"description"`
	Color           string            `json:"color"`
	Material        string            `json:"material"`
	SKU             string            `json:"sku"`
	Offers          *jsonLDOffer      `json:"offers"`
	ItemListElement []jsonLDListEntry `json:"itemListElement"`
}

type jsonLDOffer struct {
	Type          string     `json:"@type"`
	Price         flexString `json:"price"`
	PriceCurrency string     `json:"priceCurrency"`
	Availability  string     `json:"availability"`
}

// flexString decodes both a JSON string and a bare number; shops emit
// prices either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type jsonLDListEntry struct {
	Type string      `json:"@type"`
	Item *jsonLDItem `json:"item"`
}

// ExtractJSONLD pulls Product records out of a page's ld+json script
// tags. Shops that embed structured data give cleaner fields than any
// CSS selector can.
func ExtractJSONLD(doc *goquery.Document) []shop.RawRecord {
	var records []shop.RawRecord
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		records = append(records, parseJSONLDProducts(s.Text())...)
	})
	return records
}

func parseJSONLDProducts(data string) []shop.RawRecord {
	data = strings.TrimSpace(data)

	// Try as single object
	var item jsonLDItem
	if err := json.Unmarshal([]byte(data), &item); err == nil {
		if rec, ok := jsonLDToRecord(&item); ok {
			return []shop.RawRecord{rec}
		}
		if item.Type == "ItemList" && len(item.ItemListElement) > 0 {
			var records []shop.RawRecord
			for _, elem := range item.ItemListElement {
				if elem.Item != nil {
					if rec, ok := jsonLDToRecord(elem.Item); ok {
						records = append(records, rec)
					}
				}
			}
			return records
		}
	}

	// Try as array
	var items []jsonLDItem
	if err := json.Unmarshal([]byte(data), &items); err == nil {
		var records []shop.RawRecord
		for i := range items {
			if rec, ok := jsonLDToRecord(&items[i]); ok {
				records = append(records, rec)
			}
		}
		return records
	}

	return nil
}

func jsonLDToRecord(item *jsonLDItem) (shop.RawRecord, bool) {
	if item.Type != "Product" {
		return shop.RawRecord{}, false
	}

	fields := map[string]string{}
	set := func(name, value string) {
		if v := strings.TrimSpace(value); v != "" {
			fields[name] = v
		}
	}

	set("name", item.Name)
	set("url", item.URL)
	set("description", item.Description)
	set("color", item.Color)
	set("material", item.Material)
	set("id", item.SKU)
	set("brand", brandName(item.Brand))

	switch img := item.Image.(type) {
	case string:
		set("image", img)
	case []interface{}:
		if len(img) > 0 {
			if s, ok := img[0].(string); ok {
				set("image", s)
			}
		}
	}

	if item.Offers != nil {
		set("price", string(item.Offers.Price))
		set("currency", item.Offers.PriceCurrency)
		if item.Offers.Availability != "" {
			if strings.Contains(item.Offers.Availability, "OutOfStock") {
				fields["in_stock"] = "false"
			} else {
				fields["in_stock"] = "true"
			}
		}
	}

	if fields["name"] == "" || fields["price"] == "" {
		return shop.RawRecord{}, false
	}
	return shop.RawRecord{Fields: fields}, true
}

// brandName handles the two shapes schema.org allows: a plain string or
// a Brand object with a name.
func brandName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}
