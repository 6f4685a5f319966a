package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestExtractJSONLDProduct(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{
  "@type": "Product",
  "name": "Grey Hoodie",
  "sku": "GH-1",
  "brand": "Acme",
  "url": "https://shop.example/p/gh-1",
  "image": ["https://shop.example/img/gh-1.jpg", "https://shop.example/img/gh-1b.jpg"],
  "color": "grey",
  "offers": {"@type": "Offer", "price": 499, "priceCurrency": "SEK", "availability": "https://schema.org/InStock"}
}
</script>
</head><body></body></html>`

	records := ExtractJSONLD(docFromHTML(t, html))
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Field("name") != "Grey Hoodie" || rec.Field("id") != "GH-1" ||
		rec.Field("brand") != "Acme" || rec.Field("price") != "499" ||
		rec.Field("currency") != "SEK" {
		t.Errorf("record = %+v", rec.Fields)
	}
	if rec.Field("image") != "https://shop.example/img/gh-1.jpg" {
		t.Errorf("image = %q, want first array element", rec.Field("image"))
	}
	if rec.Field("in_stock") != "true" {
		t.Errorf("in_stock = %q, want true", rec.Field("in_stock"))
	}
}

func TestExtractJSONLDBrandObjectAndOutOfStock(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{
  "@type": "Product",
  "name": "Linen Shirt",
  "brand": {"@type": "Brand", "name": "Knitco"},
  "offers": {"price": "599.00", "priceCurrency": "SEK", "availability": "https://schema.org/OutOfStock"}
}
</script>
</head><body></body></html>`

	records := ExtractJSONLD(docFromHTML(t, html))
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Field("brand") != "Knitco" {
		t.Errorf("brand = %q, want Knitco", rec.Field("brand"))
	}
	if rec.Field("in_stock") != "false" {
		t.Errorf("in_stock = %q, want false", rec.Field("in_stock"))
	}
	if rec.Field("price") != "599.00" {
		t.Errorf("price = %q, want 599.00", rec.Field("price"))
	}
}

func TestExtractJSONLDItemList(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{
  "@type": "ItemList",
  "itemListElement": [
    {"@type": "ListItem", "item": {"@type": "Product", "name": "Tee One", "offers": {"price": 199, "priceCurrency": "SEK"}}},
    {"@type": "ListItem", "item": {"@type": "Product", "name": "Tee Two", "offers": {"price": 249, "priceCurrency": "SEK"}}},
    {"@type": "ListItem", "item": {"@type": "WebPage", "name": "Not a product"}}
  ]
}
</script>
</head><body></body></html>`

	records := ExtractJSONLD(docFromHTML(t, html))
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 products", len(records))
	}
	if records[0].Field("name") != "Tee One" || records[1].Field("name") != "Tee Two" {
		t.Errorf("records = %+v", records)
	}
}

func TestExtractJSONLDIgnoresNonProductAndGarbage(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{"@type": "Organization", "name": "Shop AB"}</script>
<script type="application/ld+json">this is not json</script>
<script type="application/ld+json">{"@type": "Product", "name": "No price product"}</script>
</head><body></body></html>`

	if records := ExtractJSONLD(docFromHTML(t, html)); len(records) != 0 {
		t.Errorf("records = %+v, want none", records)
	}
}
