package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fyndra/outfitscout/internal/httputil"
	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
)

// Adapter scrapes a shop's search results page with CSS selectors.
type Adapter struct {
	cfg    *models.ShopConfig
	client *http.Client
}

// New creates a scraper adapter for the given shop.
func New(cfg *models.ShopConfig, client *http.Client) *Adapter {
	return &Adapter{cfg: cfg, client: client}
}

// Search loads the shop's search page for the query text and extracts
// one record per matched item selector.
func (a *Adapter) Search(ctx context.Context, q shop.Query) ([]shop.RawRecord, error) {
	searchURL, err := a.searchURL(q)
	if err != nil {
		return nil, err
	}

	doc, err := a.fetchDocument(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	sel := a.cfg.Scrape
	base, _ := url.Parse(a.cfg.URL)

	var records []shop.RawRecord
	doc.Find(sel.ItemSelector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		rec := a.extractItem(item, base)
		if rec == nil {
			return true
		}
		records = append(records, *rec)
		return q.Limit <= 0 || len(records) < q.Limit
	})

	return records, nil
}

// Fetch loads a single product page. The external id is the product
// page path relative to the shop URL (or a full URL).
func (a *Adapter) Fetch(ctx context.Context, externalID string) (*shop.RawRecord, error) {
	productURL := externalID
	if !strings.HasPrefix(productURL, "http") {
		base, err := url.Parse(a.cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("shop url: %w", err)
		}
		ref, err := url.Parse("/" + strings.TrimPrefix(externalID, "/"))
		if err != nil {
			return nil, fmt.Errorf("product id %q: %w", externalID, err)
		}
		productURL = base.ResolveReference(ref).String()
	}

	doc, err := a.fetchDocument(ctx, productURL)
	if err != nil {
		return nil, err
	}

	// Structured data beats selectors when the page carries it.
	if recs := ExtractJSONLD(doc); len(recs) > 0 {
		rec := recs[0]
		if rec.Fields["url"] == "" {
			rec.Fields["url"] = productURL
		}
		if rec.Fields["id"] == "" {
			rec.Fields["id"] = externalID
		}
		return &rec, nil
	}

	sel := a.cfg.Scrape
	fields := map[string]string{
		"id":  externalID,
		"url": productURL,
	}
	if v := text(doc.Selection, sel.NameSelector); v != "" {
		fields["name"] = v
	}
	if v := text(doc.Selection, sel.BrandSelector); v != "" {
		fields["brand"] = v
	}
	if v := text(doc.Selection, sel.PriceSelector); v != "" {
		fields["price"] = v
	}
	if fields["name"] == "" {
		return nil, nil
	}
	return &shop.RawRecord{Fields: fields}, nil
}

func (a *Adapter) searchURL(q shop.Query) (string, error) {
	base, err := url.Parse(a.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("shop url: %w", err)
	}
	ref, err := url.Parse(a.cfg.Scrape.SearchPath)
	if err != nil {
		return "", fmt.Errorf("search path: %w", err)
	}
	u := base.ResolveReference(ref)

	terms := strings.TrimSpace(strings.Join(nonEmpty(q.Brand, q.Category, q.Text, q.Color), " "))
	values := u.Query()
	values.Set(a.cfg.Scrape.QueryParam, terms)
	u.RawQuery = values.Encode()
	return u.String(), nil
}

func (a *Adapter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.BrowserHeaders() {
		req.Header[k] = v
	}

	resp, err := httputil.DoWithRetry(a.client, req, 2)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

func (a *Adapter) extractItem(item *goquery.Selection, base *url.URL) *shop.RawRecord {
	sel := a.cfg.Scrape

	name := text(item, sel.NameSelector)
	price := text(item, sel.PriceSelector)
	if name == "" || price == "" {
		return nil
	}

	fields := map[string]string{
		"name":  name,
		"price": price,
	}
	if v := text(item, sel.BrandSelector); v != "" {
		fields["brand"] = v
	}

	link := attr(item, sel.LinkSelector, "href")
	if link == "" {
		link, _ = item.Attr("href")
	}
	if link != "" {
		fields["url"] = resolve(base, link)
		fields["id"] = idFromURL(fields["url"])
	}

	if img := attr(item, sel.ImageSelector, "src"); img != "" {
		fields["image"] = resolve(base, img)
	}

	return &shop.RawRecord{Fields: fields}
}

func text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(s.Find(selector).First().Text())
}

func attr(s *goquery.Selection, selector, name string) string {
	if selector == "" {
		return ""
	}
	v, _ := s.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// idFromURL treats the last path segment of a product URL as its
// external id, which is stable enough for re-checks.
func idFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return rawURL
	}
	segs := strings.Split(path, "/")
	return segs[len(segs)-1]
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
