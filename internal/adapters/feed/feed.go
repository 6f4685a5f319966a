package feed

import (
	"context"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fyndra/outfitscout/internal/httputil"
	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
)

// DefaultCacheTTL is how long a downloaded feed stays valid. Affiliate
// networks regenerate feeds a few times per day, so anything under an
// hour is fresh enough.
const DefaultCacheTTL = 15 * time.Minute

// Adapter serves search and fetch requests from a shop's affiliate
// product feed. The feed is downloaded on demand and cached in memory;
// queries are answered by filtering the cached records.
type Adapter struct {
	cfg    *models.ShopConfig
	client *http.Client

	mu        sync.Mutex
	records   []shop.RawRecord
	fetchedAt time.Time
	cacheTTL  time.Duration
}

// New creates a feed adapter for the given shop.
func New(cfg *models.ShopConfig, client *http.Client) *Adapter {
	return &Adapter{cfg: cfg, client: client, cacheTTL: DefaultCacheTTL}
}

// Search filters the cached feed against the query.
func (a *Adapter) Search(ctx context.Context, q shop.Query) ([]shop.RawRecord, error) {
	records, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	var out []shop.RawRecord
	for _, rec := range records {
		if !matches(rec, q) {
			continue
		}
		out = append(out, rec)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// Fetch returns the feed record with the given id, or nil when the
// feed no longer carries it.
func (a *Adapter) Fetch(ctx context.Context, externalID string) (*shop.RawRecord, error) {
	records, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Field("id") == externalID {
			return &records[i], nil
		}
	}
	return nil, nil
}

// Invalidate drops the cached feed so the next query re-downloads it.
func (a *Adapter) Invalidate() {
	a.mu.Lock()
	a.records = nil
	a.fetchedAt = time.Time{}
	a.mu.Unlock()
}

func (a *Adapter) load(ctx context.Context) ([]shop.RawRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.records != nil && time.Since(a.fetchedAt) < a.cacheTTL {
		return a.records, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.Feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header = httputil.FeedHeaders()

	resp, err := httputil.DoWithRetry(a.client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("download feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download feed: status %d", resp.StatusCode)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	var records []shop.RawRecord
	switch a.cfg.Feed.Type {
	case "csv":
		records, err = parseCSV(body, a.cfg.Feed.Mapping)
	case "xml":
		records, err = parseXML(body, a.cfg.Feed.ItemTag, a.cfg.Feed.Mapping)
	default:
		err = fmt.Errorf("unsupported feed type %q", a.cfg.Feed.Type)
	}
	if err != nil {
		return nil, err
	}

	a.records = records
	a.fetchedAt = time.Now()
	return a.records, nil
}

// parseCSV reads a header-first CSV feed. The mapping translates
// canonical field names to the feed's column names; unmapped canonical
// names fall back to an identically-named column.
func parseCSV(body []byte, mapping map[string]string) ([]shop.RawRecord, error) {
	r := csv.NewReader(strings.NewReader(string(body)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv feed: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	records := make([]shop.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fields := make(map[string]string)
		for _, canonical := range canonicalFields {
			col := canonical
			if mapped, ok := mapping[canonical]; ok {
				col = mapped
			}
			idx, ok := colIdx[strings.ToLower(col)]
			if !ok || idx >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[idx]); v != "" {
				fields[canonical] = v
			}
		}
		if len(fields) > 0 {
			records = append(records, shop.RawRecord{Fields: fields})
		}
	}
	return records, nil
}

// parseXML walks an XML feed token by token, collecting the text of
// every direct child element of each item into a field map. This keeps
// the parser agnostic of the feed schema; the mapping does the rest.
func parseXML(body []byte, itemTag string, mapping map[string]string) ([]shop.RawRecord, error) {
	if itemTag == "" {
		itemTag = "item"
	}

	sourceToCanonical := make(map[string]string, len(mapping))
	for canonical, source := range mapping {
		sourceToCanonical[strings.ToLower(source)] = canonical
	}

	dec := xml.NewDecoder(strings.NewReader(string(body)))
	var records []shop.RawRecord

	for {
		tok, err := dec.Token()
		if err != nil {
			break // io.EOF or malformed tail; keep what parsed
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != itemTag {
			continue
		}

		fields, err := decodeItem(dec, start, sourceToCanonical)
		if err != nil {
			return nil, fmt.Errorf("parse xml feed: %w", err)
		}
		if len(fields) > 0 {
			records = append(records, shop.RawRecord{Fields: fields})
		}
	}
	return records, nil
}

func decodeItem(dec *xml.Decoder, start xml.StartElement, sourceToCanonical map[string]string) (map[string]string, error) {
	fields := make(map[string]string)
	var current string
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = strings.ToLower(t.Name.Local)
			text.Reset()
		case xml.CharData:
			if current != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return fields, nil
			}
			if current == "" {
				continue
			}
			name := current
			if canonical, ok := sourceToCanonical[name]; ok {
				name = canonical
			}
			if isCanonical(name) {
				if v := strings.TrimSpace(text.String()); v != "" {
					fields[name] = v
				}
			}
			current = ""
		}
	}
}

var canonicalFields = []string{
	"id", "name", "brand", "price", "currency", "url", "image",
	"category", "color", "sizes", "gender", "material", "description",
	"in_stock",
}

func isCanonical(name string) bool {
	for _, f := range canonicalFields {
		if f == name {
			return true
		}
	}
	return false
}

// matches applies the query's filterable fields to a raw record. Each
// filter only applies when the record carries the field; feeds are
// sparse, and a missing brand or color must not eliminate the record.
// Text matching is a coarse any-term pre-filter; ranking happens
// downstream.
func matches(rec shop.RawRecord, q shop.Query) bool {
	if q.Brand != "" && rec.Field("brand") != "" && !containsFold(rec.Field("brand"), q.Brand) {
		return false
	}
	if q.Category != "" && rec.Field("category") != "" &&
		!containsFold(rec.Field("category"), q.Category) &&
		!containsFold(rec.Field("name"), q.Category) {
		return false
	}
	if q.Color != "" && rec.Field("color") != "" &&
		!containsFold(rec.Field("color"), q.Color) &&
		!containsFold(rec.Field("name"), q.Color) {
		return false
	}
	if q.Gender != "" && rec.Field("gender") != "" && !containsFold(rec.Field("gender"), q.Gender) {
		return false
	}
	if q.Size != "" && rec.Field("sizes") != "" && !containsFold(rec.Field("sizes"), q.Size) {
		return false
	}
	if q.Text != "" {
		haystack := strings.ToLower(rec.Field("name") + " " + rec.Field("brand") + " " +
			rec.Field("category") + " " + rec.Field("description"))
		hit := false
		for _, term := range strings.Fields(strings.ToLower(q.Text)) {
			if strings.Contains(haystack, term) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if !q.MinPrice.IsZero() || !q.MaxPrice.IsZero() {
		price, err := shop.ParsePrice(rec.Field("price"))
		if err != nil {
			return false
		}
		if !q.MinPrice.IsZero() && price.LessThan(q.MinPrice) {
			return false
		}
		if !q.MaxPrice.IsZero() && price.GreaterThan(q.MaxPrice) {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
