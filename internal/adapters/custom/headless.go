package custom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/fyndra/outfitscout/internal/adapters/scrape"
	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
)

func init() {
	Register("headless_jsonld", func(cfg *models.ShopConfig, _ *http.Client) (shop.Adapter, error) {
		if cfg.Scrape == nil {
			return nil, fmt.Errorf("shop %s: headless_jsonld needs a scrape block for its search URL", cfg.ID)
		}
		return &HeadlessAdapter{cfg: cfg}, nil
	})
}

// HeadlessAdapter renders JS-heavy shops in a headless browser and
// reads the structured data the rendered page exposes.
type HeadlessAdapter struct {
	cfg         *models.ShopConfig
	launcherURL string // optional remote launcher URL
}

func (h *HeadlessAdapter) Search(ctx context.Context, q shop.Query) ([]shop.RawRecord, error) {
	base, err := url.Parse(h.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("shop url: %w", err)
	}
	ref, err := url.Parse(h.cfg.Scrape.SearchPath)
	if err != nil {
		return nil, fmt.Errorf("search path: %w", err)
	}
	u := base.ResolveReference(ref)
	values := u.Query()
	values.Set(h.cfg.Scrape.QueryParam, strings.TrimSpace(q.Brand+" "+q.Category+" "+q.Text))
	u.RawQuery = values.Encode()

	records, err := h.renderAndExtract(ctx, u.String())
	if err != nil {
		return nil, err
	}
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records, nil
}

func (h *HeadlessAdapter) Fetch(ctx context.Context, externalID string) (*shop.RawRecord, error) {
	productURL := externalID
	if !strings.HasPrefix(productURL, "http") {
		productURL = strings.TrimRight(h.cfg.URL, "/") + "/" + strings.TrimPrefix(externalID, "/")
	}

	records, err := h.renderAndExtract(ctx, productURL)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	rec := records[0]
	if rec.Fields["url"] == "" {
		rec.Fields["url"] = productURL
	}
	if rec.Fields["id"] == "" {
		rec.Fields["id"] = externalID
	}
	return &rec, nil
}

func (h *HeadlessAdapter) renderAndExtract(ctx context.Context, pageURL string) ([]shop.RawRecord, error) {
	page, cleanup, err := h.openPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// Wait for page to stabilize
	timedPage := page.Timeout(15 * time.Second)
	if err := timedPage.WaitStable(time.Second); err == nil {
		_ = timedPage.WaitDOMStable(2*time.Second, 0.1)
	}

	htmlContent, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("get page HTML: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}

	records := scrape.ExtractJSONLD(doc)
	if len(records) == 0 {
		return nil, fmt.Errorf("no product data in rendered page")
	}
	return records, nil
}

func (h *HeadlessAdapter) openPage(ctx context.Context, pageURL string) (*rod.Page, func(), error) {
	var l *launcher.Launcher
	if h.launcherURL != "" {
		l = launcher.MustNewManaged(h.launcherURL)
	} else {
		l = launcher.New().Headless(true).Logger(io.Discard)
	}
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		browser.Close()
		return nil, nil, fmt.Errorf("open page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	})
	if err != nil {
		browser.Close()
		return nil, nil, fmt.Errorf("set viewport: %w", err)
	}

	cleanup := func() {
		page.Close()
		browser.Close()
		l.Cleanup()
	}

	return page, cleanup, nil
}
