package cost

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// RateSource resolves an exchange rate from one currency to another.
// A false return means no rate is known for the pair.
type RateSource interface {
	Rate(from, to string) (decimal.Decimal, bool)
}

// StaticRates is a fixed rate table keyed "FROM/TO". Pairs not present
// directly are derived through a pivot currency when possible.
type StaticRates struct {
	Pivot string
	Table map[string]decimal.Decimal // "EUR/SEK" -> 11.50
}

// DefaultStaticRates returns the fallback table used when no live
// source is configured.
func DefaultStaticRates() *StaticRates {
	return &StaticRates{
		Pivot: "SEK",
		Table: map[string]decimal.Decimal{
			"EUR/SEK": decimal.RequireFromString("11.50"),
			"USD/SEK": decimal.RequireFromString("10.50"),
			"GBP/SEK": decimal.RequireFromString("13.50"),
			"EUR/USD": decimal.RequireFromString("1.09"),
		},
	}
}

func (s *StaticRates) Rate(from, to string) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	if r, ok := s.Table[from+"/"+to]; ok {
		return r, true
	}
	if r, ok := s.Table[to+"/"+from]; ok && !r.IsZero() {
		return decimal.NewFromInt(1).DivRound(r, 8), true
	}
	// Derive through the pivot: from->pivot->to.
	if s.Pivot != "" && from != s.Pivot && to != s.Pivot {
		a, okA := s.Rate(from, s.Pivot)
		b, okB := s.Rate(s.Pivot, to)
		if okA && okB {
			return a.Mul(b), true
		}
	}
	return decimal.Zero, false
}

// LiveRates fetches rates from an exchange-rate API, caches them, and
// falls back to a static table when the API is unreachable.
type LiveRates struct {
	client   *resty.Client
	fallback RateSource
	ttl      time.Duration

	mu     sync.RWMutex
	cache  map[string]decimal.Decimal
	expiry map[string]time.Time
}

// NewLiveRates creates a live rate source against the given API base
// URL (e.g. "https://api.exchangerate-api.com/v4").
func NewLiveRates(baseURL string, fallback RateSource) *LiveRates {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)
	return &LiveRates{
		client:   client,
		fallback: fallback,
		ttl:      time.Hour,
		cache:    make(map[string]decimal.Decimal),
		expiry:   make(map[string]time.Time),
	}
}

func (l *LiveRates) Rate(from, to string) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}

	key := from + "/" + to
	l.mu.RLock()
	r, ok := l.cache[key]
	exp := l.expiry[key]
	l.mu.RUnlock()
	if ok && time.Now().Before(exp) {
		return r, true
	}

	if r, err := l.fetch(context.Background(), from, to); err == nil {
		l.mu.Lock()
		l.cache[key] = r
		l.expiry[key] = time.Now().Add(l.ttl)
		l.mu.Unlock()
		return r, true
	}

	if l.fallback != nil {
		return l.fallback.Rate(from, to)
	}
	return decimal.Zero, false
}

type latestRatesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (l *LiveRates) fetch(ctx context.Context, from, to string) (decimal.Decimal, error) {
	var out latestRatesResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/latest/" + from)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch rates for %s: %w", from, err)
	}
	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("fetch rates for %s: status %d", from, resp.StatusCode())
	}
	r, ok := out.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate %s/%s in response", from, to)
	}
	return r, nil
}
