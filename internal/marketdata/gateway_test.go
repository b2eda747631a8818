package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alagbefranc/goldtrading-signal/internal/store"
	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

func testConfig(maxCalls int) *store.Config {
	cfg := &store.Config{}
	cfg.Gateway.PriceTTLSeconds = 600
	cfg.Gateway.NewsTTLSeconds = 3600
	cfg.Gateway.MaxDailyCalls = maxCalls
	// zero min interval keeps tests fast; rate.Every treats it as unlimited
	cfg.Gateway.MinCallIntervalSecs = 0
	return cfg
}

func TestGetPriceFallbackThenCache(t *testing.T) {
	var primaryCalls, fallbackCalls atomic.Int64

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryCalls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackCalls.Add(1)
		fmt.Fprint(w, `{"Realtime Currency Exchange Rate":{"5. Exchange Rate":"2345.67"}}`)
	}))
	defer fallback.Close()

	g := NewGateway(testConfig(20), store.ProviderKeys{AlphaVantage: "test-key"})
	g.primary.baseURL = primary.URL
	g.fallbacks[0].(*alphaVantageFX).baseURL = fallback.URL

	price, err := g.GetPrice(context.Background(), "XAUUSD")
	if err != nil {
		t.Fatal(err)
	}
	if price != 2345.67 {
		t.Errorf("expected 2345.67, got %v", price)
	}

	fetchedAt, ok := g.cache.FetchedAt("price:XAUUSD")
	if !ok {
		t.Fatal("expected price to be cached")
	}
	if time.Since(fetchedAt) > time.Minute {
		t.Errorf("expected fresh cache timestamp, got %v", fetchedAt)
	}

	// Second read serves from cache with zero extra provider calls.
	before := primaryCalls.Load() + fallbackCalls.Load()
	price2, err := g.GetPrice(context.Background(), "XAUUSD")
	if err != nil {
		t.Fatal(err)
	}
	if price2 != price {
		t.Errorf("expected identical cached price, got %v vs %v", price2, price)
	}
	if after := primaryCalls.Load() + fallbackCalls.Load(); after != before {
		t.Errorf("expected no extra provider calls, got %d more", after-before)
	}
}

func TestGetPriceQuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	g := NewGateway(testConfig(1), store.ProviderKeys{AlphaVantage: "test-key"})
	g.primary.baseURL = server.URL
	g.fallbacks[0].(*alphaVantageFX).baseURL = server.URL

	// First call spends the budget and exhausts the chain.
	if _, err := g.GetPrice(context.Background(), "XAUUSD"); err == nil {
		t.Fatal("expected failure with all providers down")
	}

	// The budget is now spent; the quota error propagates distinctly
	// without walking the fallback chain.
	_, err := g.GetPrice(context.Background(), "EURUSD")
	if !errors.Is(err, types.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if errors.Is(err, types.ErrUnavailable) {
		t.Error("quota error must be distinct from unavailable")
	}
	if types.Classify(err) != types.CategoryQuota {
		t.Errorf("expected quota category, got %v", types.Classify(err))
	}
}

func TestGetPriceNoProviders(t *testing.T) {
	g := NewGateway(testConfig(20), store.ProviderKeys{})
	_, err := g.GetPrice(context.Background(), "XAUUSD")
	if !errors.Is(err, types.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestGetCandles(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"Time Series (1min)":{
			"2026-08-31 10:00:00":{"1. open":"2340.0","2. high":"2341.0","3. low":"2339.0","4. close":"2340.5","5. volume":"100"},
			"2026-08-31 10:01:00":{"1. open":"2340.5","2. high":"2342.0","3. low":"2340.0","4. close":"2341.5","5. volume":"120"},
			"2026-08-31 10:02:00":{"1. open":"2341.5","2. high":"2343.0","3. low":"2341.0","4. close":"2342.0","5. volume":"90"}
		}}`)
	}))
	defer server.Close()

	g := NewGateway(testConfig(20), store.ProviderKeys{AlphaVantage: "test-key"})
	g.primary.baseURL = server.URL

	series, err := g.GetCandles(context.Background(), "XAUUSD", types.TF1m, 30)
	if err != nil {
		t.Fatal(err)
	}
	if series.Len() != 3 {
		t.Fatalf("expected 3 candles, got %d", series.Len())
	}

	// Ascending order regardless of map iteration.
	for i := 1; i < series.Len(); i++ {
		if series.At(i).Ts <= series.At(i-1).Ts {
			t.Errorf("candles out of order at %d", i)
		}
	}
	last, _ := series.Last()
	if last.Close != 2342.0 {
		t.Errorf("expected last close 2342.0, got %v", last.Close)
	}

	// Trimming to a smaller window does not refetch.
	trimmed, err := g.GetCandles(context.Background(), "XAUUSD", types.TF1m, 2)
	if err != nil {
		t.Fatal(err)
	}
	if trimmed.Len() != 2 {
		t.Errorf("expected 2 candles after trim, got %d", trimmed.Len())
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 provider call, got %d", calls.Load())
	}
}

func TestDailyBudgetHoldsAcrossMidnight(t *testing.T) {
	b := newDailyBudget(2)
	clock := time.Date(2026, 8, 30, 23, 50, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	if err := b.Reserve(); err != nil {
		t.Fatal(err)
	}
	if err := b.Reserve(); err != nil {
		t.Fatal(err)
	}

	// The date changed but the 24h window has not passed; the budget must
	// still be spent.
	clock = time.Date(2026, 8, 31, 0, 10, 0, 0, time.UTC)
	if err := b.Reserve(); !errors.Is(err, types.ErrQuotaExceeded) {
		t.Fatalf("expected quota error just after midnight, got %v", err)
	}
	if got := b.Remaining(); got != 0 {
		t.Errorf("expected 0 remaining, got %d", got)
	}
}

func TestDailyBudgetSlidingExpiry(t *testing.T) {
	b := newDailyBudget(2)
	start := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	clock := start
	b.now = func() time.Time { return clock }

	if err := b.Reserve(); err != nil {
		t.Fatal(err)
	}
	clock = start.Add(12 * time.Hour)
	if err := b.Reserve(); err != nil {
		t.Fatal(err)
	}
	if err := b.Reserve(); !errors.Is(err, types.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}

	// 24h past the first reservation only that one expires.
	clock = start.Add(24*time.Hour + time.Minute)
	if got := b.Remaining(); got != 1 {
		t.Errorf("expected 1 remaining after first reservation expired, got %d", got)
	}
	if err := b.Reserve(); err != nil {
		t.Fatalf("expected one freed slot, got %v", err)
	}
	if err := b.Reserve(); !errors.Is(err, types.ErrQuotaExceeded) {
		t.Fatalf("expected quota error with window full again, got %v", err)
	}
}

func TestSplitPair(t *testing.T) {
	cases := []struct {
		in, from, to string
	}{
		{"XAUUSD", "XAU", "USD"},
		{"EURUSD", "EUR", "USD"},
		{"XAU", "XAU", "USD"},
	}
	for _, tc := range cases {
		from, to := splitPair(tc.in)
		if from != tc.from || to != tc.to {
			t.Errorf("splitPair(%q) = %q/%q, want %q/%q", tc.in, from, to, tc.from, tc.to)
		}
	}
}
