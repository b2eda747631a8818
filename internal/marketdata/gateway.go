package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/alagbefranc/goldtrading-signal/internal/logger"
	"github.com/alagbefranc/goldtrading-signal/internal/store"
	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// dailyBudget caps metered provider calls over a sliding 24h window, so the
// limit holds across any such window, not just within one calendar day.
type dailyBudget struct {
	mu       sync.Mutex
	reserved []time.Time
	max      int
	now      func() time.Time
}

func newDailyBudget(max int) *dailyBudget {
	return &dailyBudget{max: max, now: time.Now}
}

// evictLocked drops reservations older than 24h. Callers hold b.mu.
func (b *dailyBudget) evictLocked() {
	cutoff := b.now().Add(-24 * time.Hour)
	kept := b.reserved[:0]
	for _, t := range b.reserved {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.reserved = kept
}

// Reserve consumes one call from the window. Returns types.ErrQuotaExceeded
// when max calls have already been made in the trailing 24h.
func (b *dailyBudget) Reserve() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictLocked()
	if len(b.reserved) >= b.max {
		return fmt.Errorf("daily call budget of %d spent: %w", b.max, types.ErrQuotaExceeded)
	}
	b.reserved = append(b.reserved, b.now())
	return nil
}

func (b *dailyBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.evictLocked()
	return b.max - len(b.reserved)
}

// Gateway is the single entry point for market data. It owns the provider
// chain, the quote cache, the inter-call rate limiter, and the daily call
// budget. A cache hit never touches a provider, the limiter, or the budget.
type Gateway struct {
	primary   *alphaVantageIntraday
	fallbacks []PriceProvider
	cache     *QuoteCache
	limiter   *rate.Limiter
	budget    *dailyBudget
	news      *newsFetcher
	priceTTL  time.Duration
	newsTTL   time.Duration
}

// NewGateway builds the provider chain from the configured API keys.
// Providers with no key are left out of the chain.
func NewGateway(cfg *store.Config, keys store.ProviderKeys) *Gateway {
	interval := time.Duration(cfg.Gateway.MinCallIntervalSecs) * time.Second
	g := &Gateway{
		cache:    NewQuoteCache(),
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		budget:   newDailyBudget(cfg.Gateway.MaxDailyCalls),
		priceTTL: time.Duration(cfg.Gateway.PriceTTLSeconds) * time.Second,
		newsTTL:  time.Duration(cfg.Gateway.NewsTTLSeconds) * time.Second,
	}

	if keys.AlphaVantage != "" {
		g.primary = newAlphaVantageIntraday(keys.AlphaVantage)
		g.fallbacks = append(g.fallbacks, newAlphaVantageFX(keys.AlphaVantage))
	}
	if keys.GoldAPI != "" {
		g.fallbacks = append(g.fallbacks, newGoldAPI(keys.GoldAPI))
	}
	if keys.Fixer != "" {
		g.fallbacks = append(g.fallbacks, newFixer(keys.Fixer))
	}
	g.news = newNewsFetcher(keys.AlphaVantage)
	return g
}

func (g *Gateway) providers() []PriceProvider {
	chain := make([]PriceProvider, 0, len(g.fallbacks)+1)
	if g.primary != nil {
		chain = append(chain, g.primary)
	}
	return append(chain, g.fallbacks...)
}

// GetPrice returns the spot price for symbol, serving from cache within the
// price TTL. On a miss it walks the provider chain in priority order. The
// metered primary pays the rate limiter and the daily budget; a spent budget
// propagates immediately so callers can distinguish quota exhaustion from
// provider outage.
func (g *Gateway) GetPrice(ctx context.Context, symbol string) (float64, error) {
	key := "price:" + symbol
	v, err := g.cache.GetOrFetch(key, g.priceTTL, func() (any, error) {
		return g.fetchPrice(ctx, symbol)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (g *Gateway) fetchPrice(ctx context.Context, symbol string) (float64, error) {
	chain := g.providers()
	if len(chain) == 0 {
		return 0, fmt.Errorf("no price providers configured: %w", types.ErrUnavailable)
	}

	var lastErr error
	for _, p := range chain {
		if err := g.meter(ctx, p); err != nil {
			if errors.Is(err, types.ErrQuotaExceeded) {
				return 0, err
			}
			lastErr = err
			continue
		}

		price, err := p.Price(ctx, symbol)
		if err != nil {
			logger.Debug(ctx, "price provider failed",
				"provider", p.Name(), "symbol", symbol, "error", err.Error())
			lastErr = err
			continue
		}
		logger.Debug(ctx, "price fetched",
			"provider", p.Name(), "symbol", symbol, "price", price)
		return price, nil
	}
	return 0, fmt.Errorf("all price providers failed for %s: %w (last: %v)",
		symbol, types.ErrUnavailable, lastErr)
}

// meter applies the inter-call rate limit and the daily budget to metered
// providers. Only the primary intraday endpoint is metered.
func (g *Gateway) meter(ctx context.Context, p PriceProvider) error {
	if g.primary == nil || p.Name() != g.primary.Name() {
		return nil
	}
	if err := g.budget.Reserve(); err != nil {
		return err
	}
	return g.limiter.Wait(ctx)
}

// GetCandles returns up to limit candles for symbol at tf, newest last.
// Sub-minute timeframes are served from the provider's finest interval.
// Windows are cached under the price TTL keyed by symbol and timeframe.
func (g *Gateway) GetCandles(ctx context.Context, symbol string, tf types.Timeframe, limit int) (*types.Series, error) {
	if g.primary == nil {
		return nil, fmt.Errorf("no candle provider configured: %w", types.ErrUnavailable)
	}
	key := fmt.Sprintf("candles:%s:%s", symbol, tf)
	v, err := g.cache.GetOrFetch(key, g.priceTTL, func() (any, error) {
		if err := g.budget.Reserve(); err != nil {
			return nil, err
		}
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		series, err := g.primary.Candles(ctx, symbol, tf, limit)
		if err != nil {
			return nil, fmt.Errorf("candle fetch for %s: %w: %v", symbol, types.ErrUnavailable, err)
		}
		return series, nil
	})
	if err != nil {
		return nil, err
	}
	series := v.(*types.Series)
	if series.Len() > limit {
		trimmed := &types.Series{}
		for i := series.Len() - limit; i < series.Len(); i++ {
			if err := trimmed.Append(series.At(i)); err != nil {
				return nil, err
			}
		}
		return trimmed, nil
	}
	return series, nil
}

// GetNews returns recent headlines relevant to symbol, cached under the news
// TTL. News fetches are unmetered.
func (g *Gateway) GetNews(ctx context.Context, symbol string, limit int) ([]types.NewsItem, error) {
	key := fmt.Sprintf("news:%s:%d", symbol, limit)
	v, err := g.cache.GetOrFetch(key, g.newsTTL, func() (any, error) {
		items, err := g.news.Fetch(ctx, symbol, limit)
		if err != nil {
			return nil, err
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.NewsItem), nil
}

// LastPrice returns the cached price without fetching, for callers that can
// tolerate staleness beyond the TTL.
func (g *Gateway) LastPrice(symbol string) (float64, bool) {
	v, _, ok := g.cache.LookupStale("price:" + symbol)
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

// BudgetRemaining reports how many metered calls are left today.
func (g *Gateway) BudgetRemaining() int { return g.budget.Remaining() }
