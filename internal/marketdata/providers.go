package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// PriceProvider fetches a spot price for an instrument. Implementations
// parse provider JSON defensively: a missing key is a soft failure that
// advances the gateway to the next provider, never a crash.
type PriceProvider interface {
	Name() string
	Price(ctx context.Context, instrument string) (float64, error)
}

// CandleProvider is implemented by providers that can serve OHLCV windows.
type CandleProvider interface {
	Candles(ctx context.Context, instrument string, tf types.Timeframe, limit int) (*types.Series, error)
}

func splitPair(instrument string) (from, to string) {
	if len(instrument) >= 6 {
		return instrument[:3], instrument[3:6]
	}
	return instrument, "USD"
}

func fetchJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// alphaVantageIntraday is the primary provider. It serves both spot prices
// and candle windows from the intraday time series endpoint.
type alphaVantageIntraday struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newAlphaVantageIntraday(apiKey string) *alphaVantageIntraday {
	return &alphaVantageIntraday{
		apiKey:  apiKey,
		baseURL: "https://www.alphavantage.co",
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *alphaVantageIntraday) Name() string { return "alphavantage-intraday" }

func (p *alphaVantageIntraday) fetchSeries(ctx context.Context, instrument string) (map[string]map[string]string, error) {
	from, to := splitPair(instrument)
	url := fmt.Sprintf("%s/query?function=CRYPTO_INTRADAY&symbol=%s&market=%s&interval=1min&outputsize=compact&apikey=%s",
		p.baseURL, from, to, p.apiKey)

	var payload struct {
		Series map[string]map[string]string `json:"Time Series (1min)"`
	}
	if err := fetchJSON(ctx, p.client, url, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.Series) == 0 {
		return nil, fmt.Errorf("no intraday series in response")
	}
	return payload.Series, nil
}

func (p *alphaVantageIntraday) Price(ctx context.Context, instrument string) (float64, error) {
	series, err := p.fetchSeries(ctx, instrument)
	if err != nil {
		return 0, err
	}

	latest := ""
	for ts := range series {
		if ts > latest {
			latest = ts
		}
	}
	close, ok := series[latest]["4. close"]
	if !ok {
		return 0, fmt.Errorf("missing close field for %s", latest)
	}
	return strconv.ParseFloat(close, 64)
}

func (p *alphaVantageIntraday) Candles(ctx context.Context, instrument string, tf types.Timeframe, limit int) (*types.Series, error) {
	raw, err := p.fetchSeries(ctx, instrument)
	if err != nil {
		return nil, err
	}

	stamps := make([]string, 0, len(raw))
	for ts := range raw {
		stamps = append(stamps, ts)
	}
	sort.Strings(stamps)
	if len(stamps) > limit {
		stamps = stamps[len(stamps)-limit:]
	}

	series := &types.Series{}
	for _, ts := range stamps {
		t, err := time.Parse("2006-01-02 15:04:05", ts)
		if err != nil {
			continue
		}
		bar := raw[ts]
		c := types.Candle{Ts: t.UnixMilli()}
		fields := []struct {
			key string
			dst *float64
		}{
			{"1. open", &c.Open},
			{"2. high", &c.High},
			{"3. low", &c.Low},
			{"4. close", &c.Close},
			{"5. volume", &c.Vol},
		}
		bad := false
		for _, f := range fields {
			v, ok := bar[f.key]
			if !ok {
				if f.key == "5. volume" {
					continue // some feeds omit volume
				}
				bad = true
				break
			}
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				bad = true
				break
			}
			*f.dst = parsed
		}
		if bad {
			continue
		}
		if err := series.Append(c); err != nil {
			continue
		}
	}

	if series.Len() == 0 {
		return nil, fmt.Errorf("no parseable candles in response")
	}
	return series, nil
}

// alphaVantageFX is the currency-pair fallback endpoint of the same vendor.
type alphaVantageFX struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newAlphaVantageFX(apiKey string) *alphaVantageFX {
	return &alphaVantageFX{
		apiKey:  apiKey,
		baseURL: "https://www.alphavantage.co",
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *alphaVantageFX) Name() string { return "alphavantage-fx" }

func (p *alphaVantageFX) Price(ctx context.Context, instrument string) (float64, error) {
	from, to := splitPair(instrument)
	url := fmt.Sprintf("%s/query?function=CURRENCY_EXCHANGE_RATE&from_currency=%s&to_currency=%s&apikey=%s",
		p.baseURL, from, to, p.apiKey)

	var payload struct {
		Rate map[string]string `json:"Realtime Currency Exchange Rate"`
	}
	if err := fetchJSON(ctx, p.client, url, nil, &payload); err != nil {
		return 0, err
	}
	rate, ok := payload.Rate["5. Exchange Rate"]
	if !ok {
		return 0, fmt.Errorf("missing exchange rate field")
	}
	return strconv.ParseFloat(rate, 64)
}

// goldAPI serves XAU/USD spot from goldapi.io. Only configured when its key
// is present.
type goldAPI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newGoldAPI(apiKey string) *goldAPI {
	return &goldAPI{
		apiKey:  apiKey,
		baseURL: "https://www.goldapi.io",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *goldAPI) Name() string { return "goldapi" }

func (p *goldAPI) Price(ctx context.Context, instrument string) (float64, error) {
	from, to := splitPair(instrument)
	url := fmt.Sprintf("%s/api/%s/%s/", p.baseURL, from, to)
	headers := map[string]string{
		"x-access-token": p.apiKey,
		"Content-Type":   "application/json",
	}

	var payload struct {
		Price float64 `json:"price"`
	}
	if err := fetchJSON(ctx, p.client, url, headers, &payload); err != nil {
		return 0, err
	}
	if payload.Price == 0 {
		return 0, fmt.Errorf("missing price field")
	}
	return payload.Price, nil
}

// fixer derives the pair from fixer.io EUR-based rates.
type fixer struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newFixer(apiKey string) *fixer {
	return &fixer{
		apiKey:  apiKey,
		baseURL: "http://data.fixer.io",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *fixer) Name() string { return "fixer" }

func (p *fixer) Price(ctx context.Context, instrument string) (float64, error) {
	from, to := splitPair(instrument)
	url := fmt.Sprintf("%s/api/latest?access_key=%s&symbols=%s,%s", p.baseURL, p.apiKey, from, to)

	var payload struct {
		Success bool               `json:"success"`
		Rates   map[string]float64 `json:"rates"`
	}
	if err := fetchJSON(ctx, p.client, url, nil, &payload); err != nil {
		return 0, err
	}
	if !payload.Success {
		return 0, fmt.Errorf("fixer request unsuccessful")
	}
	fromRate, okFrom := payload.Rates[from]
	toRate, okTo := payload.Rates[to]
	if !okFrom || !okTo || fromRate == 0 {
		return 0, fmt.Errorf("missing rates for %s/%s", from, to)
	}
	// Rates are quoted against a common base, so the cross is to/from.
	return toRate / fromRate, nil
}
