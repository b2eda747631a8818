package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/alagbefranc/goldtrading-signal/internal/logger"
	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// newsFetcher serves market headlines. The Alpha Vantage sentiment feed is
// the primary source; when it has no key or returns an empty feed, the
// fetcher scrapes public commodity news pages instead.
type newsFetcher struct {
	apiKey  string
	baseURL string
	sources []newsSource
	timeout time.Duration
}

// newsSource is one scrapeable headline page.
type newsSource struct {
	Name      string
	BaseURL   string
	Path      string
	Selectors articleSelectors
}

type articleSelectors struct {
	Container string
	Title     string
	URL       string
	Summary   string
}

func newNewsFetcher(apiKey string) *newsFetcher {
	return &newsFetcher{
		apiKey:  apiKey,
		baseURL: "https://www.alphavantage.co",
		sources: defaultNewsSources(),
		timeout: 15 * time.Second,
	}
}

func defaultNewsSources() []newsSource {
	return []newsSource{
		{
			Name:    "Kitco",
			BaseURL: "https://www.kitco.com",
			Path:    "/news/",
			Selectors: articleSelectors{
				Container: "article",
				Title:     "h3 a, h2 a",
				URL:       "h3 a, h2 a",
				Summary:   "p",
			},
		},
		{
			Name:    "FXStreet",
			BaseURL: "https://www.fxstreet.com",
			Path:    "/news",
			Selectors: articleSelectors{
				Container: "article.fxs_entry",
				Title:     "h4 a",
				URL:       "h4 a",
				Summary:   "p.fxs_entry_metaInfo",
			},
		},
	}
}

// Fetch returns up to limit headlines for symbol.
func (f *newsFetcher) Fetch(ctx context.Context, symbol string, limit int) ([]types.NewsItem, error) {
	if f.apiKey != "" {
		items, err := f.fetchFeed(ctx, symbol, limit)
		if err == nil && len(items) > 0 {
			return items, nil
		}
		if err != nil {
			logger.Debug(ctx, "news feed fetch failed, falling back to scrape",
				"symbol", symbol, "error", err.Error())
		}
	}
	return f.scrape(ctx, symbol, limit)
}

func (f *newsFetcher) fetchFeed(ctx context.Context, symbol string, limit int) ([]types.NewsItem, error) {
	ticker := symbol
	if len(ticker) >= 3 {
		ticker = ticker[:3]
	}
	feedURL := fmt.Sprintf("%s/query?function=NEWS_SENTIMENT&tickers=%s&apikey=%s&limit=%d",
		f.baseURL, ticker, f.apiKey, limit)

	var payload struct {
		Feed []struct {
			Title         string `json:"title"`
			URL           string `json:"url"`
			TimePublished string `json:"time_published"`
			Source        string `json:"source"`
			Summary       string `json:"summary"`
		} `json:"feed"`
	}
	if err := fetchJSON(ctx, &http.Client{Timeout: f.timeout}, feedURL, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.Feed) == 0 {
		return nil, fmt.Errorf("empty news feed")
	}

	items := make([]types.NewsItem, 0, limit)
	for _, entry := range payload.Feed {
		if len(items) >= limit {
			break
		}
		items = append(items, types.NewsItem{
			Title:     entry.Title,
			URL:       entry.URL,
			Source:    entry.Source,
			Summary:   entry.Summary,
			Published: entry.TimePublished,
		})
	}
	return items, nil
}

// scrape pulls headlines from the configured public pages. Soft failures on
// one source move on to the next.
func (f *newsFetcher) scrape(ctx context.Context, symbol string, limit int) ([]types.NewsItem, error) {
	all := []types.NewsItem{}
	perSource := limit / len(f.sources)
	if perSource < 1 {
		perSource = 1
	}

	for _, source := range f.sources {
		items, err := f.scrapeSource(ctx, source, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape news source", err,
				"source", source.Name, "symbol", symbol)
			continue
		}
		all = append(all, items...)
		if len(all) >= limit {
			break
		}
	}

	if len(all) > limit {
		all = all[:limit]
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no news available for %s: %w", symbol, types.ErrUnavailable)
	}
	return all, nil
}

func (f *newsFetcher) scrapeSource(ctx context.Context, source newsSource, maxItems int) ([]types.NewsItem, error) {
	items := []types.NewsItem{}

	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(source.BaseURL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(f.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.Container, func(e *colly.HTMLElement) {
		if len(items) >= maxItems {
			return
		}

		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			return
		}
		link := e.ChildAttr(source.Selectors.URL, "href")
		if link == "" {
			return
		}
		if !strings.HasPrefix(link, "http") {
			link = source.BaseURL + link
		}

		items = append(items, types.NewsItem{
			Title:   title,
			URL:     link,
			Source:  source.Name,
			Summary: strings.TrimSpace(e.ChildText(source.Selectors.Summary)),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.DebugSkip(ctx, 1, "news scrape error",
			"source", source.Name, "url", r.Request.URL.String(), "error", err.Error())
	})

	if err := c.Visit(source.BaseURL + source.Path); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", source.BaseURL+source.Path, err)
	}
	c.Wait()

	return items, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
