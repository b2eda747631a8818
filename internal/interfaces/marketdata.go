// Package interfaces holds the contracts between the bot's components so
// implementations can be swapped in tests without import cycles.
package interfaces

import (
	"context"

	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// MarketData is the single entry point for prices, candle windows, and news.
type MarketData interface {
	// GetPrice returns the spot price for symbol, served from cache within
	// the configured TTL.
	GetPrice(ctx context.Context, symbol string) (float64, error)

	// GetCandles returns up to limit candles at tf, oldest first.
	GetCandles(ctx context.Context, symbol string, tf types.Timeframe, limit int) (*types.Series, error)

	// GetNews returns recent headlines relevant to symbol.
	GetNews(ctx context.Context, symbol string, limit int) ([]types.NewsItem, error)

	// LastPrice returns the most recently cached price regardless of age.
	LastPrice(symbol string) (float64, bool)
}
