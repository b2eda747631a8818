package interfaces

import (
	"context"

	"github.com/alagbefranc/goldtrading-signal/internal/mt5"
)

// Connector is the broker session used by execution. Implemented by
// mt5.Connector and its observability wrapper.
type Connector interface {
	Initialize(ctx context.Context) error
	Login(ctx context.Context, account int64, password, server string) error
	Shutdown(ctx context.Context) error

	GetSymbols(ctx context.Context) ([]string, error)
	GetSymbolInfo(ctx context.Context, symbol string) (*mt5.SymbolInfo, error)
	GetTick(ctx context.Context, symbol string) (*mt5.Tick, error)
	GetPositions(ctx context.Context, symbol string) ([]mt5.Position, error)

	PlaceMarketOrder(ctx context.Context, order mt5.MarketOrder) (*mt5.OrderResult, error)
}
