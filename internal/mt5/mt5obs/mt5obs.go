// Package mt5obs wraps the broker connector with logging and tracing so
// every broker round-trip shows up in traces without cluttering the
// connector itself.
package mt5obs

import (
	"context"

	"github.com/alagbefranc/goldtrading-signal/internal/interfaces"
	"github.com/alagbefranc/goldtrading-signal/internal/logger"
	"github.com/alagbefranc/goldtrading-signal/internal/mt5"
	"github.com/alagbefranc/goldtrading-signal/internal/trace"
)

// observableConnector wraps a Connector with observability (logging & tracing)
type observableConnector struct {
	conn interfaces.Connector
}

// Compile-time interface checks
var _ interfaces.Connector = (*observableConnector)(nil)
var _ interfaces.Connector = (*mt5.Connector)(nil)

// Wrap wraps a connector with observability middleware
func Wrap(conn interfaces.Connector) interfaces.Connector {
	return &observableConnector{conn: conn}
}

func (oc *observableConnector) Initialize(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "broker.Initialize")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Initializing broker session")
	if err := oc.conn.Initialize(ctx); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Broker initialize failed", err)
		return err
	}
	logger.InfoSkip(ctx, 1, "Broker session initialized")
	return nil
}

func (oc *observableConnector) Login(ctx context.Context, account int64, password, server string) error {
	ctx, span := trace.StartSpan(ctx, "broker.Login")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Logging in to broker", "account", account, "server", server)
	if err := oc.conn.Login(ctx, account, password, server); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Broker login failed", err, "account", account)
		return err
	}
	logger.InfoSkip(ctx, 1, "Broker login succeeded", "account", account)
	return nil
}

func (oc *observableConnector) Shutdown(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "broker.Shutdown")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Shutting down broker session")
	return oc.conn.Shutdown(ctx)
}

func (oc *observableConnector) GetSymbols(ctx context.Context) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetSymbols")
	defer span.End()

	symbols, err := oc.conn.GetSymbols(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to list symbols", err)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Symbols listed", "count", len(symbols))
	return symbols, nil
}

func (oc *observableConnector) GetSymbolInfo(ctx context.Context, symbol string) (*mt5.SymbolInfo, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetSymbolInfo")
	defer span.End()

	info, err := oc.conn.GetSymbolInfo(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch symbol info", err, "symbol", symbol)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Symbol info fetched", "symbol", symbol)
	return info, nil
}

func (oc *observableConnector) GetTick(ctx context.Context, symbol string) (*mt5.Tick, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetTick")
	defer span.End()

	tick, err := oc.conn.GetTick(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch tick", err, "symbol", symbol)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Tick fetched", "symbol", symbol, "bid", tick.Bid, "ask", tick.Ask)
	return tick, nil
}

func (oc *observableConnector) GetPositions(ctx context.Context, symbol string) ([]mt5.Position, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetPositions")
	defer span.End()

	positions, err := oc.conn.GetPositions(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch positions", err, "symbol", symbol)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Positions fetched", "symbol", symbol, "count", len(positions))
	return positions, nil
}

func (oc *observableConnector) PlaceMarketOrder(ctx context.Context, order mt5.MarketOrder) (*mt5.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceMarketOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing market order",
		"symbol", order.Symbol,
		"direction", string(order.Direction),
		"volume", order.Volume,
		"stop_loss", order.StopLoss,
		"take_profit", order.TakeProfit)

	result, err := oc.conn.PlaceMarketOrder(ctx, order)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Market order failed", err, "symbol", order.Symbol)
		return result, err
	}

	logger.InfoSkip(ctx, 1, "Market order placed",
		"symbol", order.Symbol,
		"order_id", result.Order,
		"price", result.Price,
		"volume", result.Volume)
	return result, nil
}
