// Package mt5 talks to a MetaTrader 5 terminal over one of two transports:
// an in-process binding where the terminal runs natively, or the local HTTP
// facade. The connector owns the session state machine and translates raw
// broker return codes into a typed result taxonomy.
package mt5

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alagbefranc/goldtrading-signal/internal/logger"
	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// ConnectionState tracks the session lifecycle. Account data is only valid
// in LoggedIn.
type ConnectionState int

const (
	StateUninitialized ConnectionState = iota
	StateInitialized
	StateLoggedIn
	StateDisconnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateLoggedIn:
		return "logged-in"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Per-operation timeouts. Order placement gets the longest budget since it
// is a full broker round-trip.
const (
	sessionOpTimeout = 10 * time.Second
	queryOpTimeout   = 5 * time.Second
	orderOpTimeout   = 15 * time.Second
)

// Params configures a Connector.
type Params struct {
	// FacadeURL is the HTTP facade base URL.
	FacadeURL string
	// Terminal is the in-process binding; nil where no native binding
	// exists.
	Terminal Terminal
	// Deviation is the accepted price slippage in points.
	Deviation int
	// Magic tags orders placed by this bot.
	Magic int
}

// Connector is the broker session. All state transitions and operations are
// serialized behind one mutex; concurrent login/shutdown are not meaningful.
type Connector struct {
	mu sync.Mutex

	primary   transport // preferred transport, tried first
	secondary transport // fallback, may be nil
	active    transport // pinned after the first success
	pinned    bool

	state     ConnectionState
	deviation int
	magic     int

	// symbols already enabled for trading this session
	enabled map[string]bool
}

// NewConnector builds the connector and decides transport preference. The
// direct binding is preferred when present; the facade is probed for
// reachability so an unreachable facade demotes to secondary.
func NewConnector(ctx context.Context, params Params) *Connector {
	facade := newFacadeTransport(params.FacadeURL)

	c := &Connector{
		state:     StateUninitialized,
		deviation: params.Deviation,
		magic:     params.Magic,
		enabled:   make(map[string]bool),
	}

	if params.Terminal != nil {
		c.primary = newDirectTransport(params.Terminal)
		c.secondary = facade
		logger.Info(ctx, "broker transport preference", "primary", "direct", "secondary", "facade")
		return c
	}

	c.primary = facade
	probeCtx, cancel := context.WithTimeout(ctx, queryOpTimeout)
	defer cancel()
	if !facade.Healthy(probeCtx) {
		logger.Warn(ctx, "broker facade not reachable yet", "url", params.FacadeURL)
	}
	logger.Info(ctx, "broker transport preference", "primary", "facade")
	return c
}

// State returns the current session state.
func (c *Connector) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// do runs op against the active transport. Before a transport is pinned, a
// transport-level failure is retried once on the other transport; the first
// transport to succeed is pinned for the rest of the session.
func (c *Connector) do(ctx context.Context, name string, op func(transport) error) error {
	if c.pinned {
		return op(c.active)
	}

	first := c.primary
	if c.active != nil {
		first = c.active
	}

	err := op(first)
	if err == nil {
		c.active = first
		c.pinned = true
		logger.InfoSkip(ctx, 1, "broker transport pinned", "transport", first.Name(), "op", name)
		return nil
	}
	if isRejection(err) || c.secondary == nil || c.secondary == first {
		return err
	}

	logger.InfoSkip(ctx, 1, "broker transport failed, trying fallback",
		"op", name, "failed", first.Name(), "fallback", c.secondary.Name(), "error", err.Error())
	if err2 := op(c.secondary); err2 == nil {
		c.active = c.secondary
		c.pinned = true
		logger.InfoSkip(ctx, 1, "broker transport pinned", "transport", c.secondary.Name(), "op", name)
		return nil
	}
	return err
}

func isRejection(err error) bool {
	return types.Classify(err) == types.CategoryRejected
}

// Initialize starts the terminal session.
func (c *Connector) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateInitialized || c.state == StateLoggedIn {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, sessionOpTimeout)
	defer cancel()
	if err := c.do(opCtx, "initialize", func(t transport) error {
		return t.Initialize(opCtx)
	}); err != nil {
		return err
	}
	c.state = StateInitialized
	return nil
}

// Login authenticates the account. The session must be Initialized first.
func (c *Connector) Login(ctx context.Context, account int64, password, server string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateLoggedIn {
		return nil
	}
	if c.state != StateInitialized {
		return fmt.Errorf("login requires initialized session, state is %s", c.state)
	}

	opCtx, cancel := context.WithTimeout(ctx, sessionOpTimeout)
	defer cancel()
	if err := c.do(opCtx, "login", func(t transport) error {
		return t.Login(opCtx, account, password, server)
	}); err != nil {
		return err
	}
	c.state = StateLoggedIn
	logger.Info(ctx, "broker login complete", "account", account, "server", server)
	return nil
}

// Shutdown closes the session. Callable from any state and idempotent.
func (c *Connector) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisconnected || c.state == StateUninitialized {
		c.state = StateDisconnected
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, sessionOpTimeout)
	defer cancel()
	err := c.do(opCtx, "shutdown", func(t transport) error {
		return t.Shutdown(opCtx)
	})
	c.state = StateDisconnected
	return err
}

// GetSymbols lists tradeable symbols.
func (c *Connector) GetSymbols(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLogin(); err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, queryOpTimeout)
	defer cancel()
	var symbols []string
	err := c.do(opCtx, "get_symbols", func(t transport) error {
		var err error
		symbols, err = t.Symbols(opCtx)
		return err
	})
	return symbols, err
}

// GetSymbolInfo returns metadata for symbol.
func (c *Connector) GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLogin(); err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, queryOpTimeout)
	defer cancel()
	var info *SymbolInfo
	err := c.do(opCtx, "get_symbol_info", func(t transport) error {
		var err error
		info, err = t.SymbolInfo(opCtx, symbol)
		return err
	})
	return info, err
}

// GetTick returns the latest quote for symbol.
func (c *Connector) GetTick(ctx context.Context, symbol string) (*Tick, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	return c.tickLocked(ctx, symbol)
}

func (c *Connector) tickLocked(ctx context.Context, symbol string) (*Tick, error) {
	opCtx, cancel := context.WithTimeout(ctx, queryOpTimeout)
	defer cancel()
	var tick *Tick
	err := c.do(opCtx, "get_tick", func(t transport) error {
		var err error
		tick, err = t.SymbolInfoTick(opCtx, symbol)
		return err
	})
	return tick, err
}

// GetPositions lists open positions, optionally filtered by symbol.
func (c *Connector) GetPositions(ctx context.Context, symbol string) ([]Position, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLogin(); err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, queryOpTimeout)
	defer cancel()
	var positions []Position
	err := c.do(opCtx, "positions_get", func(t transport) error {
		var err error
		positions, err = t.Positions(opCtx, symbol)
		return err
	})
	return positions, err
}

// MarketOrder describes a market order to place.
type MarketOrder struct {
	Symbol     string
	Direction  types.Direction
	Volume     float64
	StopLoss   float64
	TakeProfit float64
	Comment    string
}

// PlaceMarketOrder submits a market order and returns the broker's typed
// result. Broker rejections come back as a *RejectionError alongside the
// result; they are terminal and must not be retried.
func (c *Connector) PlaceMarketOrder(ctx context.Context, order MarketOrder) (*OrderResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	if order.Volume <= 0 {
		return nil, fmt.Errorf("invalid order volume %v", order.Volume)
	}

	if err := c.ensureTradeable(ctx, order.Symbol); err != nil {
		return nil, err
	}

	tick, err := c.tickLocked(ctx, order.Symbol)
	if err != nil {
		return nil, fmt.Errorf("quote for %s: %w", order.Symbol, err)
	}

	orderType := OrderTypeBuy
	price := tick.Ask
	if order.Direction == types.Sell {
		orderType = OrderTypeSell
		price = tick.Bid
	}

	req := &OrderRequest{
		Action:      TradeActionDeal,
		Symbol:      order.Symbol,
		Volume:      order.Volume,
		Type:        orderType,
		Price:       price,
		StopLoss:    order.StopLoss,
		TakeProfit:  order.TakeProfit,
		Deviation:   c.deviation,
		Magic:       c.magic,
		Comment:     order.Comment,
		TypeTime:    OrderTimeGTC,
		TypeFilling: OrderFillingIOC,
	}

	opCtx, cancel := context.WithTimeout(ctx, orderOpTimeout)
	defer cancel()
	var result *OrderResult
	if err := c.do(opCtx, "order_send", func(t transport) error {
		var err error
		result, err = t.OrderSend(opCtx, req)
		return err
	}); err != nil {
		return nil, err
	}

	result.Reason = MapRetcode(result.Retcode)
	if result.Reason != ReasonSuccess {
		logger.Warn(ctx, "order rejected by broker",
			"symbol", order.Symbol, "reason", string(result.Reason), "retcode", result.Retcode)
		return result, &RejectionError{
			Retcode: result.Retcode,
			Reason:  result.Reason,
			Comment: result.Comment,
		}
	}

	logger.Trade(ctx, order.Symbol, string(order.Direction), order.Volume, result.Price,
		fmt.Sprint(result.Order))
	return result, nil
}

// ensureTradeable enables the symbol once per session and fails hard when
// the broker still reports it disabled.
func (c *Connector) ensureTradeable(ctx context.Context, symbol string) error {
	if c.enabled[symbol] {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, queryOpTimeout)
	defer cancel()

	info, err := c.doSymbolInfo(opCtx, symbol)
	if err != nil {
		return err
	}
	if !info.Visible {
		// Not every facade build serves symbol_select; a failure here is
		// advisory and the trade-allowed check below still decides.
		if err := c.do(opCtx, "symbol_select", func(t transport) error {
			return t.SymbolSelect(opCtx, symbol, true)
		}); err != nil {
			logger.Warn(ctx, "symbol select unavailable, relying on symbol info",
				"symbol", symbol, "error", err.Error())
		}
		info, err = c.doSymbolInfo(opCtx, symbol)
		if err != nil {
			return err
		}
	}
	if !info.TradeAllowed {
		return &RejectionError{
			Retcode: RetcodeTradingDisabled,
			Reason:  ReasonTradingDisabled,
			Comment: fmt.Sprintf("trading disabled for %s", symbol),
		}
	}

	c.enabled[symbol] = true
	return nil
}

func (c *Connector) doSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	var info *SymbolInfo
	err := c.do(ctx, "get_symbol_info", func(t transport) error {
		var err error
		info, err = t.SymbolInfo(ctx, symbol)
		return err
	})
	return info, err
}

func (c *Connector) requireLogin() error {
	if c.state != StateLoggedIn {
		return fmt.Errorf("operation requires login, state is %s", c.state)
	}
	return nil
}
