package mt5

import "context"

// Order request wire constants, matching the trade server's enums.
const (
	TradeActionDeal = 1

	OrderTypeBuy  = 0
	OrderTypeSell = 1

	OrderTimeGTC    = 0
	OrderFillingIOC = 1
)

// Tick is the latest quote for a symbol.
type Tick struct {
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
	Last float64 `json:"last"`
	Time int64   `json:"time"`
}

// SymbolInfo is the subset of symbol metadata the bot needs.
type SymbolInfo struct {
	Name        string  `json:"name"`
	Digits      int     `json:"digits"`
	Point       float64 `json:"point"`
	VolumeMin   float64 `json:"volume_min"`
	VolumeMax   float64 `json:"volume_max"`
	VolumeStep  float64 `json:"volume_step"`
	TradeAllowed bool   `json:"trade_allowed"`
	Visible     bool    `json:"visible"`
}

// Position is one open position on the account.
type Position struct {
	Ticket     int64   `json:"ticket"`
	Symbol     string  `json:"symbol"`
	Type       int     `json:"type"`
	Volume     float64 `json:"volume"`
	PriceOpen  float64 `json:"price_open"`
	StopLoss   float64 `json:"sl"`
	TakeProfit float64 `json:"tp"`
	Profit     float64 `json:"profit"`
	Magic      int     `json:"magic"`
}

// OrderRequest is the trade request sent to the server.
type OrderRequest struct {
	Action      int     `json:"action"`
	Symbol      string  `json:"symbol"`
	Volume      float64 `json:"volume"`
	Type        int     `json:"type"`
	Price       float64 `json:"price"`
	StopLoss    float64 `json:"sl,omitempty"`
	TakeProfit  float64 `json:"tp,omitempty"`
	Deviation   int     `json:"deviation,omitempty"`
	Magic       int     `json:"magic,omitempty"`
	Comment     string  `json:"comment,omitempty"`
	TypeTime    int     `json:"type_time"`
	TypeFilling int     `json:"type_filling"`
}

// OrderResult is the trade server's synchronous reply.
type OrderResult struct {
	Retcode int     `json:"retcode"`
	Deal    int64   `json:"deal"`
	Order   int64   `json:"order"`
	Volume  float64 `json:"volume"`
	Price   float64 `json:"price"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	Comment string  `json:"comment"`

	// Reason is filled in by the connector from Retcode.
	Reason RejectReason `json:"-"`
}

// transport is one way of reaching the terminal. The connector probes the
// direct binding first and falls back to the HTTP facade, pinning whichever
// answers first.
type transport interface {
	Name() string

	Initialize(ctx context.Context) error
	Login(ctx context.Context, account int64, password, server string) error
	Shutdown(ctx context.Context) error

	Symbols(ctx context.Context) ([]string, error)
	SymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error)
	SymbolInfoTick(ctx context.Context, symbol string) (*Tick, error)
	SymbolSelect(ctx context.Context, symbol string, enable bool) error

	Positions(ctx context.Context, symbol string) ([]Position, error)
	OrderSend(ctx context.Context, req *OrderRequest) (*OrderResult, error)
}
