package mt5

import (
	"context"
	"fmt"
)

// Terminal is the in-process binding to the trading terminal. The binding
// only exists where the terminal runs natively; elsewhere the connector is
// built with a nil Terminal and uses the HTTP facade. Tests supply fakes.
type Terminal interface {
	Initialize() error
	Login(account int64, password, server string) error
	Shutdown() error

	Symbols() ([]string, error)
	SymbolInfo(symbol string) (*SymbolInfo, error)
	SymbolInfoTick(symbol string) (*Tick, error)
	SymbolSelect(symbol string, enable bool) error

	Positions(symbol string) ([]Position, error)
	OrderSend(req *OrderRequest) (*OrderResult, error)
}

// directTransport adapts a Terminal to the transport contract. Terminal
// calls are synchronous and local, so context is only checked up front.
type directTransport struct {
	term Terminal
}

func newDirectTransport(term Terminal) *directTransport {
	return &directTransport{term: term}
}

func (d *directTransport) Name() string { return "direct" }

func (d *directTransport) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.term.Initialize(); err != nil {
		return fmt.Errorf("terminal initialize: %w", err)
	}
	return nil
}

func (d *directTransport) Login(ctx context.Context, account int64, password, server string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.term.Login(account, password, server); err != nil {
		return fmt.Errorf("terminal login: %w", err)
	}
	return nil
}

func (d *directTransport) Shutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.term.Shutdown()
}

func (d *directTransport) Symbols(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.term.Symbols()
}

func (d *directTransport) SymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.term.SymbolInfo(symbol)
}

func (d *directTransport) SymbolInfoTick(ctx context.Context, symbol string) (*Tick, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.term.SymbolInfoTick(symbol)
}

func (d *directTransport) SymbolSelect(ctx context.Context, symbol string, enable bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.term.SymbolSelect(symbol, enable)
}

func (d *directTransport) Positions(ctx context.Context, symbol string) ([]Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.term.Positions(symbol)
}

func (d *directTransport) OrderSend(ctx context.Context, req *OrderRequest) (*OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.term.OrderSend(req)
}
