package mt5

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// fakeTerminal is an in-memory Terminal for exercising the direct transport.
type fakeTerminal struct {
	initErr     error
	loginErr    error
	selectErr   error
	retcode     int
	tick        Tick
	info        SymbolInfo
	selectCnt   int
	initCnt     int
	shutdownCnt int
	lastReq     *OrderRequest
}

func (f *fakeTerminal) Initialize() error {
	f.initCnt++
	return f.initErr
}
func (f *fakeTerminal) Login(account int64, password, server string) error { return f.loginErr }
func (f *fakeTerminal) Shutdown() error {
	f.shutdownCnt++
	return nil
}
func (f *fakeTerminal) Symbols() ([]string, error) { return []string{"XAUUSD", "EURUSD"}, nil }
func (f *fakeTerminal) SymbolInfo(symbol string) (*SymbolInfo, error) {
	info := f.info
	info.Name = symbol
	return &info, nil
}
func (f *fakeTerminal) SymbolInfoTick(symbol string) (*Tick, error) { return &f.tick, nil }
func (f *fakeTerminal) SymbolSelect(symbol string, enable bool) error {
	f.selectCnt++
	if f.selectErr != nil {
		return f.selectErr
	}
	f.info.Visible = true
	return nil
}
func (f *fakeTerminal) Positions(symbol string) ([]Position, error) { return nil, nil }
func (f *fakeTerminal) OrderSend(req *OrderRequest) (*OrderResult, error) {
	f.lastReq = req
	retcode := f.retcode
	if retcode == 0 {
		retcode = RetcodeDone
	}
	return &OrderResult{Retcode: retcode, Order: 777, Price: req.Price, Volume: req.Volume}, nil
}

func tradableTerminal() *fakeTerminal {
	return &fakeTerminal{
		tick: Tick{Bid: 2340.10, Ask: 2340.40},
		info: SymbolInfo{Visible: true, TradeAllowed: true, VolumeMin: 0.01},
	}
}

func newTestConnector(term Terminal) *Connector {
	return NewConnector(context.Background(), Params{
		FacadeURL: "http://127.0.0.1:1", // unreachable, direct preferred anyway
		Terminal:  term,
		Deviation: 20,
		Magic:     12345,
	})
}

func login(t *testing.T, c *Connector) {
	t.Helper()
	ctx := context.Background()
	if err := c.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Login(ctx, 12345678, "secret", "Broker-Demo"); err != nil {
		t.Fatal(err)
	}
}

func TestStateMachine(t *testing.T) {
	c := newTestConnector(tradableTerminal())
	ctx := context.Background()

	if c.State() != StateUninitialized {
		t.Fatalf("expected uninitialized, got %v", c.State())
	}

	// Login without initialize is rejected; the state never skips ahead.
	if err := c.Login(ctx, 1, "x", "y"); err == nil {
		t.Fatal("expected login to fail before initialize")
	}
	if c.State() != StateUninitialized {
		t.Errorf("state changed on rejected login: %v", c.State())
	}

	if err := c.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if c.State() != StateInitialized {
		t.Errorf("expected initialized, got %v", c.State())
	}

	if err := c.Login(ctx, 1, "x", "y"); err != nil {
		t.Fatal(err)
	}
	if c.State() != StateLoggedIn {
		t.Errorf("expected logged-in, got %v", c.State())
	}
}

func TestShutdownIdempotent(t *testing.T) {
	c := newTestConnector(tradableTerminal())
	ctx := context.Background()
	login(t, c)

	if err := c.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if c.State() != StateDisconnected {
		t.Errorf("expected disconnected, got %v", c.State())
	}
	// Second shutdown is a no-op.
	if err := c.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	// Fresh connector: shutdown straight from uninitialized is legal.
	c2 := newTestConnector(tradableTerminal())
	if err := c2.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if c2.State() != StateDisconnected {
		t.Errorf("expected disconnected, got %v", c2.State())
	}
}

func TestPlaceMarketOrderBuyUsesAsk(t *testing.T) {
	term := tradableTerminal()
	c := newTestConnector(term)
	login(t, c)

	result, err := c.PlaceMarketOrder(context.Background(), MarketOrder{
		Symbol:     "XAUUSD",
		Direction:  types.Buy,
		Volume:     0.05,
		StopLoss:   2338.0,
		TakeProfit: 2354.0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Reason != ReasonSuccess {
		t.Errorf("expected success, got %v", result.Reason)
	}
	if term.lastReq.Price != 2340.40 {
		t.Errorf("BUY must fill at ask, got %v", term.lastReq.Price)
	}
	if term.lastReq.Type != OrderTypeBuy {
		t.Errorf("expected buy order type, got %d", term.lastReq.Type)
	}
	if term.lastReq.Deviation != 20 || term.lastReq.Magic != 12345 {
		t.Errorf("deviation/magic not applied: %+v", term.lastReq)
	}
	if term.lastReq.TypeTime != OrderTimeGTC || term.lastReq.TypeFilling != OrderFillingIOC {
		t.Errorf("unexpected time/filling policy: %+v", term.lastReq)
	}
}

func TestPlaceMarketOrderSellUsesBid(t *testing.T) {
	term := tradableTerminal()
	c := newTestConnector(term)
	login(t, c)

	_, err := c.PlaceMarketOrder(context.Background(), MarketOrder{
		Symbol:    "XAUUSD",
		Direction: types.Sell,
		Volume:    0.05,
	})
	if err != nil {
		t.Fatal(err)
	}
	if term.lastReq.Price != 2340.10 {
		t.Errorf("SELL must fill at bid, got %v", term.lastReq.Price)
	}
	if term.lastReq.Type != OrderTypeSell {
		t.Errorf("expected sell order type, got %d", term.lastReq.Type)
	}
}

func TestPlaceMarketOrderEnablesSymbolOnce(t *testing.T) {
	term := tradableTerminal()
	term.info.Visible = false
	c := newTestConnector(term)
	login(t, c)

	for i := 0; i < 3; i++ {
		if _, err := c.PlaceMarketOrder(context.Background(), MarketOrder{
			Symbol:    "XAUUSD",
			Direction: types.Buy,
			Volume:    0.01,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if term.selectCnt != 1 {
		t.Errorf("expected one symbol enable for the session, got %d", term.selectCnt)
	}
}

func TestPlaceMarketOrderSymbolSelectAdvisory(t *testing.T) {
	term := tradableTerminal()
	term.info.Visible = false
	term.selectErr = errors.New("unknown endpoint: symbol_select")
	c := newTestConnector(term)
	login(t, c)

	// Symbol select failing must not block the order; the trade-allowed
	// flag from symbol info decides.
	result, err := c.PlaceMarketOrder(context.Background(), MarketOrder{
		Symbol:    "XAUUSD",
		Direction: types.Buy,
		Volume:    0.01,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Reason != ReasonSuccess {
		t.Errorf("expected success, got %v", result.Reason)
	}
	if term.selectCnt != 1 {
		t.Errorf("expected one symbol select attempt, got %d", term.selectCnt)
	}
}

func TestPlaceMarketOrderMarketClosed(t *testing.T) {
	term := tradableTerminal()
	term.retcode = RetcodeMarketClosed
	c := newTestConnector(term)
	login(t, c)

	result, err := c.PlaceMarketOrder(context.Background(), MarketOrder{
		Symbol:    "XAUUSD",
		Direction: types.Buy,
		Volume:    0.01,
	})
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if result == nil || result.Reason != ReasonMarketClosed {
		t.Fatalf("expected market-closed result, got %+v", result)
	}

	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectionError, got %T", err)
	}
	if rej.Reason != ReasonMarketClosed {
		t.Errorf("expected market-closed reason, got %v", rej.Reason)
	}
	// Rejections classify as terminal so the retry layer never resubmits.
	if types.Classify(err) != types.CategoryRejected {
		t.Errorf("expected rejected category, got %v", types.Classify(err))
	}
}

func TestMapRetcode(t *testing.T) {
	cases := []struct {
		code int
		want RejectReason
	}{
		{RetcodeDone, ReasonSuccess},
		{RetcodeRequote, ReasonRequote},
		{RetcodeInvalidVolume, ReasonInvalidVolume},
		{RetcodeInsufficientFunds, ReasonInsufficientFunds},
		{RetcodeOrderLimitReached, ReasonOrderLimit},
		{99999, ReasonUnknown},
	}
	for _, tc := range cases {
		if got := MapRetcode(tc.code); got != tc.want {
			t.Errorf("MapRetcode(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestTransportFallbackPinsFacade(t *testing.T) {
	var facadeInits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			fmt.Fprint(w, `{"success": true}`)
		case "/initialize":
			facadeInits++
			fmt.Fprint(w, `{"success": true}`)
		case "/login":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			fmt.Fprint(w, `{"success": true}`)
		case "/shutdown":
			fmt.Fprint(w, `{"success": true}`)
		default:
			fmt.Fprint(w, `{"error": "unexpected endpoint"}`)
		}
	}))
	defer server.Close()

	term := &fakeTerminal{initErr: errors.New("terminal not running")}
	c := NewConnector(context.Background(), Params{
		FacadeURL: server.URL,
		Terminal:  term,
		Deviation: 20,
		Magic:     12345,
	})

	ctx := context.Background()
	if err := c.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if facadeInits != 1 {
		t.Fatalf("expected facade to handle initialize, got %d calls", facadeInits)
	}
	if err := c.Login(ctx, 12345678, "secret", "Broker-Demo"); err != nil {
		t.Fatal(err)
	}

	// Pinned: the failing terminal is never probed again.
	if term.initCnt != 1 {
		t.Errorf("expected direct transport tried once, got %d", term.initCnt)
	}
}

func TestFacadeErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "terminal not initialized"}`)
	}))
	defer server.Close()

	c := NewConnector(context.Background(), Params{FacadeURL: server.URL})
	err := c.Initialize(context.Background())
	if err == nil {
		t.Fatal("expected error from facade envelope")
	}
}
