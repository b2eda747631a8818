// Package executor drives the signal loop: on each tick inside an open
// trading window it synthesizes a signal, journals it, and forwards it to
// the broker when live execution is enabled. Signals built on synthetic
// data never reach the broker.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alagbefranc/goldtrading-signal/internal/interfaces"
	"github.com/alagbefranc/goldtrading-signal/internal/logger"
	"github.com/alagbefranc/goldtrading-signal/internal/mt5"
	"github.com/alagbefranc/goldtrading-signal/internal/retry"
	"github.com/alagbefranc/goldtrading-signal/internal/tradelog"
	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// ErrSyntheticSignal marks a live order refused because the signal was
// built on fabricated candle data.
var ErrSyntheticSignal = errors.New("refusing live order for synthetic-data signal")

// Mode decides whether signals are forwarded to the broker.
type Mode string

const (
	ModeDryRun Mode = "DRY_RUN"
	ModeLive   Mode = "LIVE"
)

// Params wires a Manager.
type Params struct {
	Symbol       string
	Mode         Mode
	PollInterval time.Duration
	Windows      []Window
	Synthesizer  interfaces.Synthesizer
	Connector    interfaces.Connector
	RetryPolicy  retry.Policy
	// AutoTrade gates order placement even in LIVE mode.
	AutoTrade bool
}

// Manager runs the scheduling loop. Evaluations run as independent
// goroutines so a blocking rate-limit wait in one never stalls the ticker.
type Manager struct {
	params Params
	now    func() time.Time

	mu       sync.Mutex
	inFlight bool
}

func NewManager(params Params) *Manager {
	if params.PollInterval <= 0 {
		params.PollInterval = time.Minute
	}
	return &Manager{params: params, now: time.Now}
}

// Run polls until ctx is cancelled. One evaluation per tick; a tick that
// arrives while the previous evaluation is still running is skipped.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.params.PollInterval)
	defer ticker.Stop()

	logger.Info(ctx, "execution loop started",
		"symbol", m.params.Symbol, "mode", string(m.params.Mode),
		"poll_interval", m.params.PollInterval.String(), "windows", len(m.params.Windows))

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "execution loop stopped")
			return ctx.Err()
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Manager) tick(ctx context.Context) {
	if len(m.params.Windows) > 0 && !AnyOpen(m.params.Windows, m.now()) {
		logger.Debug(ctx, "outside trading windows, skipping evaluation", "symbol", m.params.Symbol)
		return
	}

	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		logger.Debug(ctx, "previous evaluation still running, skipping tick", "symbol", m.params.Symbol)
		return
	}
	m.inFlight = true
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			m.inFlight = false
			m.mu.Unlock()
		}()
		if _, _, err := m.Evaluate(ctx); err != nil &&
			!errors.Is(err, types.ErrNoSignal) && !errors.Is(err, ErrSyntheticSignal) {
			logger.ErrorWithErr(ctx, "evaluation failed", err, "symbol", m.params.Symbol)
		}
	}()
}

// Evaluate synthesizes one signal and, when allowed, executes it. The
// signal is journaled regardless of execution outcome. Returns the signal
// and the broker result, either of which may be nil.
func (m *Manager) Evaluate(ctx context.Context) (*types.Signal, *mt5.OrderResult, error) {
	sig, err := m.params.Synthesizer.Synthesize(ctx, m.params.Symbol)
	if err != nil {
		return nil, nil, err
	}

	if err := tradelog.AppendSignal(tradelog.SignalEntry{
		ID:           sig.ID,
		Symbol:       sig.Symbol,
		Direction:    string(sig.Direction),
		Provenance:   string(sig.Provenance),
		Entry:        sig.Entry,
		StopLoss:     sig.StopLoss,
		TakeProfit:   sig.TakeProfit,
		PositionSize: sig.PositionSize,
	}); err != nil {
		logger.Warn(ctx, "failed to journal signal", "signal_id", sig.ID, "error", err.Error())
	}

	if m.params.Mode != ModeLive || !m.params.AutoTrade {
		logger.Info(ctx, "signal not executed",
			"signal_id", sig.ID, "mode", string(m.params.Mode), "auto_trade", m.params.AutoTrade)
		return sig, nil, nil
	}

	result, err := m.execute(ctx, sig)
	return sig, result, err
}

// execute places the order for sig. Synthetic-data signals are refused
// before any broker call. Transport-level failures are retried under the
// policy; broker rejections are terminal.
func (m *Manager) execute(ctx context.Context, sig *types.Signal) (*mt5.OrderResult, error) {
	if sig.Provenance == types.ProvenanceSynthetic {
		logger.Risk(ctx, sig.Symbol, "synthetic-signal-blocked", "signal_id", sig.ID)
		return nil, fmt.Errorf("%w: signal %s", ErrSyntheticSignal, sig.ID)
	}
	if m.params.Connector == nil {
		return nil, fmt.Errorf("no broker connector configured")
	}

	order := mt5.MarketOrder{
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		Volume:     sig.PositionSize,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Comment:    "ict-" + sig.ID[:8],
	}

	var result *mt5.OrderResult
	err := retry.Do(ctx, m.params.RetryPolicy, "place_market_order", func() error {
		var opErr error
		result, opErr = m.params.Connector.PlaceMarketOrder(ctx, order)
		return opErr
	})

	entry := tradelog.OrderEntry{
		SignalID:  sig.ID,
		Symbol:    sig.Symbol,
		Direction: string(sig.Direction),
		Volume:    order.Volume,
	}
	if result != nil {
		entry.Price = result.Price
		entry.OrderID = result.Order
		entry.Reason = string(result.Reason)
	} else if err != nil {
		entry.Reason = err.Error()
	}
	if jerr := tradelog.AppendOrder(entry); jerr != nil {
		logger.Warn(ctx, "failed to journal order", "signal_id", sig.ID, "error", jerr.Error())
	}

	if err != nil {
		return result, err
	}
	logger.Info(ctx, "order executed",
		"signal_id", sig.ID, "order_id", result.Order, "price", result.Price)
	return result, nil
}
