// Package signal implements the ICT strategy pipeline: anchor a coarse
// window, find an order block on a finer window, enter off a fair value gap
// on the finest window, and size the position from the configured risk.
package signal

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/alagbefranc/goldtrading-signal/internal/interfaces"
	"github.com/alagbefranc/goldtrading-signal/internal/logger"
	"github.com/alagbefranc/goldtrading-signal/internal/pattern"
	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// RiskRewardMultiple fixes the target at six times the risked distance.
const RiskRewardMultiple = 6.0

// stopBuffer pads the stop past the protected extreme.
const stopBuffer = 0.01

const (
	anchorTimeframe = types.TF2m
	anchorBars      = 30
	blockTimeframe  = types.TF15s
	blockBars       = 50
	gapTimeframe    = types.TF1s
	gapBars         = 100
)

// Config carries the risk parameters for position sizing.
type Config struct {
	// InvestmentUSD is the account capital the risk percentage applies to.
	InvestmentUSD float64
	// RiskPct is the percentage of InvestmentUSD risked per trade.
	RiskPct float64
	// DefaultLots is used when no investment amount is configured.
	DefaultLots float64
	// MinLot floors the computed size.
	MinLot float64
	// PipValues maps instrument to pip value per full lot. Missing
	// instruments default to 10.
	PipValues map[string]float64
}

// Synthesizer produces trade signals from market data. Every stage of the
// pipeline degrades to a default rather than aborting; signals built on
// synthetic candle data carry ProvenanceSynthetic so downstream execution
// can refuse them.
type Synthesizer struct {
	data interfaces.MarketData
	cfg  Config
	now  func() time.Time
}

func NewSynthesizer(data interfaces.MarketData, cfg Config) *Synthesizer {
	if cfg.MinLot == 0 {
		cfg.MinLot = 0.01
	}
	if cfg.DefaultLots == 0 {
		cfg.DefaultLots = cfg.MinLot
	}
	return &Synthesizer{data: data, cfg: cfg, now: time.Now}
}

// Synthesize runs the strategy for instrument. It returns
// types.ErrNoSignal only when even synthetic construction cannot produce a
// self-consistent entry/stop/target triple.
func (s *Synthesizer) Synthesize(ctx context.Context, instrument string) (*types.Signal, error) {
	anchor, synthetic := s.anchorWindow(ctx, instrument)
	anchorHigh, anchorLow := lastExtremes(anchor)

	blockSeries, blockSynthetic := s.window(ctx, instrument, blockTimeframe, blockBars, anchor)
	synthetic = synthetic || blockSynthetic

	block, ok := pattern.LatestBlock(pattern.FindOrderBlocks(blockSeries))
	if !ok {
		block = defaultBlock(blockSeries)
		logger.Debug(ctx, "no order blocks found, using trend default",
			"instrument", instrument, "kind", block.Kind)
	}

	gapSeries, gapSynthetic := s.window(ctx, instrument, gapTimeframe, gapBars, blockSeries)
	synthetic = synthetic || gapSynthetic

	gap, ok := pattern.LatestGap(pattern.FindFairValueGaps(gapSeries), block.Kind)
	if !ok {
		gap = defaultGap(gapSeries, block.Kind)
		logger.Debug(ctx, "no fair value gap aligned with the block, using default",
			"instrument", instrument, "kind", gap.Kind)
	}

	var direction types.Direction
	var entry, stop float64
	if gap.Kind == types.ZoneBullish {
		direction = types.Buy
		entry = gap.Bottom
		stop = math.Min(anchorLow, block.Low) - stopBuffer
	} else {
		direction = types.Sell
		entry = gap.Top
		stop = math.Max(anchorHigh, block.High) + stopBuffer
	}

	risk := math.Abs(entry - stop)
	var target float64
	if direction == types.Buy {
		target = entry + risk*RiskRewardMultiple
	} else {
		target = entry - risk*RiskRewardMultiple
	}

	provenance := types.ProvenanceReal
	if synthetic {
		provenance = types.ProvenanceSynthetic
	}

	sig := &types.Signal{
		ID:              uuid.NewString(),
		Symbol:          instrument,
		Direction:       direction,
		Entry:           entry,
		StopLoss:        stop,
		TakeProfit:      target,
		RiskRewardRatio: RiskRewardMultiple,
		PositionSize:    s.lotSize(ctx, instrument, entry, stop),
		Provenance:      provenance,
		CreatedAt:       s.now().UTC(),
	}

	if err := sig.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrNoSignal, err)
	}

	logger.Signal(ctx, sig.Symbol, string(sig.Direction), sig.Entry, sig.StopLoss,
		sig.TakeProfit, string(sig.Provenance))
	return sig, nil
}

// anchorWindow fetches the coarse window, retrying at the block timeframe
// before falling back to a deterministic synthetic series.
func (s *Synthesizer) anchorWindow(ctx context.Context, instrument string) (*types.Series, bool) {
	if series, err := s.data.GetCandles(ctx, instrument, anchorTimeframe, anchorBars); err == nil {
		return series, false
	} else {
		logger.Debug(ctx, "anchor window fetch failed, retrying finer timeframe",
			"instrument", instrument, "error", err.Error())
	}
	if series, err := s.data.GetCandles(ctx, instrument, blockTimeframe, anchorBars); err == nil {
		return series, false
	}
	return s.synthetic(ctx, instrument, anchorTimeframe, anchorBars), true
}

// window fetches a series at tf, falling back to the already-obtained
// coarser series.
func (s *Synthesizer) window(ctx context.Context, instrument string, tf types.Timeframe, bars int, fallback *types.Series) (*types.Series, bool) {
	series, err := s.data.GetCandles(ctx, instrument, tf, bars)
	if err == nil {
		return series, false
	}
	logger.Debug(ctx, "window fetch failed, reusing coarser series",
		"instrument", instrument, "timeframe", string(tf), "error", err.Error())
	if fallback != nil && fallback.Len() > 0 {
		return fallback, false
	}
	return s.synthetic(ctx, instrument, tf, bars), true
}

func (s *Synthesizer) synthetic(ctx context.Context, instrument string, tf types.Timeframe, bars int) *types.Series {
	base, ok := s.data.LastPrice(instrument)
	if !ok {
		base = referencePrice(instrument)
	}
	logger.Info(ctx, "using synthetic candle data",
		"instrument", instrument, "timeframe", string(tf), "base", base)
	return syntheticSeries(base, tf, bars, s.now())
}

func lastExtremes(series *types.Series) (high, low float64) {
	last, ok := series.Last()
	if !ok {
		return 0, 0
	}
	return last.High, last.Low
}

// defaultBlock builds a trend-following block from the last two candles.
func defaultBlock(series *types.Series) types.OrderBlock {
	last, _ := series.Last()
	prev := last
	if series.Len() > 1 {
		prev = series.At(series.Len() - 2)
	}

	kind := types.ZoneBearish
	if last.Close > prev.Close {
		kind = types.ZoneBullish
	}
	return types.OrderBlock{
		Kind:  kind,
		Ts:    last.Ts,
		High:  last.High,
		Low:   last.Low,
		Open:  last.Open,
		Close: last.Close,
	}
}

// defaultGap builds a gap aligned with the order block direction from the
// last two candles.
func defaultGap(series *types.Series, kind types.ZoneKind) types.FairValueGap {
	last, _ := series.Last()
	prev := last
	if series.Len() > 1 {
		prev = series.At(series.Len() - 2)
	}

	var top, bottom float64
	if kind == types.ZoneBullish {
		top = last.High
		bottom = prev.Low
	} else {
		top = prev.High
		bottom = last.Low
	}
	return types.FairValueGap{
		Kind:   kind,
		Ts:     last.Ts,
		Top:    top,
		Bottom: bottom,
		Size:   math.Abs(top - bottom),
	}
}

// lotSize converts the configured risk into lots for the instrument. Gold
// quotes pips in tenths, regular pairs in ten-thousandths.
func (s *Synthesizer) lotSize(ctx context.Context, instrument string, entry, stop float64) float64 {
	if s.cfg.InvestmentUSD <= 0 {
		return s.cfg.DefaultLots
	}

	stopDistance := math.Abs(entry - stop)
	var stopPips float64
	if instrument == "XAUUSD" {
		stopPips = stopDistance * 10
	} else {
		stopPips = stopDistance * 10000
	}
	if stopPips == 0 {
		return s.cfg.DefaultLots
	}

	pipValue := 10.0
	if v, ok := s.cfg.PipValues[instrument]; ok && v > 0 {
		pipValue = v
	}

	riskAmount := s.cfg.InvestmentUSD * s.cfg.RiskPct / 100
	lots := riskAmount / (stopPips * pipValue)
	lots = math.Round(lots*100) / 100
	if lots < s.cfg.MinLot {
		lots = s.cfg.MinLot
	}

	logger.Debug(ctx, "position size computed",
		"instrument", instrument, "lots", lots, "risk_amount", riskAmount, "stop_pips", stopPips)
	return lots
}
