package types

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Candle is a single OHLCV bar. Ts is unix milliseconds.
type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// ZoneKind tags order blocks and fair value gaps.
type ZoneKind string

const (
	ZoneBullish ZoneKind = "bullish"
	ZoneBearish ZoneKind = "bearish"
)

// OrderBlock is the candle body preceding an impulsive move.
// Derived by the detector, never mutated afterwards.
type OrderBlock struct {
	Kind                   ZoneKind
	Ts                     int64
	High, Low, Open, Close float64
}

// FairValueGap is a three-candle price imbalance.
// Invariant: Top >= Bottom, Size = Top - Bottom >= 0.
type FairValueGap struct {
	Kind        ZoneKind
	Ts          int64
	Top, Bottom float64
	Size        float64
}

// Direction of a trade signal.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Provenance marks whether a produced value came from a live provider or
// from the deterministic synthetic fallback.
type Provenance string

const (
	ProvenanceReal      Provenance = "real"
	ProvenanceSynthetic Provenance = "synthetic"
)

// Signal is the trade instruction emitted by the synthesizer.
type Signal struct {
	ID              string
	Symbol          string
	Direction       Direction
	Entry           float64
	StopLoss        float64
	TakeProfit      float64
	RiskRewardRatio float64
	PositionSize    float64
	Provenance      Provenance
	CreatedAt       time.Time
}

// RiskReward recomputes the ratio from the triple.
func (s Signal) RiskReward() float64 {
	risk := math.Abs(s.Entry - s.StopLoss)
	if risk == 0 {
		return 0
	}
	return math.Abs(s.TakeProfit-s.Entry) / risk
}

// Validate checks the ordering invariants for the triple.
func (s Signal) Validate() error {
	switch s.Direction {
	case Buy:
		if !(s.StopLoss < s.Entry && s.Entry < s.TakeProfit) {
			return fmt.Errorf("invalid BUY triple: sl=%.5f entry=%.5f tp=%.5f", s.StopLoss, s.Entry, s.TakeProfit)
		}
	case Sell:
		if !(s.TakeProfit < s.Entry && s.Entry < s.StopLoss) {
			return fmt.Errorf("invalid SELL triple: tp=%.5f entry=%.5f sl=%.5f", s.TakeProfit, s.Entry, s.StopLoss)
		}
	default:
		return fmt.Errorf("unknown direction %q", s.Direction)
	}
	return nil
}

// NewsItem is one article returned by the news feed.
type NewsItem struct {
	Title     string
	URL       string
	Source    string
	Summary   string
	Published string
}

// Sentinel errors for the gateway result taxonomy. Callers branch on these
// with errors.Is and never inspect provider internals.
var (
	// ErrUnavailable means every configured provider was exhausted.
	ErrUnavailable = errors.New("market data unavailable")
	// ErrQuotaExceeded means the primary provider's daily budget is spent.
	// Raised before any network call so callers can back off cheaply.
	ErrQuotaExceeded = errors.New("daily api quota exceeded")
	// ErrNoSignal means even synthetic construction could not produce a
	// self-consistent entry/stop/target triple.
	ErrNoSignal = errors.New("no signal")
)

// ErrorCategory is the four-way classification every error surfaced by the
// core resolves to.
type ErrorCategory int

const (
	CategoryTransient ErrorCategory = iota
	CategoryUnavailable
	CategoryQuota
	CategoryRejected
	CategoryConfig
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryUnavailable:
		return "unavailable"
	case CategoryQuota:
		return "quota"
	case CategoryRejected:
		return "rejected"
	case CategoryConfig:
		return "config"
	}
	return "unknown"
}

// Categorizer lets error types carry their own classification.
// Broker rejections and config errors implement it.
type Categorizer interface {
	Category() ErrorCategory
}

// Classify maps an error onto the taxonomy. Anything unrecognized is treated
// as transient, which keeps it eligible for fallback and retry.
func Classify(err error) ErrorCategory {
	if err == nil {
		return CategoryTransient
	}
	var c Categorizer
	if errors.As(err, &c) {
		return c.Category()
	}
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		return CategoryQuota
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrNoSignal):
		return CategoryUnavailable
	}
	return CategoryTransient
}
