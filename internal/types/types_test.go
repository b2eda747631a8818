package types

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestSeriesAppendOrdering(t *testing.T) {
	s := &Series{}
	if err := s.Append(Candle{Ts: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Candle{Ts: 2000, Open: 1.5, High: 2.5, Low: 1, Close: 2}); err != nil {
		t.Fatal(err)
	}

	// Duplicate and out-of-order timestamps are rejected.
	if err := s.Append(Candle{Ts: 2000}); err == nil {
		t.Error("expected duplicate timestamp to be rejected")
	}
	if err := s.Append(Candle{Ts: 500}); err == nil {
		t.Error("expected out-of-order timestamp to be rejected")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 candles, got %d", s.Len())
	}

	last, ok := s.Last()
	if !ok || last.Ts != 2000 {
		t.Errorf("expected last ts 2000, got %+v ok=%v", last, ok)
	}
}

func TestSeriesNilSafe(t *testing.T) {
	var s *Series
	if s.Len() != 0 {
		t.Errorf("nil series length should be 0, got %d", s.Len())
	}
	if _, ok := s.Last(); ok {
		t.Error("nil series should have no last candle")
	}
}

func TestSignalValidate(t *testing.T) {
	buy := Signal{Direction: Buy, Entry: 2000, StopLoss: 1998, TakeProfit: 2012}
	if err := buy.Validate(); err != nil {
		t.Errorf("valid BUY rejected: %v", err)
	}

	sell := Signal{Direction: Sell, Entry: 2000, StopLoss: 2002, TakeProfit: 1988}
	if err := sell.Validate(); err != nil {
		t.Errorf("valid SELL rejected: %v", err)
	}

	inverted := Signal{Direction: Buy, Entry: 2000, StopLoss: 2005, TakeProfit: 2012}
	if err := inverted.Validate(); err == nil {
		t.Error("BUY with stop above entry must be invalid")
	}

	flat := Signal{Direction: Sell, Entry: 2000, StopLoss: 2000, TakeProfit: 2000}
	if err := flat.Validate(); err == nil {
		t.Error("degenerate triple must be invalid")
	}
}

func TestSignalRiskReward(t *testing.T) {
	sig := Signal{Direction: Buy, Entry: 2000, StopLoss: 1998, TakeProfit: 2012}
	if rr := sig.RiskReward(); math.Abs(rr-6.0) > 1e-9 {
		t.Errorf("expected 6.0, got %v", rr)
	}

	sell := Signal{Direction: Sell, Entry: 2000, StopLoss: 2002, TakeProfit: 1988}
	if rr := sell.RiskReward(); math.Abs(rr-6.0) > 1e-9 {
		t.Errorf("expected 6.0 for SELL, got %v", rr)
	}
}

func TestCandleBullish(t *testing.T) {
	if !(Candle{Open: 1, Close: 2}).Bullish() {
		t.Error("close above open is bullish")
	}
	if (Candle{Open: 2, Close: 1}).Bullish() {
		t.Error("close below open is not bullish")
	}
}

type configErr struct{}

func (configErr) Error() string           { return "bad config" }
func (configErr) Category() ErrorCategory { return CategoryConfig }

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorCategory
	}{
		{nil, CategoryTransient},
		{errors.New("connection reset"), CategoryTransient},
		{ErrUnavailable, CategoryUnavailable},
		{fmt.Errorf("wrapped: %w", ErrUnavailable), CategoryUnavailable},
		{ErrQuotaExceeded, CategoryQuota},
		{fmt.Errorf("wrapped: %w", ErrQuotaExceeded), CategoryQuota},
		{ErrNoSignal, CategoryUnavailable},
		{configErr{}, CategoryConfig},
		{fmt.Errorf("wrapped: %w", configErr{}), CategoryConfig},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
