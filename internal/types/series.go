package types

import "fmt"

// Series is an ordered, time-ascending sequence of candles. Appends enforce
// ordering and reject duplicate timestamps; candles are immutable once in.
type Series struct {
	candles []Candle
}

// NewSeries builds a series from candles already in ascending order.
func NewSeries(candles ...Candle) (*Series, error) {
	s := &Series{candles: make([]Candle, 0, len(candles))}
	for _, c := range candles {
		if err := s.Append(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSeries is NewSeries for fixtures that are known-ordered.
func MustSeries(candles ...Candle) *Series {
	s, err := NewSeries(candles...)
	if err != nil {
		panic(err)
	}
	return s
}

// Append adds a candle strictly after the current last timestamp.
func (s *Series) Append(c Candle) error {
	if n := len(s.candles); n > 0 {
		last := s.candles[n-1].Ts
		if c.Ts == last {
			return fmt.Errorf("duplicate candle timestamp %d", c.Ts)
		}
		if c.Ts < last {
			return fmt.Errorf("out-of-order candle: %d < %d", c.Ts, last)
		}
	}
	s.candles = append(s.candles, c)
	return nil
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.candles)
}

// At returns the candle at index i (0-based, ascending).
func (s *Series) At(i int) Candle { return s.candles[i] }

// Last returns the most recent candle; ok is false on an empty series.
func (s *Series) Last() (Candle, bool) {
	if s.Len() == 0 {
		return Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// HighLow returns the extremes over the whole series.
func (s *Series) HighLow() (high, low float64) {
	if s.Len() == 0 {
		return 0, 0
	}
	high, low = s.candles[0].High, s.candles[0].Low
	for _, c := range s.candles[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low
}
