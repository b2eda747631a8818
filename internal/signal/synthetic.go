package signal

import (
	"time"

	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// referencePrices anchor synthetic data when no real price has ever been
// cached for the instrument.
var referencePrices = map[string]float64{
	"XAUUSD": 2340.0,
	"EURUSD": 1.08,
	"GBPUSD": 1.27,
}

const syntheticAmplitude = 0.25

// syntheticSeries builds a deterministic candle window oscillating around a
// base price. It stands in for real data when every provider window fails,
// so it must be reproducible: same base, timeframe, and count always yield
// the same shape. Callers tag anything derived from it as synthetic.
func syntheticSeries(base float64, tf types.Timeframe, count int, end time.Time) *types.Series {
	if count < 2 {
		count = 2
	}
	step := tf.Millis()
	endMs := end.UnixMilli()
	startMs := endMs - int64(count-1)*step

	series := &types.Series{}
	prevClose := base
	for i := 0; i < count; i++ {
		// Triangular oscillation with period 8 bars.
		phase := i % 8
		var offset float64
		if phase < 4 {
			offset = syntheticAmplitude * float64(phase) / 4
		} else {
			offset = syntheticAmplitude * float64(8-phase) / 4
		}

		close := base + offset - syntheticAmplitude/2
		open := prevClose
		high := max(open, close) + syntheticAmplitude/8
		low := min(open, close) - syntheticAmplitude/8

		_ = series.Append(types.Candle{
			Ts:    startMs + int64(i)*step,
			Open:  open,
			High:  high,
			Low:   low,
			Close: close,
		})
		prevClose = close
	}
	return series
}

func referencePrice(instrument string) float64 {
	if p, ok := referencePrices[instrument]; ok {
		return p
	}
	return 1.0
}
