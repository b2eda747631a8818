package types

import "time"

// Timeframe is a candle resolution label. The synthesizer works at three
// nested resolutions; providers serve the finest interval they support.
type Timeframe string

const (
	TF1s  Timeframe = "1s"
	TF15s Timeframe = "15s"
	TF1m  Timeframe = "1m"
	TF2m  Timeframe = "2m"
)

// Duration returns the bar width. Unknown labels default to one minute.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case TF1s:
		return time.Second
	case TF15s:
		return 15 * time.Second
	case TF2m:
		return 2 * time.Minute
	default:
		return time.Minute
	}
}

// Millis returns the bar width in milliseconds.
func (t Timeframe) Millis() int64 {
	return t.Duration().Milliseconds()
}
