// Package pattern detects ICT/SMC price structures on candle series. The
// detectors are pure functions over historical data and never look at
// candles past the index under inspection.
package pattern

import (
	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// FindOrderBlocks scans the series for order blocks. A bullish order block
// is the last down-candle before a displacement up: the current candle
// closes up, the prior candle swept the low of the one before it, and the
// prior candle closed down. The block is the candle two back from the
// displacement. Bearish blocks mirror the conditions. Results are in
// series order.
func FindOrderBlocks(series *types.Series) []types.OrderBlock {
	blocks := []types.OrderBlock{}
	if series.Len() < 4 {
		return blocks
	}

	for i := 3; i < series.Len(); i++ {
		cur := series.At(i)
		prev := series.At(i - 1)
		block := series.At(i - 2)

		if cur.Bullish() && prev.Low < block.Low && prev.Close < prev.Open {
			blocks = append(blocks, types.OrderBlock{
				Kind:  types.ZoneBullish,
				Ts:    block.Ts,
				High:  block.High,
				Low:   block.Low,
				Open:  block.Open,
				Close: block.Close,
			})
			continue
		}

		if !cur.Bullish() && prev.High > block.High && prev.Close > prev.Open {
			blocks = append(blocks, types.OrderBlock{
				Kind:  types.ZoneBearish,
				Ts:    block.Ts,
				High:  block.High,
				Low:   block.Low,
				Open:  block.Open,
				Close: block.Close,
			})
		}
	}
	return blocks
}

// FindFairValueGaps scans for three-candle imbalances. A bullish gap exists
// when the current low clears the high of two candles back; a bearish gap
// when the current high stays under the low of two candles back. The gap is
// stamped with the middle candle's time. Results are in series order.
func FindFairValueGaps(series *types.Series) []types.FairValueGap {
	gaps := []types.FairValueGap{}
	if series.Len() < 3 {
		return gaps
	}

	for i := 2; i < series.Len(); i++ {
		cur := series.At(i)
		far := series.At(i - 2)
		mid := series.At(i - 1)

		if cur.Low > far.High {
			gaps = append(gaps, types.FairValueGap{
				Kind:   types.ZoneBullish,
				Ts:     mid.Ts,
				Top:    cur.Low,
				Bottom: far.High,
				Size:   cur.Low - far.High,
			})
			continue
		}

		if cur.High < far.Low {
			gaps = append(gaps, types.FairValueGap{
				Kind:   types.ZoneBearish,
				Ts:     mid.Ts,
				Top:    far.Low,
				Bottom: cur.High,
				Size:   far.Low - cur.High,
			})
		}
	}
	return gaps
}

// LatestBlock returns the most recent block, if any. The newest block sets
// the directional bias for entry selection.
func LatestBlock(blocks []types.OrderBlock) (types.OrderBlock, bool) {
	if len(blocks) == 0 {
		return types.OrderBlock{}, false
	}
	return blocks[len(blocks)-1], true
}

// LatestGap returns the most recent gap of the given kind, if any.
func LatestGap(gaps []types.FairValueGap, kind types.ZoneKind) (types.FairValueGap, bool) {
	for i := len(gaps) - 1; i >= 0; i-- {
		if gaps[i].Kind == kind {
			return gaps[i], true
		}
	}
	return types.FairValueGap{}, false
}
