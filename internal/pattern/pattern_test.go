package pattern

import (
	"testing"

	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

func candle(ts int64, o, h, l, c float64) types.Candle {
	return types.Candle{Ts: ts, Open: o, High: h, Low: l, Close: c}
}

func TestFindOrderBlocksBullish(t *testing.T) {
	// A down-move sweeping the low of the block candle, then a bullish
	// displacement. Exactly one block expected, anchored at the swept candle.
	series := types.MustSeries(
		candle(1000, 10, 12, 9, 11),
		candle(2000, 11, 12, 10, 11.5),
		candle(3000, 11.5, 12, 10.5, 11), // block candle
		candle(4000, 11, 11.2, 9.5, 10),  // bearish sweep below block low
		candle(5000, 10, 14, 9.8, 13),    // bullish displacement
	)

	blocks := FindOrderBlocks(series)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 order block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Kind != types.ZoneBullish {
		t.Errorf("expected bullish block, got %v", b.Kind)
	}
	if b.Ts != 3000 {
		t.Errorf("expected block anchored at ts 3000, got %d", b.Ts)
	}
	if b.High != 12 || b.Low != 10.5 {
		t.Errorf("unexpected block extremes high=%v low=%v", b.High, b.Low)
	}
}

func TestFindOrderBlocksBearishMirror(t *testing.T) {
	series := types.MustSeries(
		candle(1000, 10, 11, 9, 10.5),
		candle(2000, 10.5, 11, 9.5, 10),
		candle(3000, 10, 10.8, 9.2, 10.5),  // block candle
		candle(4000, 10.5, 11.5, 10.2, 11), // bullish sweep above block high
		candle(5000, 11, 11.2, 8.5, 9),     // bearish displacement
	)

	blocks := FindOrderBlocks(series)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 order block, got %d", len(blocks))
	}
	if blocks[0].Kind != types.ZoneBearish {
		t.Errorf("expected bearish block, got %v", blocks[0].Kind)
	}
	if blocks[0].Ts != 3000 {
		t.Errorf("expected block anchored at ts 3000, got %d", blocks[0].Ts)
	}
}

func TestFindOrderBlocksShortSeries(t *testing.T) {
	series := types.MustSeries(
		candle(1000, 10, 12, 9, 11),
		candle(2000, 11, 13, 10, 9),
		candle(3000, 9, 11, 8, 10),
	)
	if got := FindOrderBlocks(series); len(got) != 0 {
		t.Errorf("expected no blocks for 3 candles, got %d", len(got))
	}
	if got := FindOrderBlocks(&types.Series{}); len(got) != 0 {
		t.Errorf("expected no blocks for empty series, got %d", len(got))
	}
}

func TestFindFairValueGapsBullish(t *testing.T) {
	// Low of the third candle clears the high of the first.
	series := types.MustSeries(
		candle(1000, 6, 7, 5, 6.5),
		candle(2000, 6.5, 7, 5, 6.8),
		candle(3000, 9.2, 10, 9, 9.5),
	)

	gaps := FindFairValueGaps(series)
	if len(gaps) != 1 {
		t.Fatalf("expected 1 gap, got %d", len(gaps))
	}
	g := gaps[0]
	if g.Kind != types.ZoneBullish {
		t.Errorf("expected bullish gap, got %v", g.Kind)
	}
	if g.Top != 9 || g.Bottom != 7 {
		t.Errorf("expected top=9 bottom=7, got top=%v bottom=%v", g.Top, g.Bottom)
	}
	if g.Size != 2 {
		t.Errorf("expected size 2, got %v", g.Size)
	}
	if g.Ts != 2000 {
		t.Errorf("expected gap stamped at middle candle ts 2000, got %d", g.Ts)
	}
}

func TestFindFairValueGapsBearish(t *testing.T) {
	series := types.MustSeries(
		candle(1000, 10, 11, 9, 10.5),
		candle(2000, 10.5, 10.8, 8, 8.2),
		candle(3000, 7, 7.5, 6.5, 7),
	)

	gaps := FindFairValueGaps(series)
	if len(gaps) != 1 {
		t.Fatalf("expected 1 gap, got %d", len(gaps))
	}
	g := gaps[0]
	if g.Kind != types.ZoneBearish {
		t.Errorf("expected bearish gap, got %v", g.Kind)
	}
	if g.Top != 9 || g.Bottom != 7.5 {
		t.Errorf("expected top=9 bottom=7.5, got top=%v bottom=%v", g.Top, g.Bottom)
	}
}

func TestFindFairValueGapsShortSeries(t *testing.T) {
	series := types.MustSeries(
		candle(1000, 10, 12, 9, 11),
		candle(2000, 11, 13, 10, 9),
	)
	if got := FindFairValueGaps(series); len(got) != 0 {
		t.Errorf("expected no gaps for 2 candles, got %d", len(got))
	}
}

func TestFindFairValueGapsMultiple(t *testing.T) {
	// Two stacked bullish gaps, no deduplication.
	series := types.MustSeries(
		candle(1000, 5, 6, 4, 5.5),
		candle(2000, 5.5, 6.5, 5, 6),
		candle(3000, 8, 9, 7, 8.5),
		candle(4000, 8.5, 12, 8.2, 11),
	)

	gaps := FindFairValueGaps(series)
	if len(gaps) != 2 {
		t.Fatalf("expected 2 gaps, got %d", len(gaps))
	}
	for i, g := range gaps {
		if g.Kind != types.ZoneBullish {
			t.Errorf("gap %d: expected bullish, got %v", i, g.Kind)
		}
	}
}

func TestLatestBlock(t *testing.T) {
	blocks := []types.OrderBlock{
		{Kind: types.ZoneBullish, Ts: 1000},
		{Kind: types.ZoneBearish, Ts: 2000},
	}

	b, ok := LatestBlock(blocks)
	if !ok || b.Ts != 2000 || b.Kind != types.ZoneBearish {
		t.Errorf("expected newest block at 2000, got %+v ok=%v", b, ok)
	}
	if _, ok := LatestBlock(nil); ok {
		t.Error("expected no block from empty slice")
	}
}

func TestLatestGap(t *testing.T) {
	gaps := []types.FairValueGap{
		{Kind: types.ZoneBullish, Ts: 1000},
		{Kind: types.ZoneBearish, Ts: 2000},
		{Kind: types.ZoneBullish, Ts: 3000},
	}

	g, ok := LatestGap(gaps, types.ZoneBullish)
	if !ok || g.Ts != 3000 {
		t.Errorf("expected latest bullish gap at 3000, got %+v ok=%v", g, ok)
	}
	g, ok = LatestGap(gaps, types.ZoneBearish)
	if !ok || g.Ts != 2000 {
		t.Errorf("expected latest bearish gap at 2000, got %+v ok=%v", g, ok)
	}
	if _, ok := LatestGap(nil, types.ZoneBullish); ok {
		t.Error("expected no gap from empty slice")
	}
}
