package regime

import (
	"testing"

	"signalengine/internal/candlestore"
	"signalengine/internal/structure"
)

func flatCandles(n int, base float64) []candlestore.Candle {
	out := make([]candlestore.Candle, n)
	for i := range out {
		out[i] = candlestore.Candle{Open: base, High: base + 1, Low: base - 1, Close: base, Volume: 1, IsClosed: true}
	}
	return out
}

func TestATRConstantRangeCandles(t *testing.T) {
	candles := flatCandles(30, 100)
	atr := ATR(candles, 14)
	if atr != 2 {
		t.Fatalf("expected ATR of 2 (constant high-low range), got %f", atr)
	}
}

func TestATRInsufficientDataIsZero(t *testing.T) {
	candles := flatCandles(5, 100)
	if atr := ATR(candles, 14); atr != 0 {
		t.Fatalf("expected 0 ATR with insufficient data, got %f", atr)
	}
}

func TestSlopePositiveForUptrend(t *testing.T) {
	candles := make([]candlestore.Candle, 20)
	for i := range candles {
		v := 100 + float64(i)
		candles[i] = candlestore.Candle{Open: v, High: v + 1, Low: v - 1, Close: v, Volume: 1, IsClosed: true}
	}
	s := Slope(candles, 20)
	if s <= 0 {
		t.Fatalf("expected positive slope for uptrend, got %f", s)
	}
}

func TestSlopeZeroForFlatCandles(t *testing.T) {
	candles := flatCandles(20, 100)
	if s := Slope(candles, 20); s != 0 {
		t.Fatalf("expected zero slope for flat prices, got %f", s)
	}
}

func TestDetectMarketRegimeExpansionFromATRRatio(t *testing.T) {
	// Flat, tight range for historical window, then wide-range candles
	// for the most recent period so current ATR >> historical ATR.
	candles := flatCandles(60, 100)
	wide := make([]candlestore.Candle, 20)
	for i := range wide {
		wide[i] = candlestore.Candle{Open: 100, High: 120, Low: 80, Close: 100, Volume: 1, IsClosed: true}
	}
	candles = append(candles, wide...)

	reg := DetectMarketRegime(candles, 14, 20, structure.Neutral)
	if reg.Label != Expansion {
		t.Fatalf("expected expansion regime, got %v (ratio=%f)", reg.Label, reg.ATRRatio)
	}
	if reg.Confidence < 0.3 || reg.Confidence > 1.0 {
		t.Fatalf("expected confidence in [0.3,1.0], got %f", reg.Confidence)
	}
}

func TestDetectMarketRegimeRangeWhenFlat(t *testing.T) {
	candles := flatCandles(60, 100)
	reg := DetectMarketRegime(candles, 14, 20, structure.Neutral)
	if reg.Label != Range {
		t.Fatalf("expected range regime for flat candles, got %v", reg.Label)
	}
}
