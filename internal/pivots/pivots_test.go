package pivots

import (
	"testing"

	"signalengine/internal/candlestore"
)

func candleHL(h, l float64) candlestore.Candle {
	return candlestore.Candle{Open: l, Close: h, High: h, Low: l, Volume: 1, IsClosed: true}
}

func TestPivotHighStrictMax(t *testing.T) {
	highs := []float64{10, 11, 12, 15, 12, 11, 10}
	lows := []float64{9, 10, 11, 11, 11, 10, 9}
	candles := make([]candlestore.Candle, len(highs))
	for i := range highs {
		candles[i] = candleHL(highs[i], lows[i])
	}

	idx := High(candles, 2)
	if len(idx) != 1 || idx[0] != 3 {
		t.Fatalf("expected single pivot high at index 3, got %v", idx)
	}
}

func TestPivotHighRejectsTies(t *testing.T) {
	highs := []float64{10, 11, 15, 15, 11, 10, 9}
	lows := []float64{9, 10, 11, 11, 10, 9, 8}
	candles := make([]candlestore.Candle, len(highs))
	for i := range highs {
		candles[i] = candleHL(highs[i], lows[i])
	}

	idx := High(candles, 2)
	if len(idx) != 0 {
		t.Fatalf("expected tied highs to not be pivots, got %v", idx)
	}
}

func TestPivotLowStrictMin(t *testing.T) {
	highs := []float64{10, 11, 12, 13, 12, 11, 10}
	lows := []float64{9, 8, 7, 2, 7, 8, 9}
	candles := make([]candlestore.Candle, len(highs))
	for i := range highs {
		candles[i] = candleHL(highs[i], lows[i])
	}

	idx := Low(candles, 2)
	if len(idx) != 1 || idx[0] != 3 {
		t.Fatalf("expected single pivot low at index 3, got %v", idx)
	}
}

func TestRecentReturnsLastK(t *testing.T) {
	highs := []float64{10, 20, 10, 10, 20, 10, 10, 20, 10}
	lows := make([]float64, len(highs))
	for i := range lows {
		lows[i] = highs[i] - 5
	}
	candles := make([]candlestore.Candle, len(highs))
	for i := range highs {
		candles[i] = candleHL(highs[i], lows[i])
	}

	all := High(candles, 1)
	recent := RecentHigh(candles, 1, 2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent pivots, got %d", len(recent))
	}
	if recent[len(recent)-1] != all[len(all)-1] {
		t.Fatalf("expected recent pivots to be the tail of all pivots")
	}
}

func TestTooShortSequenceYieldsNoPivots(t *testing.T) {
	candles := []candlestore.Candle{candleHL(10, 9), candleHL(11, 10)}
	if idx := High(candles, 5); len(idx) != 0 {
		t.Fatalf("expected no pivots for a sequence shorter than 2*w+1, got %v", idx)
	}
}
