package indicators

import (
	"testing"

	"signalengine/internal/candlestore"
)

func TestRSINeutralWhenInsufficientData(t *testing.T) {
	if got := RSI([]float64{1, 2, 3}, 14); got != 50.0 {
		t.Fatalf("expected neutral 50.0, got %f", got)
	}
}

func TestRSIAllGainsIsOneHundred(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i)
	}
	if got := RSI(closes, 14); got != 100.0 {
		t.Fatalf("expected 100.0 for all gains, got %f", got)
	}
}

func TestRSIAllLossesIsZero(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(20 - i)
	}
	got := RSI(closes, 14)
	if got > 1.0 {
		t.Fatalf("expected near-zero RSI for all losses, got %f", got)
	}
}

func TestRSIMidRangeForMixedMovement(t *testing.T) {
	closes := []float64{100, 101, 99, 102, 98, 103, 97, 104, 96, 105, 95, 106, 94, 107, 93}
	got := RSI(closes, 14)
	if got <= 0 || got >= 100 {
		t.Fatalf("expected RSI strictly between 0 and 100 for mixed data, got %f", got)
	}
}

func candleHL(closeVal, high, low float64) candlestore.Candle {
	return candlestore.Candle{Open: closeVal, High: high, Low: low, Close: closeVal, Volume: 1, IsClosed: true}
}

func TestDetectRSIDivergenceBullish(t *testing.T) {
	// Sustained downtrend drives RSI to 0 at pivot 1 (close=80, index 3).
	// A long rally follows, then a single sharp drop to a lower price
	// low (close=60, index 14) whose RSI, smoothed over the rally, sits
	// well above zero: classic bullish divergence.
	closes := []float64{100, 95, 88, 80, 85, 90, 95, 100, 105, 110, 115, 120, 125, 130, 60}
	candles := make([]candlestore.Candle, len(closes))
	for i, v := range closes {
		candles[i] = candleHL(v, v+1, v-1)
	}

	div := DetectRSIDivergence(candles, nil, []int{3, 14}, 3)
	if div == nil {
		t.Fatalf("expected a bullish divergence to be detected")
	}
	if !div.Bullish {
		t.Fatalf("expected Bullish=true, got %+v", div)
	}
	if div.RSIAt[1] <= div.RSIAt[0] {
		t.Fatalf("expected RSI higher low, got %+v", div.RSIAt)
	}
}

func TestDetectRSIDivergenceNilWithoutEnoughPivots(t *testing.T) {
	candles := []candlestore.Candle{candleHL(100, 101, 99)}
	if got := DetectRSIDivergence(candles, []int{0}, []int{0}, 14); got != nil {
		t.Fatalf("expected nil divergence with single pivot, got %+v", got)
	}
}
