package liquidity

import (
	"testing"

	"signalengine/internal/candlestore"
)

func TestDetectSweepBullish(t *testing.T) {
	current := candlestore.Candle{Open: 100, High: 102, Low: 95, Close: 101, Volume: 1, IsClosed: true}
	got := DetectSweep(current, []float64{98}, nil, 3)
	if got == nil || got.Side != Bullish {
		t.Fatalf("expected bullish sweep, got %+v", got)
	}
	if got.Strength <= 0 || got.Strength > 1 {
		t.Fatalf("expected strength in (0,1], got %f", got.Strength)
	}
}

func TestDetectSweepBearish(t *testing.T) {
	current := candlestore.Candle{Open: 100, High: 110, Low: 99, Close: 102, Volume: 1, IsClosed: true}
	got := DetectSweep(current, nil, []float64{105}, 3)
	if got == nil || got.Side != Bearish {
		t.Fatalf("expected bearish sweep, got %+v", got)
	}
}

func TestDetectSweepNoneWhenNoWickPierce(t *testing.T) {
	current := candlestore.Candle{Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1, IsClosed: true}
	got := DetectSweep(current, []float64{90}, []float64{110}, 3)
	if got != nil {
		t.Fatalf("expected no sweep, got %+v", got)
	}
}

func TestDetectSweepReturnsMostRecentMatch(t *testing.T) {
	current := candlestore.Candle{Open: 100, High: 102, Low: 95, Close: 101, Volume: 1, IsClosed: true}
	// two candidate lows both piercing; most recent (last in the slice) should win
	got := DetectSweep(current, []float64{96, 98}, nil, 3)
	if got == nil || got.Reference != 98 {
		t.Fatalf("expected most recent reference 98, got %+v", got)
	}
}
