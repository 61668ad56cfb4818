package events

import (
	"testing"

	"signalengine/internal/candlestore"
	"signalengine/internal/structure"
)

func candleC(high, low, close float64) candlestore.Candle {
	return candlestore.Candle{Open: close, High: high, Low: low, Close: close, Volume: 1, IsClosed: true}
}

func TestDetectBOSBullish(t *testing.T) {
	candles := []candlestore.Candle{
		candleC(100, 95, 98),  // prior pivot high context
		candleC(90, 85, 88),
		candleC(105, 100, 103), // prior pivot high (idx2)
		candleC(95, 90, 93),
		candleC(95, 90, 93),
		candleC(95, 90, 93),
		candleC(120, 110, 118), // recent pivot high exceeding prior (idx6)
		candleC(95, 90, 93),
		candleC(95, 90, 93),
		candleC(130, 120, 128), // current close breaks above recent pivot high
	}
	pivotHighs := []int{2, 6}
	pivotLows := []int{}

	got := DetectBOS(candles, pivotHighs, pivotLows, 1)
	if got == nil || got.Kind != BOS || got.Direction != structure.Up {
		t.Fatalf("expected bullish BOS, got %+v", got)
	}
}

func TestDetectBOSNilWithoutPriorWindow(t *testing.T) {
	candles := []candlestore.Candle{
		candleC(105, 100, 103),
		candleC(95, 90, 93),
		candleC(130, 120, 128),
	}
	got := DetectBOS(candles, []int{0}, []int{}, 1)
	if got != nil {
		t.Fatalf("expected nil BOS without a full prior window, got %+v", got)
	}
}

func TestDetectCHoCHBearishInUptrend(t *testing.T) {
	candles := []candlestore.Candle{
		candleC(100, 90, 95),
		candleC(102, 92, 98),
		candleC(104, 94, 100), // pivot low context idx2
		candleC(106, 96, 102),
		candleC(80, 70, 75), // current close breaks below pivot lows
	}
	pivotLows := []int{2}
	got := DetectCHoCH(candles, []int{}, pivotLows, structure.Up, 1)
	if got == nil || got.Kind != CHoCH || got.Direction != structure.Down {
		t.Fatalf("expected bearish CHoCH in uptrend, got %+v", got)
	}
}

func TestDetectStructureEventsFallsBackToBOSWithoutCHoCH(t *testing.T) {
	candles := []candlestore.Candle{
		candleC(100, 95, 98),
		candleC(90, 85, 88),
		candleC(105, 100, 103),
		candleC(95, 90, 93),
		candleC(95, 90, 93),
		candleC(95, 90, 93),
		candleC(120, 110, 118),
		candleC(95, 90, 93),
		candleC(95, 90, 93),
		candleC(130, 120, 128),
	}
	pivotHighs := []int{2, 6}
	pivotLows := []int{1}

	// currentTrend=Up with a pivot low at 85: current close of 128 does
	// not break below it, so CHoCH should not fire and BOS should win.
	got := DetectStructureEvents(candles, pivotHighs, pivotLows, structure.Up, 1)
	if got == nil || got.Kind != BOS {
		t.Fatalf("expected BOS when CHoCH condition is not met, got %+v", got)
	}
}
