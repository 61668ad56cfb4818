package antichase

import (
	"testing"

	"signalengine/internal/candlestore"
	"signalengine/internal/zones"
)

func candle(o, h, l, c, v float64) candlestore.Candle {
	return candlestore.Candle{Open: o, High: h, Low: l, Close: c, Volume: v, IsClosed: true}
}

func TestEvaluateLowRiskFlatMarket(t *testing.T) {
	candles := make([]candlestore.Candle, 30)
	for i := range candles {
		candles[i] = candle(100, 101, 99, 100.2, 10)
	}
	eval := Evaluate(candles, zones.Long, 100, 100.2, Config{MaxATR: 3, MaxPct: 5, ATRPeriod: 14}, nil, 10)
	if eval.Decision == ChaseNo {
		t.Fatalf("expected a low-risk evaluation for flat market, got CHASE_NO (score=%f)", eval.Score)
	}
}

func TestEvaluateHighRiskExtendedMove(t *testing.T) {
	candles := make([]candlestore.Candle, 30)
	for i := range candles {
		base := 100 + float64(i)
		candles[i] = candle(base, base+5, base-1, base+4.5, 10)
	}
	eval := Evaluate(candles, zones.Long, 100, 129, Config{MaxATR: 1, MaxPct: 1, ATRPeriod: 14}, nil, 10)
	if eval.Decision != ChaseNo {
		t.Fatalf("expected CHASE_NO for a heavily extended move, got %v (score=%f)", eval.Decision, eval.Score)
	}
}

func TestConsecutiveSameColorCounts(t *testing.T) {
	candles := []candlestore.Candle{
		candle(100, 101, 99, 99.5, 1),
		candle(99.5, 102, 99, 101, 1),
		candle(101, 103, 100.5, 102, 1),
		candle(102, 104, 101.5, 103, 1),
	}
	if got := consecutiveSameColor(candles); got != 3 {
		t.Fatalf("expected 3 consecutive bullish candles, got %d", got)
	}
}

func TestVolumeClimaxRequiresGreatestInWindow(t *testing.T) {
	candles := make([]candlestore.Candle, 20)
	for i := range candles {
		candles[i] = candle(100, 101, 99, 100, 10)
	}
	candles[len(candles)-1].Volume = 30
	if !isGreatestVolumeInWindow(candles, 20) {
		t.Fatalf("expected the spiking last candle to be the greatest in the window")
	}
}
