package structure

import (
	"testing"

	"signalengine/internal/candlestore"
)

func trendCandles(n int, up bool) []candlestore.Candle {
	// oscillate so pivots form while the overall envelope trends: the
	// 6-candle swing is wider than the 1-per-candle drift, so a pivot high
	// forms at every i%6 == 3 and a pivot low at every i%6 == 0
	swing := []float64{0, 2, 4, 6, 4, 2}
	candles := make([]candlestore.Candle, n)
	for i := 0; i < n; i++ {
		base := float64(i)
		if !up {
			base = float64(n - i)
		}
		h := base + 2 + swing[i%6]
		l := base - 2 + swing[i%6]
		candles[i] = candlestore.Candle{Open: l, Close: h, High: h, Low: l, Volume: 1, IsClosed: true}
	}
	return candles
}

func TestAnalyzeUptrend(t *testing.T) {
	candles := trendCandles(40, true)
	if got := Analyze(candles, 2); got != Up {
		t.Fatalf("expected Up, got %v", got)
	}
}

func TestAnalyzeDowntrend(t *testing.T) {
	candles := trendCandles(40, false)
	if got := Analyze(candles, 2); got != Down {
		t.Fatalf("expected Down, got %v", got)
	}
}

func TestAnalyzeNeutralOnInsufficientPivots(t *testing.T) {
	candles := trendCandles(4, true)
	if got := Analyze(candles, 2); got != Neutral {
		t.Fatalf("expected Neutral for too few pivots, got %v", got)
	}
}

func TestDetermineHTFBiasBullish(t *testing.T) {
	structures := map[string]Label{"1d": Up, "4h": Up, "1h": Down}
	bias := DetermineHTFBias(structures, nil)
	if bias.Bias != Bullish {
		t.Fatalf("expected Bullish bias, got %v (score=%f)", bias.Bias, bias.Score)
	}
	if bias.Alignment {
		t.Fatalf("expected alignment=false since 1h disagrees")
	}
}

func TestDetermineHTFBiasNeutralWhenWeightsCancel(t *testing.T) {
	structures := map[string]Label{"1d": Up, "4h": Down}
	bias := DetermineHTFBias(structures, nil)
	if bias.Bias != BiasNeutral {
		t.Fatalf("expected Neutral bias for 0.6 - 0.4 = 0.2 score, got %v", bias.Bias)
	}
}

func TestDetermineHTFBiasAlignmentWhenAllAgree(t *testing.T) {
	structures := map[string]Label{"1d": Up, "4h": Up}
	bias := DetermineHTFBias(structures, nil)
	if !bias.Alignment {
		t.Fatalf("expected alignment=true when all present timeframes agree")
	}
}

func TestCheckAlignment(t *testing.T) {
	bias := HTFBias{Bias: Bullish, Score: 0.6}
	aligned, score := CheckAlignment(Long, bias)
	if !aligned {
		t.Fatalf("expected LONG to align with bullish bias")
	}
	if score <= 0 || score > 1 {
		t.Fatalf("expected score in (0,1], got %f", score)
	}

	aligned, _ = CheckAlignment(Short, bias)
	if aligned {
		t.Fatalf("expected SHORT to not align with bullish bias")
	}
}
