// Package events implements C8: structural break detection (BOS/CHoCH)
// against the pivot sequence of a single timeframe.
package events

import (
	"signalengine/internal/candlestore"
	"signalengine/internal/structure"
)

const DefaultLookback = 3

type Kind string

const (
	BOS   Kind = "BOS"
	CHoCH Kind = "CHoCH"
)

type Event struct {
	Kind      Kind
	Direction structure.Label
	Level     float64
}

// DetectBOS reports trend continuation: bullish when the current close
// exceeds the max of the last L pivot highs and that max itself exceeds
// the prior max (a genuinely new high being broken), symmetrical bearish
// against pivot lows.
func DetectBOS(candles []candlestore.Candle, pivotHighs, pivotLows []int, lookback int) *Event {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	current := candles[len(candles)-1].Close

	if maxRecent, maxPrior, ok := windowedExtreme(candles, pivotHighs, lookback, true); ok {
		if current > maxRecent && maxRecent > maxPrior {
			return &Event{Kind: BOS, Direction: structure.Up, Level: maxRecent}
		}
	}

	if minRecent, minPrior, ok := windowedExtreme(candles, pivotLows, lookback, false); ok {
		if current < minRecent && minRecent < minPrior {
			return &Event{Kind: BOS, Direction: structure.Down, Level: minRecent}
		}
	}

	return nil
}

// windowedExtreme splits the pivot index list into the most recent
// lookback pivots and the lookback preceding them, returning the max (or
// min, when high is false) of each window. ok is false when there is not
// a full prior window to compare against.
func windowedExtreme(candles []candlestore.Candle, idx []int, lookback int, high bool) (recentVal, priorVal float64, ok bool) {
	if len(idx) < 2*lookback {
		return 0, 0, false
	}
	recentIdx := idx[len(idx)-lookback:]
	priorIdx := idx[len(idx)-2*lookback : len(idx)-lookback]

	val := func(c candlestore.Candle) float64 { return c.Low }
	extreme := minOf
	if high {
		val = func(c candlestore.Candle) float64 { return c.High }
		extreme = maxOf
	}
	return extreme(candles, recentIdx, val), extreme(candles, priorIdx, val), true
}

// DetectCHoCH reports trend reversal: given the prevailing trend is up, a
// bearish change of character fires when the current close breaks below
// the min of the last L pivot lows; symmetrical for a down trend.
func DetectCHoCH(candles []candlestore.Candle, pivotHighs, pivotLows []int, currentTrend structure.Label, lookback int) *Event {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	current := candles[len(candles)-1].Close

	switch currentTrend {
	case structure.Up:
		lows := lastN(pivotLows, lookback)
		if len(lows) == 0 {
			return nil
		}
		min := minOf(candles, lows, func(c candlestore.Candle) float64 { return c.Low })
		if current < min {
			return &Event{Kind: CHoCH, Direction: structure.Down, Level: min}
		}
	case structure.Down:
		highs := lastN(pivotHighs, lookback)
		if len(highs) == 0 {
			return nil
		}
		max := maxOf(candles, highs, func(c candlestore.Candle) float64 { return c.High })
		if current > max {
			return &Event{Kind: CHoCH, Direction: structure.Up, Level: max}
		}
	}

	return nil
}

// DetectStructureEvents evaluates both detectors and prefers a CHoCH over
// a BOS when both trigger in the same call.
func DetectStructureEvents(candles []candlestore.Candle, pivotHighs, pivotLows []int, currentTrend structure.Label, lookback int) *Event {
	if choch := DetectCHoCH(candles, pivotHighs, pivotLows, currentTrend, lookback); choch != nil {
		return choch
	}
	return DetectBOS(candles, pivotHighs, pivotLows, lookback)
}

func lastN(idx []int, n int) []int {
	if len(idx) <= n {
		return idx
	}
	return idx[len(idx)-n:]
}

func minOf(candles []candlestore.Candle, idx []int, val func(candlestore.Candle) float64) float64 {
	m := val(candles[idx[0]])
	for _, i := range idx[1:] {
		if v := val(candles[i]); v < m {
			m = v
		}
	}
	return m
}

func maxOf(candles []candlestore.Candle, idx []int, val func(candlestore.Candle) float64) float64 {
	m := val(candles[idx[0]])
	for _, i := range idx[1:] {
		if v := val(candles[i]); v > m {
			m = v
		}
	}
	return m
}
