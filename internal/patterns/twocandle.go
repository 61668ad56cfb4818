package patterns

import "signalengine/internal/candlestore"

// isBullishEngulfing: prev bearish, cur bullish, cur body engulfs and
// exceeds prev body.
func isBullishEngulfing(prev, cur candlestore.Candle) bool {
	if direction(prev) != Bearish || direction(cur) != Bullish {
		return false
	}
	if bodyOf(cur) <= bodyOf(prev) {
		return false
	}
	return cur.Open <= prev.Close && cur.Close >= prev.Open
}

// isBearishEngulfing mirrors isBullishEngulfing for the downside.
func isBearishEngulfing(prev, cur candlestore.Candle) bool {
	if direction(prev) != Bullish || direction(cur) != Bearish {
		return false
	}
	if bodyOf(cur) <= bodyOf(prev) {
		return false
	}
	return cur.Open >= prev.Close && cur.Close <= prev.Open
}

const tweezerTolerancePct = 0.002

// isTweezerTop: prev bullish, cur bearish, highs equal within 0.2%.
func isTweezerTop(prev, cur candlestore.Candle) bool {
	if direction(prev) != Bullish || direction(cur) != Bearish {
		return false
	}
	avg := (prev.High + cur.High) / 2
	return almostEqual(prev.High, cur.High, avg*tweezerTolerancePct)
}

// isTweezerBottom: prev bearish, cur bullish, lows equal within 0.2%.
func isTweezerBottom(prev, cur candlestore.Candle) bool {
	if direction(prev) != Bearish || direction(cur) != Bullish {
		return false
	}
	avg := (prev.Low + cur.Low) / 2
	return almostEqual(prev.Low, cur.Low, avg*tweezerTolerancePct)
}

// isInsideBar: cur's range sits strictly within prev's range.
func isInsideBar(prev, cur candlestore.Candle) bool {
	return cur.High < prev.High && cur.Low > prev.Low
}

// twoBarReversal detects a new extreme on cur followed (on the same bar)
// by a close strongly past prev's opposite extreme.
func twoBarReversalBullish(prev, cur candlestore.Candle) bool {
	return cur.Low < prev.Low && cur.Close > prev.High
}

func twoBarReversalBearish(prev, cur candlestore.Candle) bool {
	return cur.High > prev.High && cur.Close < prev.Low
}
