// Package patterns implements C5: candlestick pattern recognition
// (single/2-bar/3-bar) and candle-strength metrics, adapted from the
// teacher's body/wick-ratio style detectors (originally keyed on
// binance.Kline) onto the shared candlestore.Candle type.
package patterns

import "signalengine/internal/candlestore"

// Direction classifies a pattern or candle as bullish, bearish or neutral.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// RejectionType identifies which side of price a long wick rejected.
type RejectionType string

const (
	Upside   RejectionType = "upside"
	Downside RejectionType = "downside"
)

// Rejection describes a wick-driven price rejection.
type Rejection struct {
	Type     RejectionType
	Strength float64
}

// Strength is the candle-strength metric bundle from spec §4.5.
type Strength struct {
	BodyPercent      float64
	CloseLocation    float64
	UpperWickPercent float64
	LowerWickPercent float64
	Rejection        *Rejection
	Direction        Direction
}

func bodyOf(c candlestore.Candle) float64 {
	return absf(c.Close - c.Open)
}

func rangeOf(c candlestore.Candle) float64 {
	return c.High - c.Low
}

func upperWick(c candlestore.Candle) float64 {
	return c.High - maxf(c.Open, c.Close)
}

func lowerWick(c candlestore.Candle) float64 {
	return minf(c.Open, c.Close) - c.Low
}

func direction(c candlestore.Candle) Direction {
	switch {
	case c.Close > c.Open:
		return Bullish
	case c.Close < c.Open:
		return Bearish
	default:
		return Neutral
	}
}

// GetCandleStrength computes the strength metrics for a single candle.
// A zero-range candle degenerates to {direction: neutral, rejection: nil}.
func GetCandleStrength(c candlestore.Candle) Strength {
	rng := rangeOf(c)
	if rng == 0 {
		return Strength{Direction: Neutral}
	}

	body := bodyOf(c)
	up := upperWick(c)
	low := lowerWick(c)
	upPct := up / rng
	lowPct := low / rng

	s := Strength{
		BodyPercent:      body / rng,
		CloseLocation:    (c.Close - c.Low) / rng,
		UpperWickPercent: upPct,
		LowerWickPercent: lowPct,
		Direction:        direction(c),
	}

	switch {
	case upPct > lowPct && upPct > 0.5:
		s.Rejection = &Rejection{Type: Downside, Strength: upPct}
	case lowPct > upPct && lowPct > 0.5:
		s.Rejection = &Rejection{Type: Upside, Strength: lowPct}
	}

	return s
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func almostEqual(a, b, tolerance float64) bool {
	return absf(a-b) <= tolerance
}
