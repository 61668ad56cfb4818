package indicators

import "signalengine/internal/candlestore"

// Divergence describes a price/RSI divergence detected at the last two
// pivots of one kind.
type Divergence struct {
	Bullish bool
	PriceAt [2]float64
	RSIAt   [2]float64
}

// DetectRSIDivergence checks the last two pivot lows for bullish divergence
// (lower low in price, higher low in RSI) and the last two pivot highs for
// bearish divergence (higher high in price, lower high in RSI), symmetrical
// on the two sides. Returns nil when fewer than two pivots of either kind
// are available or neither condition holds.
func DetectRSIDivergence(candles []candlestore.Candle, pivotHighs, pivotLows []int, period int) *Divergence {
	closes := closesOf(candles)
	rsiSeries := RSISeries(closes, period)

	if len(pivotLows) >= 2 {
		i1, i2 := pivotLows[len(pivotLows)-2], pivotLows[len(pivotLows)-1]
		p1, p2 := candles[i1].Low, candles[i2].Low
		r1, r2 := rsiSeries[i1], rsiSeries[i2]
		if p2 < p1 && r2 > r1 {
			return &Divergence{Bullish: true, PriceAt: [2]float64{p1, p2}, RSIAt: [2]float64{r1, r2}}
		}
	}

	if len(pivotHighs) >= 2 {
		i1, i2 := pivotHighs[len(pivotHighs)-2], pivotHighs[len(pivotHighs)-1]
		p1, p2 := candles[i1].High, candles[i2].High
		r1, r2 := rsiSeries[i1], rsiSeries[i2]
		if p2 > p1 && r2 < r1 {
			return &Divergence{Bullish: false, PriceAt: [2]float64{p1, p2}, RSIAt: [2]float64{r1, r2}}
		}
	}

	return nil
}
