// Package indicators implements C6: RSI and pivot-based RSI divergence.
package indicators

import "signalengine/internal/candlestore"

// DefaultPeriod is the standard RSI lookback.
const DefaultPeriod = 14

// RSI computes the Relative Strength Index over closes using Wilder
// smoothing, diverging from a simple rolling average: the first period
// seeds the average gain/loss, then every subsequent bar blends in with
// weight 1/period instead of recomputing a flat window average.
func RSI(closes []float64, period int) float64 {
	if period <= 0 {
		period = DefaultPeriod
	}
	if len(closes) < period+1 {
		return 50.0
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// RSISeries returns RSI computed over each prefix of closes long enough to
// seed the Wilder average, aligned so rsiAt(i) corresponds to closes[i].
// Indices shorter than period+1 are reported as the neutral value.
func RSISeries(closes []float64, period int) []float64 {
	if period <= 0 {
		period = DefaultPeriod
	}
	out := make([]float64, len(closes))
	for i := range closes {
		out[i] = RSI(closes[:i+1], period)
	}
	return out
}

func closesOf(candles []candlestore.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
