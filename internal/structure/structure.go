// Package structure implements C4: per-timeframe trend classification and
// higher-timeframe bias aggregation.
package structure

import (
	"math"

	"signalengine/internal/candlestore"
	"signalengine/internal/pivots"
)

// Label is a per-timeframe trend classification.
type Label string

const (
	Up      Label = "up"
	Down    Label = "down"
	Neutral Label = "neutral"
)

// Bias is the aggregated higher-timeframe directional lean.
type Bias string

const (
	Bullish     Bias = "bullish"
	Bearish     Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// Side mirrors the LONG/SHORT side of a setup.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// DefaultWeights is the spec default HTF weighting: only 1d and 4h
// contribute, all other timeframes have weight 0.
var DefaultWeights = map[string]float64{"1d": 0.6, "4h": 0.4}

// HTFBias is the aggregated bias across configured higher timeframes.
type HTFBias struct {
	Bias       Bias
	Alignment  bool
	Structures map[string]Label
	Score      float64 // weighted, signed, in [-1, 1]
}

// Analyze classifies the last 3 pivot highs and last 3 pivot lows: both
// strictly ascending => up, both strictly descending => down, else neutral.
func Analyze(candles []candlestore.Candle, w int) Label {
	highIdx := pivots.RecentHigh(candles, w, 3)
	lowIdx := pivots.RecentLow(candles, w, 3)
	if len(highIdx) < 3 || len(lowIdx) < 3 {
		return Neutral
	}

	highsAscending := strictlyAscending(candles, highIdx, func(c candlestore.Candle) float64 { return c.High })
	lowsAscending := strictlyAscending(candles, lowIdx, func(c candlestore.Candle) float64 { return c.Low })
	highsDescending := strictlyDescending(candles, highIdx, func(c candlestore.Candle) float64 { return c.High })
	lowsDescending := strictlyDescending(candles, lowIdx, func(c candlestore.Candle) float64 { return c.Low })

	switch {
	case highsAscending && lowsAscending:
		return Up
	case highsDescending && lowsDescending:
		return Down
	default:
		return Neutral
	}
}

func strictlyAscending(candles []candlestore.Candle, idx []int, val func(candlestore.Candle) float64) bool {
	for i := 1; i < len(idx); i++ {
		if val(candles[idx[i]]) <= val(candles[idx[i-1]]) {
			return false
		}
	}
	return true
}

func strictlyDescending(candles []candlestore.Candle, idx []int, val func(candlestore.Candle) float64) bool {
	for i := 1; i < len(idx); i++ {
		if val(candles[idx[i]]) >= val(candles[idx[i-1]]) {
			return false
		}
	}
	return true
}

func sign(l Label) float64 {
	switch l {
	case Up:
		return 1
	case Down:
		return -1
	default:
		return 0
	}
}

// DetermineHTFBias weighs each timeframe's structure by weights
// (DefaultWeights when weights is nil; a timeframe missing from the map
// contributes nothing), sums sign(structure),
// and classifies bullish/bearish/neutral against +-0.5 thresholds.
// Alignment is true iff every present timeframe agrees on structure.
func DetermineHTFBias(structures map[string]Label, weights map[string]float64) HTFBias {
	if weights == nil {
		weights = DefaultWeights
	}

	score := 0.0
	for tf, label := range structures {
		w, ok := weights[tf]
		if !ok {
			continue
		}
		score += w * sign(label)
	}

	bias := BiasNeutral
	switch {
	case score >= 0.5:
		bias = Bullish
	case score <= -0.5:
		bias = Bearish
	}

	alignment := true
	var first Label
	seen := false
	for _, label := range structures {
		if !seen {
			first = label
			seen = true
			continue
		}
		if label != first {
			alignment = false
			break
		}
	}
	if !seen {
		alignment = false
	}

	return HTFBias{Bias: bias, Alignment: alignment, Structures: structures, Score: score}
}

// CheckAlignment reports whether side matches bias, along with a confidence
// score in [0, 1] derived from the bias's weighted magnitude.
func CheckAlignment(side Side, bias HTFBias) (aligned bool, score float64) {
	switch side {
	case Long:
		aligned = bias.Bias == Bullish
	case Short:
		aligned = bias.Bias == Bearish
	}
	score = math.Min(1, math.Abs(bias.Score))
	return aligned, score
}
