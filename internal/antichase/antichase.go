// Package antichase implements C11: scoring how extended/risky a potential
// entry is relative to recent price action, grounded on the teacher's
// additive weighted-factor confluence scoring style.
package antichase

import (
	"signalengine/internal/candlestore"
	"signalengine/internal/events"
	"signalengine/internal/regime"
	"signalengine/internal/structure"
	"signalengine/internal/zones"
)

type Decision string

const (
	ChaseNo       Decision = "CHASE_NO"
	ChaseOK       Decision = "CHASE_OK"
	ReversalWatch Decision = "REVERSAL_WATCH"
)

// Metrics captures the intermediate measurements the score was built from.
type Metrics struct {
	ATRMove            float64
	PctMove            float64
	BodyToRange        float64
	VolumeRatio        float64
	VolumeClimax       bool
	ConsecutiveTrend   int
	MomentumSlowdown   bool
	MomentumAccelerate bool
	AlignedCHoCH       bool
}

// Evaluation is the full anti-chase result.
type Evaluation struct {
	Decision Decision
	Reason   string
	Score    float64
	Metrics  Metrics
}

// Config bundles the tunables from spec §6.
type Config struct {
	MaxATR    float64
	MaxPct    float64
	ATRPeriod int
}

// Evaluate scores how extended entering at price would be for side, given
// the recent candle history, the entry reference, and any recently
// detected structural break.
func Evaluate(candles []candlestore.Candle, side zones.Side, entry, price float64, cfg Config, structureEvent *events.Event, avgVolume20 float64) Evaluation {
	atr := regime.ATR(candles, cfg.ATRPeriod)
	metrics := Metrics{}

	if atr > 0 {
		metrics.ATRMove = absf(price-entry) / atr
	}
	if entry != 0 {
		metrics.PctMove = absf(price-entry) / entry * 100
	}

	cur := candles[len(candles)-1]
	rng := cur.High - cur.Low
	if rng > 0 {
		metrics.BodyToRange = absf(cur.Close-cur.Open) / rng
	}

	if avgVolume20 > 0 {
		metrics.VolumeRatio = cur.Volume / avgVolume20
	}
	metrics.VolumeClimax = metrics.VolumeRatio >= 2.5 && isGreatestVolumeInWindow(candles, 20)

	metrics.ConsecutiveTrend = consecutiveSameColor(candles)
	metrics.MomentumSlowdown, metrics.MomentumAccelerate = momentumShift(candles)

	if structureEvent != nil && structureEvent.Kind == events.CHoCH {
		bullishAligned := side == zones.Long && structureEvent.Direction == structure.Up
		bearishAligned := side == zones.Short && structureEvent.Direction == structure.Down
		metrics.AlignedCHoCH = bullishAligned || bearishAligned
	}

	score := 0.0
	reasons := make([]string, 0, 4)

	maxATR := cfg.MaxATR
	maxPct := cfg.MaxPct
	switch {
	case maxATR > 0 && metrics.ATRMove > maxATR:
		score += 40
		reasons = append(reasons, "extension beyond max ATR move")
	case maxPct > 0 && metrics.PctMove > maxPct:
		score += 40
		reasons = append(reasons, "extension beyond max pct move")
	default:
		if maxATR > 0 {
			score += clamp(metrics.ATRMove/maxATR*40, 0, 40)
		}
	}

	switch {
	case metrics.ConsecutiveTrend >= 5:
		score += 20
		reasons = append(reasons, "5+ consecutive trend candles")
	case metrics.ConsecutiveTrend >= 3:
		score += 15
		reasons = append(reasons, "3+ consecutive trend candles")
	case metrics.ConsecutiveTrend >= 2:
		score += 10
		reasons = append(reasons, "2+ consecutive trend candles")
	}

	strongBody := metrics.BodyToRange > 0.70
	switch {
	case strongBody:
		score += 15
		reasons = append(reasons, "large strong body")
	case metrics.BodyToRange > 0.50:
		score += 8
	}

	switch {
	case metrics.VolumeClimax:
		score -= 15
		reasons = append(reasons, "volume climax")
	case metrics.VolumeRatio >= 2.0:
		score += 10
		reasons = append(reasons, "volume spike without climax")
	}

	switch {
	case metrics.MomentumSlowdown:
		score -= 20
		reasons = append(reasons, "momentum slowdown")
	case metrics.MomentumAccelerate:
		score += 10
		reasons = append(reasons, "momentum acceleration")
	}

	if metrics.AlignedCHoCH {
		score -= 25
		reasons = append(reasons, "aligned CHoCH")
	}

	decision := ChaseOK
	switch {
	case score >= 50:
		decision = ChaseNo
	case score >= 25:
		decision = ChaseOK
	default:
		decision = ChaseOK
		if metrics.VolumeClimax || (metrics.ConsecutiveTrend >= 5 && metrics.MomentumSlowdown) || counterSideCHoCH(structureEvent, side) {
			decision = ReversalWatch
			reasons = append(reasons, "reversal risk despite low chase score")
		}
	}

	return Evaluation{Decision: decision, Reason: joinReasons(reasons), Score: score, Metrics: metrics}
}

func counterSideCHoCH(e *events.Event, side zones.Side) bool {
	if e == nil || e.Kind != events.CHoCH {
		return false
	}
	if side == zones.Long {
		return e.Direction == structure.Down
	}
	return e.Direction == structure.Up
}

func consecutiveSameColor(candles []candlestore.Candle) int {
	n := len(candles)
	if n == 0 {
		return 0
	}
	color := sign(candles[n-1])
	if color == 0 {
		return 0
	}
	count := 1
	for i := n - 2; i >= 0; i-- {
		if sign(candles[i]) != color {
			break
		}
		count++
	}
	return count
}

func sign(c candlestore.Candle) int {
	switch {
	case c.Close > c.Open:
		return 1
	case c.Close < c.Open:
		return -1
	default:
		return 0
	}
}

// momentumShift compares the average body size of the last 3 candles
// against the 3 before them to detect acceleration or slowdown.
func momentumShift(candles []candlestore.Candle) (slowdown, accelerate bool) {
	n := len(candles)
	if n < 6 {
		return false, false
	}
	recent := avgBody(candles[n-3:])
	prior := avgBody(candles[n-6 : n-3])
	if prior == 0 {
		return false, false
	}
	ratio := recent / prior
	if ratio < 0.7 {
		return true, false
	}
	if ratio > 1.3 {
		return false, true
	}
	return false, false
}

func avgBody(candles []candlestore.Candle) float64 {
	sum := 0.0
	for _, c := range candles {
		sum += absf(c.Close - c.Open)
	}
	return sum / float64(len(candles))
}

func isGreatestVolumeInWindow(candles []candlestore.Candle, window int) bool {
	n := len(candles)
	if n == 0 {
		return false
	}
	start := 0
	if n-window > start {
		start = n - window
	}
	cur := candles[n-1].Volume
	for i := start; i < n-1; i++ {
		if candles[i].Volume > cur {
			return false
		}
	}
	return true
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func joinReasons(reasons []string) string {
	if len(reasons) == 0 {
		return "no significant chase risk factors"
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "; " + r
	}
	return out
}
