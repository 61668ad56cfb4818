// Package scoring implements C12: weighted confluence scoring and
// zone-anchored stop-loss/take-profit level calculation, grounded on the
// teacher's additive weighted-factor confluence scorer.
package scoring

import (
	"math"

	"signalengine/internal/indicators"
	"signalengine/internal/patterns"
	"signalengine/internal/setups"
	"signalengine/internal/zones"
)

// Breakdown is the supplemented per-factor score trace attached to a
// Signal, letting downstream consumers (notifications, persisted records)
// show exactly why a score landed where it did instead of a bare total.
type Breakdown struct {
	HTFAlignment   float64
	SetupQuality   float64
	CandleStrength float64
	Volume         float64
	RSIDivergence  float64
	Total          float64
}

// Inputs bundles everything ScoreSetup needs.
type Inputs struct {
	Setup              setups.Setup
	Side               zones.Side
	HTFAligned         bool
	HTFAlignmentScore  float64 // from structure.CheckAlignment, in [0,1]
	CandleStrength     patterns.Strength
	VolumeRatio        float64
	SetupVolumeSpike   bool
	Divergence         *indicators.Divergence
	RSIDivergenceBonus float64
}

// ScoreSetup computes the full additive score breakdown.
func ScoreSetup(in Inputs) Breakdown {
	b := Breakdown{}

	if in.HTFAligned {
		b.HTFAlignment = 25 + 5*in.HTFAlignmentScore
	} else {
		b.HTFAlignment = 5 + 15*in.HTFAlignmentScore
	}

	b.SetupQuality = setupQualityScore(in.Setup)
	b.CandleStrength = candleStrengthScore(in.CandleStrength, in.Side)
	b.Volume = volumeScore(in.VolumeRatio, in.SetupVolumeSpike)
	b.RSIDivergence = rsiDivergenceBonus(in.Divergence, in.Side, in.RSIDivergenceBonus)

	b.Total = b.HTFAlignment + b.SetupQuality + b.CandleStrength + b.Volume + b.RSIDivergence
	return b
}

func setupQualityScore(s setups.Setup) float64 {
	if s == nil {
		return 0
	}
	switch v := s.(type) {
	case setups.Reversal:
		return capped(10+12+v.Pattern.Strength*8, 30)
	case setups.Breakout:
		if v.IsTrue {
			return 25
		}
		return 15
	case setups.Breakdown:
		if v.IsTrue {
			return 25
		}
		return 15
	case setups.Retest:
		base := 10 + 12.0
		if v.Pattern.Name != "" {
			base += 5
		}
		return capped(base, 30)
	case setups.FalseBreakout:
		return 20
	default:
		return 15
	}
}

func candleStrengthScore(s patterns.Strength, side zones.Side) float64 {
	score := 12.0
	aligned := (side == zones.Long && s.Direction == patterns.Bullish) || (side == zones.Short && s.Direction == patterns.Bearish)

	if aligned {
		score += 10 * s.BodyPercent
		if (side == zones.Long && s.CloseLocation > 0.5) || (side == zones.Short && s.CloseLocation < 0.5) {
			score += 3
		}
	} else {
		score -= 6
	}

	if s.Rejection != nil {
		rejectionFavorsTrade := (side == zones.Long && s.Rejection.Type == patterns.Upside) ||
			(side == zones.Short && s.Rejection.Type == patterns.Downside)
		if rejectionFavorsTrade {
			score += 4 * s.Rejection.Strength
		}
	}

	return capped(score, 25)
}

func volumeScore(ratio float64, setupFlaggedSpike bool) float64 {
	score := 5.0
	switch {
	case ratio >= 2.0:
		score += 10
	case ratio >= 1.5:
		score += 7
	case ratio >= 1.0:
		score += 5
	case ratio < 0.8:
		score -= 3
	}
	if setupFlaggedSpike {
		score += 3
	}
	return capped(score, 15)
}

func rsiDivergenceBonus(div *indicators.Divergence, side zones.Side, bonus float64) float64 {
	if div == nil {
		return 0
	}
	aligned := (side == zones.Long && div.Bullish) || (side == zones.Short && !div.Bullish)
	if !aligned {
		return 0
	}
	return bonus
}

func capped(v, max float64) float64 {
	if v > max {
		return max
	}
	if v < 0 {
		return 0
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
