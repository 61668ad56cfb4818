package scoring

import (
	"testing"

	"signalengine/internal/indicators"
	"signalengine/internal/patterns"
	"signalengine/internal/setups"
	"signalengine/internal/zones"
)

func TestScoreSetupHTFAlignedMaximizesAlignmentScore(t *testing.T) {
	in := Inputs{
		Side:              zones.Long,
		HTFAligned:        true,
		HTFAlignmentScore: 1.0,
		CandleStrength:    patterns.Strength{Direction: patterns.Bullish, BodyPercent: 0.8, CloseLocation: 0.9},
	}
	b := ScoreSetup(in)
	if b.HTFAlignment != 30 {
		t.Fatalf("expected max HTF alignment score of 30, got %f", b.HTFAlignment)
	}
}

func TestScoreSetupMisalignedCandlePenalized(t *testing.T) {
	aligned := ScoreSetup(Inputs{Side: zones.Long, CandleStrength: patterns.Strength{Direction: patterns.Bullish, BodyPercent: 0.5, CloseLocation: 0.6}})
	misaligned := ScoreSetup(Inputs{Side: zones.Long, CandleStrength: patterns.Strength{Direction: patterns.Bearish, BodyPercent: 0.5, CloseLocation: 0.6}})
	if misaligned.CandleStrength >= aligned.CandleStrength {
		t.Fatalf("expected misaligned candle to score lower: aligned=%f misaligned=%f", aligned.CandleStrength, misaligned.CandleStrength)
	}
}

func TestVolumeScoreTiers(t *testing.T) {
	if s := volumeScore(2.5, false); s != 15 {
		t.Fatalf("expected capped volume score of 15 for high ratio, got %f", s)
	}
	if s := volumeScore(0.5, false); s != 2 {
		t.Fatalf("expected base 5 - 3 = 2 for low ratio, got %f", s)
	}
}

func TestSetupQualityTrueBreakoutScoresHigherThanFalse(t *testing.T) {
	trueB := setupQualityScore(setups.Breakout{IsTrue: true})
	falseB := setupQualityScore(setups.Breakout{IsTrue: false})
	if trueB <= falseB {
		t.Fatalf("expected true breakout to score higher: true=%f false=%f", trueB, falseB)
	}
}

func TestRSIDivergenceBonusOnlyWhenAligned(t *testing.T) {
	bullish := &indicators.Divergence{Bullish: true}
	if got := rsiDivergenceBonus(bullish, zones.Long, 10); got != 10 {
		t.Fatalf("expected bonus of 10 for aligned bullish divergence, got %f", got)
	}
	if got := rsiDivergenceBonus(bullish, zones.Short, 10); got != 0 {
		t.Fatalf("expected no bonus for misaligned side, got %f", got)
	}
}
