package scoring

import (
	"errors"
	"testing"

	"signalengine/internal/zones"
)

func TestBuildLevelsLongUsesNearestSupportAndResistance(t *testing.T) {
	zoneList := []zones.Zone{
		{Type: zones.Support, Center: 95, Lower: 94, Upper: 96},
		{Type: zones.Resistance, Center: 110, Lower: 109, Upper: 111},
		{Type: zones.Resistance, Center: 120, Lower: 119, Upper: 121},
	}
	lv, err := BuildLevels(100, zones.Long, zoneList, zones.Zone{}, 0.002, 1.0, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lv.StopLoss >= 100 {
		t.Fatalf("expected stop loss below entry, got %f", lv.StopLoss)
	}
	if lv.TP1 != 110 {
		t.Fatalf("expected TP1 at nearest resistance center 110, got %f", lv.TP1)
	}
	if lv.TP2 != 120 {
		t.Fatalf("expected TP2 at second resistance center 120, got %f", lv.TP2)
	}
	if lv.RiskReward1 <= 0 {
		t.Fatalf("expected positive risk-reward, got %f", lv.RiskReward1)
	}
}

func TestBuildLevelsFallsBackToPercentStopWithNoZones(t *testing.T) {
	lv, err := BuildLevels(100, zones.Long, nil, zones.Zone{}, 0.002, 0, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lv.StopLoss != 99 {
		t.Fatalf("expected fallback stop loss of entry*0.99=99, got %f", lv.StopLoss)
	}
}

func TestBuildLevelsRejectsBelowMinRR(t *testing.T) {
	zoneList := []zones.Zone{
		{Type: zones.Support, Center: 99, Lower: 98.5, Upper: 99.5},
		{Type: zones.Resistance, Center: 100.5, Lower: 100.3, Upper: 100.7},
	}
	_, err := BuildLevels(100, zones.Long, zoneList, zones.Zone{}, 0.002, 10.0, 1.0)
	if !errors.Is(err, ErrRRTooLow) {
		t.Fatalf("expected ErrRRTooLow when risk-reward falls below minRR, got %v", err)
	}
}

func TestBuildLevelsShortMirrorsLong(t *testing.T) {
	zoneList := []zones.Zone{
		{Type: zones.Resistance, Center: 105, Lower: 104, Upper: 106},
		{Type: zones.Support, Center: 90, Lower: 89, Upper: 91},
		{Type: zones.Support, Center: 80, Lower: 79, Upper: 81},
	}
	lv, err := BuildLevels(100, zones.Short, zoneList, zones.Zone{}, 0.002, 1.0, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lv.TP1 != 90 {
		t.Fatalf("expected TP1 at nearest support center 90, got %f", lv.TP1)
	}
	if lv.StopLoss <= 100 {
		t.Fatalf("expected stop loss above entry for SHORT, got %f", lv.StopLoss)
	}
}
