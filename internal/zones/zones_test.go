package zones

import "testing"

func TestMergeIsIdempotent(t *testing.T) {
	raw := []Zone{
		newZone(Support, 100.0, 0.01, 1),
		newZone(Support, 100.3, 0.01, 2),
		newZone(Support, 150.0, 0.01, 3),
	}
	once := Merge(raw, 0.01)
	twice := Merge(once, 0.01)

	if len(once) != len(twice) {
		t.Fatalf("merge not idempotent: once=%d twice=%d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Center != twice[i].Center {
			t.Fatalf("merge not idempotent at index %d: %v vs %v", i, once[i], twice[i])
		}
	}
}

func TestMergeCombinesCloseZones(t *testing.T) {
	raw := []Zone{
		newZone(Resistance, 100.0, 0.01, 1),
		newZone(Resistance, 100.1, 0.01, 2),
	}
	merged := Merge(raw, 0.01)
	if len(merged) != 1 {
		t.Fatalf("expected close zones to merge into one, got %d", len(merged))
	}
	if merged[0].Touches != 2 {
		t.Fatalf("expected merged touches to sum, got %d", merged[0].Touches)
	}
}

func TestMergeKeepsDistantZonesSeparate(t *testing.T) {
	raw := []Zone{
		newZone(Support, 100.0, 0.005, 1),
		newZone(Support, 120.0, 0.005, 2),
	}
	merged := Merge(raw, 0.005)
	if len(merged) != 2 {
		t.Fatalf("expected distant zones to remain separate, got %d", len(merged))
	}
}

func TestIsTouching(t *testing.T) {
	z := newZone(Support, 100, 0.01, 0)
	if !IsTouching(100.5, z) {
		t.Fatalf("expected 100.5 to touch zone %+v", z)
	}
	if IsTouching(110, z) {
		t.Fatalf("expected 110 to not touch zone %+v", z)
	}
}

func TestFindNextOpposingZonesOrdersByDistance(t *testing.T) {
	zoneList := []Zone{
		newZone(Resistance, 110, 0.01, 0),
		newZone(Resistance, 105, 0.01, 0),
		newZone(Resistance, 120, 0.01, 0),
		newZone(Support, 90, 0.01, 0),
	}
	next := FindNextOpposingZones(100, zoneList, Long, 2)
	if len(next) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(next))
	}
	if next[0].Center != 105 || next[1].Center != 110 {
		t.Fatalf("expected zones ordered by distance [105,110], got %+v", next)
	}
}

func TestFindStopLossZoneNearestOnLossSide(t *testing.T) {
	zoneList := []Zone{
		newZone(Support, 95, 0.01, 0),
		newZone(Support, 80, 0.01, 0),
		newZone(Resistance, 110, 0.01, 0),
	}
	sl := FindStopLossZone(100, zoneList, Long)
	if sl == nil || sl.Center != 95 {
		t.Fatalf("expected nearest support below entry (95), got %+v", sl)
	}
}

func TestKeyStableUnderEqualTypeAndCenter(t *testing.T) {
	z1 := newZone(Support, 43200.0, 0.005, 1)
	z2 := newZone(Support, 43200.0, 0.005, 999)
	if z1.Key != z2.Key {
		t.Fatalf("expected stable key for equal (type, center), got %q vs %q", z1.Key, z2.Key)
	}
}
