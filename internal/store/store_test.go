package store

import (
	"testing"

	"signalengine/internal/zones"
)

func TestCooldownKeyFormat(t *testing.T) {
	got := cooldownKey("BTCUSDT", "1h", zones.Short, "resistance_110.00")
	want := "BTCUSDT|1h|SHORT|resistance_110.00"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
