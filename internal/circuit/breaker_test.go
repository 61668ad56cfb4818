package circuit

import (
	"testing"
	"time"
)

func TestBreakerTripsAfterMaxConsecutiveFailures(t *testing.T) {
	b := New(Config{MaxConsecutiveFailures: 3, CooldownMinutes: 1})
	for i := 0; i < 2; i++ {
		b.RecordFailure()
		if b.State() != StateClosed {
			t.Fatalf("expected breaker to stay closed before threshold, got %s", b.State())
		}
	}
	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("expected breaker to trip open after 3 consecutive failures, got %s", b.State())
	}
}

func TestBreakerBlocksDuringCooldown(t *testing.T) {
	b := New(Config{MaxConsecutiveFailures: 1, CooldownMinutes: 60})
	b.RecordFailure()
	allowed, reason := b.Allow()
	if allowed {
		t.Fatalf("expected breaker to block reconnect attempts during cooldown")
	}
	if reason == "" {
		t.Fatalf("expected a non-empty cooldown reason")
	}
}

func TestBreakerHalfOpenAfterCooldownThenCloses(t *testing.T) {
	b := New(Config{MaxConsecutiveFailures: 1, CooldownMinutes: 1})
	b.RecordFailure()
	b.lastTripTime = time.Now().Add(-2 * time.Minute)

	allowed, _ := b.Allow()
	if !allowed {
		t.Fatalf("expected a probe attempt to be allowed once cooldown elapses")
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("expected state to transition to half_open, got %s", b.State())
	}

	b.RecordSuccess()
	if b.State() != StateClosed {
		t.Fatalf("expected successful probe to close the breaker, got %s", b.State())
	}
}

func TestForceResetClearsState(t *testing.T) {
	b := New(Config{MaxConsecutiveFailures: 1, CooldownMinutes: 5})
	b.RecordFailure()
	b.ForceReset()
	if b.State() != StateClosed {
		t.Fatalf("expected ForceReset to close the breaker, got %s", b.State())
	}
}
