// Package circuit adapts the teacher's trading circuit breaker into a
// reconnect-escalation guard for ingestion adapters: instead of tripping on
// trading losses, it trips on consecutive stream-reconnect failures past the
// backoff cap and forces a cooldown before the adapter is allowed to try
// dialing again.
package circuit

import (
	"fmt"
	"sync"
	"time"
)

// State represents the breaker's lifecycle.
type State string

const (
	StateClosed   State = "closed"    // reconnects proceed normally
	StateOpen     State = "open"      // reconnect attempts are blocked during cooldown
	StateHalfOpen State = "half_open" // cooldown elapsed, one probe attempt allowed
)

// Config tunes the escalation thresholds.
type Config struct {
	MaxConsecutiveFailures int // trips after this many reconnect failures in a row
	CooldownMinutes        int // minimum time spent in StateOpen before probing
}

func DefaultConfig() Config {
	return Config{MaxConsecutiveFailures: 10, CooldownMinutes: 5}
}

// Breaker guards a single ingestion stream's reconnect loop.
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state            State
	consecutiveFails int
	lastTripTime     time.Time
	tripReason       string

	onTrip  func(reason string)
	onReset func()
}

func New(cfg Config) *Breaker {
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = DefaultConfig().MaxConsecutiveFailures
	}
	if cfg.CooldownMinutes <= 0 {
		cfg.CooldownMinutes = DefaultConfig().CooldownMinutes
	}
	return &Breaker{cfg: cfg, state: StateClosed}
}

// OnTrip registers a callback invoked when the breaker opens.
func (b *Breaker) OnTrip(handler func(reason string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTrip = handler
}

// OnReset registers a callback invoked when the breaker closes again.
func (b *Breaker) OnReset(handler func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onReset = handler
}

// Allow reports whether a reconnect attempt may proceed. When the cooldown
// has elapsed it transitions Open -> HalfOpen and allows exactly one probe.
func (b *Breaker) Allow() (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return true, ""
	}

	elapsed := time.Since(b.lastTripTime)
	cooldown := time.Duration(b.cfg.CooldownMinutes) * time.Minute
	if elapsed < cooldown {
		return false, fmt.Sprintf("circuit open, cooldown remaining: %v (reason: %s)", (cooldown - elapsed).Round(time.Second), b.tripReason)
	}

	b.state = StateHalfOpen
	return true, ""
}

// RecordFailure records a reconnect failure and trips the breaker once
// MaxConsecutiveFailures is reached.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	b.consecutiveFails++
	tripped := b.consecutiveFails >= b.cfg.MaxConsecutiveFailures
	var reason string
	if tripped {
		reason = fmt.Sprintf("%d consecutive reconnect failures", b.consecutiveFails)
		b.state = StateOpen
		b.lastTripTime = time.Now()
		b.tripReason = reason
	}
	onTrip := b.onTrip
	b.mu.Unlock()

	if tripped && onTrip != nil {
		go onTrip(reason)
	}
}

// RecordSuccess clears the failure count and closes the breaker if it was
// half-open.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	b.consecutiveFails = 0
	wasHalfOpen := b.state == StateHalfOpen
	if wasHalfOpen || b.state == StateOpen {
		b.state = StateClosed
	}
	onReset := b.onReset
	b.mu.Unlock()

	if wasHalfOpen && onReset != nil {
		go onReset()
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ForceReset manually closes the breaker, e.g. from an operator command.
func (b *Breaker) ForceReset() {
	b.mu.Lock()
	b.state = StateClosed
	b.consecutiveFails = 0
	b.tripReason = ""
	onReset := b.onReset
	b.mu.Unlock()

	if onReset != nil {
		go onReset()
	}
}
