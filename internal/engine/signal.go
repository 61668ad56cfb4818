// Package engine implements C13: the signal engine that wires every
// analysis component into the SETUP/ENTRY gating pipeline described in
// spec section 4.13.
package engine

import (
	"time"

	"signalengine/internal/antichase"
	"signalengine/internal/events"
	"signalengine/internal/indicators"
	"signalengine/internal/regime"
	"signalengine/internal/scoring"
	"signalengine/internal/setups"
	"signalengine/internal/structure"
	"signalengine/internal/zones"
)

type Stage string

const (
	StageSetup Stage = "SETUP"
	StageEntry Stage = "ENTRY"
)

// Signal is the fully-resolved payload handed to the notification sink.
type Signal struct {
	ID             string
	Stage          Stage
	Symbol         string
	Timeframe      string
	Side           zones.Side
	Score          float64
	Breakdown      scoring.Breakdown
	Setup          setups.Setup
	HTFBias        structure.HTFBias
	Regime         *regime.Regime
	StructureEvent *events.Event
	Sweep          *events.Event
	Divergence     *indicators.Divergence
	VolumeRatio    float64
	Levels         scoring.Levels
	ChaseEval      *antichase.Evaluation
	Timestamp      int64
}

// Sink is C16: the notification sink boundary. The core treats a failed
// send as "do not persist, do not arm cooldown".
type Sink interface {
	SendSignal(Signal) bool
}

// CooldownStore is C15: the cooldown-and-signal persistence boundary. It
// durably records every delivered signal alongside the cooldown key that
// guards repeat emission for the same setup.
type CooldownStore interface {
	IsOnCooldown(symbol, tf string, side zones.Side, zoneKey string) bool
	AddCooldown(symbol, tf string, side zones.Side, zoneKey string, minutes int)
	CleanupExpired()
	SaveSignal(signal Signal) error
}

// SkipLogger records every gated-out evaluation with its reason.
type SkipLogger interface {
	Skip(symbol, timeframe, reason, details string)
}

func cooldownKey(symbol, tf string, side zones.Side, zoneKey string) string {
	return symbol + "|" + tf + "|" + string(side) + "|" + zoneKey
}

func zoneKeyOf(s setups.Setup) string {
	if s == nil {
		return ""
	}
	return s.Common().Zone.Key
}

func setupSide(s setups.Setup) zones.Side {
	return s.Common().Side
}

func nowUnix(clock func() time.Time) int64 {
	return clock().Unix()
}
