// Package notifier implements C16: the notification sink boundary. It
// formats an engine.Signal and fans it out to whichever providers are
// configured, adapted from the teacher's internal/notification package.
package notifier

import (
	"fmt"
	"time"

	"signalengine/internal/engine"
	"signalengine/internal/logging"
	"signalengine/internal/setups"
)

// Provider is one delivery channel for a formatted signal message.
type Provider interface {
	Send(title, message string) error
	Name() string
	IsEnabled() bool
}

// Manager fans a signal out to every enabled provider and satisfies
// engine.Sink. A send is considered successful if at least one enabled
// provider accepts it, or if there are no enabled providers at all (the
// log-only deployment mode).
type Manager struct {
	providers []Provider
	log       *logging.Logger
}

func NewManager(providers ...Provider) *Manager {
	return &Manager{providers: providers, log: logging.WithComponent("notifier")}
}

var _ engine.Sink = (*Manager)(nil)

func (m *Manager) SendSignal(signal engine.Signal) bool {
	title, message := format(signal)

	anyEnabled := false
	succeeded := false
	for _, p := range m.providers {
		if !p.IsEnabled() {
			continue
		}
		anyEnabled = true
		if err := p.Send(title, message); err != nil {
			m.log.WithError(err).WithField("provider", p.Name()).Warn("notification delivery failed")
			continue
		}
		succeeded = true
	}

	if !anyEnabled {
		m.log.WithFields(map[string]interface{}{
			"symbol": signal.Symbol, "timeframe": signal.Timeframe, "stage": string(signal.Stage),
		}).Info(title + ": " + message)
		return true
	}
	return succeeded
}

func format(signal engine.Signal) (title, message string) {
	side := "LONG"
	if signal.Side == "SHORT" {
		side = "SHORT"
	}

	title = fmt.Sprintf("%s %s %s %s", signal.Stage, side, signal.Symbol, signal.Timeframe)
	message = fmt.Sprintf(
		"%s @ %.6f\nscore: %.1f | setup: %s\nSL: %.6f | TP1: %.6f | TP2: %.6f | RR: %.2f\ntime: %s",
		side, signal.Levels.Entry, signal.Score, setupName(signal.Setup),
		signal.Levels.StopLoss, signal.Levels.TP1, signal.Levels.TP2, signal.Levels.RiskReward1,
		time.Unix(signal.Timestamp, 0).UTC().Format(time.RFC3339),
	)
	return title, message
}

func setupName(s setups.Setup) string {
	if s == nil {
		return "unknown"
	}
	return string(s.Kind())
}
