package apiserver

import (
	"github.com/prometheus/client_golang/prometheus"

	"signalengine/internal/engine"
)

// Metrics is C13's observability boundary: it counts emitted signals and
// gated-out evaluations by reason so the read-only status surface can
// expose them without the engine knowing prometheus exists.
type Metrics struct {
	signalsEmitted     *prometheus.CounterVec
	skipsByReason      *prometheus.CounterVec
	ingestionReconnect prometheus.Counter
	registry           *prometheus.Registry
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		signalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalengine_signals_emitted_total",
			Help: "Signals emitted by the engine, by symbol, timeframe and stage.",
		}, []string{"symbol", "timeframe", "stage"}),
		skipsByReason: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalengine_skips_total",
			Help: "Evaluations gated out by the engine, by reason.",
		}, []string{"reason"}),
		ingestionReconnect: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_ingestion_reconnects_total",
			Help: "Ingestion adapter reconnect attempts.",
		}),
		registry: reg,
	}

	reg.MustRegister(m.signalsEmitted, m.skipsByReason, m.ingestionReconnect)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// IngestionReconnect should be called by an ingestion adapter each time it
// dials the exchange stream, the first connect included.
func (m *Metrics) IngestionReconnect() { m.ingestionReconnect.Inc() }

// Skip implements engine.SkipLogger, wrapping an optional downstream
// logger so skip reasons are both counted and logged.
type SkipRecorder struct {
	metrics *Metrics
	next    engine.SkipLogger
}

func NewSkipRecorder(metrics *Metrics, next engine.SkipLogger) *SkipRecorder {
	return &SkipRecorder{metrics: metrics, next: next}
}

func (s *SkipRecorder) Skip(symbol, timeframe, reason, details string) {
	s.metrics.skipsByReason.WithLabelValues(reason).Inc()
	if s.next != nil {
		s.next.Skip(symbol, timeframe, reason, details)
	}
}

// SinkRecorder implements engine.Sink, counting every signal the
// underlying sink is asked to deliver and recording it for
// GET /signals/recent, regardless of delivery outcome.
type SinkRecorder struct {
	metrics *Metrics
	recent  *RecentSignals
	next    engine.Sink
}

func NewSinkRecorder(metrics *Metrics, recent *RecentSignals, next engine.Sink) *SinkRecorder {
	return &SinkRecorder{metrics: metrics, recent: recent, next: next}
}

func (s *SinkRecorder) SendSignal(signal engine.Signal) bool {
	s.metrics.signalsEmitted.WithLabelValues(signal.Symbol, signal.Timeframe, string(signal.Stage)).Inc()

	delivered := s.next != nil && s.next.SendSignal(signal)
	if s.recent != nil {
		s.recent.record(signal, delivered)
	}
	return delivered
}
