package apiserver

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"signalengine/config"
	"signalengine/internal/engine"
	"signalengine/internal/zones"
)

func TestRateLimiterAllowsUpToLimitThenBlocks(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	if !rl.Allow("k") || !rl.Allow("k") {
		t.Fatalf("expected first two requests to be allowed")
	}
	if rl.Allow("k") {
		t.Fatalf("expected third request within the window to be blocked")
	}
}

func TestIssueTokenRejectsWrongToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("unexpected error hashing token: %v", err)
	}

	s := &Server{cfg: config.APIServerConfig{OperatorToken: string(hash), JWTSecret: "secret"}}

	if _, err := s.issueToken("wrong"); err == nil {
		t.Fatalf("expected an error for an incorrect operator token")
	}

	signed, err := s.issueToken("correct-horse")
	if err != nil {
		t.Fatalf("unexpected error issuing token for correct operator token: %v", err)
	}
	if signed == "" {
		t.Fatalf("expected a non-empty signed token")
	}
}

func TestIssueTokenRejectsWhenAuthUnconfigured(t *testing.T) {
	s := &Server{cfg: config.APIServerConfig{}}
	if _, err := s.issueToken("anything"); err == nil {
		t.Fatalf("expected an error when no operator token hash is configured")
	}
}

func TestSkipRecorderCountsAndForwards(t *testing.T) {
	m := NewMetrics()
	var forwarded []string
	next := recordingSkipLogger(func(symbol, tf, reason, details string) { forwarded = append(forwarded, reason) })

	r := NewSkipRecorder(m, next)
	r.Skip("BTCUSDT", "1h", "low_score", "score 40 < 55")

	if len(forwarded) != 1 || forwarded[0] != "low_score" {
		t.Fatalf("expected the skip to be forwarded to the downstream logger, got %v", forwarded)
	}
	if got := counterTotal(t, m, "signalengine_skips_total"); got != 1 {
		t.Fatalf("expected the skip counter to be 1, got %v", got)
	}
}

func TestSinkRecorderCountsRegardlessOfOutcome(t *testing.T) {
	m := NewMetrics()
	recent := NewRecentSignals()
	r := NewSinkRecorder(m, recent, recordingSink(func(engine.Signal) bool { return false }))

	if r.SendSignal(engine.Signal{Symbol: "BTCUSDT", Timeframe: "1h", Stage: engine.StageEntry, Side: zones.Long}) {
		t.Fatalf("expected SendSignal to propagate the downstream sink's failure")
	}
	list := recent.List()
	if len(list) != 1 || list[0].Delivered {
		t.Fatalf("expected the failed delivery to be recorded as undelivered, got %+v", list)
	}
	if got := counterTotal(t, m, "signalengine_signals_emitted_total"); got != 1 {
		t.Fatalf("expected the emitted-signal counter to be 1 despite the failed delivery, got %v", got)
	}
}

func TestSinkRecorderFailsClosedWithNoDownstream(t *testing.T) {
	m := NewMetrics()
	r := NewSinkRecorder(m, nil, nil)
	if r.SendSignal(engine.Signal{Symbol: "BTCUSDT", Timeframe: "1h", Stage: engine.StageEntry, Side: zones.Long}) {
		t.Fatalf("expected SendSignal to report failure with no downstream sink configured")
	}
}

// counterTotal sums every sample of the named counter family in m's registry.
func counterTotal(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %v", err)
	}
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

type recordingSkipLogger func(symbol, tf, reason, details string)

func (f recordingSkipLogger) Skip(symbol, tf, reason, details string) { f(symbol, tf, reason, details) }

type recordingSink func(engine.Signal) bool

func (f recordingSink) SendSignal(s engine.Signal) bool { return f(s) }
