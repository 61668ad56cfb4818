package apiserver

import (
	"sync"

	"signalengine/internal/engine"
)

const recentSignalsCapacity = 50

// RecentSignalView is the JSON-friendly projection of an engine.Signal
// served by GET /signals/recent.
type RecentSignalView struct {
	Stage     string  `json:"stage"`
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Side      string  `json:"side"`
	Score     float64 `json:"score"`
	Entry     float64 `json:"entry"`
	StopLoss  float64 `json:"stop_loss"`
	Delivered bool    `json:"delivered"`
	Timestamp int64   `json:"timestamp"`
}

// RecentSignals is a fixed-capacity ring buffer of the most recently
// emitted signals, newest first.
type RecentSignals struct {
	mu   sync.Mutex
	buf  []RecentSignalView
	head int
	size int
}

func NewRecentSignals() *RecentSignals {
	return &RecentSignals{buf: make([]RecentSignalView, recentSignalsCapacity)}
}

func (r *RecentSignals) record(signal engine.Signal, delivered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.head] = RecentSignalView{
		Stage:     string(signal.Stage),
		Symbol:    signal.Symbol,
		Timeframe: signal.Timeframe,
		Side:      string(signal.Side),
		Score:     signal.Score,
		Entry:     signal.Levels.Entry,
		StopLoss:  signal.Levels.StopLoss,
		Delivered: delivered,
		Timestamp: signal.Timestamp,
	}
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// List returns the recorded signals, newest first.
func (r *RecentSignals) List() []RecentSignalView {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RecentSignalView, 0, r.size)
	for i := 0; i < r.size; i++ {
		idx := (r.head - 1 - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}
