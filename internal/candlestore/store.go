package candlestore

import (
	"sync"

	"signalengine/internal/logging"
)

const defaultRetention = 1000

// series is the per-(symbol, timeframe) state: an append-only, openTime-
// ordered run of closed candles capped at retention, plus at most one
// forming candle.
type series struct {
	mu       sync.Mutex
	closed   []Candle
	forming  *Candle
}

// Store is the C1 candle store. It is keyed by "symbol:timeframe" in a
// sync.Map the way internal/binance's MarketDataCache keys klines by
// "symbol:interval", giving independent locking per pair instead of one
// store-wide mutex.
type Store struct {
	retention int
	series    sync.Map // key -> *series
}

// New builds a Store with the given retention cap. retention <= 0 falls
// back to the spec default of 1000.
func New(retention int) *Store {
	if retention <= 0 {
		retention = defaultRetention
	}
	return &Store{retention: retention}
}

func key(symbol, tf string) string {
	return symbol + ":" + tf
}

func (s *Store) seriesFor(symbol, tf string) *series {
	k := key(symbol, tf)
	if v, ok := s.series.Load(k); ok {
		return v.(*series)
	}
	v, _ := s.series.LoadOrStore(k, &series{})
	return v.(*series)
}

// Init seeds a (symbol, timeframe) pair with an initial, ascending-by-
// openTime sequence of closed candles, e.g. from a backfill. Any existing
// state for the pair is replaced.
func (s *Store) Init(symbol, tf string, initial []Candle) error {
	for _, c := range initial {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	se := s.seriesFor(symbol, tf)
	se.mu.Lock()
	defer se.mu.Unlock()
	se.closed = append([]Candle(nil), initial...)
	se.forming = nil
	s.trim(se)
	return nil
}

// UpsertClosed applies the upsert-closed rule: if the tail candle shares
// openTime with c, it is replaced; otherwise c is appended. A closed c
// clears the forming slot. Retention overflow drops from the head.
func (s *Store) UpsertClosed(symbol, tf string, c Candle) error {
	if err := c.Validate(); err != nil {
		return err
	}
	se := s.seriesFor(symbol, tf)
	se.mu.Lock()
	defer se.mu.Unlock()

	if n := len(se.closed); n > 0 && se.closed[n-1].OpenTime == c.OpenTime {
		se.closed[n-1] = c
	} else {
		se.closed = append(se.closed, c)
	}
	if c.IsClosed {
		se.forming = nil
	}
	s.trim(se)
	return nil
}

// SetForming replaces the single forming candle for (symbol, tf).
func (s *Store) SetForming(symbol, tf string, c Candle) error {
	if err := c.Validate(); err != nil {
		return err
	}
	se := s.seriesFor(symbol, tf)
	se.mu.Lock()
	defer se.mu.Unlock()
	forming := c
	se.forming = &forming
	return nil
}

// Closed returns a snapshot of the closed-candle sequence; callers may not
// mutate the result.
func (s *Store) Closed(symbol, tf string) []Candle {
	se := s.seriesFor(symbol, tf)
	se.mu.Lock()
	defer se.mu.Unlock()
	return append([]Candle(nil), se.closed...)
}

// ClosedWithForming returns the closed sequence with the forming candle
// appended, if one is set.
func (s *Store) ClosedWithForming(symbol, tf string) []Candle {
	se := s.seriesFor(symbol, tf)
	se.mu.Lock()
	defer se.mu.Unlock()
	out := append([]Candle(nil), se.closed...)
	if se.forming != nil {
		out = append(out, *se.forming)
	}
	return out
}

// LastN returns up to the last n closed candles, oldest first.
func (s *Store) LastN(symbol, tf string, n int) []Candle {
	se := s.seriesFor(symbol, tf)
	se.mu.Lock()
	defer se.mu.Unlock()
	if n <= 0 || len(se.closed) == 0 {
		return nil
	}
	if n >= len(se.closed) {
		return append([]Candle(nil), se.closed...)
	}
	start := len(se.closed) - n
	return append([]Candle(nil), se.closed[start:]...)
}

// trim drops from the head once the closed sequence exceeds retention.
// Caller must hold se.mu.
func (s *Store) trim(se *series) {
	if over := len(se.closed) - s.retention; over > 0 {
		se.closed = append([]Candle(nil), se.closed[over:]...)
		logging.WithComponent("candlestore").Debug("trimmed candle series past retention", "dropped", over)
	}
}
