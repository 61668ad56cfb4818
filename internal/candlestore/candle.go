// Package candlestore holds the per-(symbol, timeframe) rolling view of
// closed candles plus one forming candle that the rest of the analysis
// stack reads from. It owns no network or persistence concerns; ingestion
// writes to it through Store's narrow upsert surface.
package candlestore

import (
	"errors"
	"math"
)

// ErrInvalidCandle is returned when a candle fails the OHLC/time invariants
// from the data model and is rejected at the store boundary.
var ErrInvalidCandle = errors.New("candlestore: invalid candle")

// Candle is an immutable OHLCV bar once IsClosed is true.
type Candle struct {
	OpenTime  int64
	CloseTime int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	IsClosed  bool
}

// Validate checks the invariants from the data model: low <= min(open,close)
// <= max(open,close) <= high, openTime < closeTime, non-negative volume,
// and finite numerics.
func (c Candle) Validate() error {
	if !finite(c.Open) || !finite(c.High) || !finite(c.Low) || !finite(c.Close) || !finite(c.Volume) {
		return ErrInvalidCandle
	}
	if c.Volume < 0 {
		return ErrInvalidCandle
	}
	if c.OpenTime >= c.CloseTime {
		return ErrInvalidCandle
	}
	lo := math.Min(c.Open, c.Close)
	hi := math.Max(c.Open, c.Close)
	if c.Low > lo || hi > c.High {
		return ErrInvalidCandle
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
