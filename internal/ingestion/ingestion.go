// Package ingestion implements C14: REST backfill and websocket streaming
// adapters that feed closed and forming candles into the candle store.
package ingestion

import (
	"context"
	"errors"

	"signalengine/internal/candlestore"
)

var ErrBackfillUnavailable = errors.New("ingestion: backfill source unavailable")

// OnClosed is invoked at most once per close for a given (symbol, timeframe).
type OnClosed func(symbol, tf string, candle candlestore.Candle)

// OnForming is invoked on every forming-candle tick, best-effort.
type OnForming func(symbol, tf string, candle candlestore.Candle)

// Backfill fetches historical candles in ascending openTime order.
type Backfill interface {
	Backfill(ctx context.Context, symbol, tf string, limit int, startTime, endTime int64) ([]candlestore.Candle, error)
}

// Stream delivers live candle updates for a set of symbols/timeframes until
// the context is cancelled. Implementations own reconnection and, after a
// reconnect, backfilling the gap before resuming delivery.
type Stream interface {
	Run(ctx context.Context, symbols, timeframes []string, onClosed OnClosed, onForming OnForming) error
}

// Adapter composes both roles; the Binance implementation satisfies this,
// and so does anything used by backtest harnesses or tests.
type Adapter interface {
	Backfill
	Stream
}
