package ingestion

import (
	"context"
	"math"
	"math/rand"
	"time"

	"signalengine/internal/candlestore"
)

// MockAdapter generates synthetic candles for development without a live
// exchange (neither entrypoint wires it in), grounded on the same random-walk shape as the exchange client's
// simulated mode but without any order-placement surface.
type MockAdapter struct {
	rng        *rand.Rand
	basePrices map[string]float64
	tick       time.Duration
}

func NewMockAdapter(seed int64, basePrices map[string]float64, tick time.Duration) *MockAdapter {
	return &MockAdapter{
		rng:        rand.New(rand.NewSource(seed)),
		basePrices: basePrices,
		tick:       tick,
	}
}

func (m *MockAdapter) Backfill(ctx context.Context, symbol, tf string, limit int, startTime, endTime int64) ([]candlestore.Candle, error) {
	base, ok := m.basePrices[symbol]
	if !ok {
		base = 100.0
	}
	interval := intervalDuration(tf)
	now := time.Now()

	candles := make([]candlestore.Candle, limit)
	price := base
	for i := limit - 1; i >= 0; i-- {
		openTime := now.Add(-time.Duration(limit-i) * interval)
		closeTime := openTime.Add(interval)

		open := price
		change := (m.rng.Float64() - 0.5) * 0.02
		closeP := open * (1 + change)
		high := math.Max(open, closeP) * (1 + m.rng.Float64()*0.01)
		low := math.Min(open, closeP) * (1 - m.rng.Float64()*0.01)
		volume := base * (1000 + m.rng.Float64()*5000) / base

		candles[i] = candlestore.Candle{
			OpenTime:  openTime.UnixMilli(),
			CloseTime: closeTime.UnixMilli(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closeP,
			Volume:    volume,
			IsClosed:  true,
		}
		price = closeP
	}
	return candles, nil
}

// Run emits one closed candle per tick per (symbol, timeframe) until the
// context is cancelled; it never reconnects because there is no connection.
func (m *MockAdapter) Run(ctx context.Context, symbols, timeframes []string, onClosed OnClosed, onForming OnForming) error {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, symbol := range symbols {
				for _, tf := range timeframes {
					candles, _ := m.Backfill(ctx, symbol, tf, 1, 0, 0)
					if len(candles) == 1 {
						onClosed(symbol, tf, candles[0])
					}
				}
			}
		}
	}
}

func intervalDuration(tf string) time.Duration {
	switch tf {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return time.Minute
	}
}
