// Command backtest replays historical candles from the ingestion
// backfill source through the signal engine with notifications disabled,
// logging every emitted signal instead of delivering it.
package main

import (
	"context"
	"time"

	"signalengine/config"
	"signalengine/internal/candlestore"
	"signalengine/internal/engine"
	"signalengine/internal/ingestion"
	"signalengine/internal/logging"
	"signalengine/internal/zones"
)

// loggingSink records every signal the engine would have emitted without
// delivering it anywhere, so every send in a backtest run "succeeds";
// cooldowns are not armed because the run uses noCooldown below.
type loggingSink struct {
	log     *logging.Logger
	emitted int
}

func (s *loggingSink) SendSignal(signal engine.Signal) bool {
	s.emitted++
	s.log.WithFields(map[string]interface{}{
		"symbol": signal.Symbol, "timeframe": signal.Timeframe, "stage": signal.Stage,
		"side": signal.Side, "score": signal.Score, "entry": signal.Levels.Entry,
	}).Info("backtest signal")
	return true
}

// noCooldown disables cooldown gating entirely, so a backtest sees every
// setup the engine would consider rather than only the first per zone.
type noCooldown struct{}

func (noCooldown) IsOnCooldown(symbol, tf string, side zones.Side, zoneKey string) bool { return false }
func (noCooldown) AddCooldown(symbol, tf string, side zones.Side, zoneKey string, minutes int) {}
func (noCooldown) CleanupExpired()                                                     {}
func (noCooldown) SaveSignal(signal engine.Signal) error                               { return nil }

type skipCounter struct {
	log    *logging.Logger
	counts map[string]int
}

func (s *skipCounter) Skip(symbol, timeframe, reason, details string) {
	s.counts[reason]++
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("failed to load config", "error", err)
	}
	log := logging.Default()

	ctx := context.Background()
	adapter := ingestion.NewBinanceAdapter(
		cfg.Ingestion.BaseURL,
		cfg.Ingestion.WSURL,
		cfg.Ingestion.BackfillLimit,
		cfg.Ingestion.ReconnectMinDelay,
		cfg.Ingestion.ReconnectMaxDelay,
		cfg.Ingestion.ReconnectMaxAttempts,
		cfg.Ingestion.PingInterval,
	)

	sink := &loggingSink{log: log}
	skips := &skipCounter{log: log, counts: make(map[string]int)}
	candles := candlestore.New(cfg.CandleStore.Retention)
	eng := engine.New(cfg, candles, sink, noCooldown{}, skips)

	for _, symbol := range cfg.Symbols {
		for _, tf := range cfg.Timeframes {
			history, err := adapter.Backfill(ctx, symbol, tf, cfg.Ingestion.BackfillLimit, 0, 0)
			if err != nil {
				log.WithError(err).WithField("symbol", symbol).Warn("backfill failed, skipping pair")
				continue
			}
			for _, c := range history {
				if err := candles.UpsertClosed(symbol, tf, c); err != nil {
					continue
				}
				eng.OnClosedCandle(symbol, tf, time.Unix(c.CloseTime/1000, 0))
			}
		}
	}

	log.WithFields(map[string]interface{}{
		"signals_emitted": sink.emitted,
		"skips_by_reason": skips.counts,
	}).Info("backtest complete")
}
