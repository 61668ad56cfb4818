// Command signalengine runs the full candle-ingestion, analysis and
// signal-emission pipeline as a long-lived service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signalengine/config"
	"signalengine/internal/apiserver"
	"signalengine/internal/candlestore"
	"signalengine/internal/engine"
	"signalengine/internal/ingestion"
	"signalengine/internal/logging"
	"signalengine/internal/notifier"
	"signalengine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("failed to load config", "error", err)
	}

	logging.SetDefault(logging.New(&logging.Config{
		Level:       cfg.Logging.Level,
		Output:      cfg.Logging.Output,
		Component:   "signalengine",
		IncludeFile: cfg.Logging.IncludeFile,
		JSONFormat:  cfg.Logging.JSONFormat,
	}))
	log := logging.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	candles := candlestore.New(cfg.CandleStore.Retention)

	cooldown, closeStore := buildCooldownStore(ctx, cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	metrics := apiserver.NewMetrics()
	recentSignals := apiserver.NewRecentSignals()
	sink := buildSink(cfg, metrics, recentSignals)
	skipLogger := apiserver.NewSkipRecorder(metrics, nil)

	eng := engine.New(cfg, candles, sink, cooldown, skipLogger)

	adapter := ingestion.NewBinanceAdapter(
		cfg.Ingestion.BaseURL,
		cfg.Ingestion.WSURL,
		cfg.Ingestion.BackfillLimit,
		cfg.Ingestion.ReconnectMinDelay,
		cfg.Ingestion.ReconnectMaxDelay,
		cfg.Ingestion.ReconnectMaxAttempts,
		cfg.Ingestion.PingInterval,
	)
	adapter.OnReconnectAttempt = metrics.IngestionReconnect

	if cfg.APIServer.Enabled {
		srv := apiserver.NewServer(cfg.APIServer, metrics, recentSignals, adapter.Breaker(), apiserver.NewConfigStatus(cfg), log)
		go func() {
			if err := srv.Start(); err != nil {
				log.WithError(err).Warn("api server stopped")
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if err := backfillAll(ctx, adapter, candles, cfg.Symbols, cfg.Timeframes, cfg.Ingestion.BackfillLimit); err != nil {
		log.WithError(err).Fatal("initial backfill failed")
	}

	onClosed := func(symbol, tf string, candle candlestore.Candle) {
		if err := candles.UpsertClosed(symbol, tf, candle); err != nil {
			log.WithError(err).Warn("failed to upsert closed candle")
			return
		}
		eng.OnClosedCandle(symbol, tf, time.Now())
	}
	onForming := func(symbol, tf string, candle candlestore.Candle) {
		if err := candles.SetForming(symbol, tf, candle); err != nil {
			return
		}
		eng.OnFormingUpdate(symbol, tf, time.Now())
	}

	log.Info("signal engine starting")
	if err := adapter.Run(ctx, cfg.Symbols, cfg.Timeframes, onClosed, onForming); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("ingestion stream terminated")
	}
	log.Info("signal engine stopped")
}

func backfillAll(ctx context.Context, adapter ingestion.Backfill, candles *candlestore.Store, symbols, timeframes []string, limit int) error {
	for _, symbol := range symbols {
		for _, tf := range timeframes {
			initial, err := adapter.Backfill(ctx, symbol, tf, limit, 0, 0)
			if err != nil {
				return err
			}
			if err := candles.Init(symbol, tf, initial); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildCooldownStore(ctx context.Context, cfg *config.Config, log *logging.Logger) (engine.CooldownStore, func()) {
	pg, err := store.NewPostgres(ctx, store.PostgresConfig{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		Database:        cfg.Postgres.Database,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres cooldown store")
	}

	if !cfg.Redis.Enabled {
		return pg, pg.Close
	}

	cached := store.NewCachedCooldownStore(store.RedisConfig{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}, pg)
	return cached, func() {
		cached.Close()
		pg.Close()
	}
}

func buildSink(cfg *config.Config, metrics *apiserver.Metrics, recent *apiserver.RecentSignals) engine.Sink {
	var providers []notifier.Provider
	if cfg.Notification.Enabled {
		providers = append(providers,
			notifier.NewTelegram(notifier.TelegramConfig{
				Enabled:  cfg.Notification.Telegram.Enabled,
				BotToken: cfg.Notification.Telegram.BotToken,
				ChatID:   cfg.Notification.Telegram.ChatID,
			}),
			notifier.NewDiscord(notifier.DiscordConfig{
				Enabled:    cfg.Notification.Discord.Enabled,
				WebhookURL: cfg.Notification.Discord.WebhookURL,
			}),
		)
	}
	manager := notifier.NewManager(providers...)
	return apiserver.NewSinkRecorder(metrics, recent, manager)
}
