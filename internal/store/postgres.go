// Package store implements C15: cooldown persistence with at-most-one live
// entry per key, backed by Postgres via pgx with a Redis hot-path cache.
// Adapted from the teacher's internal/database package.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"signalengine/internal/engine"
	"signalengine/internal/logging"
	"signalengine/internal/zones"
)

type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Postgres backs the cooldown store with a durable table so entries survive
// restarts.
type Postgres struct {
	pool *pgxpool.Pool
	log  *logging.Logger
}

func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	p := &Postgres{pool: pool, log: logging.WithComponent("store")}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS signal_cooldowns (
			cooldown_key TEXT PRIMARY KEY,
			symbol       TEXT NOT NULL,
			timeframe    TEXT NOT NULL,
			side         TEXT NOT NULL,
			zone_key     TEXT NOT NULL,
			expires_at   TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS signals (
			id         TEXT PRIMARY KEY,
			symbol     TEXT NOT NULL,
			timeframe  TEXT NOT NULL,
			side       TEXT NOT NULL,
			score      DOUBLE PRECISION NOT NULL,
			breakdown  JSONB NOT NULL,
			entry      DOUBLE PRECISION NOT NULL,
			stop_loss  DOUBLE PRECISION NOT NULL,
			tp1        DOUBLE PRECISION NOT NULL,
			tp2        DOUBLE PRECISION,
			rr         DOUBLE PRECISION NOT NULL,
			zone_key   TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			payload    JSONB NOT NULL
		)
	`)
	return err
}

func cooldownKey(symbol, tf string, side zones.Side, zoneKey string) string {
	return symbol + "|" + tf + "|" + string(side) + "|" + zoneKey
}

// IsOnCooldown implements engine.CooldownStore.
func (p *Postgres) IsOnCooldown(symbol, tf string, side zones.Side, zoneKey string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var expiresAt time.Time
	err := p.pool.QueryRow(ctx,
		`SELECT expires_at FROM signal_cooldowns WHERE cooldown_key = $1`,
		cooldownKey(symbol, tf, side, zoneKey),
	).Scan(&expiresAt)
	if err != nil {
		return false
	}
	return time.Now().Before(expiresAt)
}

// AddCooldown implements engine.CooldownStore, upserting so a re-triggered
// key before expiry extends the cooldown rather than creating a duplicate.
func (p *Postgres) AddCooldown(symbol, tf string, side zones.Side, zoneKey string, minutes int) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	key := cooldownKey(symbol, tf, side, zoneKey)
	expiresAt := time.Now().Add(time.Duration(minutes) * time.Minute)

	_, err := p.pool.Exec(ctx, `
		INSERT INTO signal_cooldowns (cooldown_key, symbol, timeframe, side, zone_key, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cooldown_key) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`, key, symbol, tf, string(side), zoneKey, expiresAt)
	if err != nil {
		p.log.WithError(err).Warn("failed to persist cooldown")
	}
}

// SaveSignal implements engine.CooldownStore's durable signal record,
// persisting the full payload as JSON alongside the queryable level columns
// the spec's persistence contract names.
func (p *Postgres) SaveSignal(signal engine.Signal) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	breakdown, err := json.Marshal(signal.Breakdown)
	if err != nil {
		return fmt.Errorf("store: marshal breakdown: %w", err)
	}
	payload, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("store: marshal signal payload: %w", err)
	}

	zoneKey := ""
	if signal.Setup != nil {
		zoneKey = signal.Setup.Common().Zone.Key
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO signals (id, symbol, timeframe, side, score, breakdown, entry, stop_loss, tp1, tp2, rr, zone_key, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`,
		signal.ID, signal.Symbol, signal.Timeframe, string(signal.Side), signal.Score, breakdown,
		signal.Levels.Entry, signal.Levels.StopLoss, signal.Levels.TP1, signal.Levels.TP2, signal.Levels.RiskReward1,
		zoneKey, time.Unix(signal.Timestamp, 0).UTC(), payload,
	)
	if err != nil {
		return fmt.Errorf("store: insert signal: %w", err)
	}
	return nil
}

// CleanupExpired deletes cooldown rows past their expiry; intended to run
// on an hourly ticker.
func (p *Postgres) CleanupExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tag, err := p.pool.Exec(ctx, `DELETE FROM signal_cooldowns WHERE expires_at < now()`)
	if err != nil {
		p.log.WithError(err).Warn("cooldown cleanup failed")
		return
	}
	p.log.WithField("rows_deleted", tag.RowsAffected()).Debug("cooldown cleanup complete")
}
