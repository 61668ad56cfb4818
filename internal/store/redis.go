package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"signalengine/internal/engine"
	"signalengine/internal/logging"
	"signalengine/internal/zones"
)

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

// CachedCooldownStore fronts a durable Postgres-backed store with a Redis
// hot-path cache: reads check Redis first and only fall back to Postgres on
// a cache miss, mirroring the cache-then-backend lookup the teacher uses for
// its Vault-backed secret client.
type CachedCooldownStore struct {
	rdb     *redis.Client
	backend *Postgres
	log     *logging.Logger
}

func NewCachedCooldownStore(cfg RedisConfig, backend *Postgres) *CachedCooldownStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	return &CachedCooldownStore{rdb: rdb, backend: backend, log: logging.WithComponent("store")}
}

func (c *CachedCooldownStore) Close() error {
	return c.rdb.Close()
}

func (c *CachedCooldownStore) IsOnCooldown(symbol, tf string, side zones.Side, zoneKey string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := "cooldown:" + cooldownKey(symbol, tf, side, zoneKey)
	exists, err := c.rdb.Exists(ctx, key).Result()
	if err == nil && exists > 0 {
		return true
	}

	if err != nil {
		c.log.WithError(err).Debug("redis cooldown lookup failed, falling back to postgres")
	}
	return c.backend.IsOnCooldown(symbol, tf, side, zoneKey)
}

func (c *CachedCooldownStore) AddCooldown(symbol, tf string, side zones.Side, zoneKey string, minutes int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := "cooldown:" + cooldownKey(symbol, tf, side, zoneKey)
	ttl := time.Duration(minutes) * time.Minute
	if err := c.rdb.Set(ctx, key, "1", ttl).Err(); err != nil {
		c.log.WithError(err).Debug("redis cooldown write failed")
	}

	c.backend.AddCooldown(symbol, tf, side, zoneKey, minutes)
}

func (c *CachedCooldownStore) CleanupExpired() {
	c.backend.CleanupExpired()
}

// SaveSignal writes straight through to Postgres; signal records are
// write-once and have no hot-path read pattern worth caching.
func (c *CachedCooldownStore) SaveSignal(signal engine.Signal) error {
	return c.backend.SaveSignal(signal)
}
