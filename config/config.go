package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration for the signal engine. Every field is
// overridable from the environment; an optional config.json supplies the
// base values that applyEnvOverrides then layers on top of.
type Config struct {
	Symbols            []string `json:"symbols"`
	Timeframes         []string `json:"timeframes"`
	EntryTimeframes    []string `json:"entry_timeframes"`
	HTFTimeframes      []string `json:"htf_timeframes"`
	SignalMode         string   `json:"signal_mode"`          // "pro" | "aggressive"
	SignalStageEnabled []string `json:"signal_stage_enabled"` // subset of {setup, entry}
	DryRun             bool     `json:"dry_run"`

	CandleStore  CandleStoreConfig  `json:"candle_store"`
	Zone         ZoneConfig         `json:"zone"`
	Structure    StructureConfig    `json:"structure"`
	Regime       RegimeConfig       `json:"regime"`
	AntiChase    AntiChaseConfig    `json:"anti_chase"`
	Scoring      ScoringConfig      `json:"scoring"`
	Signal       SignalConfig       `json:"signal"`
	Ingestion    IngestionConfig    `json:"ingestion"`
	Notification NotificationConfig `json:"notification"`
	Redis        RedisConfig        `json:"redis"`
	Postgres     PostgresConfig     `json:"postgres"`
	Vault        VaultConfig        `json:"vault"`
	Logging      LoggingConfig      `json:"logging"`
	APIServer    APIServerConfig    `json:"api_server"`
}

// CandleStoreConfig tunes C1 retention.
type CandleStoreConfig struct {
	Retention int `json:"retention"` // spec default 1000
}

// ZoneConfig tunes C3 zone construction.
type ZoneConfig struct {
	PivotWindow      int     `json:"pivot_window"`       // C2 default 5
	Lookback         int     `json:"lookback"`           // candles considered when building zones
	TolerancePct     float64 `json:"tolerance_pct"`      // fraction, e.g. 0.005 = 0.5%
	SLBufferPct      float64 `json:"sl_buffer_pct"`      // stop-loss buffer past zone edge
	MinZonesRequired int     `json:"min_zones_required"` // 0 disables the gate
}

// StructureConfig tunes C4 trend/HTF-bias classification.
type StructureConfig struct {
	Lookback   int                `json:"lookback"`
	HTFWeights map[string]float64 `json:"htf_weights"` // default {"1d": 0.6, "4h": 0.4}
}

// RegimeConfig tunes C7.
type RegimeConfig struct {
	ATRPeriod int `json:"atr_period"` // default 14
}

// AntiChaseConfig tunes C11 thresholds.
type AntiChaseConfig struct {
	MaxATR float64 `json:"max_atr"` // atrMove ceiling before extension penalty maxes out
	MaxPct float64 `json:"max_pct"` // pctMove ceiling, mirrors MaxATR
}

// ScoringConfig tunes C12.
type ScoringConfig struct {
	RSIDivergenceBonus       float64 `json:"rsi_divergence_bonus"` // default 10
	MinRR                    float64 `json:"min_rr"`
	VolumeSpikeThreshold     float64 `json:"volume_spike_threshold"`
	RequireVolumeConfirmation bool   `json:"require_volume_confirmation"`
}

// SignalConfig tunes C13 gating.
type SignalConfig struct {
	MinScore            float64       `json:"min_score"`
	SetupScoreThreshold float64       `json:"setup_score_threshold"`
	EntryScoreThreshold float64       `json:"entry_score_threshold"`
	CooldownMinutes     int           `json:"cooldown_minutes"` // 0 disables
	SweepLookback       int           `json:"sweep_lookback"`
	StructureLookback   int           `json:"structure_lookback"`
	FormingEvalInterval time.Duration `json:"forming_eval_interval"` // throttle, default 10s
}

// IngestionConfig tunes C14.
type IngestionConfig struct {
	BaseURL              string        `json:"base_url"`
	WSURL                string        `json:"ws_url"`
	BackfillLimit        int           `json:"backfill_limit"`
	ReconnectMinDelay    time.Duration `json:"reconnect_min_delay"` // default 1s
	ReconnectMaxDelay    time.Duration `json:"reconnect_max_delay"` // default 60s
	ReconnectMaxAttempts int           `json:"reconnect_max_attempts"` // default 10
	PingInterval         time.Duration `json:"ping_interval"`
}

// NotificationConfig selects and configures notification sinks (C16).
type NotificationConfig struct {
	Enabled  bool           `json:"enabled"`
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
}

type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

type DiscordConfig struct {
	Enabled    bool   `json:"enabled"`
	WebhookURL string `json:"webhook_url"`
}

// RedisConfig backs the hot-path cooldown cache in internal/store.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// PostgresConfig backs the durable signal/cooldown repository.
type PostgresConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	Database        string        `json:"database"`
	SSLMode         string        `json:"ssl_mode"`
	MaxConns        int32         `json:"max_conns"`
	MinConns        int32         `json:"min_conns"`
	MaxConnLifetime time.Duration `json:"max_conn_lifetime"`
}

// VaultConfig optionally sources exchange API keys from HashiCorp Vault.
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`
	SecretPath string `json:"secret_path"`
	TLSEnabled bool   `json:"tls_enabled"`
}

// LoggingConfig mirrors internal/logging.Config.
type LoggingConfig struct {
	Level       string `json:"level"`
	Output      string `json:"output"`
	JSONFormat  bool   `json:"json_format"`
	IncludeFile bool   `json:"include_file"`
}

// APIServerConfig configures the optional read-only status surface.
type APIServerConfig struct {
	Enabled        bool   `json:"enabled"`
	Port           int    `json:"port"`
	Host           string `json:"host"`
	AllowedOrigins string `json:"allowed_origins"`
	OperatorToken  string `json:"operator_token_hash"` // bcrypt hash; empty disables the admin endpoints (503)
	JWTSecret      string `json:"jwt_secret"`
}

// applyModePreset fills minScore/minZonesRequired/cooldownMinutes defaults
// for the "pro" and "aggressive" signal-mode bundles. Explicit env values
// applied afterwards in applyEnvOverrides take precedence.
func applyModePreset(cfg *Config) {
	switch cfg.SignalMode {
	case "aggressive":
		cfg.Signal.MinScore = 65
		cfg.Zone.MinZonesRequired = 1
		cfg.Signal.CooldownMinutes = 15
	default: // "pro"
		cfg.Signal.MinScore = 75
		cfg.Zone.MinZonesRequired = 2
		cfg.Signal.CooldownMinutes = 60
	}
}

// Load builds the Config: an optional config.json supplies base values,
// then environment variables override on top, following the same
// file-then-env layering the rest of the pack uses.
func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = &Config{}
	}

	cfg.SignalMode = getEnvOrDefault("SIGNAL_MODE", ifEmptyStr(cfg.SignalMode, "pro"))
	applyModePreset(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Symbols = getEnvListOrDefault("SYMBOLS", cfg.Symbols)
	cfg.Timeframes = getEnvListOrDefault("TIMEFRAMES", ifEmpty(cfg.Timeframes, []string{"1d", "4h", "1h"}))
	cfg.EntryTimeframes = getEnvListOrDefault("ENTRY_TIMEFRAMES", ifEmpty(cfg.EntryTimeframes, []string{"1h"}))
	cfg.HTFTimeframes = getEnvListOrDefault("HTF_TIMEFRAMES", ifEmpty(cfg.HTFTimeframes, []string{"1d", "4h"}))
	cfg.SignalStageEnabled = getEnvListOrDefault("SIGNAL_STAGE_ENABLED", ifEmpty(cfg.SignalStageEnabled, []string{"setup", "entry"}))
	cfg.DryRun = getEnvOrDefault("DRY_RUN", boolStr(cfg.DryRun)) == "true"

	cfg.CandleStore.Retention = getEnvIntOrDefault("CANDLE_RETENTION", ifZeroInt(cfg.CandleStore.Retention, 1000))

	cfg.Zone.PivotWindow = getEnvIntOrDefault("PIVOT_WINDOW", ifZeroInt(cfg.Zone.PivotWindow, 5))
	cfg.Zone.Lookback = getEnvIntOrDefault("ZONE_LOOKBACK", ifZeroInt(cfg.Zone.Lookback, 150))
	cfg.Zone.TolerancePct = getEnvFloatOrDefault("ZONE_TOLERANCE_PCT", ifZeroFloat(cfg.Zone.TolerancePct, 0.005))
	cfg.Zone.SLBufferPct = getEnvFloatOrDefault("ZONE_SL_BUFFER_PCT", ifZeroFloat(cfg.Zone.SLBufferPct, 0.002))
	// MIN_ZONES_REQUIRED overrides the mode preset when explicitly set.
	cfg.Zone.MinZonesRequired = getEnvIntOrDefault("MIN_ZONES_REQUIRED", cfg.Zone.MinZonesRequired)

	cfg.Structure.Lookback = getEnvIntOrDefault("STRUCTURE_LOOKBACK", ifZeroInt(cfg.Structure.Lookback, 3))
	if cfg.Structure.HTFWeights == nil {
		cfg.Structure.HTFWeights = map[string]float64{"1d": 0.6, "4h": 0.4}
	}

	cfg.Regime.ATRPeriod = getEnvIntOrDefault("ATR_PERIOD", ifZeroInt(cfg.Regime.ATRPeriod, 14))

	cfg.AntiChase.MaxATR = getEnvFloatOrDefault("ANTI_CHASE_MAX_ATR", ifZeroFloat(cfg.AntiChase.MaxATR, 2.5))
	cfg.AntiChase.MaxPct = getEnvFloatOrDefault("ANTI_CHASE_MAX_PCT", ifZeroFloat(cfg.AntiChase.MaxPct, 5.0))

	cfg.Scoring.RSIDivergenceBonus = getEnvFloatOrDefault("RSI_DIVERGENCE_BONUS", ifZeroFloat(cfg.Scoring.RSIDivergenceBonus, 10))
	cfg.Scoring.MinRR = getEnvFloatOrDefault("MIN_RR", ifZeroFloat(cfg.Scoring.MinRR, 1.5))
	cfg.Scoring.VolumeSpikeThreshold = getEnvFloatOrDefault("VOLUME_SPIKE_THRESHOLD", ifZeroFloat(cfg.Scoring.VolumeSpikeThreshold, 1.5))
	cfg.Scoring.RequireVolumeConfirmation = getEnvOrDefault("REQUIRE_VOLUME_CONFIRMATION", boolStr(cfg.Scoring.RequireVolumeConfirmation)) == "true"

	// Score gates: MIN_SIGNAL_SCORE is the legacy alias binding both stage thresholds.
	legacyScore := getEnvFloatOrDefault("MIN_SIGNAL_SCORE", cfg.Signal.MinScore)
	cfg.Signal.MinScore = legacyScore
	cfg.Signal.SetupScoreThreshold = getEnvFloatOrDefault("SETUP_SCORE_THRESHOLD", legacyScore)
	cfg.Signal.EntryScoreThreshold = getEnvFloatOrDefault("ENTRY_SCORE_THRESHOLD", legacyScore)
	cfg.Signal.CooldownMinutes = getEnvIntOrDefault("SIGNAL_COOLDOWN_MINUTES", cfg.Signal.CooldownMinutes)
	cfg.Signal.SweepLookback = getEnvIntOrDefault("SWEEP_LOOKBACK", ifZeroInt(cfg.Signal.SweepLookback, 20))
	cfg.Signal.StructureLookback = getEnvIntOrDefault("SIGNAL_STRUCTURE_LOOKBACK", ifZeroInt(cfg.Signal.StructureLookback, 3))
	cfg.Signal.FormingEvalInterval = getEnvDurationOrDefault("FORMING_EVAL_INTERVAL", ifZeroDuration(cfg.Signal.FormingEvalInterval, 10*time.Second))

	cfg.Ingestion.BaseURL = getEnvOrDefault("INGESTION_BASE_URL", ifEmptyStr(cfg.Ingestion.BaseURL, "https://api.binance.com"))
	cfg.Ingestion.WSURL = getEnvOrDefault("INGESTION_WS_URL", ifEmptyStr(cfg.Ingestion.WSURL, "wss://stream.binance.com:9443/ws"))
	cfg.Ingestion.BackfillLimit = getEnvIntOrDefault("INGESTION_BACKFILL_LIMIT", ifZeroInt(cfg.Ingestion.BackfillLimit, 500))
	cfg.Ingestion.ReconnectMinDelay = getEnvDurationOrDefault("INGESTION_RECONNECT_MIN_DELAY", ifZeroDuration(cfg.Ingestion.ReconnectMinDelay, time.Second))
	cfg.Ingestion.ReconnectMaxDelay = getEnvDurationOrDefault("INGESTION_RECONNECT_MAX_DELAY", ifZeroDuration(cfg.Ingestion.ReconnectMaxDelay, 60*time.Second))
	cfg.Ingestion.ReconnectMaxAttempts = getEnvIntOrDefault("INGESTION_RECONNECT_MAX_ATTEMPTS", ifZeroInt(cfg.Ingestion.ReconnectMaxAttempts, 10))
	cfg.Ingestion.PingInterval = getEnvDurationOrDefault("INGESTION_PING_INTERVAL", ifZeroDuration(cfg.Ingestion.PingInterval, 30*time.Second))

	cfg.Notification.Enabled = getEnvOrDefault("NOTIFICATIONS_ENABLED", boolStr(cfg.Notification.Enabled)) == "true"
	cfg.Notification.Telegram.Enabled = getEnvOrDefault("TELEGRAM_ENABLED", boolStr(cfg.Notification.Telegram.Enabled)) == "true"
	cfg.Notification.Telegram.BotToken = getEnvOrDefault("TELEGRAM_BOT_TOKEN", cfg.Notification.Telegram.BotToken)
	cfg.Notification.Telegram.ChatID = getEnvOrDefault("TELEGRAM_CHAT_ID", cfg.Notification.Telegram.ChatID)
	cfg.Notification.Discord.Enabled = getEnvOrDefault("DISCORD_ENABLED", boolStr(cfg.Notification.Discord.Enabled)) == "true"
	cfg.Notification.Discord.WebhookURL = getEnvOrDefault("DISCORD_WEBHOOK_URL", cfg.Notification.Discord.WebhookURL)

	cfg.Redis.Enabled = getEnvOrDefault("REDIS_ENABLED", boolStr(cfg.Redis.Enabled)) == "true"
	cfg.Redis.Address = getEnvOrDefault("REDIS_ADDRESS", ifEmptyStr(cfg.Redis.Address, "localhost:6379"))
	cfg.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvIntOrDefault("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", ifZeroInt(cfg.Redis.PoolSize, 10))

	cfg.Postgres.Host = getEnvOrDefault("POSTGRES_HOST", ifEmptyStr(cfg.Postgres.Host, "localhost"))
	cfg.Postgres.Port = getEnvIntOrDefault("POSTGRES_PORT", ifZeroInt(cfg.Postgres.Port, 5432))
	cfg.Postgres.User = getEnvOrDefault("POSTGRES_USER", ifEmptyStr(cfg.Postgres.User, "signalengine"))
	cfg.Postgres.Password = getEnvOrDefault("POSTGRES_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Database = getEnvOrDefault("POSTGRES_DATABASE", ifEmptyStr(cfg.Postgres.Database, "signalengine"))
	cfg.Postgres.SSLMode = getEnvOrDefault("POSTGRES_SSL_MODE", ifEmptyStr(cfg.Postgres.SSLMode, "disable"))
	cfg.Postgres.MaxConns = int32(getEnvIntOrDefault("POSTGRES_MAX_CONNS", int(ifZeroInt32(cfg.Postgres.MaxConns, 25))))
	cfg.Postgres.MinConns = int32(getEnvIntOrDefault("POSTGRES_MIN_CONNS", int(ifZeroInt32(cfg.Postgres.MinConns, 5))))
	cfg.Postgres.MaxConnLifetime = getEnvDurationOrDefault("POSTGRES_MAX_CONN_LIFETIME", ifZeroDuration(cfg.Postgres.MaxConnLifetime, time.Hour))

	cfg.Vault.Enabled = getEnvOrDefault("VAULT_ENABLED", boolStr(cfg.Vault.Enabled)) == "true"
	cfg.Vault.Address = getEnvOrDefault("VAULT_ADDR", ifEmptyStr(cfg.Vault.Address, "http://localhost:8200"))
	cfg.Vault.Token = getEnvOrDefault("VAULT_TOKEN", cfg.Vault.Token)
	cfg.Vault.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", ifEmptyStr(cfg.Vault.MountPath, "secret"))
	cfg.Vault.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", ifEmptyStr(cfg.Vault.SecretPath, "signalengine/api-keys"))
	cfg.Vault.TLSEnabled = getEnvOrDefault("VAULT_TLS_ENABLED", boolStr(cfg.Vault.TLSEnabled)) == "true"

	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", ifEmptyStr(cfg.Logging.Level, "INFO"))
	cfg.Logging.Output = getEnvOrDefault("LOG_OUTPUT", ifEmptyStr(cfg.Logging.Output, "stdout"))
	cfg.Logging.JSONFormat = getEnvOrDefault("LOG_JSON", "true") == "true"
	cfg.Logging.IncludeFile = getEnvOrDefault("LOG_INCLUDE_FILE", boolStr(cfg.Logging.IncludeFile)) == "true"

	cfg.APIServer.Enabled = getEnvOrDefault("API_SERVER_ENABLED", boolStr(cfg.APIServer.Enabled)) == "true"
	cfg.APIServer.Port = getEnvIntOrDefault("API_SERVER_PORT", ifZeroInt(cfg.APIServer.Port, 8080))
	cfg.APIServer.Host = getEnvOrDefault("API_SERVER_HOST", ifEmptyStr(cfg.APIServer.Host, "0.0.0.0"))
	cfg.APIServer.AllowedOrigins = getEnvOrDefault("API_SERVER_ALLOWED_ORIGINS", ifEmptyStr(cfg.APIServer.AllowedOrigins, "*"))
	cfg.APIServer.OperatorToken = getEnvOrDefault("API_SERVER_OPERATOR_TOKEN_HASH", cfg.APIServer.OperatorToken)
	cfg.APIServer.JWTSecret = getEnvOrDefault("API_SERVER_JWT_SECRET", cfg.APIServer.JWTSecret)
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func ifEmpty(v []string, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func ifEmptyStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func ifZeroInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func ifZeroInt32(v, def int32) int32 {
	if v == 0 {
		return def
	}
	return v
}

func ifZeroFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func ifZeroDuration(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// GenerateSampleConfig writes a sample config.json with representative
// defaults for every section.
func GenerateSampleConfig(filename string) error {
	cfg := Config{
		Symbols:            []string{"BTCUSDT", "ETHUSDT"},
		Timeframes:         []string{"1d", "4h", "1h"},
		EntryTimeframes:    []string{"1h"},
		HTFTimeframes:      []string{"1d", "4h"},
		SignalMode:         "pro",
		SignalStageEnabled: []string{"setup", "entry"},
		CandleStore:        CandleStoreConfig{Retention: 1000},
		Zone: ZoneConfig{
			PivotWindow:      5,
			Lookback:         150,
			TolerancePct:     0.005,
			SLBufferPct:      0.002,
			MinZonesRequired: 2,
		},
		Structure: StructureConfig{
			Lookback:   3,
			HTFWeights: map[string]float64{"1d": 0.6, "4h": 0.4},
		},
		Regime:    RegimeConfig{ATRPeriod: 14},
		AntiChase: AntiChaseConfig{MaxATR: 2.5, MaxPct: 5.0},
		Scoring: ScoringConfig{
			RSIDivergenceBonus:        10,
			MinRR:                     1.5,
			VolumeSpikeThreshold:      1.5,
			RequireVolumeConfirmation: true,
		},
		Signal: SignalConfig{
			MinScore:            75,
			SetupScoreThreshold: 75,
			EntryScoreThreshold: 75,
			CooldownMinutes:     60,
			SweepLookback:       20,
			StructureLookback:   3,
			FormingEvalInterval: 10 * time.Second,
		},
		Ingestion: IngestionConfig{
			BaseURL:              "https://api.binance.com",
			WSURL:                "wss://stream.binance.com:9443/ws",
			BackfillLimit:        500,
			ReconnectMinDelay:    time.Second,
			ReconnectMaxDelay:    60 * time.Second,
			ReconnectMaxAttempts: 10,
			PingInterval:         30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "INFO",
			Output:     "stdout",
			JSONFormat: true,
		},
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
