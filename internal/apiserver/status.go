package apiserver

import "signalengine/config"

// ConfigStatus adapts the static engine configuration to StatusSource so
// /api/status can report which symbols and timeframes are being tracked
// without the apiserver package depending on internal/engine directly.
type ConfigStatus struct {
	cfg *config.Config
}

func NewConfigStatus(cfg *config.Config) *ConfigStatus {
	return &ConfigStatus{cfg: cfg}
}

func (c *ConfigStatus) SymbolsTracked() []string    { return c.cfg.Symbols }
func (c *ConfigStatus) TimeframesTracked() []string { return c.cfg.Timeframes }
