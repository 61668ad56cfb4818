// Package vaultcfg optionally loads the ingestion adapter's exchange API
// credentials from HashiCorp Vault, falling back to a local cache when Vault
// is disabled (development mode). Adapted from the teacher's
// internal/vault.Client, trimmed from its multi-tenant per-user key store
// down to the single exchange credential this pipeline needs for
// higher-rate-limit market-data reads.
package vaultcfg

import (
	"context"
	"fmt"
	"sync"

	vaultapi "github.com/hashicorp/vault/api"
)

// Credentials holds the exchange API key pair.
type Credentials struct {
	APIKey    string
	SecretKey string
}

type Config struct {
	Enabled    bool
	Address    string
	Token      string
	MountPath  string
	SecretPath string
}

// Client fetches and caches exchange credentials from Vault.
type Client struct {
	vc     *vaultapi.Client
	cfg    Config
	mu     sync.RWMutex
	cached *Credentials
}

func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled {
		return &Client{cfg: cfg}, nil
	}

	vaultCfg := vaultapi.DefaultConfig()
	vaultCfg.Address = cfg.Address

	vc, err := vaultapi.NewClient(vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("vaultcfg: new client: %w", err)
	}
	vc.SetToken(cfg.Token)

	return &Client{vc: vc, cfg: cfg}, nil
}

// GetCredentials returns cached credentials if present, otherwise reads from
// Vault and caches the result.
func (c *Client) GetCredentials(ctx context.Context) (*Credentials, error) {
	c.mu.RLock()
	if c.cached != nil {
		cached := c.cached
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	if !c.cfg.Enabled {
		return nil, fmt.Errorf("vaultcfg: disabled and no cached credentials set")
	}

	path := fmt.Sprintf("%s/data/%s", c.cfg.MountPath, c.cfg.SecretPath)
	secret, err := c.vc.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("vaultcfg: read secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vaultcfg: credentials not found at %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("vaultcfg: unexpected secret shape at %s", path)
	}

	creds := &Credentials{
		APIKey:    getString(data, "api_key"),
		SecretKey: getString(data, "secret_key"),
	}

	c.mu.Lock()
	c.cached = creds
	c.mu.Unlock()

	return creds, nil
}

// SetCredentials seeds the cache directly, used when Vault is disabled and
// credentials come from plain environment variables instead.
func (c *Client) SetCredentials(creds Credentials) {
	c.mu.Lock()
	c.cached = &creds
	c.mu.Unlock()
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
