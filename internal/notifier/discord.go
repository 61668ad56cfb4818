package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type DiscordConfig struct {
	Enabled    bool
	WebhookURL string
}

type Discord struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

func NewDiscord(cfg DiscordConfig) *Discord {
	return &Discord{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled && cfg.WebhookURL != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Discord) Name() string    { return "discord" }
func (d *Discord) IsEnabled() bool { return d.enabled }

func (d *Discord) Send(title, message string) error {
	if !d.enabled {
		return nil
	}

	embed := map[string]interface{}{
		"title":       title,
		"description": message,
		"color":       0x00A86B,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	payload := map[string]interface{}{"embeds": []map[string]interface{}{embed}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("discord: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord: unexpected status %d", resp.StatusCode)
	}
	return nil
}
