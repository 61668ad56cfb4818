package vaultcfg

import (
	"context"
	"testing"
)

func TestGetCredentialsReturnsSeededCacheWhenDisabled(t *testing.T) {
	c, err := NewClient(Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error constructing disabled client: %v", err)
	}
	c.SetCredentials(Credentials{APIKey: "abc", SecretKey: "def"})

	creds, err := c.GetCredentials(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.APIKey != "abc" || creds.SecretKey != "def" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestGetCredentialsErrorsWhenDisabledAndUnseeded(t *testing.T) {
	c, err := NewClient(Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.GetCredentials(context.Background()); err == nil {
		t.Fatalf("expected an error when no credentials are cached and vault is disabled")
	}
}
