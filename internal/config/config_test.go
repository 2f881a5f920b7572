package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SECRET_KEY", "sk_test_123")
	t.Setenv("WEBHOOK_SECRET", "  whsec_abc \n")
	t.Setenv("CLIENT_URL", "https://shop.example.com/")
	t.Setenv("AUTOMATION_RELAY_URL", "https://hooks.example.com/relay")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	assert.Equal(t, "whsec_abc", cfg.Stripe.WebhookSecret)
	assert.Equal(t, "https://shop.example.com", cfg.Checkout.ClientURL)
	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 300, cfg.Stripe.WebhookToleranceS)

	targets := cfg.Relay.Targets()
	require.Len(t, targets, 2)
	assert.Equal(t, "creatium", targets[0].Name)
	assert.Equal(t, "automation", targets[1].Name)
	assert.Equal(t, "https://hooks.example.com/relay", targets[1].URL)
}

func TestLoadConfig_FileOverlaidByEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: "8080"
stripe:
  secret-key: sk_from_file
  webhook-secret: whsec_from_file
checkout:
  client-url: https://shop.example.com
relay:
  timeout-ms: 2500
store:
  driver: bolt
  path: /tmp/relay.db
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sk_from_file", cfg.Stripe.SecretKey)
	assert.Equal(t, 2500, cfg.Relay.TimeoutMs)
	assert.Equal(t, StoreBolt, cfg.Store.Driver)
	assert.Equal(t, "/tmp/relay.db", cfg.Store.Path)
}

func TestWarnings(t *testing.T) {
	cfg := Config{Relay: Relay{CreatiumURL: "https://example.com"}}
	assert.Equal(t, []string{"AUTOMATION_RELAY_URL is not set, automation target disabled"}, cfg.Warnings())

	cfg.Relay.AutomationURL = "https://hooks.example.com/relay"
	assert.Empty(t, cfg.Warnings())

	cfg.Relay.CreatiumURL = ""
	assert.Len(t, cfg.Warnings(), 1)
	assert.Contains(t, cfg.Warnings()[0], "CREATIUM_RELAY_URL")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Stripe:   Stripe{SecretKey: "sk", WebhookSecret: "whsec"},
			Checkout: Checkout{ClientURL: "https://shop.example.com"},
			Relay:    Relay{CreatiumURL: "https://example.com"},
			Store:    Store{Driver: StoreMemory},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret key", mutate: func(c *Config) { c.Stripe.SecretKey = "" }, wantErr: "SECRET_KEY"},
		{name: "missing webhook secret", mutate: func(c *Config) { c.Stripe.WebhookSecret = "" }, wantErr: "WEBHOOK_SECRET"},
		{name: "missing client url", mutate: func(c *Config) { c.Checkout.ClientURL = "" }, wantErr: "CLIENT_URL"},
		{name: "no targets", mutate: func(c *Config) { c.Relay.CreatiumURL = "" }, wantErr: "relay target"},
		{name: "kafka only", mutate: func(c *Config) { c.Relay.CreatiumURL = ""; c.Kafka.Broker = "localhost:9092" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "redis" }, wantErr: "unknown store driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
