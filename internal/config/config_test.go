package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "0x279f", cfg.Network.ChainID)
	assert.Equal(t, "Monad Testnet", cfg.Network.ChainName)
	assert.Equal(t, "MONAD", cfg.Network.NativeCurrency.Symbol)
	assert.Equal(t, 18, cfg.Network.NativeCurrency.Decimals)
	assert.Equal(t, []string{"https://testnet-rpc.monad.xyz"}, cfg.Network.RPCURLs)
	assert.Equal(t, 3*time.Second, cfg.Timing.ClaimDelay)
	assert.Equal(t, 2*time.Second, cfg.Timing.VisitDelay)
	assert.Equal(t, 30, cfg.Timing.ReceiptAttempts)
	assert.Equal(t, 2*time.Second, cfg.Timing.ReceiptInterval)
	assert.Equal(t, "@every 1m", cfg.Schedule.RefreshCron)
	assert.Equal(t, "0 0 9 * * *", cfg.Schedule.DailyCron)
	assert.Equal(t, filepath.Join("data", "nexus.db"), cfg.Database.SQLitePath)
	assert.False(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/nexus
rpc:
  url: http://localhost:8545
  timeout: 5s
timing:
  claim_delay: 500ms
  receipt_attempts: 4
telegram:
  bot_token: abc
  chat_id: "7"
schedule:
  watch_cron: "@every 30s"
`)
	t.Setenv("NEXUS_RPC_URL", "https://rpc.example.org")
	t.Setenv("NEXUS_RECEIPT_ATTEMPTS", "9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/nexus", cfg.DataDir)
	assert.Equal(t, "https://rpc.example.org", cfg.RPC.URL)
	assert.Equal(t, 5*time.Second, cfg.RPC.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Timing.ClaimDelay)
	assert.Equal(t, 9, cfg.Timing.ReceiptAttempts)
	assert.Equal(t, "@every 30s", cfg.Schedule.WatchCron)
	assert.Equal(t, filepath.Join("/tmp/nexus", "nexus.db"), cfg.Database.SQLitePath)
	assert.Equal(t, filepath.Join("/tmp/nexus", "storage"), cfg.StorageDir())
	assert.True(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "rpc: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad rpc url", func(c *Config) { c.RPC.URL = "ftp://example.org" }},
		{"chain id not hex", func(c *Config) { c.Network.ChainID = "10143" }},
		{"chain id garbage", func(c *Config) { c.Network.ChainID = "0xzz" }},
		{"decimals", func(c *Config) { c.Network.NativeCurrency.Decimals = 6 }},
		{"telegram without chat", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"negative delay", func(c *Config) { c.Timing.VisitDelay = -time.Second }},
		{"five field cron", func(c *Config) { c.Schedule.DailyCron = "0 9 * * *" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
