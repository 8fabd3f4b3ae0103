package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"OmnichainNexus/internal/model"
)

// Config holds all application configuration.
type Config struct {
	DataDir string `yaml:"data_dir"`
	RPC     struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"rpc"`
	Network  model.NetworkDescriptor `yaml:"network"`
	Timing   Timing                  `yaml:"timing"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		WatchCron   string `yaml:"watch_cron"`
		DailyCron   string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	API struct {
		Bind string `yaml:"bind"`
	} `yaml:"api"`
	Log struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Level      string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Timing holds the simulated latencies and the receipt polling budget.
type Timing struct {
	ClaimDelay      time.Duration `yaml:"claim_delay"`
	MockTxDelay     time.Duration `yaml:"mock_tx_delay"`
	RefreshDelay    time.Duration `yaml:"refresh_delay"`
	VisitDelay      time.Duration `yaml:"visit_delay"`
	ReceiptAttempts int           `yaml:"receipt_attempts"`
	ReceiptInterval time.Duration `yaml:"receipt_interval"`
}

// DefaultNetwork is Monad Testnet, the only network the app targets.
func DefaultNetwork() model.NetworkDescriptor {
	return model.NetworkDescriptor{
		ChainID:   "0x279f",
		ChainName: "Monad Testnet",
		NativeCurrency: model.NativeCurrency{
			Name:     "MONAD",
			Symbol:   "MONAD",
			Decimals: 18,
		},
		RPCURLs:           []string{"https://testnet-rpc.monad.xyz"},
		BlockExplorerURLs: []string{"https://testnet-explorer.monad.xyz"},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NEXUS_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("NEXUS_RPC_URL"); v != "" {
		c.RPC.URL = v
	}
	if v := os.Getenv("NEXUS_RPC_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RPC.Timeout = d
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("NEXUS_API_BIND"); v != "" {
		c.API.Bind = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("NEXUS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NEXUS_RECEIPT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Timing.ReceiptAttempts = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.RPC.Timeout == 0 {
		c.RPC.Timeout = 15 * time.Second
	}

	def := DefaultNetwork()
	if c.Network.ChainID == "" {
		c.Network.ChainID = def.ChainID
	}
	if c.Network.ChainName == "" {
		c.Network.ChainName = def.ChainName
	}
	if c.Network.NativeCurrency.Symbol == "" {
		c.Network.NativeCurrency = def.NativeCurrency
	}
	if len(c.Network.RPCURLs) == 0 {
		c.Network.RPCURLs = def.RPCURLs
	}
	if len(c.Network.BlockExplorerURLs) == 0 {
		c.Network.BlockExplorerURLs = def.BlockExplorerURLs
	}

	if c.Timing.ClaimDelay == 0 {
		c.Timing.ClaimDelay = 3 * time.Second
	}
	if c.Timing.MockTxDelay == 0 {
		c.Timing.MockTxDelay = 3 * time.Second
	}
	if c.Timing.RefreshDelay == 0 {
		c.Timing.RefreshDelay = 3 * time.Second
	}
	if c.Timing.VisitDelay == 0 {
		c.Timing.VisitDelay = 2 * time.Second
	}
	if c.Timing.ReceiptAttempts == 0 {
		c.Timing.ReceiptAttempts = 30
	}
	if c.Timing.ReceiptInterval == 0 {
		c.Timing.ReceiptInterval = 2 * time.Second
	}

	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "@every 1m"
	}
	if c.Schedule.WatchCron == "" {
		c.Schedule.WatchCron = "@every 15s"
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 0 9 * * *"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = filepath.Join(c.DataDir, "nexus.db")
	}
	if c.API.Bind == "" {
		c.API.Bind = "127.0.0.1:8547"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 7
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// StorageDir is where the key-value store lives.
func (c *Config) StorageDir() string {
	return filepath.Join(c.DataDir, "storage")
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	if c.RPC.URL != "" {
		u, err := url.Parse(c.RPC.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("rpc.url must be an http(s) URL, got %q", c.RPC.URL)
		}
	}
	if c.RPC.Timeout < 0 {
		return fmt.Errorf("rpc.timeout must not be negative")
	}
	if len(c.Network.ChainID) < 3 || c.Network.ChainID[:2] != "0x" {
		return fmt.Errorf("network.chain_id must be a 0x-prefixed hex string, got %q", c.Network.ChainID)
	}
	if _, err := strconv.ParseUint(c.Network.ChainID[2:], 16, 64); err != nil {
		return fmt.Errorf("network.chain_id: %w", err)
	}
	if c.Network.NativeCurrency.Decimals != 18 {
		return fmt.Errorf("network.native_currency.decimals must be 18")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	if c.Timing.ReceiptAttempts < 1 {
		return fmt.Errorf("timing.receipt_attempts must be positive")
	}
	for name, d := range map[string]time.Duration{
		"timing.claim_delay":      c.Timing.ClaimDelay,
		"timing.mock_tx_delay":    c.Timing.MockTxDelay,
		"timing.refresh_delay":    c.Timing.RefreshDelay,
		"timing.visit_delay":      c.Timing.VisitDelay,
		"timing.receipt_interval": c.Timing.ReceiptInterval,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.refresh_cron": c.Schedule.RefreshCron,
		"schedule.watch_cron":   c.Schedule.WatchCron,
		"schedule.daily_cron":   c.Schedule.DailyCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
