package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config is the root configuration, loaded from a JSON file with
// environment-variable overrides applied on top.
type Config struct {
	Exchange ExchangeConfig `json:"exchange"`
	Wallet   WalletConfig   `json:"wallet"`
	Log      LogConfig      `json:"log"`
}

// ExchangeConfig describes the remote exchange service and the
// typed-data signing domain it verifies against.
type ExchangeConfig struct {
	BaseURL        string `json:"base_url" env:"STARKWALLET_EXCHANGE_BASE_URL"`
	Host           string `json:"host" env:"STARKWALLET_EXCHANGE_HOST"`
	SigningDomain  string `json:"signing_domain" env:"STARKWALLET_EXCHANGE_SIGNING_DOMAIN"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"STARKWALLET_EXCHANGE_TIMEOUT_SECONDS"`
	ReferralCode   string `json:"referral_code,omitempty" env:"STARKWALLET_EXCHANGE_REFERRAL_CODE"`

	// AccountClassHash is the hex class hash of the L2 account
	// contract template used for deterministic address computation.
	AccountClassHash string `json:"account_class_hash" env:"STARKWALLET_EXCHANGE_ACCOUNT_CLASS_HASH"`
}

// WalletConfig controls where keys and credentials live on disk.
type WalletConfig struct {
	Dir string `json:"dir" env:"STARKWALLET_WALLET_DIR"`
}

type LogConfig struct {
	Level string `json:"level" env:"STARKWALLET_LOG_LEVEL"`
	JSON  bool   `json:"json" env:"STARKWALLET_LOG_JSON"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Exchange: ExchangeConfig{
			BaseURL:          "https://api.testnet.extended.exchange",
			Host:             "testnet.extended.exchange",
			SigningDomain:    "testnet.extended.exchange",
			TimeoutSeconds:   30,
			AccountClassHash: "0x01a736d6ed154502257f02b1ccdf4d9d1089f80811cd6acad48e6b6a9d1f2003",
		},
		Wallet: WalletConfig{
			Dir: filepath.Join(home, ".starkwallet"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the JSON config at path and applies env overrides.
// A missing file is not an error: defaults plus env are used instead.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if cfg.Exchange.TimeoutSeconds <= 0 {
		cfg.Exchange.TimeoutSeconds = 30
	}

	return cfg, nil
}

// SaveConfig writes cfg as indented JSON to path, creating parent
// directories as needed.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}
