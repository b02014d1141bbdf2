// Package config loads the server configuration from a YAML file merged with
// environment overrides. File values override defaults, environment variables
// override the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "500ms" or "1s" parse.
// Plain integers are taken as nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if n, err := strconv.ParseInt(value.Value, 10, 64); err == nil {
		*d = Duration(n)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Mode selects which ledger backend the server runs against.
type Mode string

const (
	// ModeLocal runs against the embedded SQLite store.
	ModeLocal Mode = "local"
	// ModeGateway proxies operations to a remote contract gateway.
	ModeGateway Mode = "gateway"
)

// Config is the full server configuration.
type Config struct {
	// Listen is the address the HTTP server binds to.
	Listen string `yaml:"listen"`

	// Mode is "local" (embedded store) or "gateway" (remote ledger).
	Mode Mode `yaml:"mode"`

	// DBPath is the SQLite file used in local mode.
	DBPath string `yaml:"dbPath"`

	Gateway GatewayConfig `yaml:"gateway"`
	Retry   RetryConfig   `yaml:"retry"`
	Limits  LimitsConfig  `yaml:"limits"`

	// APIKeyHashes are bcrypt hashes of accepted x-api-key values.
	// Empty list disables the check.
	APIKeyHashes []string `yaml:"apiKeyHashes"`
}

// GatewayConfig points at a remote contract gateway (gateway mode only).
type GatewayConfig struct {
	BaseURL  string   `yaml:"baseURL"`
	Contract string   `yaml:"contract"`
	APIKey   string   `yaml:"apiKey"`
	Timeout  Duration `yaml:"timeout"`
}

// RetryConfig bounds the conflict-retry loop.
type RetryConfig struct {
	MaxRetries int      `yaml:"maxRetries"`
	BaseDelay  Duration `yaml:"baseDelay"`
}

// LimitsConfig configures the per-wallet rate limiter. Zero RPS disables it.
type LimitsConfig struct {
	WalletRPS   float64  `yaml:"walletRPS"`
	WalletBurst int      `yaml:"walletBurst"`
	IdleTTL     Duration `yaml:"idleTTL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen: ":8080",
		Mode:   ModeLocal,
		DBPath: "./data/splitledger.db",
		Retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  Duration(time.Second),
		},
		Limits: LimitsConfig{
			WalletRPS:   5,
			WalletBurst: 10,
			IdleTTL:     Duration(10 * time.Minute),
		},
	}
}

// Load reads the configuration. An empty path tries the default candidates;
// a missing file is fine and falls back to defaults plus env overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if path != "" {
		candidates = append(candidates, path)
	} else {
		candidates = append(candidates, "configs/config.yaml", "config.yaml")
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", candidate, err)
		}
		merge(&cfg, parsed)
		break
	}

	applyEnvOverrides(&cfg)
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeLocal, ModeGateway:
	default:
		return fmt.Errorf("invalid mode %q (want local or gateway)", c.Mode)
	}
	if c.Mode == ModeGateway && c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway mode requires gateway.baseURL")
	}
	if c.Retry.MaxRetries <= 0 {
		return fmt.Errorf("retry.maxRetries must be positive")
	}
	return nil
}

func merge(dst *Config, src Config) {
	if src.Listen != "" {
		dst.Listen = src.Listen
	}
	if src.Mode != "" {
		dst.Mode = src.Mode
	}
	if src.DBPath != "" {
		dst.DBPath = src.DBPath
	}
	if src.Gateway.BaseURL != "" {
		dst.Gateway.BaseURL = src.Gateway.BaseURL
	}
	if src.Gateway.Contract != "" {
		dst.Gateway.Contract = src.Gateway.Contract
	}
	if src.Gateway.APIKey != "" {
		dst.Gateway.APIKey = src.Gateway.APIKey
	}
	if src.Gateway.Timeout != 0 {
		dst.Gateway.Timeout = src.Gateway.Timeout
	}
	if src.Retry.MaxRetries != 0 {
		dst.Retry.MaxRetries = src.Retry.MaxRetries
	}
	if src.Retry.BaseDelay != 0 {
		dst.Retry.BaseDelay = src.Retry.BaseDelay
	}
	if src.Limits.WalletRPS != 0 {
		dst.Limits.WalletRPS = src.Limits.WalletRPS
	}
	if src.Limits.WalletBurst != 0 {
		dst.Limits.WalletBurst = src.Limits.WalletBurst
	}
	if src.Limits.IdleTTL != 0 {
		dst.Limits.IdleTTL = src.Limits.IdleTTL
	}
	if len(src.APIKeyHashes) > 0 {
		dst.APIKeyHashes = src.APIKeyHashes
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPLITLEDGER_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("SPLITLEDGER_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("SPLITLEDGER_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SPLITLEDGER_GATEWAY_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("SPLITLEDGER_GATEWAY_CONTRACT"); v != "" {
		cfg.Gateway.Contract = v
	}
	if v := os.Getenv("SPLITLEDGER_GATEWAY_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv("SPLITLEDGER_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxRetries = n
		}
	}
	if v := os.Getenv("SPLITLEDGER_BASE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Retry.BaseDelay = Duration(d)
		}
	}
}
