package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override, e.g. PREORDAIN_ACCOUNT_TOKEN.
const EnvPrefix = "PREORDAIN"

// Config represents the application configuration.
type Config struct {
	// Track-o-Bot account
	Account AccountConfig `toml:"account" envconfig:"ACCOUNT"`

	// History service client settings
	API APIConfig `toml:"api" envconfig:"API"`

	// Cache index and dataset files
	Storage StorageConfig `toml:"storage" envconfig:"STORAGE"`

	// Reconciler settings
	Sync SyncConfig `toml:"sync" envconfig:"SYNC"`

	// Defaults for matchup and card queries
	Analysis AnalysisConfig `toml:"analysis" envconfig:"ANALYSIS"`

	// Logger settings
	Log LogConfig `toml:"log" envconfig:"LOG"`
}

// AccountConfig holds the credentials used for syncing.
type AccountConfig struct {
	Username string `toml:"username" envconfig:"USERNAME"`
	Token    string `toml:"token" envconfig:"TOKEN"` // API token, never logged
}

// APIConfig contains history client settings.
type APIConfig struct {
	BaseURL          string  `toml:"base_url" envconfig:"BASE_URL"`
	RequestsPerSec   float64 `toml:"requests_per_sec" envconfig:"REQUESTS_PER_SEC"`
	Timeout          string  `toml:"timeout" envconfig:"TIMEOUT"`                     // Per request (e.g., "30s")
	MaxRetries       int     `toml:"max_retries" envconfig:"MAX_RETRIES"`             // Negative disables retries
	InitialBackoff   string  `toml:"initial_backoff" envconfig:"INITIAL_BACKOFF"`     // First retry delay
	FailureThreshold uint32  `toml:"failure_threshold" envconfig:"FAILURE_THRESHOLD"` // Consecutive failures before the breaker opens
	BreakerTimeout   string  `toml:"breaker_timeout" envconfig:"BREAKER_TIMEOUT"`
}

// StorageConfig contains cache storage settings.
type StorageConfig struct {
	DataDir     string `toml:"data_dir" envconfig:"DATA_DIR"` // Holds preordain.db and dataset files
	BusyTimeout string `toml:"busy_timeout" envconfig:"BUSY_TIMEOUT"`
	JournalMode string `toml:"journal_mode" envconfig:"JOURNAL_MODE"`
}

// SyncConfig contains reconciler settings.
type SyncConfig struct {
	FetchConcurrency int    `toml:"fetch_concurrency" envconfig:"FETCH_CONCURRENCY"`
	Timeout          string `toml:"timeout" envconfig:"TIMEOUT"` // Whole sync, "0s" for none
}

// AnalysisConfig contains query defaults.
type AnalysisConfig struct {
	Mode      string `toml:"mode" envconfig:"MODE"` // "ranked", "casual", "arena", "both", ...
	Threshold int    `toml:"threshold" envconfig:"THRESHOLD"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `toml:"level" envconfig:"LEVEL"`   // zerolog level name
	Format string `toml:"format" envconfig:"FORMAT"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dataDir := ".preordain"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".preordain")
	}

	return &Config{
		API: APIConfig{
			BaseURL:          "https://trackobot.com",
			RequestsPerSec:   1,
			Timeout:          "30s",
			MaxRetries:       3,
			InitialBackoff:   "500ms",
			FailureThreshold: 5,
			BreakerTimeout:   "30s",
		},
		Storage: StorageConfig{
			DataDir:     dataDir,
			BusyTimeout: "5s",
			JournalMode: "WAL",
		},
		Sync: SyncConfig{
			FetchConcurrency: 1,
			Timeout:          "5m",
		},
		Analysis: AnalysisConfig{
			Mode:      "ranked",
			Threshold: 0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultPath returns ~/.preordain/config.toml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".preordain", "config.toml"), nil
}

// Load reads the configuration file at path over the defaults, then applies
// PREORDAIN_* environment overrides. A missing file is not an error. An
// empty path uses DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults only
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Unset variables leave file values untouched
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	return config, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// The file may carry the API token
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	durations := map[string]string{
		"api.timeout":          c.API.Timeout,
		"api.initial_backoff":  c.API.InitialBackoff,
		"api.breaker_timeout":  c.API.BreakerTimeout,
		"storage.busy_timeout": c.Storage.BusyTimeout,
		"sync.timeout":         c.Sync.Timeout,
	}
	for name, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		if d < 0 {
			return fmt.Errorf("%s cannot be negative: %s", name, value)
		}
	}

	if c.API.RequestsPerSec <= 0 {
		return fmt.Errorf("api.requests_per_sec must be positive: %v", c.API.RequestsPerSec)
	}

	if c.Sync.FetchConcurrency < 1 {
		return fmt.Errorf("sync.fetch_concurrency must be at least 1: %d", c.Sync.FetchConcurrency)
	}

	if c.Analysis.Mode == "" {
		return errors.New("analysis.mode cannot be empty")
	}

	if c.Analysis.Threshold < 0 {
		return fmt.Errorf("analysis.threshold cannot be negative: %d", c.Analysis.Threshold)
	}

	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir cannot be empty")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format %q: want console or json", c.Log.Format)
	}

	return nil
}

// RequireAccount reports whether credentials are present for a sync.
func (c *Config) RequireAccount() error {
	if c.Account.Username == "" || c.Account.Token == "" {
		return errors.New("account username and token are required (set [account] or PREORDAIN_ACCOUNT_USERNAME / PREORDAIN_ACCOUNT_TOKEN)")
	}
	return nil
}

// DatabasePath returns the cache index location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Storage.DataDir, "preordain.db")
}

// DatasetDir returns the directory holding raw and normalized dataset files.
func (c *Config) DatasetDir() string {
	return filepath.Join(c.Storage.DataDir, "datasets")
}

// GetAPITimeout returns the per-request timeout as a duration.
func (c *Config) GetAPITimeout() (time.Duration, error) {
	return time.ParseDuration(c.API.Timeout)
}

// GetInitialBackoff returns the first retry delay as a duration.
func (c *Config) GetInitialBackoff() (time.Duration, error) {
	return time.ParseDuration(c.API.InitialBackoff)
}

// GetBreakerTimeout returns the open-breaker period as a duration.
func (c *Config) GetBreakerTimeout() (time.Duration, error) {
	return time.ParseDuration(c.API.BreakerTimeout)
}

// GetBusyTimeout returns the sqlite busy timeout as a duration.
func (c *Config) GetBusyTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Storage.BusyTimeout)
}

// GetSyncTimeout returns the whole-sync timeout as a duration.
func (c *Config) GetSyncTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Sync.Timeout)
}
