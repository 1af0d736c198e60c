// Package config provides CLI configuration management for the b24bot
// command-line tool. It supports loading configuration from YAML files,
// environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultTimeout              = 15 * time.Second
	DefaultLookupTimeout        = 5 * time.Second
	DefaultOutputFormat         = OutputFormatText
	DefaultListenAddr           = "localhost:8484"
	DefaultRedisTTL             = 10 * time.Minute
	DefaultResponsibleID        = 1
	DefaultConfigDir            = ".b24bot"
	DefaultConfigFile           = "config.yaml"
)

// RedisConfig holds the optional webhook-cache settings for serve mode.
type RedisConfig struct {
	// Addr is the Redis server address (host:port). Empty disables caching.
	Addr string `yaml:"addr,omitempty"`

	// DB is the Redis database number.
	DB int `yaml:"db,omitempty"`

	// TTL is how long a cached webhook stays valid.
	TTL time.Duration `yaml:"-"`
}

// Enabled reports whether the webhook cache is configured.
func (r *RedisConfig) Enabled() bool {
	return r != nil && r.Addr != ""
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// SheetURL is the published CSV with name,webhook rows.
	SheetURL string `yaml:"sheet_url,omitempty"`

	// Timeout is the default timeout for portal REST calls.
	Timeout time.Duration `yaml:"timeout"`

	// LookupTimeout bounds the webhook directory fetch.
	LookupTimeout time.Duration `yaml:"lookup_timeout"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// ListenAddr is the bind address for the serve command.
	ListenAddr string `yaml:"listen_addr,omitempty"`

	// DefaultResponsibleID is the assignee of last resort when the portal
	// cannot report the webhook owner.
	DefaultResponsibleID int64 `yaml:"default_responsible_id,omitempty"`

	// LocalStore enables the encrypted local webhook store, consulted
	// before the sheet directory.
	LocalStore bool `yaml:"local_store,omitempty"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// Redis holds the optional webhook-cache settings for serve mode.
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		Timeout:              DefaultTimeout,
		LookupTimeout:        DefaultLookupTimeout,
		OutputFormat:         DefaultOutputFormat,
		ListenAddr:           DefaultListenAddr,
		DefaultResponsibleID: DefaultResponsibleID,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $B24BOT_CONFIG_DIR if set, otherwise ~/.b24bot
func ConfigDir() (string, error) {
	if dir := os.Getenv("B24BOT_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.b24bot/config.yaml or $B24BOT_CONFIG_DIR/config.yaml)
// 3. Environment variables (B24BOT_SHEET_URL, B24BOT_TIMEOUT, ...)
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// configFile mirrors CLIConfig with durations as strings, the way they are
// written in YAML.
type configFile struct {
	SheetURL             string       `yaml:"sheet_url,omitempty"`
	Timeout              string       `yaml:"timeout,omitempty"`
	LookupTimeout        string       `yaml:"lookup_timeout,omitempty"`
	OutputFormat         OutputFormat `yaml:"output_format,omitempty"`
	ListenAddr           string       `yaml:"listen_addr,omitempty"`
	DefaultResponsibleID int64        `yaml:"default_responsible_id,omitempty"`
	LocalStore           bool         `yaml:"local_store,omitempty"`
	Debug                bool         `yaml:"debug,omitempty"`
	Redis                *redisFile   `yaml:"redis,omitempty"`
}

type redisFile struct {
	Addr string `yaml:"addr,omitempty"`
	DB   int    `yaml:"db,omitempty"`
	TTL  string `yaml:"ttl,omitempty"`
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.SheetURL != "" {
		cfg.SheetURL = fileCfg.SheetURL
	}
	if fileCfg.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.Timeout)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		cfg.Timeout = timeout
	}
	if fileCfg.LookupTimeout != "" {
		timeout, err := time.ParseDuration(fileCfg.LookupTimeout)
		if err != nil {
			return fmt.Errorf("parsing lookup_timeout: %w", err)
		}
		cfg.LookupTimeout = timeout
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	if fileCfg.ListenAddr != "" {
		cfg.ListenAddr = fileCfg.ListenAddr
	}
	if fileCfg.DefaultResponsibleID != 0 {
		cfg.DefaultResponsibleID = fileCfg.DefaultResponsibleID
	}
	cfg.LocalStore = fileCfg.LocalStore
	cfg.Debug = fileCfg.Debug

	if fileCfg.Redis != nil {
		redis := &RedisConfig{
			Addr: fileCfg.Redis.Addr,
			DB:   fileCfg.Redis.DB,
			TTL:  DefaultRedisTTL,
		}
		if fileCfg.Redis.TTL != "" {
			ttl, err := time.ParseDuration(fileCfg.Redis.TTL)
			if err != nil {
				return fmt.Errorf("parsing redis.ttl: %w", err)
			}
			redis.TTL = ttl
		}
		cfg.Redis = redis
	}

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("B24BOT_SHEET_URL"); v != "" {
		cfg.SheetURL = v
	}

	if v := os.Getenv("B24BOT_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = timeout
		}
	}

	if v := os.Getenv("B24BOT_LOOKUP_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.LookupTimeout = timeout
		}
	}

	if v := os.Getenv("B24BOT_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if v := os.Getenv("B24BOT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}

	if v := os.Getenv("B24BOT_DEFAULT_RESPONSIBLE_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.DefaultResponsibleID = id
		}
	}

	if v := os.Getenv("B24BOT_LOCAL_STORE"); v == "true" || v == "1" {
		cfg.LocalStore = true
	}

	if v := os.Getenv("B24BOT_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	if v := os.Getenv("B24BOT_REDIS_ADDR"); v != "" {
		if cfg.Redis == nil {
			cfg.Redis = &RedisConfig{TTL: DefaultRedisTTL}
		}
		cfg.Redis.Addr = v
	}

	if v := os.Getenv("B24BOT_REDIS_TTL"); v != "" && cfg.Redis != nil {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Redis.TTL = ttl
		}
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.LookupTimeout <= 0 {
		return fmt.Errorf("lookup_timeout must be positive")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	if c.Redis.Enabled() && c.Redis.TTL <= 0 {
		return fmt.Errorf("redis.ttl must be positive")
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	fileCfg := configFile{
		SheetURL:             cfg.SheetURL,
		Timeout:              cfg.Timeout.String(),
		LookupTimeout:        cfg.LookupTimeout.String(),
		OutputFormat:         cfg.OutputFormat,
		ListenAddr:           cfg.ListenAddr,
		DefaultResponsibleID: cfg.DefaultResponsibleID,
		LocalStore:           cfg.LocalStore,
		Debug:                cfg.Debug,
	}
	if cfg.Redis != nil {
		fileCfg.Redis = &redisFile{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
			TTL:  cfg.Redis.TTL.String(),
		}
	}

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}
