package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable consulted when no --config
// flag is given.
const EnvConfigPath = "SHORTLIST_CONFIG"

// DefaultPath is used when neither the flag nor the environment names a file.
const DefaultPath = "shortlist.yaml"

// Config is the root configuration for shortlist.
type Config struct {
	Database     DatabaseConfig
	Server       ServerConfig
	Notification NotificationConfig
	Retry        RetryConfig
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // file path for sqlite, connection URL for postgres
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// RetryConfig controls retries of transient store reads.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Database     DatabaseConfig     `yaml:"database"`
	Server       rawServerConfig    `yaml:"server"`
	Notification NotificationConfig `yaml:"notification"`
	Retry        rawRetryConfig     `yaml:"retry"`
}

type rawServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite", DSN: "shortlist.db"},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Notification: NotificationConfig{Type: "log"},
		Retry:        RetryConfig{MaxRetries: 2, BaseDelay: 500 * time.Millisecond},
	}
}

// Resolve picks the config path: the flag value, then $SHORTLIST_CONFIG, then
// DefaultPath. explicit is false only for the DefaultPath fallback.
func Resolve(flagPath string) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, true
	}
	return DefaultPath, false
}

// LoadResolved loads the resolved config file. A missing DefaultPath falls back
// to Default(); a missing explicitly named file is an error.
func LoadResolved(flagPath string) (*Config, error) {
	path, explicit := Resolve(flagPath)
	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	if raw.Database.Driver != "" {
		cfg.Database.Driver = raw.Database.Driver
	}
	if raw.Database.DSN != "" {
		cfg.Database.DSN = raw.Database.DSN
	}
	if raw.Server.Addr != "" {
		cfg.Server.Addr = raw.Server.Addr
	}
	if raw.Server.ReadTimeout != "" {
		cfg.Server.ReadTimeout, err = time.ParseDuration(raw.Server.ReadTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse server.read_timeout %q: %w", raw.Server.ReadTimeout, err)
		}
	}
	if raw.Server.WriteTimeout != "" {
		cfg.Server.WriteTimeout, err = time.ParseDuration(raw.Server.WriteTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse server.write_timeout %q: %w", raw.Server.WriteTimeout, err)
		}
	}
	if raw.Notification.Type != "" {
		cfg.Notification = raw.Notification
	}
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if raw.Retry.BaseDelay != "" {
		cfg.Retry.BaseDelay, err = time.ParseDuration(raw.Retry.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parse retry.base_delay %q: %w", raw.Retry.BaseDelay, err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Database.Driver)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if cfg.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive, got %v", cfg.Server.WriteTimeout)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.MaxRetries > 0 && cfg.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry.base_delay must be positive, got %v", cfg.Retry.BaseDelay)
	}

	return nil
}
