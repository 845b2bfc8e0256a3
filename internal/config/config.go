package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Storage  StorageConfig  `yaml:"storage"`
	Download DownloadConfig `yaml:"download"`
	Health   HealthConfig   `yaml:"health"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token          string        `yaml:"token" envconfig:"BOT_TOKEN"`
	ConflictDelay  time.Duration `yaml:"conflict_delay" envconfig:"BOT_CONFLICT_DELAY" default:"10s"`
	NetworkDelay   time.Duration `yaml:"network_delay" envconfig:"BOT_NETWORK_DELAY" default:"5s"`
	UpdateTimeout  int           `yaml:"update_timeout" envconfig:"BOT_UPDATE_TIMEOUT" default:"30"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"BOT_REQUEST_TIMEOUT" default:"10m"`
}

// StorageConfig holds workspace staging configuration.
type StorageConfig struct {
	BasePath string `yaml:"base_path" envconfig:"STORAGE_PATH" default:"."`
}

// DownloadConfig holds retrieval engine configuration.
type DownloadConfig struct {
	MaxRetries    int           `yaml:"max_retries" envconfig:"DOWNLOAD_MAX_RETRIES" default:"3"`
	RotationPause time.Duration `yaml:"rotation_pause" envconfig:"DOWNLOAD_ROTATION_PAUSE" default:"2s"`
	CourtesyDelay time.Duration `yaml:"courtesy_delay" envconfig:"DOWNLOAD_COURTESY_DELAY" default:"1s"`
	BackoffStep   time.Duration `yaml:"backoff_step" envconfig:"DOWNLOAD_BACKOFF_STEP" default:"5s"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"DOWNLOAD_TIMEOUT" default:"5m"`
}

// HealthConfig holds the optional operational HTTP endpoint configuration.
type HealthConfig struct {
	Addr string `yaml:"addr" envconfig:"HEALTH_ADDR"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.Download.MaxRetries < 1 {
		return fmt.Errorf("DOWNLOAD_MAX_RETRIES must be at least 1")
	}
	return nil
}
