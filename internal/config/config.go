package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the service.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	Headless     bool `mapstructure:"HEADLESS"`
	NavTimeoutMS int  `mapstructure:"NAV_TIMEOUT_MS"`
	RenderWaitMS int  `mapstructure:"RENDER_WAIT_MS"`

	ScrapeMaxRetries       int    `mapstructure:"SCRAPE_MAX_RETRIES"`
	ScrapeRetryBaseDelayMS int    `mapstructure:"SCRAPE_RETRY_BASE_DELAY_MS"`
	ScrapeDeadlineMS       int    `mapstructure:"SCRAPE_DEADLINE_MS"`
	RequiredFields         string `mapstructure:"REQUIRED_FIELDS"`

	PostgresURL         string `mapstructure:"POSTGRES_URL"`
	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	CatalogStreamKey    string `mapstructure:"CATALOG_STREAM_KEY"`
	CatalogWriteRetries int    `mapstructure:"CATALOG_WRITE_RETRIES"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = viper.ReadInConfig()

	// Every key gets a default so AutomaticEnv can resolve it.
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HEADLESS", true)
	viper.SetDefault("NAV_TIMEOUT_MS", 20000)
	viper.SetDefault("RENDER_WAIT_MS", 4000)
	viper.SetDefault("SCRAPE_MAX_RETRIES", 3)
	viper.SetDefault("SCRAPE_RETRY_BASE_DELAY_MS", 1500)
	viper.SetDefault("SCRAPE_DEADLINE_MS", 90000)
	viper.SetDefault("REQUIRED_FIELDS", "title,author")
	viper.SetDefault("POSTGRES_URL", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("CATALOG_STREAM_KEY", "catalog:incoming")
	viper.SetDefault("CATALOG_WRITE_RETRIES", 2)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %q", c.ServerPort)
	}
	if c.NavTimeoutMS <= 0 {
		return fmt.Errorf("NAV_TIMEOUT_MS must be positive, got %d", c.NavTimeoutMS)
	}
	if c.RenderWaitMS < 0 {
		return fmt.Errorf("RENDER_WAIT_MS must not be negative, got %d", c.RenderWaitMS)
	}
	if c.ScrapeMaxRetries < 1 {
		return fmt.Errorf("SCRAPE_MAX_RETRIES must be at least 1, got %d", c.ScrapeMaxRetries)
	}
	if c.ScrapeRetryBaseDelayMS < 0 {
		return fmt.Errorf("SCRAPE_RETRY_BASE_DELAY_MS must not be negative, got %d", c.ScrapeRetryBaseDelayMS)
	}
	if c.ScrapeDeadlineMS < 0 {
		return fmt.Errorf("SCRAPE_DEADLINE_MS must not be negative, got %d", c.ScrapeDeadlineMS)
	}
	if c.CatalogWriteRetries < 0 {
		return fmt.Errorf("CATALOG_WRITE_RETRIES must not be negative, got %d", c.CatalogWriteRetries)
	}
	return nil
}

// NavTimeout is the per-navigation browser timeout.
func (c *Config) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutMS) * time.Millisecond
}

// RenderWait bounds the wait for site-specific content selectors.
func (c *Config) RenderWait() time.Duration {
	return time.Duration(c.RenderWaitMS) * time.Millisecond
}

// RetryBaseDelay is the unit of the linear backoff between attempts.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.ScrapeRetryBaseDelayMS) * time.Millisecond
}

// ScrapeDeadline caps one whole scrape including retries. Zero disables
// the cap.
func (c *Config) ScrapeDeadline() time.Duration {
	return time.Duration(c.ScrapeDeadlineMS) * time.Millisecond
}
