package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, "info", cfg.LogLevel)
	require.True(t, cfg.Headless)
	require.Equal(t, 3, cfg.ScrapeMaxRetries)
	require.Equal(t, "title,author", cfg.RequiredFields)
	require.Equal(t, "catalog:incoming", cfg.CatalogStreamKey)
	require.Empty(t, cfg.PostgresURL)

	require.Equal(t, 20*time.Second, cfg.NavTimeout())
	require.Equal(t, 4*time.Second, cfg.RenderWait())
	require.Equal(t, 1500*time.Millisecond, cfg.RetryBaseDelay())
	require.Equal(t, 90*time.Second, cfg.ScrapeDeadline())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("HEADLESS", "false")
	t.Setenv("SCRAPE_MAX_RETRIES", "5")
	t.Setenv("REQUIRED_FIELDS", "title,author,isbn")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.ServerPort)
	require.False(t, cfg.Headless)
	require.Equal(t, 5, cfg.ScrapeMaxRetries)
	require.Equal(t, "title,author,isbn", cfg.RequiredFields)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.ServerPort = "http" }},
		{"port out of range", func(c *Config) { c.ServerPort = "70000" }},
		{"zero nav timeout", func(c *Config) { c.NavTimeoutMS = 0 }},
		{"negative render wait", func(c *Config) { c.RenderWaitMS = -1 }},
		{"zero retries", func(c *Config) { c.ScrapeMaxRetries = 0 }},
		{"negative base delay", func(c *Config) { c.ScrapeRetryBaseDelayMS = -5 }},
		{"negative deadline", func(c *Config) { c.ScrapeDeadlineMS = -1 }},
		{"negative write retries", func(c *Config) { c.CatalogWriteRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("SCRAPE_MAX_RETRIES", "0")

	_, err := Load()
	require.Error(t, err)
}
