package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"VE_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"VE_DB_MAX_CONNS" default:"4"`

	// Detail-page enrichment knobs. The per-run item cap and the per-domain
	// throttle interval are independent: the cap bounds catch-up volume, the
	// interval bounds burst rate.
	EnrichBatchSize  int           `envconfig:"ENRICH_BATCH_SIZE" default:"25"`
	ThrottleInterval time.Duration `envconfig:"THROTTLE_INTERVAL" default:"2s"`
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`

	ManualEventsPath string `envconfig:"MANUAL_EVENTS_PATH" default:"data/manual_events.json"`

	CategorizeProvider  string `envconfig:"CATEGORIZE_PROVIDER" default:"rules"`
	CategorizeBatchSize int    `envconfig:"CATEGORIZE_BATCH_SIZE" default:"50"`

	HTTPHost string `envconfig:"VE_HTTP_HOST" default:"127.0.0.1"`
	HTTPPort int    `envconfig:"VE_HTTP_PORT" default:"8090"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("VE_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("VE_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("VE_DB_MIN_CONNS (%d) cannot exceed VE_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.EnrichBatchSize < 1 {
		return fmt.Errorf("ENRICH_BATCH_SIZE must be >= 1")
	}
	if c.ThrottleInterval < 0 {
		return fmt.Errorf("THROTTLE_INTERVAL must not be negative")
	}
	if c.FetchTimeout < time.Second {
		return fmt.Errorf("FETCH_TIMEOUT must be >= 1s")
	}
	if c.CategorizeBatchSize < 1 {
		return fmt.Errorf("CATEGORIZE_BATCH_SIZE must be >= 1")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("VE_HTTP_PORT must be a valid port")
	}
	return nil
}
