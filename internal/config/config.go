// Package config loads the lendingd daemon's on-disk configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ledgermint/lendingcore/native/lending"
)

// HTTPConfig controls the control/read HTTP surface cmd/lendingd serves.
type HTTPConfig struct {
	ListenAddress string        `toml:"ListenAddress"`
	ReadTimeout   time.Duration `toml:"ReadTimeout"`
	WriteTimeout  time.Duration `toml:"WriteTimeout"`
	IdleTimeout   time.Duration `toml:"IdleTimeout"`
}

// AuthConfig controls bearer-token authentication for governance-gated
// endpoints (pause/unpause/add-pool/update-pool/collect-fees).
type AuthConfig struct {
	Enabled    bool          `toml:"Enabled"`
	HMACSecret string        `toml:"HMACSecret"`
	Issuer     string        `toml:"Issuer"`
	Audience   string        `toml:"Audience"`
	ScopeClaim string        `toml:"ScopeClaim"`
	ClockSkew  time.Duration `toml:"ClockSkew"`
}

// RateLimitConfig controls the per-client token bucket applied to the
// mutating position and delegation endpoints (/positions/*, /delegations/*).
type RateLimitConfig struct {
	RatePerSecond float64 `toml:"RatePerSecond"`
	Burst         int     `toml:"Burst"`
}

// ObservabilityConfig controls structured logging and metrics registration.
type ObservabilityConfig struct {
	ServiceName string `toml:"ServiceName"`
	Environment string `toml:"Environment"`
}

// Config is the full on-disk configuration for cmd/lendingd.
type Config struct {
	HTTP          HTTPConfig          `toml:"http"`
	Auth          AuthConfig          `toml:"auth"`
	RateLimit     RateLimitConfig     `toml:"rate_limit"`
	Observability ObservabilityConfig `toml:"observability"`
	Lending       lending.Config      `toml:"lending"`
}

// Load reads the TOML configuration at path, or returns a configuration of
// compiled-in defaults (per EnsureDefaults) if no path is given.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if strings.TrimSpace(path) == "" {
		cfg.Lending.EnsureDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validate default config: %w", err)
		}
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s does not exist", path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.Lending.EnsureDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.ListenAddress == "" {
		c.HTTP.ListenAddress = ":8080"
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 10 * time.Second
	}
	if c.HTTP.IdleTimeout <= 0 {
		c.HTTP.IdleTimeout = 120 * time.Second
	}
	if c.Auth.ScopeClaim == "" {
		c.Auth.ScopeClaim = "scope"
	}
	if c.Auth.ClockSkew <= 0 {
		c.Auth.ClockSkew = 2 * time.Minute
	}
	if c.RateLimit.RatePerSecond <= 0 {
		c.RateLimit.RatePerSecond = 5
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 10
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "lendingd"
	}
}

// Validate checks the daemon-level configuration and delegates pool-default
// validation to the embedded lending.Config.
func (c *Config) Validate() error {
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.HMACSecret) == "" {
		return fmt.Errorf("auth.HMACSecret must be set when auth.Enabled is true")
	}
	return c.Lending.Validate()
}
