package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	envPrefix     = "FAIRMEET_"
	envConfigPath = "FAIRMEET_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FAIRMEET_CONFIG is set
//  3. env (prefix FAIRMEET_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// FAIRMEET_DAILY_LIMIT -> daily_limit. Keys stay flat so underscores
	// match the koanf tags on the struct.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// The file path itself is not a config key.
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and provider names.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DailyLimit < 1:
		return fmt.Errorf("%w: daily_limit must be positive", ErrInvalidConfig)
	case c.SearchRadiusM <= 0:
		return fmt.Errorf("%w: search_radius_m must be positive", ErrInvalidConfig)
	case c.SearchTimeoutMS <= 0 || c.RunTimeoutMS <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	case c.MaxWeight < 0 || c.DispersionWeight < 0 || c.MaxWeight+c.DispersionWeight == 0:
		return fmt.Errorf("%w: fairness weights must be non-negative and not both zero", ErrInvalidConfig)
	case c.UrbanSpeedKMH <= 0:
		return fmt.Errorf("%w: urban_speed_kmh must be positive", ErrInvalidConfig)
	case c.TrafficNoise < 0 || c.TrafficNoise >= 1:
		return fmt.Errorf("%w: traffic_noise must be in [0, 1)", ErrInvalidConfig)
	}

	switch c.SearchProvider {
	case ProviderSimulated, ProviderElastic:
	default:
		return fmt.Errorf("%w: unknown search_provider %q", ErrInvalidConfig, c.SearchProvider)
	}
	switch c.RoutingProvider {
	case ProviderSimulated, ProviderOSRM:
	default:
		return fmt.Errorf("%w: unknown routing_provider %q", ErrInvalidConfig, c.RoutingProvider)
	}

	if _, err := c.Expiry(); err != nil {
		return fmt.Errorf("%w: expires_at must be RFC3339: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: timezone: %w", ErrInvalidConfig, err)
	}
	return nil
}
