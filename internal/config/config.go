// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and FAIRMEET_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
	"time"
)

// Provider names accepted by SearchProvider and RoutingProvider.
const (
	ProviderSimulated = "simulated"
	ProviderElastic   = "elastic"
	ProviderOSRM      = "osrm"
)

// DefaultQuotaDBPath is the quota database file used unless configured otherwise.
const DefaultQuotaDBPath = "fairmeet-quota.db"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DailyLimit is the venue search budget per calendar day.
	DailyLimit int `koanf:"daily_limit"`
	// ExpiresAt is the RFC3339 instant after which every search is refused.
	// Empty disables the expiry gate.
	ExpiresAt string `koanf:"expires_at"`
	// Timezone names the IANA zone used for the quota calendar day.
	Timezone string `koanf:"timezone"`
	// QuotaDBPath is the SQLite file holding the daily counter so it survives
	// restarts. Empty keeps it in memory.
	QuotaDBPath string `koanf:"quota_db_path"`

	// SearchRadiusM is the venue search radius around the centroid.
	SearchRadiusM float64 `koanf:"search_radius_m"`
	// SearchTimeoutMS bounds a single venue search.
	SearchTimeoutMS int `koanf:"search_timeout_ms"`
	// RunTimeoutMS bounds a whole recommendation before the midpoint fallback is used.
	RunTimeoutMS int `koanf:"run_timeout_ms"`

	// MaxWeight and DispersionWeight weight the fairness score terms.
	MaxWeight        float64 `koanf:"max_weight"`
	DispersionWeight float64 `koanf:"dispersion_weight"`

	// CacheSize caps the result cache (<= 0 is unbounded); CacheTTLMS expires entries (0 disables).
	CacheSize  int `koanf:"cache_size"`
	CacheTTLMS int `koanf:"cache_ttl_ms"`

	// WorkerCount and QueueSize size the travel estimate pool.
	WorkerCount int `koanf:"worker_count"`
	QueueSize   int `koanf:"queue_size"`

	// SearchProvider selects the venue finder: simulated or elastic.
	SearchProvider string `koanf:"search_provider"`
	ElasticURL     string `koanf:"elastic_url"`
	ElasticIndex   string `koanf:"elastic_index"`

	// RoutingProvider selects the travel estimator: simulated or osrm.
	RoutingProvider string `koanf:"routing_provider"`
	OSRMURL         string `koanf:"osrm_url"`

	// UrbanSpeedKMH and TrafficNoise parameterise the simulated travel model.
	UrbanSpeedKMH float64 `koanf:"urban_speed_kmh"`
	TrafficNoise  float64 `koanf:"traffic_noise"`

	// SimulatedLatencyMinMS and SimulatedLatencyMaxMS add latency to simulated providers.
	SimulatedLatencyMinMS int `koanf:"simulated_latency_min_ms"`
	SimulatedLatencyMaxMS int `koanf:"simulated_latency_max_ms"`

	// Seed seeds the simulated providers.
	Seed int64 `koanf:"seed"`

	// OTelEndpoint enables OTLP/HTTP trace export when set.
	OTelEndpoint string `koanf:"otel_endpoint"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		DailyLimit:       100,
		ExpiresAt:        "",
		Timezone:         "Local",
		QuotaDBPath:      DefaultQuotaDBPath,
		SearchRadiusM:    4000,
		SearchTimeoutMS:  5000,
		RunTimeoutMS:     15000,
		MaxWeight:        0.7,
		DispersionWeight: 0.3,
		CacheSize:        1024,
		CacheTTLMS:       0,
		WorkerCount:      runtime.NumCPU() * 4,
		QueueSize:        10_000,
		SearchProvider:   ProviderSimulated,
		ElasticURL:       "http://localhost:9200",
		ElasticIndex:     "venues",
		RoutingProvider:  ProviderSimulated,
		OSRMURL:          "http://router.project-osrm.org",
		UrbanSpeedKMH:    30,
		TrafficNoise:     0.2,
		Seed:             42,
	}
}

// SearchTimeout returns SearchTimeoutMS as a duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMS) * time.Millisecond
}

// RunTimeout returns RunTimeoutMS as a duration.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLMS as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMS) * time.Millisecond
}

// SimulatedLatency returns the simulated latency bounds.
func (c *Config) SimulatedLatency() (time.Duration, time.Duration) {
	return time.Duration(c.SimulatedLatencyMinMS) * time.Millisecond,
		time.Duration(c.SimulatedLatencyMaxMS) * time.Millisecond
}

// Expiry parses ExpiresAt. A zero time means no expiry.
func (c *Config) Expiry() (time.Time, error) {
	if c.ExpiresAt == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, c.ExpiresAt)
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
