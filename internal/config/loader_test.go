package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/fairmeet/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DailyLimit, convey.ShouldEqual, 100)
				convey.So(cfg.CacheSize, convey.ShouldEqual, 1024)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FAIRMEET_ADDR", ":8080")
			_ = os.Setenv("FAIRMEET_DAILY_LIMIT", "25")
			_ = os.Setenv("FAIRMEET_SEARCH_RADIUS_M", "2500.5")
			_ = os.Setenv("FAIRMEET_MAX_WEIGHT", "0.6")
			_ = os.Setenv("FAIRMEET_DISPERSION_WEIGHT", "0.4")
			_ = os.Setenv("FAIRMEET_ROUTING_PROVIDER", "osrm")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DailyLimit, convey.ShouldEqual, 25)
				convey.So(cfg.SearchRadiusM, convey.ShouldEqual, 2500.5)
				convey.So(cfg.MaxWeight, convey.ShouldEqual, 0.6)
				convey.So(cfg.DispersionWeight, convey.ShouldEqual, 0.4)
				convey.So(cfg.RoutingProvider, convey.ShouldEqual, config.ProviderOSRM)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
daily_limit: 10
expires_at: "2030-01-01T00:00:00Z"
timezone: "UTC"
search_provider: elastic
elastic_index: places
cache_ttl_ms: 60000
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("FAIRMEET_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DailyLimit, convey.ShouldEqual, 10)
				convey.So(cfg.SearchProvider, convey.ShouldEqual, config.ProviderElastic)
				convey.So(cfg.ElasticIndex, convey.ShouldEqual, "places")
				convey.So(cfg.CacheTTL(), convey.ShouldEqual, time.Minute)
				exp, err := cfg.Expiry()
				convey.So(err, convey.ShouldBeNil)
				convey.So(exp.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
				loc, err := cfg.Location()
				convey.So(err, convey.ShouldBeNil)
				convey.So(loc.String(), convey.ShouldEqual, "UTC")
			})

			convey.Convey("And partial files merge with defaults", func() {
				convey.So(cfg.SearchRadiusM, convey.ShouldEqual, 4000)
				convey.So(cfg.RunTimeoutMS, convey.ShouldEqual, 15000)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
daily_limit: 10
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("FAIRMEET_CONFIG", tmpFile)
			_ = os.Setenv("FAIRMEET_DAILY_LIMIT", "50")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DailyLimit, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("FAIRMEET_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("FAIRMEET_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("FAIRMEET_DAILY_LIMIT", "plenty")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		cases := map[string]string{
			"FAIRMEET_ADDR":             "",
			"FAIRMEET_DAILY_LIMIT":      "0",
			"FAIRMEET_SEARCH_RADIUS_M":  "-1",
			"FAIRMEET_RUN_TIMEOUT_MS":   "0",
			"FAIRMEET_MAX_WEIGHT":       "-0.1",
			"FAIRMEET_TRAFFIC_NOISE":    "1.5",
			"FAIRMEET_SEARCH_PROVIDER":  "google",
			"FAIRMEET_ROUTING_PROVIDER": "teleport",
			"FAIRMEET_EXPIRES_AT":       "next tuesday",
			"FAIRMEET_TIMEZONE":         "Mars/Olympus_Mons",
		}
		for key, value := range cases {
			_ = os.Setenv(key, value)
			cfg, err := config.Load(ctx)
			_ = os.Unsetenv(key)

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		}
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"FAIRMEET_CONFIG",
		"FAIRMEET_ADDR",
		"FAIRMEET_DAILY_LIMIT",
		"FAIRMEET_SEARCH_RADIUS_M",
		"FAIRMEET_RUN_TIMEOUT_MS",
		"FAIRMEET_MAX_WEIGHT",
		"FAIRMEET_DISPERSION_WEIGHT",
		"FAIRMEET_TRAFFIC_NOISE",
		"FAIRMEET_SEARCH_PROVIDER",
		"FAIRMEET_ROUTING_PROVIDER",
		"FAIRMEET_EXPIRES_AT",
		"FAIRMEET_TIMEZONE",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "fairmeet-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
