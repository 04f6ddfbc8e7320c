package config

import (
	"os"
	"strings"
)

// AppConfig is the dashboard configuration, composed from the per-concern structs in this
// package and loaded from environment variables with github.com/caarlos0/env:
//   - http.go: dashboard HTTP server
//   - upstream.go: DarahConnect API client
//   - listing.go: list controller and mutation defaults
//   - database.go: Postgres audit log, Redis, page cache
//   - services.go: service modes and the cache warmer
//   - observability.go: StatsD and Prometheus
type AppConfig struct {
	// IsDev enables template reloading and text logs. DEV=true or NODE_ENV=development.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTP     HTTPConfig
	Upstream UpstreamConfig
	Listing  ListingConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Cache    CacheConfig

	Services ServicesConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to values loaded from env.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Upstream.Sanitize()
	c.Listing.Sanitize()
	c.Cache.Sanitize()
	c.Services.Sanitize()
	c.Observability.Sanitize()

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	c.detectDevMode()
}

// NODE_ENV is honoured as a fallback for DEV.
func (c *AppConfig) detectDevMode() {
	if c.IsDev {
		return
	}
	nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
	c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
}

// GetEnabledServices parses the SERVICES list.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return c.Services.GetEnabledServices()
}

// IsHTTPServerEnabled reports whether the dashboard server runs.
func (c *AppConfig) IsHTTPServerEnabled() bool { return c.Services.IsHTTPServerEnabled() }

// IsCacheWarmerEnabled reports whether the cache warmer runs.
func (c *AppConfig) IsCacheWarmerEnabled() bool { return c.Services.IsCacheWarmerEnabled() }
