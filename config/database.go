package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DBConfig contains PostgreSQL configuration for the mutation audit log.
type DBConfig struct {
	// Enabled turns on the audit log; without it mutations are not persisted.
	Enabled  bool   `env:"ENABLED"  envDefault:"false"`
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"darah"`
	Password string `env:"PASSWORD" envDefault:"darah"`
	Name     string `env:"NAME"     envDefault:"darah_dashboard"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"`
	// RunMigrationsOnStart applies embedded migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// DSN renders a pgx connection URL. url.URL escapes special characters in credentials.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig contains Redis configuration shared by the page cache and session store.
type RedisConfig struct {
	Enabled            bool     `env:"ENABLED"              envDefault:"true"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// CacheConfig controls the Redis page cache.
type CacheConfig struct {
	// Enabled turns page caching on; it also requires Redis.
	Enabled bool `env:"CACHE_ENABLED" envDefault:"true"`

	// PageTTL bounds how stale a cached list page may be.
	PageTTL time.Duration `env:"CACHE_PAGE_TTL" envDefault:"30s"`

	// Prefix namespaces cache keys.
	Prefix string `env:"CACHE_PREFIX" envDefault:"darah:page"`

	// SessionTTL is the lifetime of a dashboard login session.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.PageTTL < time.Second {
		c.PageTTL = time.Second
	}
	if c.PageTTL > 10*time.Minute {
		c.PageTTL = 10 * time.Minute
	}
	c.Prefix = strings.Trim(strings.TrimSpace(c.Prefix), ":")
	if c.Prefix == "" {
		c.Prefix = "darah:page"
	}
	if c.SessionTTL < 5*time.Minute {
		c.SessionTTL = 5 * time.Minute
	}
}
